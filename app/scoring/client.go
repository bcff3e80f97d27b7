package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Generator produces free text from a prompt under a token budget.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

var _ Generator = (*OracleClient)(nil)

// OracleClient talks to the scoring oracle's HTTP API.
type OracleClient struct {
	baseURL string
	client  *retryablehttp.Client
}

func NewOracleClient(baseURL string) *OracleClient {
	client := retryablehttp.NewClient()
	client.RetryMax = 1
	client.RetryWaitMin = 2 * time.Second
	client.RetryWaitMax = 10 * time.Second
	client.Logger = nil
	// Inference is slow on small hardware, but the call must still be bounded
	client.HTTPClient.Timeout = 300 * time.Second

	return &OracleClient{
		baseURL: baseURL,
		client:  client,
	}
}

func (c *OracleClient) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"prompt":     prompt,
		"max_tokens": maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal oracle request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, "POST", c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create oracle request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("oracle request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read oracle response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("oracle HTTP error %d: %s", resp.StatusCode, string(data))
	}

	var result struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("failed to decode oracle response: %w", err)
	}

	return result.Response, nil
}

// Ping hits the oracle's root endpoint. Used at startup to wait for the
// model to finish loading.
func (c *OracleClient) Ping(ctx context.Context) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("failed to create ping request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("oracle ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("oracle ping HTTP error: %d", resp.StatusCode)
	}

	return nil
}
