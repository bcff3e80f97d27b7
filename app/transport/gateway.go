package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/lysyi3m/tg-sentinel/app/message"
)

var _ Transport = (*Gateway)(nil)

// Gateway talks HTTP/JSON to the MTProto gateway sidecar that holds the
// operator session. Transient failures are retried with backoff; protocol
// rejections surface as typed errors.
type Gateway struct {
	baseURL string
	client  *retryablehttp.Client
}

func NewGateway(baseURL string) *Gateway {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 1 * time.Second
	client.RetryWaitMax = 5 * time.Second
	client.Logger = nil
	// Uploads and downloads are slow; the budget still has to be bounded
	client.HTTPClient.Timeout = 120 * time.Second

	return &Gateway{
		baseURL: baseURL,
		client:  client,
	}
}

type wireItem struct {
	ID              string `json:"id"`
	GroupID         string `json:"media_group_id"`
	Date            string `json:"date"`
	EditDate        string `json:"edit_date"`
	Text            string `json:"text"`
	Entities        string `json:"entities"`
	Media           string `json:"media"`
	FileName        string `json:"file_name"`
	Protected       bool   `json:"protected"`
	ReplyToID       string `json:"reply_to_id"`
	WebPreview      bool   `json:"web_preview"`
	HasCaption      bool   `json:"has_caption"`
	ForwardFrom     string `json:"forward_from"`
	ForwardFromChat string `json:"forward_from_chat"`
}

func (g *Gateway) FetchHistory(ctx context.Context, channel string, limit int) ([]Item, error) {
	var result struct {
		Messages []wireItem `json:"messages"`
	}

	err := g.call(ctx, "/history", map[string]interface{}{
		"channel": channel,
		"limit":   limit,
	}, &result)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history for %s: %w", channel, err)
	}

	items := make([]Item, 0, len(result.Messages))
	for _, w := range result.Messages {
		items = append(items, w.toItem())
	}
	return items, nil
}

func (g *Gateway) GetMessage(ctx context.Context, channel, id string) (*Item, error) {
	var result struct {
		Message wireItem `json:"message"`
	}

	err := g.call(ctx, "/messages/get", map[string]interface{}{
		"channel": channel,
		"id":      id,
	}, &result)
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}

	item := result.Message.toItem()
	return &item, nil
}

func (g *Gateway) Forward(ctx context.Context, targetChannel, sourceChannel string, ids []string) error {
	return g.call(ctx, "/forward", map[string]interface{}{
		"target": targetChannel,
		"source": sourceChannel,
		"ids":    ids,
	}, nil)
}

func (g *Gateway) Download(ctx context.Context, channel, id, destDir string) (string, error) {
	var result struct {
		Path string `json:"path"`
	}

	err := g.call(ctx, "/download", map[string]interface{}{
		"channel": channel,
		"id":      id,
		"dir":     destDir,
	}, &result)
	if err != nil {
		return "", fmt.Errorf("failed to download media for %s: %w", id, err)
	}

	return result.Path, nil
}

func (g *Gateway) SendText(ctx context.Context, channel, text string, annotations []message.Annotation) error {
	return g.call(ctx, "/send_text", map[string]interface{}{
		"channel":  channel,
		"text":     text,
		"entities": message.EncodeAnnotations(annotations),
	}, nil)
}

func (g *Gateway) SendMediaGroup(ctx context.Context, channel string, media []Media) error {
	entries := make([]map[string]interface{}, 0, len(media))
	for _, m := range media {
		entries = append(entries, map[string]interface{}{
			"kind":     m.Kind,
			"path":     m.Path,
			"caption":  m.Caption,
			"entities": message.EncodeAnnotations(m.Annotations),
		})
	}

	return g.call(ctx, "/send_media_group", map[string]interface{}{
		"channel": channel,
		"media":   entries,
	}, nil)
}

func (g *Gateway) SendDocument(ctx context.Context, channel, path, caption string, annotations []message.Annotation) error {
	return g.call(ctx, "/send_document", map[string]interface{}{
		"channel":  channel,
		"path":     path,
		"caption":  caption,
		"entities": message.EncodeAnnotations(annotations),
	}, nil)
}

func (g *Gateway) EditText(ctx context.Context, channel, id, text string, annotations []message.Annotation) error {
	return g.call(ctx, "/edit_text", map[string]interface{}{
		"channel":  channel,
		"id":       id,
		"text":     text,
		"entities": message.EncodeAnnotations(annotations),
	}, nil)
}

func (g *Gateway) EditCaption(ctx context.Context, channel, id, caption string, annotations []message.Annotation) error {
	return g.call(ctx, "/edit_caption", map[string]interface{}{
		"channel":  channel,
		"id":       id,
		"caption":  caption,
		"entities": message.EncodeAnnotations(annotations),
	}, nil)
}

func (g *Gateway) Delete(ctx context.Context, channel string, ids []string) error {
	return g.call(ctx, "/delete", map[string]interface{}{
		"channel": channel,
		"ids":     ids,
	}, nil)
}

func (g *Gateway) call(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, "POST", g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	var envelope struct {
		Ok     bool            `json:"ok"`
		Error  string          `json:"error"`
		Detail string          `json:"detail"`
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}

	if !envelope.Ok {
		return mapGatewayError(envelope.Error, envelope.Detail)
	}

	if out != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("failed to decode gateway result: %w", err)
		}
	}

	return nil
}

func (w wireItem) toItem() Item {
	item := Item{
		ID:              w.ID,
		GroupID:         w.GroupID,
		Text:            w.Text,
		RawAnnotations:  w.Entities,
		Media:           w.Media,
		FileName:        w.FileName,
		Protected:       w.Protected,
		ReplyToID:       w.ReplyToID,
		WebPreview:      w.WebPreview,
		HasCaption:      w.HasCaption,
		ForwardFrom:     w.ForwardFrom,
		ForwardFromChat: w.ForwardFromChat,
	}

	if t, err := time.Parse(time.RFC3339, w.Date); err == nil {
		item.Date = t
	}
	if w.EditDate != "" {
		if t, err := time.Parse(time.RFC3339, w.EditDate); err == nil {
			item.EditDate = &t
		}
	}

	return item
}
