package scoring

import (
	"context"
	"strings"
	"testing"

	"github.com/lysyi3m/tg-sentinel/app/config"
	"github.com/lysyi3m/tg-sentinel/app/message"
)

type fakeOracle struct {
	response string
	prompts  []string
}

func (f *fakeOracle) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, nil
}

func testScoring() config.ConfigScoring {
	return config.ConfigScoring{
		Tag:            "AD_Score",
		Gap:            75,
		MaxTokens:      256,
		PromptTemplate: "Channel {channel_id}, message: \"{text}\". Answer [{tag}: X].",
	}
}

func TestExtractVerdict(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		tag      string
		expected int
	}{
		{"simple match", "reasoning blah blah [AD_Score: 40]", "AD_Score", 40},
		{"no spaces required", "[AD_Score:85]", "AD_Score", 85},
		{"first match wins", "[AD_Score: 10] and later [AD_Score: 90]", "AD_Score", 10},
		{"no match", "this output forgot the verdict", "AD_Score", 0},
		{"wrong tag", "[Spam_Score: 50]", "AD_Score", 0},
		{"custom tag", "done. [Spam_Score: 25]", "Spam_Score", 25},
		{"no bounds check", "[AD_Score: 100000]", "AD_Score", 100000},
		{"empty output", "", "AD_Score", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractVerdict(tt.output, tt.tag); got != tt.expected {
				t.Errorf("Expected verdict %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("ch={channel_id} text={text} fmt=[{Scoring_parameter}: X]", "durov", "hello", "AD_Score")
	expected := "ch=durov text=hello fmt=[AD_Score: X]"
	if prompt != expected {
		t.Errorf("Expected '%s', got '%s'", expected, prompt)
	}

	// {tag} is the shorthand form of the same slot
	prompt = BuildPrompt("fmt=[{tag}: X]", "durov", "hello", "Spam_Score")
	if prompt != "fmt=[Spam_Score: X]" {
		t.Errorf("Expected the shorthand placeholder substituted, got '%s'", prompt)
	}
}

func TestScorer_Score(t *testing.T) {
	oracle := &fakeOracle{response: "clearly promotional. [AD_Score: 90]"}
	scorer := NewScorer(oracle)

	unit := message.ContentUnit{
		UnitKey: "1",
		Channel: "durov",
		Text:    "Buy now!",
	}

	verdict, err := scorer.Score(context.Background(), unit, testScoring())
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if verdict != 90 {
		t.Errorf("Expected verdict 90, got %d", verdict)
	}
	if len(oracle.prompts) != 1 {
		t.Fatalf("Expected one oracle call, got %d", len(oracle.prompts))
	}
	if !strings.Contains(oracle.prompts[0], "Buy now!") {
		t.Errorf("Prompt should contain the message text: %s", oracle.prompts[0])
	}
	if !strings.Contains(oracle.prompts[0], "durov") {
		t.Errorf("Prompt should contain the channel id: %s", oracle.prompts[0])
	}
}

func TestScorer_Score_RendersAnnotations(t *testing.T) {
	oracle := &fakeOracle{response: "[AD_Score: 0]"}
	scorer := NewScorer(oracle)

	unit := message.ContentUnit{
		UnitKey:        "1",
		Channel:        "durov",
		Text:           "click here",
		RawAnnotations: `[{"type": "text_link", "offset": 6, "length": 4, "url": "https://example.com"}]`,
	}

	if _, err := scorer.Score(context.Background(), unit, testScoring()); err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if !strings.Contains(oracle.prompts[0], "[here](https://example.com)") {
		t.Errorf("Prompt should carry markdown-rendered links: %s", oracle.prompts[0])
	}
}

func TestScorer_Score_EmptyTextSkipsOracle(t *testing.T) {
	oracle := &fakeOracle{response: "[AD_Score: 99]"}
	scorer := NewScorer(oracle)

	unit := message.ContentUnit{UnitKey: "1", Channel: "durov", Text: "   "}

	verdict, err := scorer.Score(context.Background(), unit, testScoring())
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if verdict != 0 {
		t.Errorf("Expected verdict 0 for empty text, got %d", verdict)
	}
	if len(oracle.prompts) != 0 {
		t.Error("Oracle must not be called for a unit without text")
	}
}
