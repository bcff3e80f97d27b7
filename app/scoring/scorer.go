package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/lysyi3m/tg-sentinel/app/config"
	"github.com/lysyi3m/tg-sentinel/app/message"
)

// Scorer builds moderation prompts and extracts numeric verdicts from the
// oracle's free-text output.
type Scorer struct {
	oracle Generator
}

func NewScorer(oracle Generator) *Scorer {
	return &Scorer{oracle: oracle}
}

// Score renders the unit's text with its formatting annotations, substitutes
// it into the channel's prompt template and returns the extracted verdict.
// A unit without text is never sent to the oracle and scores 0.
func (s *Scorer) Score(ctx context.Context, unit message.ContentUnit, scoring config.ConfigScoring) (int, error) {
	if strings.TrimSpace(unit.Text) == "" {
		slog.Debug("Unit without text, assigning verdict 0", "unit", unit.UnitKey)
		return 0, nil
	}

	rendered := message.RenderAnnotations(unit.Text, message.DecodeAnnotations(unit.RawAnnotations))
	prompt := BuildPrompt(scoring.PromptTemplate, unit.Channel, rendered, scoring.Tag)

	output, err := s.oracle.Generate(ctx, prompt, scoring.MaxTokens)
	if err != nil {
		return 0, fmt.Errorf("failed to score unit %s: %w", unit.UnitKey, err)
	}

	verdict := ExtractVerdict(output, scoring.Tag)
	slog.Debug("Unit scored", "unit", unit.UnitKey, "channel", unit.Channel, "verdict", verdict)

	return verdict, nil
}

// BuildPrompt substitutes the rendered text, the source channel identifier
// and the score tag into the operator-supplied template. The tag slot is
// named {Scoring_parameter}, {tag} is accepted as a shorthand.
func BuildPrompt(template, channelID, text, tag string) string {
	return strings.NewReplacer(
		"{channel_id}", channelID,
		"{text}", text,
		"{Scoring_parameter}", tag,
		"{tag}", tag,
	).Replace(template)
}

// ExtractVerdict searches oracle output for "[<tag>: <integer>]" and returns
// the first match. No parseable value means verdict 0, not an error. The
// integer is used as-is: the scale is operator-defined and deliberately not
// bounds-checked here.
func ExtractVerdict(output, tag string) int {
	pattern := regexp.MustCompile(`\[` + regexp.QuoteMeta(tag) + `:\s*(\d+)\]`)

	match := pattern.FindStringSubmatch(output)
	if match == nil {
		return 0
	}

	verdict, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}

	return verdict
}
