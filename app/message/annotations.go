package message

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Annotation payloads arrive in three historical forms: structured JSON, a
// legacy single-quoted literal dump, and either of those with a stale
// "MessageEntityType." prefix on the type field. DecodeAnnotations tries them
// in that order. It never fails: input that matches no form yields nil, and a
// malformed entry inside an otherwise parseable payload is preserved as an
// explicit unknown annotation instead of being dropped.
func DecodeAnnotations(raw string) []Annotation {
	s := strings.TrimSpace(raw)
	if s == "" || s == "null" {
		return nil
	}

	entries, ok := parseEntries(s)
	if !ok {
		stripped := strings.ReplaceAll(s, "MessageEntityType.", "")
		entries, ok = parseEntries(stripped)
	}
	if !ok {
		slog.Warn("Unparseable annotation payload, skipping", "payload", truncate(s, 200))
		return nil
	}

	annotations := make([]Annotation, 0, len(entries))
	for _, entry := range entries {
		annotations = append(annotations, normalizeEntry(entry))
	}
	return annotations
}

// EncodeAnnotations serializes annotations in the structured wire form.
func EncodeAnnotations(annotations []Annotation) string {
	if len(annotations) == 0 {
		return ""
	}

	entries := make([]map[string]interface{}, 0, len(annotations))
	for _, a := range annotations {
		entry := map[string]interface{}{
			"type":   string(a.Kind),
			"offset": a.Offset,
			"length": a.Length,
		}
		if a.URL != "" {
			entry["url"] = a.URL
		}
		if a.Language != "" {
			entry["language"] = a.Language
		}
		if a.CustomEmojiID != "" {
			entry["custom_emoji_id"] = a.CustomEmojiID
		}
		entries = append(entries, entry)
	}

	data, err := json.Marshal(entries)
	if err != nil {
		slog.Warn("Failed to encode annotations", "error", err)
		return ""
	}
	return string(data)
}

// WithoutCustomEmoji drops custom emoji annotations. Non-premium operator
// accounts cannot send them.
func WithoutCustomEmoji(annotations []Annotation) []Annotation {
	kept := make([]Annotation, 0, len(annotations))
	for _, a := range annotations {
		if a.Kind != KindCustomEmoji {
			kept = append(kept, a)
		}
	}
	return kept
}

func parseEntries(s string) ([]map[string]interface{}, bool) {
	var entries []map[string]interface{}
	if err := json.Unmarshal([]byte(s), &entries); err == nil {
		return entries, true
	}

	// Legacy literal form: single-quoted dump with Python booleans
	literal := strings.NewReplacer("'", `"`, ": True", ": true", ": False", ": false", ": None", ": null").Replace(s)
	if err := json.Unmarshal([]byte(literal), &entries); err == nil {
		return entries, true
	}

	return nil, false
}

func normalizeEntry(entry map[string]interface{}) Annotation {
	typeRaw, ok := entry["type"].(string)
	if !ok {
		slog.Warn("Annotation entry without type", "entry", fmt.Sprint(entry))
		return Annotation{Kind: KindUnknown, Raw: fmt.Sprint(entry)}
	}

	annotation := Annotation{
		Kind:          normalizeKind(typeRaw),
		Offset:        toInt(entry["offset"]),
		Length:        toInt(entry["length"]),
		URL:           toString(entry["url"]),
		Language:      toString(entry["language"]),
		CustomEmojiID: toString(entry["custom_emoji_id"]),
	}
	if annotation.Kind == KindUnknown {
		annotation.Raw = typeRaw
	}
	return annotation
}

// normalizeKind maps a wire type string to an annotation kind. A stale enum
// prefix ("MessageEntityType.BOLD") is stripped before matching.
func normalizeKind(raw string) AnnotationKind {
	name := raw
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}

	switch strings.ToUpper(name) {
	case "BOLD":
		return KindBold
	case "ITALIC":
		return KindItalic
	case "STRIKETHROUGH":
		return KindStrikethrough
	case "CODE":
		return KindCode
	case "PRE":
		return KindPre
	case "TEXT_LINK", "TEXTURL":
		return KindTextLink
	case "URL":
		return KindURL
	case "CUSTOM_EMOJI":
		return KindCustomEmoji
	case "MENTION":
		return KindMention
	case "HASHTAG":
		return KindHashtag
	default:
		return KindUnknown
	}
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
	}
	return 0
}

func toString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return fmt.Sprintf("%.0f", s)
	}
	return ""
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
