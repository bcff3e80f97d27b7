package message

import (
	"testing"
)

func TestDecodeAnnotations_StructuredJSON(t *testing.T) {
	raw := `[{"type": "bold", "offset": 0, "length": 4}, {"type": "text_link", "offset": 5, "length": 3, "url": "https://example.com"}]`

	annotations := DecodeAnnotations(raw)
	if len(annotations) != 2 {
		t.Fatalf("Expected 2 annotations, got %d", len(annotations))
	}

	if annotations[0].Kind != KindBold {
		t.Errorf("Expected bold, got '%s'", annotations[0].Kind)
	}
	if annotations[0].Offset != 0 || annotations[0].Length != 4 {
		t.Errorf("Unexpected span: offset=%d length=%d", annotations[0].Offset, annotations[0].Length)
	}
	if annotations[1].Kind != KindTextLink {
		t.Errorf("Expected text_link, got '%s'", annotations[1].Kind)
	}
	if annotations[1].URL != "https://example.com" {
		t.Errorf("Expected URL preserved, got '%s'", annotations[1].URL)
	}
}

func TestDecodeAnnotations_PrefixedEnumForm(t *testing.T) {
	raw := `[{"type": "MessageEntityType.BOLD", "offset": 2, "length": 6}]`

	annotations := DecodeAnnotations(raw)
	if len(annotations) != 1 {
		t.Fatalf("Expected 1 annotation, got %d", len(annotations))
	}
	if annotations[0].Kind != KindBold {
		t.Errorf("Expected bold from prefixed enum form, got '%s'", annotations[0].Kind)
	}
}

func TestDecodeAnnotations_LegacyLiteralForm(t *testing.T) {
	raw := `[{'type': 'MessageEntityType.ITALIC', 'offset': 1, 'length': 3, 'url': None}]`

	annotations := DecodeAnnotations(raw)
	if len(annotations) != 1 {
		t.Fatalf("Expected 1 annotation, got %d", len(annotations))
	}
	if annotations[0].Kind != KindItalic {
		t.Errorf("Expected italic from legacy literal form, got '%s'", annotations[0].Kind)
	}
	if annotations[0].Offset != 1 || annotations[0].Length != 3 {
		t.Errorf("Unexpected span: offset=%d length=%d", annotations[0].Offset, annotations[0].Length)
	}
}

func TestDecodeAnnotations_UnknownKindPreserved(t *testing.T) {
	raw := `[{"type": "MessageEntityType.SPOILER", "offset": 0, "length": 4}]`

	annotations := DecodeAnnotations(raw)
	if len(annotations) != 1 {
		t.Fatalf("Expected 1 annotation, got %d", len(annotations))
	}
	if annotations[0].Kind != KindUnknown {
		t.Errorf("Expected unknown kind, got '%s'", annotations[0].Kind)
	}
	if annotations[0].Raw == "" {
		t.Error("Expected original type string to be preserved on unknown annotation")
	}
	if annotations[0].Offset != 0 || annotations[0].Length != 4 {
		t.Errorf("Unknown annotation should keep its span, got offset=%d length=%d", annotations[0].Offset, annotations[0].Length)
	}
}

func TestDecodeAnnotations_Garbage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"null literal", "null"},
		{"not json at all", "definitely not annotations"},
		{"truncated json", `[{"type": "bold", "off`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			annotations := DecodeAnnotations(tt.raw)
			if len(annotations) != 0 {
				t.Errorf("Expected no annotations for garbage input, got %d", len(annotations))
			}
		})
	}
}

func TestDecodeAnnotations_CustomEmojiID(t *testing.T) {
	raw := `[{"type": "MessageEntityType.CUSTOM_EMOJI", "offset": 0, "length": 2, "custom_emoji_id": 5368324170671202286}]`

	annotations := DecodeAnnotations(raw)
	if len(annotations) != 1 {
		t.Fatalf("Expected 1 annotation, got %d", len(annotations))
	}
	if annotations[0].Kind != KindCustomEmoji {
		t.Errorf("Expected custom_emoji, got '%s'", annotations[0].Kind)
	}
	if annotations[0].CustomEmojiID == "" {
		t.Error("Expected custom emoji id to be preserved")
	}
}

func TestWithoutCustomEmoji(t *testing.T) {
	annotations := []Annotation{
		{Kind: KindBold, Offset: 0, Length: 4},
		{Kind: KindCustomEmoji, Offset: 5, Length: 2, CustomEmojiID: "123"},
		{Kind: KindItalic, Offset: 8, Length: 3},
	}

	kept := WithoutCustomEmoji(annotations)
	if len(kept) != 2 {
		t.Fatalf("Expected 2 annotations after stripping, got %d", len(kept))
	}
	for _, a := range kept {
		if a.Kind == KindCustomEmoji {
			t.Error("Custom emoji annotation should have been removed")
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	annotations := []Annotation{
		{Kind: KindBold, Offset: 0, Length: 4},
		{Kind: KindTextLink, Offset: 5, Length: 3, URL: "https://example.com"},
	}

	decoded := DecodeAnnotations(EncodeAnnotations(annotations))
	if len(decoded) != 2 {
		t.Fatalf("Expected 2 annotations after round trip, got %d", len(decoded))
	}
	if decoded[0].Kind != KindBold || decoded[1].Kind != KindTextLink {
		t.Errorf("Kinds not preserved: %s, %s", decoded[0].Kind, decoded[1].Kind)
	}
	if decoded[1].URL != "https://example.com" {
		t.Errorf("URL not preserved: '%s'", decoded[1].URL)
	}
}
