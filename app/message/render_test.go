package message

import (
	"strings"
	"testing"
)

func TestRenderAnnotations_NoAnnotations(t *testing.T) {
	text := "plain message"
	result := RenderAnnotations(text, nil)
	if result != text {
		t.Errorf("Expected text unchanged, got '%s'", result)
	}
}

func TestRenderAnnotations_Bold(t *testing.T) {
	result := RenderAnnotations("hello world", []Annotation{
		{Kind: KindBold, Offset: 0, Length: 5},
	})
	if result != "**hello** world" {
		t.Errorf("Expected '**hello** world', got '%s'", result)
	}
}

func TestRenderAnnotations_AllKinds(t *testing.T) {
	tests := []struct {
		name     string
		kind     AnnotationKind
		url      string
		expected string
	}{
		{"bold", KindBold, "", "**abc** def"},
		{"italic", KindItalic, "", "__abc__ def"},
		{"strikethrough", KindStrikethrough, "", "~~abc~~ def"},
		{"code", KindCode, "", "`abc` def"},
		{"pre", KindPre, "", "```abc``` def"},
		{"text link", KindTextLink, "https://example.com", "[abc](https://example.com) def"},
		{"link without url", KindTextLink, "", "abc def"},
		{"unknown passthrough", KindUnknown, "", "abc def"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RenderAnnotations("abc def", []Annotation{
				{Kind: tt.kind, Offset: 0, Length: 3, URL: tt.url},
			})
			if result != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, result)
			}
		})
	}
}

func TestRenderAnnotations_MultipleBackToFront(t *testing.T) {
	// Two annotations; applying the earlier one first would shift the later
	// one's offsets.
	result := RenderAnnotations("one two three", []Annotation{
		{Kind: KindBold, Offset: 0, Length: 3},
		{Kind: KindItalic, Offset: 8, Length: 5},
	})
	if result != "**one** two __three__" {
		t.Errorf("Expected '**one** two __three__', got '%s'", result)
	}
}

func TestRenderAnnotations_UTF16Offsets(t *testing.T) {
	// The emoji occupies 2 UTF-16 units but 1 rune; offsets past it must
	// account for that.
	text := "\U0001F600 bold"
	result := RenderAnnotations(text, []Annotation{
		{Kind: KindBold, Offset: 3, Length: 4},
	})
	expected := "\U0001F600 **bold**"
	if result != expected {
		t.Errorf("Expected '%s', got '%s'", expected, result)
	}
}

func TestRenderAnnotations_OffsetClamping(t *testing.T) {
	// Negative offsets clamp to 0, spans past the end clamp to the end,
	// spans entirely past the end are skipped.
	result := RenderAnnotations("abcdef", []Annotation{
		{Kind: KindBold, Offset: -2, Length: 5},
	})
	if result != "**abc**def" {
		t.Errorf("Expected '**abc**def', got '%s'", result)
	}

	result = RenderAnnotations("abcdef", []Annotation{
		{Kind: KindBold, Offset: 4, Length: 100},
	})
	if result != "abcd**ef**" {
		t.Errorf("Expected 'abcd**ef**', got '%s'", result)
	}

	result = RenderAnnotations("abcdef", []Annotation{
		{Kind: KindBold, Offset: 50, Length: 3},
	})
	if result != "abcdef" {
		t.Errorf("Expected text unchanged for out-of-range span, got '%s'", result)
	}
}

func TestRenderAnnotations_LinkTextEscaping(t *testing.T) {
	result := RenderAnnotations("a(b)c]", []Annotation{
		{Kind: KindTextLink, Offset: 0, Length: 6, URL: "https://example.com"},
	})
	expected := `[a\(b\)c\]](https://example.com)`
	if result != expected {
		t.Errorf("Expected '%s', got '%s'", expected, result)
	}
}

func TestRenderAnnotations_PreservesText(t *testing.T) {
	// Rendering only inserts markers; every original character survives.
	text := "Привет \U0001F600 world, code and more"
	annotations := []Annotation{
		{Kind: KindBold, Offset: 0, Length: 6},
		{Kind: KindCode, Offset: 17, Length: 4},
		{Kind: KindStrikethrough, Offset: 23, Length: 8},
	}
	result := RenderAnnotations(text, annotations)

	stripped := strings.NewReplacer("**", "", "`", "", "~~", "").Replace(result)
	if stripped != text {
		t.Errorf("Rendering lost characters: got '%s' from '%s'", stripped, text)
	}
}

func TestCharIndex_Boundaries(t *testing.T) {
	runes := []rune("a\U0001F600b")
	prefix := utf16Prefix(runes)

	// a=1 unit, emoji=2 units, b=1 unit
	if got := charIndex(prefix, 0); got != 0 {
		t.Errorf("Offset 0 should map to index 0, got %d", got)
	}
	if got := charIndex(prefix, 1); got != 1 {
		t.Errorf("Offset 1 should map to index 1, got %d", got)
	}
	if got := charIndex(prefix, 3); got != 2 {
		t.Errorf("Offset 3 should map to index 2, got %d", got)
	}
	if got := charIndex(prefix, 4); got != 3 {
		t.Errorf("Offset at total unit count should map to len, got %d", got)
	}
	if got := charIndex(prefix, 10); got != 3 {
		t.Errorf("Offset beyond end should clamp to len, got %d", got)
	}
	if got := charIndex(prefix, -5); got != 0 {
		t.Errorf("Negative offset should clamp to 0, got %d", got)
	}
}
