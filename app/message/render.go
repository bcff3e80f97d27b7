package message

import (
	"sort"
	"strings"
	"unicode/utf16"
)

// RenderAnnotations applies formatting annotations to text, producing
// Markdown-style output:
//
//	bold          -> **text**
//	italic        -> __text__
//	strikethrough -> ~~text~~
//	code          -> `text`
//	pre           -> ```text```
//	text_link/url -> [text](url) when a URL is present
//
// Annotation offsets are UTF-16 code units and are translated to rune
// indexes via a prefix-sum table. Replacements are applied back to front so
// earlier insertions never shift offsets of annotations not yet applied.
// Unknown kinds and malformed spans pass through unchanged.
func RenderAnnotations(text string, annotations []Annotation) string {
	if len(annotations) == 0 {
		return text
	}

	runes := []rune(text)
	prefix := utf16Prefix(runes)

	type span struct {
		start, end int
		kind       AnnotationKind
		url        string
	}

	spans := make([]span, 0, len(annotations))
	for _, a := range annotations {
		spans = append(spans, span{
			start: charIndex(prefix, a.Offset),
			end:   charIndex(prefix, a.Offset+a.Length),
			kind:  a.Kind,
			url:   a.URL,
		})
	}

	sort.Slice(spans, func(i, j int) bool {
		return spans[i].start > spans[j].start
	})

	for _, sp := range spans {
		s, e := sp.start, sp.end
		if s < 0 {
			s = 0
		}
		if e < s {
			e = s
		}
		if s >= len(runes) {
			continue
		}
		if e > len(runes) {
			e = len(runes)
		}
		substring := string(runes[s:e])

		var repl string
		switch sp.kind {
		case KindBold:
			repl = "**" + substring + "**"
		case KindStrikethrough:
			repl = "~~" + substring + "~~"
		case KindItalic:
			repl = "__" + substring + "__"
		case KindTextLink, KindURL:
			if sp.url != "" {
				repl = "[" + escapeLinkText(substring) + "](" + sp.url + ")"
			} else {
				repl = substring
			}
		case KindCode:
			repl = "`" + substring + "`"
		case KindPre:
			repl = "```" + substring + "```"
		default:
			repl = substring
		}

		runes = append(runes[:s], append([]rune(repl), runes[e:]...)...)
	}

	return string(runes)
}

// utf16Prefix builds a table where prefix[i] is the number of UTF-16 code
// units occupied by the first i runes.
func utf16Prefix(runes []rune) []int {
	prefix := make([]int, len(runes)+1)
	for i, r := range runes {
		units := utf16.RuneLen(r)
		if units < 0 {
			units = 1
		}
		prefix[i+1] = prefix[i] + units
	}
	return prefix
}

// charIndex translates a UTF-16 unit offset to a rune index: the lowest i
// with prefix[i] >= u. Offsets beyond the text clamp to its length,
// non-positive offsets clamp to 0.
func charIndex(prefix []int, u int) int {
	if u <= 0 {
		return 0
	}
	if u >= prefix[len(prefix)-1] {
		return len(prefix) - 1
	}
	return sort.SearchInts(prefix, u)
}

// escapeLinkText escapes the characters that would break the [text](url)
// form when they appear inside the link text.
func escapeLinkText(s string) string {
	return strings.NewReplacer("]", "\\]", "(", "\\(", ")", "\\)").Replace(s)
}
