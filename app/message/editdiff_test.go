package message

import (
	"testing"
	"time"
)

func date(hour int) *time.Time {
	t := time.Date(2024, 5, 1, hour, 0, 0, 0, time.UTC)
	return &t
}

func sig(times ...*time.Time) string {
	out := ""
	for i, t := range times {
		if i > 0 {
			out += ","
		}
		out += t.UTC().Format(EditDateLayout)
	}
	return out
}

func TestDiffEdits_SingleChanged(t *testing.T) {
	fetched := []RawItem{
		{ID: "1", Text: "updated text", EditDate: date(12)},
	}
	recorded := map[string]string{"1": ""}

	edited, unknown := DiffEdits(fetched, recorded)
	if len(unknown) != 0 {
		t.Errorf("Expected no unknown keys, got %v", unknown)
	}
	if len(edited) != 1 {
		t.Fatalf("Expected 1 edit, got %d", len(edited))
	}
	if edited[0].UnitKey != "1" {
		t.Errorf("Expected unit key '1', got '%s'", edited[0].UnitKey)
	}
	if edited[0].Text != "updated text" {
		t.Errorf("Expected updated text carried, got '%s'", edited[0].Text)
	}
	if edited[0].EditSignature != sig(date(12)) {
		t.Errorf("Expected new signature, got '%s'", edited[0].EditSignature)
	}
}

func TestDiffEdits_SingleUnchanged(t *testing.T) {
	fetched := []RawItem{
		{ID: "1", Text: "same", EditDate: date(12)},
		{ID: "2", Text: "never edited"},
	}
	recorded := map[string]string{
		"1": sig(date(12)),
		"2": "",
	}

	edited, _ := DiffEdits(fetched, recorded)
	if len(edited) != 0 {
		t.Errorf("Expected no edits, got %d", len(edited))
	}
}

func TestDiffEdits_UnknownKey(t *testing.T) {
	fetched := []RawItem{
		{ID: "99", Text: "old message beyond ingest window"},
	}

	edited, unknown := DiffEdits(fetched, map[string]string{})
	if len(edited) != 0 {
		t.Errorf("Expected no edits for unknown key, got %d", len(edited))
	}
	if len(unknown) != 1 || unknown[0] != "99" {
		t.Errorf("Expected key '99' reported unknown, got %v", unknown)
	}
}

func TestDiffEdits_GroupMemberNewerThanMax(t *testing.T) {
	fetched := []RawItem{
		{ID: "1", GroupID: "g", Text: "caption v2", EditDate: date(15)},
		{ID: "2", GroupID: "g"},
	}
	recorded := map[string]string{"g": sig(date(10), date(11))}

	edited, _ := DiffEdits(fetched, recorded)
	if len(edited) != 1 {
		t.Fatalf("Expected 1 edit, got %d", len(edited))
	}
	if edited[0].GroupID != "g" {
		t.Errorf("Expected group id carried, got '%s'", edited[0].GroupID)
	}
	// For albums the new signature is the latest edit date only
	if edited[0].EditSignature != sig(date(15)) {
		t.Errorf("Expected latest edit date as signature, got '%s'", edited[0].EditSignature)
	}
	if edited[0].EditedAt == nil || !edited[0].EditedAt.Equal(*date(15)) {
		t.Errorf("Expected edited at %v, got %v", date(15), edited[0].EditedAt)
	}
}

func TestDiffEdits_GroupKnownDateNotEdited(t *testing.T) {
	// One of the fetched edit dates is already recorded: not an edit.
	fetched := []RawItem{
		{ID: "1", GroupID: "g", EditDate: date(10)},
		{ID: "2", GroupID: "g", EditDate: date(15)},
	}
	recorded := map[string]string{"g": sig(date(10))}

	edited, _ := DiffEdits(fetched, recorded)
	if len(edited) != 0 {
		t.Errorf("Expected no edits when a fetched date is already recorded, got %d", len(edited))
	}
}

func TestDiffEdits_GroupOlderDateOnly(t *testing.T) {
	// All fetched dates differ but none exceeds the recorded maximum.
	fetched := []RawItem{
		{ID: "1", GroupID: "g", EditDate: date(9)},
	}
	recorded := map[string]string{"g": sig(date(10))}

	edited, _ := DiffEdits(fetched, recorded)
	if len(edited) != 0 {
		t.Errorf("Expected no edits for older dates, got %d", len(edited))
	}
}

func TestDiffEdits_GroupFirstEverEdit(t *testing.T) {
	fetched := []RawItem{
		{ID: "1", GroupID: "g", Text: "caption", EditDate: date(12)},
		{ID: "2", GroupID: "g"},
	}
	recorded := map[string]string{"g": ""}

	edited, _ := DiffEdits(fetched, recorded)
	if len(edited) != 1 {
		t.Fatalf("Expected 1 edit for first-ever album edit, got %d", len(edited))
	}
}

func TestDiffEdits_GroupNeverEdited(t *testing.T) {
	fetched := []RawItem{
		{ID: "1", GroupID: "g"},
		{ID: "2", GroupID: "g"},
	}
	recorded := map[string]string{"g": ""}

	edited, _ := DiffEdits(fetched, recorded)
	if len(edited) != 0 {
		t.Errorf("Expected no edits for an album without edit dates, got %d", len(edited))
	}
}
