package message

import (
	"strings"
	"time"
)

// EditDateLayout is the canonical edit-timestamp form used in signatures.
// RFC 3339 in UTC compares chronologically as plain strings.
const EditDateLayout = time.RFC3339

// EditUpdate describes one unit whose source content changed after the store
// recorded it.
type EditUpdate struct {
	UnitKey        string
	GroupID        string
	Text           string
	RawAnnotations string
	EditSignature  string // latest edit date observed
	EditedAt       *time.Time
}

// editSignature joins the edit dates of a group's parts, in part order.
// A unit without edits has an empty signature.
func editSignature(parts []RawItem) string {
	var dates []string
	for _, part := range parts {
		if part.EditDate != nil {
			dates = append(dates, part.EditDate.UTC().Format(EditDateLayout))
		}
	}
	return strings.Join(dates, ",")
}

// DiffEdits compares a wide-window fetch against the signatures the store
// recorded per unit key. It returns the units whose content changed and the
// keys the store does not know at all (older than the ingestion window, left
// for the next ingestion pass).
//
// A single message is edited when its signature differs from the recorded
// one. An album is edited when none of its fetched edit dates is among the
// recorded ones and at least one exceeds the recorded maximum.
func DiffEdits(fetched []RawItem, recorded map[string]string) (edited []EditUpdate, unknown []string) {
	type agg struct {
		key      string
		groupID  string
		text     string
		rawAnn   string
		dates    []string
		editedAt *time.Time
	}

	var order []string
	byKey := make(map[string]*agg)

	for _, item := range fetched {
		key := item.Key()
		a, ok := byKey[key]
		if !ok {
			a = &agg{
				key:     key,
				groupID: item.GroupID,
				text:    item.Text,
				rawAnn:  item.RawAnnotations,
			}
			byKey[key] = a
			order = append(order, key)
		}
		if item.EditDate != nil {
			a.dates = append(a.dates, item.EditDate.UTC().Format(EditDateLayout))
			if a.editedAt == nil || item.EditDate.After(*a.editedAt) {
				t := *item.EditDate
				a.editedAt = &t
			}
		}
	}

	for _, key := range order {
		a := byKey[key]

		recordedSig, known := recorded[key]
		if !known {
			unknown = append(unknown, key)
			continue
		}

		if a.groupID == "" {
			sig := strings.Join(a.dates, ",")
			if sig != recordedSig {
				edited = append(edited, EditUpdate{
					UnitKey:        a.key,
					Text:           a.text,
					RawAnnotations: a.rawAnn,
					EditSignature:  sig,
					EditedAt:       a.editedAt,
				})
			}
			continue
		}

		if groupEdited(a.dates, splitDates(recordedSig)) {
			latest := maxDate(a.dates)
			edited = append(edited, EditUpdate{
				UnitKey:        a.key,
				GroupID:        a.groupID,
				Text:           a.text,
				RawAnnotations: a.rawAnn,
				EditSignature:  latest,
				EditedAt:       a.editedAt,
			})
		}
	}

	return edited, unknown
}

func groupEdited(fetchedDates, recordedDates []string) bool {
	if len(fetchedDates) == 0 {
		return false
	}
	if len(recordedDates) == 0 {
		return true
	}

	recordedSet := make(map[string]bool, len(recordedDates))
	for _, d := range recordedDates {
		recordedSet[d] = true
	}

	for _, d := range fetchedDates {
		if recordedSet[d] {
			return false
		}
	}

	recordedMax := maxDate(recordedDates)
	for _, d := range fetchedDates {
		if d > recordedMax {
			return true
		}
	}
	return false
}

func splitDates(signature string) []string {
	var dates []string
	for _, d := range strings.Split(signature, ",") {
		if d != "" {
			dates = append(dates, d)
		}
	}
	return dates
}

func maxDate(dates []string) string {
	max := ""
	for _, d := range dates {
		if d > max {
			max = d
		}
	}
	return max
}
