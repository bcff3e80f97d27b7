package message

import (
	"time"
)

// GroupItems clusters a fetch of raw items into logical groups. Items of one
// album appear contiguously within a fetch, so consecutive items sharing a
// key form one group and a key change starts a new group.
func GroupItems(items []RawItem) [][]RawItem {
	var groups [][]RawItem
	var current []RawItem

	for _, item := range items {
		if len(current) > 0 && current[0].Key() == item.Key() {
			current = append(current, item)
			continue
		}
		if len(current) > 0 {
			groups = append(groups, current)
		}
		current = []RawItem{item}
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}

	return groups
}

// MergeGroup merges the parts of one group into a single content unit.
// Text and annotations come from the earliest part carrying them, media is
// the ordered list over all parts, the created timestamp is the first
// part's, the edit timestamp is the maximum over parts.
func MergeGroup(parts []RawItem, ownerID string) ContentUnit {
	first := parts[0]

	unit := ContentUnit{
		UnitKey:         first.Key(),
		GroupID:         first.GroupID,
		OwnerID:         ownerID,
		Channel:         first.Channel,
		CreatedAt:       first.Date,
		ReplyToID:       first.ReplyToID,
		Status:          StatusNew,
		Protected:       first.Protected,
		ForwardFrom:     first.ForwardFrom,
		ForwardFromChat: first.ForwardFromChat,
	}

	var maxEdit *time.Time
	for _, part := range parts {
		unit.PartIDs = append(unit.PartIDs, part.ID)
		unit.Media = append(unit.Media, part.Media)

		if unit.Text == "" && part.Text != "" {
			unit.Text = part.Text
		}
		if unit.RawAnnotations == "" && part.RawAnnotations != "" {
			unit.RawAnnotations = part.RawAnnotations
		}
		if part.EditDate != nil && (maxEdit == nil || part.EditDate.After(*maxEdit)) {
			maxEdit = part.EditDate
		}
	}

	unit.EditedAt = maxEdit
	unit.EditSignature = editSignature(parts)

	return unit
}

// NewUnits reconciles a fetch against the store's known unit keys for the
// channel and returns the units not yet known, parts merged. A group whose
// key is already known is discarded whole; a group that survives is merged
// from all of its currently fetched members.
func NewUnits(items []RawItem, known map[string]bool, ownerID string) []ContentUnit {
	var units []ContentUnit
	for _, group := range GroupItems(items) {
		if known[group[0].Key()] {
			continue
		}
		units = append(units, MergeGroup(group, ownerID))
	}
	return units
}
