package database

import (
	"github.com/lysyi3m/tg-sentinel/app/message"
)

type UnitRepository interface {
	InsertUnit(unit message.ContentUnit) error

	// GetKnownKeys returns up to limit most recent unit keys for the channel
	GetKnownKeys(ownerID, channelID string, limit int) (map[string]bool, error)

	// GetEditState returns unit key -> recorded edit signature for the
	// most recent units of the channel
	GetEditState(ownerID, channelID string, limit int) (map[string]string, error)

	// GetPending returns units with status new or edited, oldest first
	GetPending(ownerID, channelID string, limit int) ([]message.ContentUnit, error)

	// GetRecent returns the most recent units regardless of status
	GetRecent(ownerID, channelID string, limit int) ([]message.ContentUnit, error)

	// ApplyEdit updates a unit's content in place, matching by group key or
	// unit key, and moves it to status edited
	ApplyEdit(ownerID, channelID string, update message.EditUpdate) error

	// MarkFiltered finalizes a unit for the current edit generation.
	// Returns false when no pending unit matched.
	MarkFiltered(ownerID, channelID, unitKey string) (bool, error)

	GetStats() (UnitStats, error)
}

type TrackingRepository interface {
	// CreateLink records the published counterpart of a unit. Re-creating a
	// link for the same unit key replaces the target ids, it never
	// duplicates the row.
	CreateLink(ownerID, channelID, unitKey, targetChannelID string, targetIDs []string) error

	// LookupLink returns nil when no link exists for the unit key
	LookupLink(ownerID, channelID, unitKey string) (*TrackingLink, error)
}
