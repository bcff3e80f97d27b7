package database

import (
	"database/sql"
	"fmt"
)

var _ TrackingRepository = (*trackingRepository)(nil)

type trackingRepository struct {
	db *DB
}

func NewTrackingRepository(db *DB) TrackingRepository {
	return &trackingRepository{db: db}
}

func (r *trackingRepository) CreateLink(ownerID, channelID, unitKey, targetChannelID string, targetIDs []string) error {
	_, err := r.db.Exec(`
		INSERT INTO tracking_links (owner_id, channel_id, unit_key, target_channel_id, target_ids)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, channel_id, unit_key) DO UPDATE SET
			target_channel_id = excluded.target_channel_id,
			target_ids = excluded.target_ids
	`, ownerID, channelID, unitKey, targetChannelID, encodeList(targetIDs))

	if err != nil {
		return fmt.Errorf("failed to create tracking link: %w", err)
	}

	return nil
}

func (r *trackingRepository) LookupLink(ownerID, channelID, unitKey string) (*TrackingLink, error) {
	var link TrackingLink
	var targetIDs, createdAt string

	err := r.db.QueryRow(`
		SELECT owner_id, channel_id, unit_key, target_channel_id, target_ids, created_at
		FROM tracking_links
		WHERE owner_id = ? AND channel_id = ? AND unit_key = ?
	`, ownerID, channelID, unitKey).Scan(&link.OwnerID, &link.ChannelID,
		&link.UnitKey, &link.TargetChannelID, &targetIDs, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lookup tracking link: %w", err)
	}

	link.TargetIDs = decodeList(targetIDs)
	link.CreatedAt = textToTime(createdAt)

	return &link, nil
}
