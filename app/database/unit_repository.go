package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lysyi3m/tg-sentinel/app/message"
)

var _ UnitRepository = (*unitRepository)(nil)

type unitRepository struct {
	db *DB
}

func NewUnitRepository(db *DB) UnitRepository {
	return &unitRepository{db: db}
}

func (r *unitRepository) InsertUnit(unit message.ContentUnit) error {
	// The unique key keeps one row per unit; a concurrent ingest pass that
	// raced us simply loses the insert.
	_, err := r.db.Exec(`
		INSERT INTO units (
			unit_key, part_ids, group_id, owner_id, channel_id, media,
			created_at, edited_at, edit_signature, forward_from,
			forward_from_chat, reply_to_id, annotations, text, status, is_protected
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner_id, channel_id, unit_key) DO NOTHING
	`, unit.UnitKey, encodeList(unit.PartIDs), unit.GroupID, unit.OwnerID,
		unit.Channel, encodeList(unit.Media), timeToText(unit.CreatedAt),
		nullableTime(unit.EditedAt), unit.EditSignature, unit.ForwardFrom,
		unit.ForwardFromChat, unit.ReplyToID, unit.RawAnnotations, unit.Text,
		string(unit.Status), unit.Protected)

	if err != nil {
		return fmt.Errorf("failed to insert unit: %w", err)
	}

	return nil
}

func (r *unitRepository) GetKnownKeys(ownerID, channelID string, limit int) (map[string]bool, error) {
	rows, err := r.db.Query(`
		SELECT unit_key
		FROM units
		WHERE owner_id = ? AND channel_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, ownerID, channelID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get known keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]bool)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan unit key: %w", err)
		}
		keys[key] = true
	}

	return keys, rows.Err()
}

func (r *unitRepository) GetEditState(ownerID, channelID string, limit int) (map[string]string, error) {
	rows, err := r.db.Query(`
		SELECT unit_key, edit_signature
		FROM units
		WHERE owner_id = ? AND channel_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, ownerID, channelID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get edit state: %w", err)
	}
	defer rows.Close()

	state := make(map[string]string)
	for rows.Next() {
		var key, signature string
		if err := rows.Scan(&key, &signature); err != nil {
			return nil, fmt.Errorf("failed to scan edit state: %w", err)
		}
		state[key] = signature
	}

	return state, rows.Err()
}

func (r *unitRepository) GetPending(ownerID, channelID string, limit int) ([]message.ContentUnit, error) {
	return r.selectUnits(`
		WHERE owner_id = ? AND channel_id = ?
		  AND status IN ('new', 'edited')
		ORDER BY id ASC
		LIMIT ?
	`, ownerID, channelID, limit)
}

func (r *unitRepository) GetRecent(ownerID, channelID string, limit int) ([]message.ContentUnit, error) {
	return r.selectUnits(`
		WHERE owner_id = ? AND channel_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, ownerID, channelID, limit)
}

func (r *unitRepository) ApplyEdit(ownerID, channelID string, update message.EditUpdate) error {
	_, err := r.db.Exec(`
		UPDATE units
		SET edited_at = ?,
		    edit_signature = ?,
		    text = ?,
		    annotations = ?,
		    status = 'edited'
		WHERE owner_id = ? AND channel_id = ?
		  AND (
		      (group_id IS NOT NULL AND group_id != '' AND group_id = ?)
		      OR ((group_id IS NULL OR group_id = '') AND unit_key = ?)
		  )
	`, nullableTime(update.EditedAt), update.EditSignature, update.Text,
		update.RawAnnotations, ownerID, channelID, update.GroupID, update.UnitKey)

	if err != nil {
		return fmt.Errorf("failed to apply edit: %w", err)
	}

	return nil
}

func (r *unitRepository) MarkFiltered(ownerID, channelID, unitKey string) (bool, error) {
	result, err := r.db.Exec(`
		UPDATE units
		SET status = 'filtered'
		WHERE owner_id = ? AND channel_id = ? AND unit_key = ?
		  AND status IN ('new', 'edited')
	`, ownerID, channelID, unitKey)
	if err != nil {
		return false, fmt.Errorf("failed to mark unit filtered: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected > 0, nil
}

func (r *unitRepository) GetStats() (UnitStats, error) {
	var stats UnitStats

	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM units GROUP BY status`)
	if err != nil {
		return stats, fmt.Errorf("failed to get unit stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return stats, fmt.Errorf("failed to scan unit stats: %w", err)
		}
		stats.Total += count
		switch message.Status(status) {
		case message.StatusNew:
			stats.New = count
		case message.StatusEdited:
			stats.Edited = count
		case message.StatusFiltered:
			stats.Filtered = count
		}
	}
	if err := rows.Err(); err != nil {
		return stats, err
	}

	err = r.db.QueryRow(`SELECT COUNT(*) FROM tracking_links`).Scan(&stats.Links)
	if err != nil {
		return stats, fmt.Errorf("failed to count tracking links: %w", err)
	}

	return stats, nil
}

func (r *unitRepository) selectUnits(where string, args ...interface{}) ([]message.ContentUnit, error) {
	rows, err := r.db.Query(`
		SELECT unit_key, part_ids, COALESCE(group_id, ''), owner_id, channel_id,
		       COALESCE(media, '[]'), COALESCE(created_at, ''), COALESCE(edited_at, ''),
		       edit_signature, COALESCE(forward_from, ''), COALESCE(forward_from_chat, ''),
		       COALESCE(reply_to_id, ''), COALESCE(annotations, ''), text, status, is_protected
		FROM units
	`+where, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query units: %w", err)
	}
	defer rows.Close()

	var units []message.ContentUnit
	for rows.Next() {
		var unit message.ContentUnit
		var partIDs, media, createdAt, editedAt, status string

		err := rows.Scan(&unit.UnitKey, &partIDs, &unit.GroupID, &unit.OwnerID,
			&unit.Channel, &media, &createdAt, &editedAt, &unit.EditSignature,
			&unit.ForwardFrom, &unit.ForwardFromChat, &unit.ReplyToID,
			&unit.RawAnnotations, &unit.Text, &status, &unit.Protected)
		if err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}

		unit.PartIDs = decodeList(partIDs)
		unit.Media = decodeList(media)
		unit.Status = message.Status(status)
		unit.CreatedAt = textToTime(createdAt)
		if editedAt != "" {
			t := textToTime(editedAt)
			unit.EditedAt = &t
		}

		units = append(units, unit)
	}

	return units, rows.Err()
}

func encodeList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeList(raw string) []string {
	var values []string
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	return values
}

func timeToText(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func textToTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}
