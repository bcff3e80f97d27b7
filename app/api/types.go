package api

import (
	"time"

	"github.com/lysyi3m/tg-sentinel/app/config"
	"github.com/lysyi3m/tg-sentinel/app/database"
	"github.com/lysyi3m/tg-sentinel/app/message"
)

type Handler struct {
	unitRepo     database.UnitRepository
	trackingRepo database.TrackingRepository
	configCache  *config.Cache
}

// UnitPayload is the wire form of a content unit, shared by the store
// endpoints for both directions.
type UnitPayload struct {
	OwnerID         string   `json:"user_id"`
	ChannelID       string   `json:"channel_id"`
	UnitKey         string   `json:"unit_key"`
	PartIDs         []string `json:"part_ids"`
	GroupID         string   `json:"group_id,omitempty"`
	Media           []string `json:"media"`
	CreatedAt       string   `json:"created_at"`
	EditedAt        string   `json:"edited_at,omitempty"`
	EditSignature   string   `json:"edit_signature,omitempty"`
	Entities        string   `json:"entities,omitempty"`
	Text            string   `json:"text"`
	Status          string   `json:"status"`
	Protected       bool     `json:"protected"`
	ReplyToID       string   `json:"reply_to_id,omitempty"`
	ForwardFrom     string   `json:"forward_from,omitempty"`
	ForwardFromChat string   `json:"forward_from_chat,omitempty"`
}

type ApplyUpdateRequest struct {
	UnitKey       string `json:"unit_key" binding:"required"`
	GroupID       string `json:"group_id"`
	Text          string `json:"text"`
	Entities      string `json:"entities"`
	EditSignature string `json:"edit_signature"`
	EditedAt      string `json:"edited_at"`
}

type FilterRequest struct {
	UnitKey string `json:"unit_key" binding:"required"`
}

type TrackingRequest struct {
	UnitKey         string   `json:"unit_key" binding:"required"`
	TargetChannelID string   `json:"target_channel_id" binding:"required"`
	TargetIDs       []string `json:"target_ids" binding:"required"`
}

func toUnitPayload(unit message.ContentUnit) UnitPayload {
	payload := UnitPayload{
		OwnerID:         unit.OwnerID,
		ChannelID:       unit.Channel,
		UnitKey:         unit.UnitKey,
		PartIDs:         unit.PartIDs,
		GroupID:         unit.GroupID,
		Media:           unit.Media,
		CreatedAt:       unit.CreatedAt.UTC().Format(time.RFC3339),
		EditSignature:   unit.EditSignature,
		Entities:        unit.RawAnnotations,
		Text:            unit.Text,
		Status:          string(unit.Status),
		Protected:       unit.Protected,
		ReplyToID:       unit.ReplyToID,
		ForwardFrom:     unit.ForwardFrom,
		ForwardFromChat: unit.ForwardFromChat,
	}

	if unit.EditedAt != nil {
		payload.EditedAt = unit.EditedAt.UTC().Format(time.RFC3339)
	}

	return payload
}

func fromUnitPayload(payload UnitPayload) (message.ContentUnit, error) {
	createdAt, err := time.Parse(time.RFC3339, payload.CreatedAt)
	if err != nil {
		return message.ContentUnit{}, err
	}

	unit := message.ContentUnit{
		UnitKey:         payload.UnitKey,
		PartIDs:         payload.PartIDs,
		GroupID:         payload.GroupID,
		OwnerID:         payload.OwnerID,
		Channel:         payload.ChannelID,
		Media:           payload.Media,
		CreatedAt:       createdAt,
		EditSignature:   payload.EditSignature,
		RawAnnotations:  payload.Entities,
		Text:            payload.Text,
		Status:          message.Status(payload.Status),
		Protected:       payload.Protected,
		ReplyToID:       payload.ReplyToID,
		ForwardFrom:     payload.ForwardFrom,
		ForwardFromChat: payload.ForwardFromChat,
	}

	if unit.Status == "" {
		unit.Status = message.StatusNew
	}

	if payload.EditedAt != "" {
		editedAt, err := time.Parse(time.RFC3339, payload.EditedAt)
		if err != nil {
			return message.ContentUnit{}, err
		}
		unit.EditedAt = &editedAt
	}

	return unit, nil
}
