// Package transfer delivers content units to the target channel and keeps the
// published copies in sync with their sources. It picks a delivery route per
// unit (native forward or re-upload), handles protocol caption limits and
// records tracking links for later edits and retractions.
package transfer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/tg-sentinel/app/config"
	"github.com/lysyi3m/tg-sentinel/app/database"
	"github.com/lysyi3m/tg-sentinel/app/message"
	"github.com/lysyi3m/tg-sentinel/app/transport"
)

type Selector struct {
	transport     transport.Transport
	tracking      database.TrackingRepository
	targetChannel string
	mediaDir      string
}

var _ SelectorInterface = (*Selector)(nil)

func NewSelector(tp transport.Transport, tracking database.TrackingRepository, targetChannel, mediaDir string) *Selector {
	return &Selector{
		transport:     tp,
		tracking:      tracking,
		targetChannel: targetChannel,
		mediaDir:      mediaDir,
	}
}

// Publish delivers a unit to the target channel and records a tracking link
// mapping the unit to the message ids the target assigned.
func (s *Selector) Publish(ctx context.Context, unit message.ContentUnit, transfer config.ConfigTransfer) error {
	reupload := false

	switch transfer.Method {
	case config.MethodReloading:
		reupload = true
	case config.MethodForwarding:
		reupload = false
	default:
		// Smart: forward whenever the protocol allows it, fall back to
		// re-uploading for protected content
		reupload = unit.Protected
	}

	var sent int
	var err error

	if reupload {
		sent, err = s.reupload(ctx, unit, transfer)
	} else {
		sent, err = s.forward(ctx, unit)
	}
	if err != nil {
		return err
	}

	if err := s.recordLink(ctx, unit, sent); err != nil {
		return err
	}

	slog.Debug("Published unit", "channel", unit.Channel, "unit", unit.UnitKey, "reupload", reupload, "messages", sent)

	return nil
}

// Retract deletes the published copy of a unit from the target channel.
func (s *Selector) Retract(ctx context.Context, link *database.TrackingLink) error {
	if err := s.transport.Delete(ctx, link.TargetChannelID, link.TargetIDs); err != nil {
		return fmt.Errorf("failed to delete published messages: %w", err)
	}

	slog.Debug("Retracted unit", "unit", link.UnitKey, "target", link.TargetChannelID, "messages", len(link.TargetIDs))

	return nil
}

func (s *Selector) forward(ctx context.Context, unit message.ContentUnit) (int, error) {
	if err := s.transport.Forward(ctx, s.targetChannel, unit.Channel, unit.PartIDs); err != nil {
		return 0, fmt.Errorf("failed to forward unit %s: %w", unit.UnitKey, err)
	}

	return len(unit.PartIDs), nil
}

// recordLink learns the ids the target channel assigned to the freshly sent
// messages and stores the source-to-target mapping. The last sentCount
// messages of the target are the ones this publish produced.
func (s *Selector) recordLink(ctx context.Context, unit message.ContentUnit, sentCount int) error {
	if sentCount == 0 {
		return nil
	}

	items, err := s.transport.FetchHistory(ctx, s.targetChannel, sentCount)
	if err != nil {
		return fmt.Errorf("failed to resolve published message ids: %w", err)
	}

	// History arrives most recent first, tracking links keep source order
	targetIDs := make([]string, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		targetIDs = append(targetIDs, items[i].ID)
	}

	if err := s.tracking.CreateLink(unit.OwnerID, unit.Channel, unit.UnitKey, s.targetChannel, targetIDs); err != nil {
		return fmt.Errorf("failed to record tracking link: %w", err)
	}

	return nil
}

// annotationsFor decodes a unit's annotations and applies the channel's
// custom-emoji policy. Custom emoji only render for paid accounts, so most
// channels strip them from re-uploaded copies.
func annotationsFor(raw string, transfer config.ConfigTransfer) []message.Annotation {
	annotations := message.DecodeAnnotations(raw)
	if transfer.RemoveCustomEmoji {
		annotations = message.WithoutCustomEmoji(annotations)
	}

	return annotations
}
