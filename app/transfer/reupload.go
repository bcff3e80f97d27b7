package transfer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lysyi3m/tg-sentinel/app/config"
	"github.com/lysyi3m/tg-sentinel/app/message"
	"github.com/lysyi3m/tg-sentinel/app/transport"
)

// mediaPart is one downloaded album member awaiting re-upload.
type mediaPart struct {
	id   string
	kind string
	path string
}

// reupload republishes a unit from scratch: media is downloaded from the
// source and sent as new messages, which works for protected content the
// protocol refuses to forward. Returns the number of messages produced in
// the target channel.
func (s *Selector) reupload(ctx context.Context, unit message.ContentUnit, transfer config.ConfigTransfer) (int, error) {
	annotations := annotationsFor(unit.RawAnnotations, transfer)

	groupable, documents := classifyParts(unit)

	// Nothing to download: plain text, or a link whose preview the target
	// regenerates on its own
	if len(groupable) == 0 && len(documents) == 0 {
		if unit.Text == "" {
			return 0, nil
		}
		if err := s.transport.SendText(ctx, s.targetChannel, unit.Text, annotations); err != nil {
			return 0, fmt.Errorf("failed to send text for unit %s: %w", unit.UnitKey, err)
		}
		return 1, nil
	}

	destDir := filepath.Join(s.mediaDir, unit.Channel, unit.UnitKey)
	defer os.RemoveAll(destDir)

	if err := s.download(ctx, unit.Channel, destDir, groupable); err != nil {
		return 0, err
	}
	if err := s.download(ctx, unit.Channel, destDir, documents); err != nil {
		return 0, err
	}

	sent := 0
	captionPlaced := false

	if len(groupable) > 0 {
		n, err := s.sendGroup(ctx, unit, groupable, annotations)
		if err != nil {
			return sent, err
		}
		sent += n
		captionPlaced = true
	}

	for _, part := range documents {
		caption := ""
		var captionAnnotations []message.Annotation
		if !captionPlaced {
			caption = unit.Text
			captionAnnotations = annotations
		}

		n, err := s.sendDocument(ctx, unit, part, caption, captionAnnotations)
		if err != nil {
			return sent, err
		}
		sent += n
		captionPlaced = true
	}

	return sent, nil
}

// sendGroup sends photos and videos as one album with the unit's text as the
// caption of the first entry. When the caption exceeds the protocol limit the
// album is resent captionless and the text follows as a separate message.
func (s *Selector) sendGroup(ctx context.Context, unit message.ContentUnit, parts []mediaPart, annotations []message.Annotation) (int, error) {
	media := make([]transport.Media, len(parts))
	for i, part := range parts {
		media[i] = transport.Media{Kind: part.kind, Path: part.path}
	}
	media[0].Caption = unit.Text
	media[0].Annotations = annotations

	err := s.transport.SendMediaGroup(ctx, s.targetChannel, media)
	if err == nil {
		return len(media), nil
	}
	if !errors.Is(err, transport.ErrCaptionTooLong) {
		return 0, fmt.Errorf("failed to send media group for unit %s: %w", unit.UnitKey, err)
	}

	media[0].Caption = ""
	media[0].Annotations = nil

	if err := s.transport.SendMediaGroup(ctx, s.targetChannel, media); err != nil {
		return 0, fmt.Errorf("failed to send captionless media group for unit %s: %w", unit.UnitKey, err)
	}
	if err := s.transport.SendText(ctx, s.targetChannel, unit.Text, annotations); err != nil {
		return len(media), fmt.Errorf("failed to send overflow text for unit %s: %w", unit.UnitKey, err)
	}

	return len(media) + 1, nil
}

func (s *Selector) sendDocument(ctx context.Context, unit message.ContentUnit, part mediaPart, caption string, annotations []message.Annotation) (int, error) {
	err := s.transport.SendDocument(ctx, s.targetChannel, part.path, caption, annotations)
	if err == nil {
		return 1, nil
	}
	if !errors.Is(err, transport.ErrCaptionTooLong) {
		return 0, fmt.Errorf("failed to send document for unit %s: %w", unit.UnitKey, err)
	}

	if err := s.transport.SendDocument(ctx, s.targetChannel, part.path, "", nil); err != nil {
		return 0, fmt.Errorf("failed to send captionless document for unit %s: %w", unit.UnitKey, err)
	}
	if err := s.transport.SendText(ctx, s.targetChannel, caption, annotations); err != nil {
		return 1, fmt.Errorf("failed to send overflow text for unit %s: %w", unit.UnitKey, err)
	}

	return 2, nil
}

func (s *Selector) download(ctx context.Context, channel, destDir string, parts []mediaPart) error {
	for i := range parts {
		path, err := s.transport.Download(ctx, channel, parts[i].id, destDir)
		if err != nil {
			return fmt.Errorf("failed to download media %s: %w", parts[i].id, err)
		}
		parts[i].path = path
	}

	return nil
}

// classifyParts splits a unit's members into album-capable media (photos and
// videos share one media group) and standalone documents. Parts without
// downloadable media, including link previews, belong to neither.
func classifyParts(unit message.ContentUnit) (groupable, documents []mediaPart) {
	for i, id := range unit.PartIDs {
		kind := ""
		if i < len(unit.Media) {
			kind = unit.Media[i]
		}

		switch kind {
		case "", "webpage":
			continue
		case "photo", "video":
			groupable = append(groupable, mediaPart{id: id, kind: kind})
		default:
			documents = append(documents, mediaPart{id: id, kind: kind})
		}
	}

	return groupable, documents
}
