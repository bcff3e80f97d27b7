package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf16"

	"github.com/lysyi3m/tg-sentinel/app/config"
	"github.com/lysyi3m/tg-sentinel/app/database"
	"github.com/lysyi3m/tg-sentinel/app/message"
	"github.com/lysyi3m/tg-sentinel/app/transport"
)

// captionLimit is the protocol's maximum caption length in UTF-16 code units.
const captionLimit = 1024

// PropagateEdit rewrites the published copy of a unit with its edited source
// content. Only the first published message carries text, so only it is
// touched. A copy that already matches counts as success.
func (s *Selector) PropagateEdit(ctx context.Context, unit message.ContentUnit, link *database.TrackingLink, transfer config.ConfigTransfer) error {
	// Forwarded messages cannot be edited, the protocol rejects it. The
	// copy keeps its original content until the unit is re-published.
	// Under smart transfer unprotected content was forwarded too.
	if transfer.Method == config.MethodForwarding ||
		(transfer.Method == config.MethodSmart && !unit.Protected) {
		slog.Debug("Skipping edit propagation for forwarded unit", "unit", unit.UnitKey)
		return nil
	}

	if len(link.TargetIDs) == 0 {
		return fmt.Errorf("tracking link for unit %s has no target ids", unit.UnitKey)
	}

	firstID := link.TargetIDs[0]

	item, err := s.transport.GetMessage(ctx, link.TargetChannelID, firstID)
	if err != nil {
		return fmt.Errorf("failed to load published message %s: %w", firstID, err)
	}

	annotations := annotationsFor(unit.RawAnnotations, transfer)

	// The published copy drives the choice. A copy sent without a caption,
	// including the captionless media fallback, takes a text edit.
	if item.HasCaption {
		err = s.editCaption(ctx, link.TargetChannelID, firstID, unit.Text, annotations)
	} else {
		err = s.transport.EditText(ctx, link.TargetChannelID, firstID, unit.Text, annotations)
	}

	if errors.Is(err, transport.ErrNotModified) {
		// The copy already carries this content, nothing to do
		err = nil
	}
	if err != nil {
		return fmt.Errorf("failed to propagate edit for unit %s: %w", unit.UnitKey, err)
	}

	slog.Debug("Propagated edit", "unit", unit.UnitKey, "target", link.TargetChannelID, "message", firstID)

	return nil
}

// editCaption applies a caption edit, truncating the text when the source
// allows longer messages than the target's caption limit.
func (s *Selector) editCaption(ctx context.Context, channel, id, text string, annotations []message.Annotation) error {
	err := s.transport.EditCaption(ctx, channel, id, text, annotations)
	if !errors.Is(err, transport.ErrCaptionTooLong) {
		return err
	}

	truncated := truncateCaption(text, captionLimit)

	return s.transport.EditCaption(ctx, channel, id, truncated, fitAnnotations(annotations, captionLimit))
}

// truncateCaption cuts a string to at most limit UTF-16 code units without
// splitting a surrogate pair.
func truncateCaption(s string, limit int) string {
	units := utf16.Encode([]rune(s))
	if len(units) <= limit {
		return s
	}

	r := rune(units[limit-1])
	if r >= 0xD800 && r < 0xDC00 {
		limit--
	}

	return string(utf16.Decode(units[:limit]))
}

// fitAnnotations drops annotations whose span would point past the truncated
// caption, the protocol rejects out-of-range entities.
func fitAnnotations(annotations []message.Annotation, limit int) []message.Annotation {
	fitted := make([]message.Annotation, 0, len(annotations))
	for _, a := range annotations {
		if a.Offset+a.Length <= limit {
			fitted = append(fitted, a)
		}
	}

	return fitted
}
