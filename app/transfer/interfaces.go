package transfer

import (
	"context"

	"github.com/lysyi3m/tg-sentinel/app/config"
	"github.com/lysyi3m/tg-sentinel/app/database"
	"github.com/lysyi3m/tg-sentinel/app/message"
)

type SelectorInterface interface {
	// Publish delivers a unit to the target channel and records its
	// tracking link
	Publish(ctx context.Context, unit message.ContentUnit, transfer config.ConfigTransfer) error

	// PropagateEdit applies a source edit to the already published copy
	PropagateEdit(ctx context.Context, unit message.ContentUnit, link *database.TrackingLink, transfer config.ConfigTransfer) error

	// Retract deletes the published copy
	Retract(ctx context.Context, link *database.TrackingLink) error
}
