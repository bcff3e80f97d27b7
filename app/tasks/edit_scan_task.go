package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lysyi3m/tg-sentinel/app/config"
	"github.com/lysyi3m/tg-sentinel/app/database"
	"github.com/lysyi3m/tg-sentinel/app/message"
	"github.com/lysyi3m/tg-sentinel/app/transport"
)

// EditScanTask re-reads a wider window of a source channel's history and
// compares edit dates against the recorded signatures. Changed units get
// their content refreshed and re-enter the scoring pipeline.
type EditScanTask struct {
	Task
	ChannelConfig *config.Config
	transport     transport.Transport
	unitRepo      database.UnitRepository
	ownerID       string
	activityMu    *sync.Mutex
}

func NewEditScanTask(channelName string, channelConfig *config.Config, tp transport.Transport, unitRepo database.UnitRepository, ownerID string, activityMu *sync.Mutex) *EditScanTask {
	return &EditScanTask{
		Task:          NewTask(TaskTypeEditScan, channelName),
		ChannelConfig: channelConfig,
		transport:     tp,
		unitRepo:      unitRepo,
		ownerID:       ownerID,
		activityMu:    activityMu,
	}
}

func (t *EditScanTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	t.activityMu.Lock()
	defer t.activityMu.Unlock()

	items, err := t.transport.FetchHistory(ctx, t.ChannelConfig.Channel, t.ChannelConfig.Settings.ScoutLimit)
	if err != nil {
		return fmt.Errorf("failed to fetch channel history: %w", err)
	}

	rawItems := toRawItems(t.ChannelConfig.Channel, items)

	recorded, err := t.unitRepo.GetEditState(t.ownerID, t.ChannelConfig.Channel, t.ChannelConfig.Settings.ScoutLimit)
	if err != nil {
		return fmt.Errorf("failed to load edit state: %w", err)
	}

	edited, unknown := message.DiffEdits(rawItems, recorded)

	for _, update := range edited {
		if err := t.unitRepo.ApplyEdit(t.ownerID, t.ChannelConfig.Channel, update); err != nil {
			return fmt.Errorf("failed to apply edit for unit %s: %w", update.UnitKey, err)
		}
	}

	if len(unknown) > 0 {
		// Messages older than anything ingested, or posted and edited
		// between passes. The next ingestion picks them up as new.
		slog.Debug("Skipping units without a recorded state", "channel", t.ChannelName, "count", len(unknown))
	}

	slog.Info("Task completed",
		"type", "EditScan",
		"channel", t.ChannelName,
		"duration", t.GetDuration(),
		"scanned", len(items),
		"edited", len(edited))

	return nil
}
