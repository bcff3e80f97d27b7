package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lysyi3m/tg-sentinel/app/config"
	"github.com/lysyi3m/tg-sentinel/app/database"
	"github.com/lysyi3m/tg-sentinel/app/scoring"
	"github.com/lysyi3m/tg-sentinel/app/transfer"
)

// DispatchTask scores a batch of pending units and acts on the verdicts:
// clean units get published or their copies updated, ads get suppressed or
// retracted. A transport failure leaves the unit pending, the next dispatch
// pass retries it.
type DispatchTask struct {
	Task
	ChannelConfig *config.Config
	unitRepo      database.UnitRepository
	trackingRepo  database.TrackingRepository
	scorer        *scoring.Scorer
	selector      transfer.SelectorInterface
	ownerID       string
	activityMu    *sync.Mutex
}

func NewDispatchTask(channelName string, channelConfig *config.Config, unitRepo database.UnitRepository, trackingRepo database.TrackingRepository, scorer *scoring.Scorer, selector transfer.SelectorInterface, ownerID string, activityMu *sync.Mutex) *DispatchTask {
	return &DispatchTask{
		Task:          NewTask(TaskTypeDispatch, channelName),
		ChannelConfig: channelConfig,
		unitRepo:      unitRepo,
		trackingRepo:  trackingRepo,
		scorer:        scorer,
		selector:      selector,
		ownerID:       ownerID,
		activityMu:    activityMu,
	}
}

func (t *DispatchTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	t.activityMu.Lock()
	defer t.activityMu.Unlock()

	units, err := t.unitRepo.GetPending(t.ownerID, t.ChannelConfig.Channel, t.ChannelConfig.Settings.DispatchBatch)
	if err != nil {
		return fmt.Errorf("failed to load pending units: %w", err)
	}

	published := 0
	suppressed := 0

	for _, unit := range units {
		verdict, err := t.scorer.Score(ctx, unit, t.ChannelConfig.Scoring)
		if err != nil {
			return fmt.Errorf("failed to score unit %s: %w", unit.UnitKey, err)
		}

		allowed := verdict < t.ChannelConfig.Scoring.Gap

		link, err := t.trackingRepo.LookupLink(t.ownerID, t.ChannelConfig.Channel, unit.UnitKey)
		if err != nil {
			return fmt.Errorf("failed to look up tracking link for unit %s: %w", unit.UnitKey, err)
		}

		action := Decide(unit.Status, link != nil, allowed)

		slog.Debug("Unit scored", "channel", t.ChannelName, "unit", unit.UnitKey, "verdict", verdict, "gap", t.ChannelConfig.Scoring.Gap, "action", string(action))

		switch action {
		case ActionPublish:
			err = t.selector.Publish(ctx, unit, t.ChannelConfig.Transfer)
			published++
		case ActionPropagate:
			err = t.selector.PropagateEdit(ctx, unit, link, t.ChannelConfig.Transfer)
			published++
		case ActionRetract:
			err = t.selector.Retract(ctx, link)
			suppressed++
		case ActionSuppress:
			suppressed++
		}

		if err != nil {
			// The unit stays pending, the next pass retries it
			return fmt.Errorf("failed to execute %s for unit %s: %w", string(action), unit.UnitKey, err)
		}

		if _, err := t.unitRepo.MarkFiltered(t.ownerID, t.ChannelConfig.Channel, unit.UnitKey); err != nil {
			return fmt.Errorf("failed to finalize unit %s: %w", unit.UnitKey, err)
		}
	}

	if len(units) > 0 {
		slog.Info("Task completed",
			"type", "Dispatch",
			"channel", t.ChannelName,
			"duration", t.GetDuration(),
			"scored", len(units),
			"published", published,
			"suppressed", suppressed)
	}

	return nil
}
