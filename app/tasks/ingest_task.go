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

// IngestTask pulls the latest messages of one source channel, groups album
// members into content units and stores the ones not seen before.
type IngestTask struct {
	Task
	ChannelConfig *config.Config
	transport     transport.Transport
	unitRepo      database.UnitRepository
	ownerID       string
	activityMu    *sync.Mutex
}

func NewIngestTask(channelName string, channelConfig *config.Config, tp transport.Transport, unitRepo database.UnitRepository, ownerID string, activityMu *sync.Mutex) *IngestTask {
	return &IngestTask{
		Task:          NewTask(TaskTypeIngest, channelName),
		ChannelConfig: channelConfig,
		transport:     tp,
		unitRepo:      unitRepo,
		ownerID:       ownerID,
		activityMu:    activityMu,
	}
}

func (t *IngestTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	t.activityMu.Lock()
	defer t.activityMu.Unlock()

	items, err := t.transport.FetchHistory(ctx, t.ChannelConfig.Channel, t.ChannelConfig.Settings.FetchLimit)
	if err != nil {
		return fmt.Errorf("failed to fetch channel history: %w", err)
	}

	rawItems := toRawItems(t.ChannelConfig.Channel, items)

	known, err := t.unitRepo.GetKnownKeys(t.ownerID, t.ChannelConfig.Channel, t.ChannelConfig.Settings.ScoutLimit)
	if err != nil {
		return fmt.Errorf("failed to load known unit keys: %w", err)
	}

	units := message.NewUnits(rawItems, known, t.ownerID)

	for _, unit := range units {
		if err := t.unitRepo.InsertUnit(unit); err != nil {
			return fmt.Errorf("failed to store unit %s: %w", unit.UnitKey, err)
		}
	}

	slog.Info("Task completed",
		"type", "Ingest",
		"channel", t.ChannelName,
		"duration", t.GetDuration(),
		"fetched", len(items),
		"new", len(units))

	return nil
}

// toRawItems converts transport items into raw messages for grouping.
// History arrives most recent first, grouping and merge policy expect
// chronological order.
func toRawItems(channel string, items []transport.Item) []message.RawItem {
	rawItems := make([]message.RawItem, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		rawItems = append(rawItems, message.RawItem{
			ID:              item.ID,
			GroupID:         item.GroupID,
			Channel:         channel,
			Media:           item.Media,
			Date:            item.Date,
			EditDate:        item.EditDate,
			ReplyToID:       item.ReplyToID,
			RawAnnotations:  item.RawAnnotations,
			Text:            item.Text,
			Protected:       item.Protected,
			WebPreview:      item.WebPreview,
			ForwardFrom:     item.ForwardFrom,
			ForwardFromChat: item.ForwardFromChat,
		})
	}

	return rawItems
}
