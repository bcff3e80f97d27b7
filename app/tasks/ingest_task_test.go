package tasks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lysyi3m/tg-sentinel/app/message"
	"github.com/lysyi3m/tg-sentinel/app/transport"
)

type fakeHistoryTransport struct {
	transport.Transport

	items []transport.Item
}

func (f *fakeHistoryTransport) FetchHistory(ctx context.Context, channel string, limit int) ([]transport.Item, error) {
	if limit > len(f.items) {
		limit = len(f.items)
	}
	return f.items[:limit], nil
}

type fakeIngestRepo struct {
	fakeUnitRepo

	known    map[string]bool
	inserted []message.ContentUnit
}

func (f *fakeIngestRepo) GetKnownKeys(ownerID, channelID string, limit int) (map[string]bool, error) {
	return f.known, nil
}

func (f *fakeIngestRepo) InsertUnit(unit message.ContentUnit) error {
	f.inserted = append(f.inserted, unit)
	return nil
}

func TestIngestTask_GroupsAndDeduplicates(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	// History arrives most recent first: a known single, then a two-part
	// album, then an unseen single
	tp := &fakeHistoryTransport{items: []transport.Item{
		{ID: "4", Date: base.Add(3 * time.Minute), Text: "already stored"},
		{ID: "3", GroupID: "g1", Date: base.Add(2 * time.Minute), Media: "photo"},
		{ID: "2", GroupID: "g1", Date: base.Add(1 * time.Minute), Media: "photo", Text: "album caption"},
		{ID: "1", Date: base, Text: "plain"},
	}}
	repo := &fakeIngestRepo{known: map[string]bool{"4": true}}

	channelConfig := testChannelConfig()
	channelConfig.Settings.FetchLimit = 10
	channelConfig.Settings.ScoutLimit = 100

	var mu sync.Mutex
	task := NewIngestTask(channelConfig.Name, channelConfig, tp, repo, "owner", &mu)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if len(repo.inserted) != 2 {
		t.Fatalf("Expected 2 new units, got %d", len(repo.inserted))
	}

	// Chronological order: the plain single first, then the merged album
	if repo.inserted[0].UnitKey != "1" {
		t.Errorf("Expected unit 1 first, got %s", repo.inserted[0].UnitKey)
	}

	album := repo.inserted[1]
	if album.UnitKey != "g1" {
		t.Fatalf("Expected album unit g1, got %s", album.UnitKey)
	}
	if len(album.PartIDs) != 2 || album.PartIDs[0] != "2" || album.PartIDs[1] != "3" {
		t.Errorf("Expected album parts [2 3], got %v", album.PartIDs)
	}
	if album.Text != "album caption" {
		t.Errorf("Expected the album caption carried over, got '%s'", album.Text)
	}
	if album.OwnerID != "owner" {
		t.Errorf("Expected owner id set, got '%s'", album.OwnerID)
	}

	for _, unit := range repo.inserted {
		if unit.UnitKey == "4" {
			t.Error("A known unit must not be re-inserted")
		}
	}
}
