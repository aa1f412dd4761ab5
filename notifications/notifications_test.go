package notifications

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"chatterbox/dbtypes"
	"chatterbox/docstore"

	"github.com/google/go-cmp/cmp"
)

func addEntry(t *testing.T, mem *docstore.Memory, uid, description string) {
	t.Helper()
	_, err := mem.Add(context.Background(), "notifications", map[string]interface{}{
		"uid":         uid,
		"timestamp":   "March 01, 2026 10:00AM",
		"event":       "Account Security",
		"description": description,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestWatchPublishesNewestFirst(t *testing.T) {
	ctx := context.Background()
	mem := docstore.NewMemory()
	addEntry(t, mem, "u1", "first")
	addEntry(t, mem, "u1", "second")
	addEntry(t, mem, "u2", "other user")

	feed := NewFeed(mem, slog.Default())
	defer feed.Stop()

	updates := make(chan []*dbtypes.Notification, 8)
	feed.State().Subscribe(func(entries []*dbtypes.Notification) { updates <- entries })

	feed.Watch(ctx, "u1")

	var got []*dbtypes.Notification
	select {
	case got = <-updates:
	case <-time.After(2 * time.Second):
		t.Fatal("no notification snapshot delivered")
	}

	var descriptions []string
	for _, e := range got {
		descriptions = append(descriptions, e.Description)
	}
	if diff := cmp.Diff([]string{"second", "first"}, descriptions); diff != "" {
		t.Errorf("Feed order differs (-want +got):\n%s", diff)
	}
}

func TestWatchRepublishesOnAppend(t *testing.T) {
	ctx := context.Background()
	mem := docstore.NewMemory()
	addEntry(t, mem, "u1", "first")

	feed := NewFeed(mem, slog.Default())
	defer feed.Stop()

	updates := make(chan []*dbtypes.Notification, 8)
	feed.State().Subscribe(func(entries []*dbtypes.Notification) { updates <- entries })
	feed.Watch(ctx, "u1")

	select {
	case <-updates:
	case <-time.After(2 * time.Second):
		t.Fatal("no initial snapshot delivered")
	}

	addEntry(t, mem, "u1", "second")

	deadline := time.After(2 * time.Second)
	for {
		select {
		case got := <-updates:
			if len(got) == 2 && got[0].Description == "second" {
				return
			}
		case <-deadline:
			t.Fatal("appended entry never republished newest-first")
		}
	}
}

func TestStopTearsDownSubscription(t *testing.T) {
	ctx := context.Background()
	mem := docstore.NewMemory()

	feed := NewFeed(mem, slog.Default())
	feed.Watch(ctx, "u1")
	feed.Stop()

	if got := mem.ActiveWatches(); got != 0 {
		t.Errorf("Expected no live subscriptions after Stop, got %d", got)
	}
}
