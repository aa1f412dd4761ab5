package directory

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"chatterbox/dbtypes"
	"chatterbox/docstore"

	"github.com/google/go-cmp/cmp"
)

func TestFilterExcludesSelfAndMatchesSubstring(t *testing.T) {
	users := []*dbtypes.Profile{
		{UID: "u1", DisplayName: "Alice"},
		{UID: "u2", DisplayName: "Bob"},
	}

	got := Filter(users, "ali", "u2")

	want := []*dbtypes.Profile{{UID: "u1", DisplayName: "Alice"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Filtered listing differs (-want +got):\n%s", diff)
	}
}

func TestFilterCaseInsensitive(t *testing.T) {
	users := []*dbtypes.Profile{
		{UID: "u1", DisplayName: "ALICE"},
		{UID: "u2", DisplayName: "alina"},
		{UID: "u3", DisplayName: "Bob"},
	}

	got := Filter(users, "ALi", "")
	if len(got) != 2 {
		t.Errorf("Expected 2 matches, got %d: %v", len(got), got)
	}
}

func TestFilterEmptyQueryMatchesEveryoneElse(t *testing.T) {
	users := []*dbtypes.Profile{
		{UID: "u1", DisplayName: "Alice"},
		{UID: "u2", DisplayName: "Bob"},
	}

	got := Filter(users, "", "u1")
	if len(got) != 1 || got[0].UID != "u2" {
		t.Errorf("Expected only the other user, got %v", got)
	}
}

func TestWatchPublishesDefensivelyMappedUsers(t *testing.T) {
	ctx := context.Background()
	mem := docstore.NewMemory()

	if err := mem.Set(ctx, "users", "u1", dbtypes.NewProfile("u1", "Alice", "a@b.com").Fields()); err != nil {
		t.Fatal(err)
	}
	// A sparse record from an older client: the missing booleans must
	// take the registration defaults.
	if err := mem.Set(ctx, "users", "u2", map[string]interface{}{"uid": "u2", "displayName": "Bob"}); err != nil {
		t.Fatal(err)
	}

	sync := NewSync(mem, slog.Default())
	defer sync.Stop()

	updates := make(chan []*dbtypes.Profile, 8)
	sync.State().Subscribe(func(users []*dbtypes.Profile) { updates <- users })

	sync.Watch(ctx)

	var got []*dbtypes.Profile
	select {
	case got = <-updates:
	case <-time.After(2 * time.Second):
		t.Fatal("no directory snapshot delivered")
	}

	want := []*dbtypes.Profile{
		{UID: "u1", DisplayName: "Alice", Email: "a@b.com", PushNotificationOn: true},
		{UID: "u2", DisplayName: "Bob", PushNotificationOn: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Directory snapshot differs (-want +got):\n%s", diff)
	}
}

func TestWatchRepublishesOnChange(t *testing.T) {
	ctx := context.Background()
	mem := docstore.NewMemory()
	if err := mem.Set(ctx, "users", "u1", dbtypes.NewProfile("u1", "Alice", "a@b.com").Fields()); err != nil {
		t.Fatal(err)
	}

	sync := NewSync(mem, slog.Default())
	defer sync.Stop()

	updates := make(chan []*dbtypes.Profile, 8)
	sync.State().Subscribe(func(users []*dbtypes.Profile) { updates <- users })
	sync.Watch(ctx)

	select {
	case <-updates:
	case <-time.After(2 * time.Second):
		t.Fatal("no initial snapshot delivered")
	}

	if err := mem.Update(ctx, "users", "u1", map[string]interface{}{"isOnline": true}); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case got := <-updates:
			if len(got) == 1 && got[0].Online {
				return
			}
		case <-deadline:
			t.Fatal("online-status change never republished")
		}
	}
}

func TestWatchIsIdempotent(t *testing.T) {
	ctx := context.Background()
	mem := docstore.NewMemory()

	sync := NewSync(mem, slog.Default())
	defer sync.Stop()

	sync.Watch(ctx)
	sync.Watch(ctx)

	if got := mem.ActiveWatches(); got != 1 {
		t.Errorf("Expected exactly one live subscription, got %d", got)
	}
}
