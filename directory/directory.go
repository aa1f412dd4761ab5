// Package directory mirrors the whole user collection into observable
// state for the contacts listing.
package directory

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"chatterbox/dbtypes"
	"chatterbox/docstore"
	"chatterbox/watch"
)

const usersCollection = "users"

// Sync owns the single live subscription over the user collection and
// republishes the full set on every change.
type Sync struct {
	docs docstore.Store
	log  *slog.Logger

	state *watch.Value[[]*dbtypes.Profile]

	mu   sync.Mutex
	stop func()
}

// NewSync builds a Sync.  No subscription is opened until Watch.
func NewSync(docs docstore.Store, log *slog.Logger) *Sync {
	return &Sync{
		docs:  docs,
		log:   log,
		state: watch.NewValue[[]*dbtypes.Profile](),
	}
}

// State is the observable directory listing, in document order.
func (s *Sync) State() *watch.Value[[]*dbtypes.Profile] {
	return s.state
}

// Watch opens the collection subscription, replacing any previous one.
// Each raw record is mapped defensively: missing fields take the
// registration defaults.
func (s *Sync) Watch(ctx context.Context) {
	s.mu.Lock()
	if s.stop != nil {
		s.stop()
	}
	w := s.docs.WatchCollection(ctx, usersCollection)
	s.stop = w.Stop
	s.mu.Unlock()

	go func() {
		for {
			docs, err := w.Next()
			if err != nil {
				if !errors.Is(err, docstore.ErrWatchClosed) && ctx.Err() == nil {
					s.log.Warn("Directory watch stopped", "err", err)
				}
				return
			}
			users := make([]*dbtypes.Profile, 0, len(docs))
			for _, doc := range docs {
				users = append(users, dbtypes.ProfileFromMap(doc.Data))
			}
			s.state.Publish(users)
		}
	}()
}

// Stop cancels the live subscription and clears observers.
func (s *Sync) Stop() {
	s.mu.Lock()
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
	s.mu.Unlock()
	s.state.Reset()
}

// Filter is the read-time projection for the contacts listing: users whose
// display name contains query (case-insensitive), excluding selfUID.  The
// consumer recomputes it whenever the query or the underlying set changes.
func Filter(users []*dbtypes.Profile, query, selfUID string) []*dbtypes.Profile {
	q := strings.ToLower(query)
	var out []*dbtypes.Profile
	for _, u := range users {
		if u.UID == selfUID {
			continue
		}
		if !strings.Contains(strings.ToLower(u.DisplayName), q) {
			continue
		}
		out = append(out, u)
	}
	return out
}
