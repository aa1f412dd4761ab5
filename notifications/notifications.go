// Package notifications republishes the per-user event log.  The feed is
// read-only from the client's point of view; the only writers are the
// session store's password-event appends.
package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"chatterbox/dbtypes"
	"chatterbox/docstore"
	"chatterbox/watch"
)

const collection = "notifications"

// Feed owns the equality-filtered subscription on the notification log and
// republishes it newest-first.
type Feed struct {
	docs docstore.Store
	log  *slog.Logger

	state *watch.Value[[]*dbtypes.Notification]

	mu   sync.Mutex
	stop func()
}

// NewFeed builds a Feed.  No subscription is opened until Watch.
func NewFeed(docs docstore.Store, log *slog.Logger) *Feed {
	return &Feed{
		docs:  docs,
		log:   log,
		state: watch.NewValue[[]*dbtypes.Notification](),
	}
}

// State is the observable notification list, newest first.
func (f *Feed) State() *watch.Value[[]*dbtypes.Notification] {
	return f.state
}

// Watch opens the subscription for uid's notifications, replacing any
// previous one.  Entries arrive in append order and are republished in
// reverse, newest first.
func (f *Feed) Watch(ctx context.Context, uid string) {
	f.mu.Lock()
	if f.stop != nil {
		f.stop()
	}
	w := f.docs.WatchWhere(ctx, collection, "uid", uid)
	f.stop = w.Stop
	f.mu.Unlock()

	go func() {
		for {
			docs, err := w.Next()
			if err != nil {
				if !errors.Is(err, docstore.ErrWatchClosed) && ctx.Err() == nil {
					f.log.Warn("Notification watch stopped", "uid", uid, "err", err)
				}
				return
			}
			entries := make([]*dbtypes.Notification, 0, len(docs))
			for i := len(docs) - 1; i >= 0; i-- {
				entries = append(entries, dbtypes.NotificationFromMap(docs[i].Data))
			}
			f.state.Publish(entries)
		}
	}()
}

// Stop cancels the live subscription and clears observers.
func (f *Feed) Stop() {
	f.mu.Lock()
	if f.stop != nil {
		f.stop()
		f.stop = nil
	}
	f.mu.Unlock()
	f.state.Reset()
}
