// Package profile keeps the signed-in user's profile document mirrored
// into observable state, and mediates profile updates.
package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"chatterbox/blobstore"
	"chatterbox/dbtypes"
	"chatterbox/docstore"
	"chatterbox/watch"
)

const usersCollection = "users"

// ErrNoUser is returned by Update when no watch has been started, i.e.
// there is no signed-in user whose profile could be written.
var ErrNoUser = errors.New("no signed-in user")

// Media is an optional profile-picture payload for Update.
type Media struct {
	Reader      io.Reader
	ContentType string
}

// Sync owns the single live subscription on the current user's profile
// document and republishes each snapshot to observers.
type Sync struct {
	docs  docstore.Store
	blobs blobstore.Store
	log   *slog.Logger

	state *watch.Value[*dbtypes.Profile]

	mu   sync.Mutex
	uid  string
	stop func()
}

// NewSync builds a Sync.  No subscription is opened until Watch.
func NewSync(docs docstore.Store, blobs blobstore.Store, log *slog.Logger) *Sync {
	return &Sync{
		docs:  docs,
		blobs: blobs,
		log:   log,
		state: watch.NewValue[*dbtypes.Profile](),
	}
}

// State is the observable profile.  Snapshots where the document is absent
// publish nothing, so observers keep seeing the last known state.
func (s *Sync) State() *watch.Value[*dbtypes.Profile] {
	return s.state
}

// Watch opens the change-stream subscription on uid's profile document.
// Calling Watch again replaces the previous subscription, so there is
// never more than one live.
func (s *Sync) Watch(ctx context.Context, uid string) {
	s.mu.Lock()
	if s.stop != nil {
		s.stop()
	}
	s.uid = uid
	w := s.docs.WatchDoc(ctx, usersCollection, uid)
	s.stop = w.Stop
	s.mu.Unlock()

	go func() {
		for {
			doc, err := w.Next()
			if err != nil {
				if !errors.Is(err, docstore.ErrWatchClosed) && ctx.Err() == nil {
					s.log.Warn("Profile watch stopped", "uid", uid, "err", err)
				}
				return
			}
			if !doc.Exists {
				// Keep the last published state.
				continue
			}
			s.state.Publish(dbtypes.ProfileFromMap(doc.Data))
		}
	}()
}

// Stop cancels the live subscription and clears observers.  Called when
// the session ends.
func (s *Sync) Stop() {
	s.mu.Lock()
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
	s.uid = ""
	s.mu.Unlock()
	s.state.Reset()
}

// Update writes the text fields, first uploading the profile picture when
// one is supplied.  The ordering is upload, resolve download URL, then a
// single field write carrying everything; if the upload or the resolve
// fails, the text fields are not written either.  Without media the write
// applies directly and profilePictureUrl is left untouched.
func (s *Sync) Update(ctx context.Context, displayName, bio, location string, media *Media) error {
	uid := s.currentUID()
	if uid == "" {
		return ErrNoUser
	}

	fields := map[string]interface{}{
		"displayName": displayName,
		"bio":         bio,
		"location":    location,
	}

	if media != nil {
		object := fmt.Sprintf("profile_pictures/%s.jpg", uid)
		if err := s.blobs.Put(ctx, object, media.Reader, media.ContentType); err != nil {
			return fmt.Errorf("while uploading profile picture: %w", err)
		}
		url, err := s.blobs.ResolveURL(ctx, object)
		if err != nil {
			return fmt.Errorf("while resolving profile picture URL: %w", err)
		}
		fields["profilePictureUrl"] = url
	}

	if err := s.docs.Update(ctx, usersCollection, uid, fields); err != nil {
		return fmt.Errorf("while updating profile: %w", err)
	}
	return nil
}

// SetPushNotifications flips the push-notification setting.  Fire and
// forget: failures are logged, not surfaced.
func (s *Sync) SetPushNotifications(ctx context.Context, on bool) {
	s.setFlag(ctx, "isPushNotificationOn", on)
}

// SetTwoFactorAuth flips the two-factor-authentication setting.
func (s *Sync) SetTwoFactorAuth(ctx context.Context, on bool) {
	s.setFlag(ctx, "isTwoFactorAuthenticationOn", on)
}

// SetDarkMode flips the dark-mode setting.
func (s *Sync) SetDarkMode(ctx context.Context, on bool) {
	s.setFlag(ctx, "isDarkModeOn", on)
}

func (s *Sync) setFlag(ctx context.Context, field string, on bool) {
	uid := s.currentUID()
	if uid == "" {
		return
	}
	if err := s.docs.Update(ctx, usersCollection, uid, map[string]interface{}{field: on}); err != nil {
		s.log.Warn("Could not update setting", "field", field, "err", err)
	}
}

func (s *Sync) currentUID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uid
}
