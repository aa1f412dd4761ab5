// Package session owns the authentication state machine and gates every
// other state store on it.  ProfileSync, DirectorySync and the
// notification feed activate only once authenticated and are torn down
// deterministically at logout.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"chatterbox/blobstore"
	"chatterbox/dbtypes"
	"chatterbox/directory"
	"chatterbox/docstore"
	"chatterbox/identity"
	"chatterbox/notifications"
	"chatterbox/profile"
	"chatterbox/watch"

	"golang.org/x/sync/errgroup"
)

const (
	usersCollection         = "users"
	notificationsCollection = "notifications"

	// Timestamp format for notification log entries.
	notificationTimeFormat = "January 02, 2006 03:04PM"
)

// State is the phase of the authentication state machine.
type State int

const (
	StateUnauthenticated State = iota
	StateLoading
	StateAuthenticated
	StateError
	StateSuccess
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "Unauthenticated"
	case StateLoading:
		return "Loading"
	case StateAuthenticated:
		return "Authenticated"
	case StateError:
		return "Error"
	case StateSuccess:
		return "Success"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Status is the observable session state.  Message is set for StateError
// (a user-visible failure) and StateSuccess (a transient confirmation);
// Error is terminal only until the next attempt re-enters StateLoading.
type Status struct {
	State   State
	Message string
}

// Store is the session store.  All methods publish their outcome to the
// Status observable; no retry happens automatically.
type Store struct {
	provider identity.Provider
	docs     docstore.Store
	log      *slog.Logger
	now      func() time.Time

	status *watch.Value[Status]

	profile   *profile.Sync
	directory *directory.Sync
	feed      *notifications.Feed

	mu  sync.Mutex
	uid string
}

// New builds a Store and its dependent state stores.  A nil log falls
// back to slog.Default.
func New(provider identity.Provider, docs docstore.Store, blobs blobstore.Store, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		provider:  provider,
		docs:      docs,
		log:       log,
		now:       time.Now,
		status:    watch.NewValue[Status](),
		profile:   profile.NewSync(docs, blobs, log),
		directory: directory.NewSync(docs, log),
		feed:      notifications.NewFeed(docs, log),
	}
}

// Status is the observable authentication state.
func (s *Store) Status() *watch.Value[Status] { return s.status }

// Profile is the profile store gated by this session.
func (s *Store) Profile() *profile.Sync { return s.profile }

// Directory is the contacts store gated by this session.
func (s *Store) Directory() *directory.Sync { return s.directory }

// Notifications is the notification feed gated by this session.
func (s *Store) Notifications() *notifications.Feed { return s.feed }

// UID reports the signed-in user's ID, or "" when signed out.
func (s *Store) UID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uid
}

// CheckStatus resolves the initial state at process start: Authenticated
// if the provider still has a current user, else Unauthenticated.
func (s *Store) CheckStatus(ctx context.Context) {
	user, ok := s.provider.CurrentUser()
	if !ok {
		s.status.Publish(Status{State: StateUnauthenticated})
		return
	}
	s.finishSignIn(ctx, user.UID)
}

// Login signs in with an email/password credential.  Empty fields fail
// fast with no provider call.
func (s *Store) Login(ctx context.Context, email, password string) {
	if email == "" || password == "" {
		s.status.Publish(Status{State: StateError, Message: "Email or password cannot be empty."})
		return
	}

	s.status.Publish(Status{State: StateLoading})

	user, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		s.status.Publish(Status{State: StateError, Message: identity.Message(err)})
		return
	}

	if err := s.docs.Update(ctx, usersCollection, user.UID, map[string]interface{}{"isOnline": true}); err != nil {
		s.status.Publish(Status{State: StateError, Message: identity.Message(err)})
		return
	}

	s.finishSignIn(ctx, user.UID)
}

// Register creates a new identity with a default profile record.  The
// profile-document write and the provider display-name update are
// independent; both must succeed before the session becomes
// Authenticated, and a partial failure is surfaced without rollback.
func (s *Store) Register(ctx context.Context, email, password, displayName string) {
	if email == "" || password == "" || displayName == "" {
		s.status.Publish(Status{State: StateError, Message: "Email, password, or display name cannot be empty."})
		return
	}

	s.status.Publish(Status{State: StateLoading})

	user, err := s.provider.SignUp(ctx, email, password)
	if err != nil {
		s.status.Publish(Status{State: StateError, Message: identity.Message(err)})
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.docs.Set(gctx, usersCollection, user.UID, dbtypes.NewProfile(user.UID, displayName, email).Fields())
	})
	g.Go(func() error {
		return s.provider.UpdateDisplayName(gctx, displayName)
	})
	if err := g.Wait(); err != nil {
		s.status.Publish(Status{State: StateError, Message: identity.Message(err)})
		return
	}

	s.finishSignIn(ctx, user.UID)
}

// LoginWithGoogle exchanges an external Google ID token for a session.  A
// first-time exchange provisions a profile record with the same shape as
// direct registration, seeded from the token's claims and marked online.
func (s *Store) LoginWithGoogle(ctx context.Context, rawIDToken string) {
	s.status.Publish(Status{State: StateLoading})

	user, err := s.provider.SignInWithIDToken(ctx, rawIDToken)
	if err != nil {
		s.status.Publish(Status{State: StateError, Message: identity.Message(err)})
		return
	}

	doc, err := s.docs.Get(ctx, usersCollection, user.UID)
	if err != nil {
		s.status.Publish(Status{State: StateError, Message: identity.Message(err)})
		return
	}

	if !doc.Exists {
		p := dbtypes.NewProfile(user.UID, user.DisplayName, user.Email)
		p.ProfilePictureURL = user.PhotoURL
		p.Online = true
		err = s.docs.Set(ctx, usersCollection, user.UID, p.Fields())
	} else {
		err = s.docs.Update(ctx, usersCollection, user.UID, map[string]interface{}{"isOnline": true})
	}
	if err != nil {
		s.status.Publish(Status{State: StateError, Message: identity.Message(err)})
		return
	}

	s.finishSignIn(ctx, user.UID)
}

// Logout marks the account offline, revokes the provider session, and
// cancels every dependent subscription.  A failed online-flag write is
// logged but does not block the logout.
func (s *Store) Logout(ctx context.Context) {
	if uid := s.UID(); uid != "" {
		if err := s.docs.Update(ctx, usersCollection, uid, map[string]interface{}{"isOnline": false}); err != nil {
			s.log.Warn("Could not mark account offline during logout", "uid", uid, "err", err)
		}
	}

	s.provider.SignOut()

	s.profile.Stop()
	s.directory.Stop()
	s.feed.Stop()

	s.mu.Lock()
	s.uid = ""
	s.mu.Unlock()

	s.status.Publish(Status{State: StateUnauthenticated})
}

// SendPasswordResetEmail asks the provider to send a reset link and logs
// the request to the notification feed's backing collection.
func (s *Store) SendPasswordResetEmail(ctx context.Context, email string) {
	if email == "" {
		s.status.Publish(Status{State: StateError, Message: "Email cannot be empty."})
		return
	}

	s.status.Publish(Status{State: StateLoading})

	if err := s.provider.SendPasswordReset(ctx, email); err != nil {
		s.status.Publish(Status{State: StateError, Message: identity.Message(err)})
		return
	}

	s.status.Publish(Status{State: StateSuccess, Message: "Password reset email sent."})
	s.logPasswordEvent(ctx, "A request was made to reset your password.")
}

// ChangePassword re-authenticates with the current credential and then
// writes the new password.  Any failure at either step returns the
// provider's error with no state change and no notification entry.
func (s *Store) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	if _, ok := s.provider.CurrentUser(); !ok {
		return identity.ErrNotSignedIn
	}

	if err := s.provider.Reauthenticate(ctx, currentPassword); err != nil {
		return fmt.Errorf("while re-authenticating: %w", err)
	}

	if err := s.provider.UpdatePassword(ctx, newPassword); err != nil {
		return fmt.Errorf("while updating password: %w", err)
	}

	s.logPasswordEvent(ctx, "Your account password was changed.")
	return nil
}

// finishSignIn records the signed-in user and opens the profile watch.
// The directory and notification watches are started by their consuming
// screens, not here.
func (s *Store) finishSignIn(ctx context.Context, uid string) {
	s.mu.Lock()
	s.uid = uid
	s.mu.Unlock()

	s.status.Publish(Status{State: StateAuthenticated})
	s.profile.Watch(ctx, uid)
}

// WatchDirectory opens the contacts subscription for the current session.
func (s *Store) WatchDirectory(ctx context.Context) {
	s.directory.Watch(ctx)
}

// WatchNotifications opens the notification subscription for the current
// user.
func (s *Store) WatchNotifications(ctx context.Context) {
	if uid := s.UID(); uid != "" {
		s.feed.Watch(ctx, uid)
	}
}

func (s *Store) logPasswordEvent(ctx context.Context, description string) {
	user, ok := s.provider.CurrentUser()
	if !ok {
		return
	}

	entry := &dbtypes.Notification{
		UID:         user.UID,
		Timestamp:   s.now().Format(notificationTimeFormat),
		Event:       "Account Security",
		Description: description,
	}
	fields := map[string]interface{}{
		"uid":         entry.UID,
		"timestamp":   entry.Timestamp,
		"event":       entry.Event,
		"description": entry.Description,
	}
	if _, err := s.docs.Add(ctx, notificationsCollection, fields); err != nil {
		s.log.Warn("Could not log password event", "err", err)
	}
}
