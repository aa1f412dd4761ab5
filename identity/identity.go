// Package identity is the boundary to the managed identity provider.
package identity

import (
	"context"
	"errors"

	"google.golang.org/api/googleapi"
)

// User is the provider's view of the signed-in account.
type User struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
}

// ErrNotSignedIn is returned by operations that require a current user.
var ErrNotSignedIn = errors.New("no user is signed in")

// Provider is the asynchronous identity backend.  Every call reports
// success or failure with a provider-supplied message; use Message to
// extract the human-readable form.
type Provider interface {
	// SignIn exchanges an email/password credential for a session.
	SignIn(ctx context.Context, email, password string) (*User, error)

	// SignUp creates a new identity and signs it in.
	SignUp(ctx context.Context, email, password string) (*User, error)

	// SignInWithIDToken exchanges an external OAuth ID token (Google
	// federation) for a session.
	SignInWithIDToken(ctx context.Context, rawToken string) (*User, error)

	// SendPasswordReset asks the provider to email a reset link.
	SendPasswordReset(ctx context.Context, email string) error

	// Reauthenticate re-verifies the current user's password.  Required
	// immediately before sensitive operations like a password change.
	Reauthenticate(ctx context.Context, currentPassword string) error

	// UpdatePassword replaces the current user's password.
	UpdatePassword(ctx context.Context, newPassword string) error

	// UpdateDisplayName sets the display name on the identity record.
	UpdateDisplayName(ctx context.Context, displayName string) error

	// CurrentUser reports the signed-in user, if any.
	CurrentUser() (*User, bool)

	// SignOut discards the current session.
	SignOut()
}

// Message extracts the provider's own message string from an error, for
// surfacing to the user verbatim.  Falls back to the error text.
func Message(err error) string {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Message != "" {
		return gerr.Message
	}
	return err.Error()
}
