package identity

import (
	"context"
	"fmt"
	"sync"

	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"
)

// Toolkit implements Provider against the Google Identity Toolkit API, the
// REST surface behind Firebase Authentication.  It keeps the signed-in
// user and its ID token in memory; there is no on-disk session
// persistence, so CheckStatus after process start sees a signed-out state
// until the first sign-in.
type Toolkit struct {
	rp *identitytoolkit.RelyingpartyService

	// Audience for validating federated Google ID tokens.  Empty disables
	// the local validation step.
	oauthClientID string

	mu      sync.Mutex
	cur     *User
	idToken string
}

// NewToolkit builds a Toolkit client.  apiKey is the project's web API
// key; oauthClientID is the OAuth client used for Google federation (may
// be empty when federation is unused).
func NewToolkit(ctx context.Context, apiKey, oauthClientID string, opts ...option.ClientOption) (*Toolkit, error) {
	if apiKey != "" {
		opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	}
	svc, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("while creating identitytoolkit client: %w", err)
	}
	return &Toolkit{rp: svc.Relyingparty, oauthClientID: oauthClientID}, nil
}

func (t *Toolkit) SignIn(ctx context.Context, email, password string) (*User, error) {
	resp, err := t.rp.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("while verifying password: %w", err)
	}

	user := &User{
		UID:         resp.LocalId,
		Email:       resp.Email,
		DisplayName: resp.DisplayName,
		PhotoURL:    resp.PhotoUrl,
	}
	t.setCurrent(user, resp.IdToken)
	return user, nil
}

func (t *Toolkit) SignUp(ctx context.Context, email, password string) (*User, error) {
	resp, err := t.rp.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    email,
		Password: password,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("while creating identity: %w", err)
	}

	user := &User{UID: resp.LocalId, Email: resp.Email, DisplayName: resp.DisplayName}
	t.setCurrent(user, resp.IdToken)
	return user, nil
}

func (t *Toolkit) SignInWithIDToken(ctx context.Context, rawToken string) (*User, error) {
	if t.oauthClientID != "" {
		if _, err := idtoken.Validate(ctx, rawToken, t.oauthClientID); err != nil {
			return nil, fmt.Errorf("while validating ID token: %w", err)
		}
	}

	resp, err := t.rp.VerifyAssertion(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyAssertionRequest{
		PostBody:          "id_token=" + rawToken + "&providerId=google.com",
		RequestUri:        "http://localhost",
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("while exchanging ID token: %w", err)
	}

	user := &User{
		UID:         resp.LocalId,
		Email:       resp.Email,
		DisplayName: resp.DisplayName,
		PhotoURL:    resp.PhotoUrl,
	}
	t.setCurrent(user, resp.IdToken)
	return user, nil
}

func (t *Toolkit) SendPasswordReset(ctx context.Context, email string) error {
	_, err := t.rp.GetOobConfirmationCode(&identitytoolkit.Relyingparty{
		RequestType: "PASSWORD_RESET",
		Email:       email,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("while requesting password reset: %w", err)
	}
	return nil
}

func (t *Toolkit) Reauthenticate(ctx context.Context, currentPassword string) error {
	cur, ok := t.CurrentUser()
	if !ok {
		return ErrNotSignedIn
	}

	resp, err := t.rp.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             cur.Email,
		Password:          currentPassword,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("while re-authenticating: %w", err)
	}

	t.mu.Lock()
	t.idToken = resp.IdToken
	t.mu.Unlock()
	return nil
}

func (t *Toolkit) UpdatePassword(ctx context.Context, newPassword string) error {
	return t.setAccountInfo(ctx, &identitytoolkit.IdentitytoolkitRelyingpartySetAccountInfoRequest{
		Password:          newPassword,
		ReturnSecureToken: true,
	})
}

func (t *Toolkit) UpdateDisplayName(ctx context.Context, displayName string) error {
	err := t.setAccountInfo(ctx, &identitytoolkit.IdentitytoolkitRelyingpartySetAccountInfoRequest{
		DisplayName: displayName,
	})
	if err != nil {
		return err
	}

	t.mu.Lock()
	if t.cur != nil {
		t.cur.DisplayName = displayName
	}
	t.mu.Unlock()
	return nil
}

func (t *Toolkit) setAccountInfo(ctx context.Context, req *identitytoolkit.IdentitytoolkitRelyingpartySetAccountInfoRequest) error {
	t.mu.Lock()
	token := t.idToken
	t.mu.Unlock()
	if token == "" {
		return ErrNotSignedIn
	}
	req.IdToken = token

	resp, err := t.rp.SetAccountInfo(req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("while updating account: %w", err)
	}

	if resp.IdToken != "" {
		t.mu.Lock()
		t.idToken = resp.IdToken
		t.mu.Unlock()
	}
	return nil
}

func (t *Toolkit) CurrentUser() (*User, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cur == nil {
		return nil, false
	}
	u := *t.cur
	return &u, true
}

func (t *Toolkit) SignOut() {
	t.mu.Lock()
	t.cur = nil
	t.idToken = ""
	t.mu.Unlock()
}

func (t *Toolkit) setCurrent(u *User, idToken string) {
	t.mu.Lock()
	t.cur = u
	t.idToken = idToken
	t.mu.Unlock()
}
