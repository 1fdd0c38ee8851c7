// Package identity talks to the remote identity provider that gates
// access to the application. It is independent of the data core; the
// two are composed only at the UI layer.
package identity

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotSignedIn is returned by operations that need an active session
// when none exists.
var ErrNotSignedIn = errors.New("not signed in")

// User is the signed-in account as reported by the provider.
type User struct {
	ID          string
	DisplayName string
	Email       string
}

// ProviderError is a structured failure from the identity provider,
// carrying its machine-readable code (e.g. "EMAIL_EXISTS",
// "INVALID_PASSWORD").
type ProviderError struct {
	Code   string
	Status int
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity provider error (%d): %s", e.Status, e.Code)
}

// IsProviderCode reports whether err (or any error in its chain) is a
// ProviderError with the given code.
func IsProviderCode(err error, code string) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == code
}

// CredentialStore persists session material (refresh token, account
// email) between runs. The production implementation is backed by the
// system keyring; tests use an in-memory map.
type CredentialStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Authenticator is the capability interface the application uses to
// authenticate the user. Credentials and tokens are opaque to callers.
type Authenticator interface {
	// CurrentUser returns the signed-in user, or nil when signed out.
	CurrentUser(ctx context.Context) (*User, error)
	SignUp(ctx context.Context, name, email, password string) error
	SignIn(ctx context.Context, email, password string) error
	SignOut() error
	// RefreshToken returns a valid ID token, exchanging the stored
	// refresh token when the cached one has expired or force is set.
	RefreshToken(ctx context.Context, force bool) (string, error)
	SendPasswordReset(ctx context.Context, email string) error
	// UpdatePassword reauthenticates with the current password before
	// setting the new one.
	UpdatePassword(ctx context.Context, currentPassword, newPassword string) error
	// DeleteAccount reauthenticates with the password before deleting
	// the account and clearing the session.
	DeleteAccount(ctx context.Context, password string) error
	UpdateProfile(ctx context.Context, name, email string) error
}
