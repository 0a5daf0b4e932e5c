// Package identity performs the account operations against the auth
// backend and translates every provider error into the normalized
// taxonomy before it reaches a caller.
package identity

import (
	"context"
	"strings"
	"time"

	"github.com/digitrack/digitrack-go/models"
)

// DefaultTimeout bounds every auth round trip.
const DefaultTimeout = 30 * time.Second

// SignUpResult reports whether the provider auto-confirmed the account.
type SignUpResult struct {
	Confirmed bool
	SubjectID string
}

// SignInResult carries the issued tokens and the user decoded from the
// ID token claims.
type SignInResult struct {
	Tokens models.Tokens
	User   models.User
}

// Client is the single backend capability the lifecycle service depends
// on. Swapping providers means swapping this implementation, not
// branching in callers.
type Client interface {
	SignUp(ctx context.Context, email, password, displayName string) (SignUpResult, error)
	ConfirmSignUp(ctx context.Context, email, code string) error
	ResendCode(ctx context.Context, email string) error
	SignIn(ctx context.Context, email, password string) (SignInResult, error)
	// Refresh exchanges the refresh token for new short-lived tokens. The
	// returned RefreshToken is empty when the provider does not rotate it.
	Refresh(ctx context.Context, refreshToken string) (models.Tokens, error)
}

// normalizeEmail is the single place addresses are canonicalized before
// transmission.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
