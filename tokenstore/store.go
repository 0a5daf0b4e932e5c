// Package tokenstore persists session credentials across process restarts.
package tokenstore

import (
	"context"

	"github.com/digitrack/digitrack-go/models"
)

// Field names of the persisted record. Kept stable so stored sessions
// survive SDK upgrades.
const (
	KeyIDToken      = "idToken"
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
)

// Store is durable key-value persistence for the session. Save is atomic
// from the caller's perspective: Load never observes a partial record.
// Implementations log persistence failures and report the session absent on
// the next Load rather than failing the caller.
type Store interface {
	Save(ctx context.Context, tokens models.Tokens, user models.User) error
	// Load returns the last saved session, or ok=false when absent or
	// unreadable.
	Load(ctx context.Context) (models.Tokens, models.User, bool)
	Clear(ctx context.Context) error
}

// record is the on-disk / in-redis shape of a saved session.
type record struct {
	IDToken      string      `json:"idToken"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	User         models.User `json:"user"`
}
