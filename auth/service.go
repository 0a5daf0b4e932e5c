// Package auth drives the session lifecycle: each operation performs one
// backend exchange, persists on success and applies exactly one
// start/resolve transition pair on the state container.
package auth

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/digitrack/digitrack-go/identity"
	"github.com/digitrack/digitrack-go/models"
	"github.com/digitrack/digitrack-go/session"
	"github.com/digitrack/digitrack-go/tokenstore"
	"github.com/digitrack/digitrack-go/utils/logger"
)

type Service struct {
	ids   identity.Client
	store tokenstore.Store
	state *session.Container
	now   func() time.Time
}

func NewService(ids identity.Client, store tokenstore.Store, state *session.Container) *Service {
	return &Service{
		ids:   ids,
		store: store,
		state: state,
		now:   time.Now,
	}
}

// State exposes the container for observers.
func (s *Service) State() *session.Container {
	return s.state
}

// Login signs the user in and persists the session. The container only
// ever stores the user-facing message derived from the error kind.
func (s *Service) Login(ctx context.Context, email, password string) error {
	seq := s.state.LoginStart()

	res, err := s.ids.SignIn(ctx, email, password)
	if err != nil {
		s.state.LoginFailure(seq, models.UserMessageFor(err))
		return err
	}

	if s.state.LoginSuccess(seq, res.User, res.Tokens) {
		s.persist(ctx, res.Tokens, res.User)
	}
	logger.LogInfo("user signed in", zap.String("user_id", res.User.ID))
	return nil
}

// SignUp registers an account. An unconfirmed result parks the flow in
// the pending-confirmation state; a confirmed one signs in immediately.
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) error {
	seq := s.state.SignUpStart()

	res, err := s.ids.SignUp(ctx, email, password, displayName)
	if err != nil {
		s.state.SignUpFailure(seq, models.UserMessageFor(err))
		return err
	}

	if !res.Confirmed {
		s.state.SignUpPendingConfirmation(seq, email)
		logger.LogInfo("sign-up awaiting confirmation", zap.String("subject", res.SubjectID))
		return nil
	}

	signIn, err := s.ids.SignIn(ctx, email, password)
	if err != nil {
		s.state.SignUpFailure(seq, models.UserMessageFor(err))
		return err
	}

	if s.state.SignUpAuthenticated(seq, signIn.User, signIn.Tokens) {
		s.persist(ctx, signIn.Tokens, signIn.User)
	}
	logger.LogInfo("user signed up and authenticated", zap.String("user_id", signIn.User.ID))
	return nil
}

// Confirm proves control of the email address. It clears the pending
// confirmation but never authenticates; the user signs in afterwards.
func (s *Service) Confirm(ctx context.Context, email, code string) error {
	seq := s.state.ConfirmStart()

	if err := s.ids.ConfirmSignUp(ctx, email, code); err != nil {
		s.state.ConfirmFailure(seq, models.UserMessageFor(err))
		return err
	}

	s.state.ConfirmSuccess(seq)
	return nil
}

// Resend requests a fresh confirmation code.
func (s *Service) Resend(ctx context.Context, email string) error {
	seq := s.state.ResendStart()

	if err := s.ids.ResendCode(ctx, email); err != nil {
		s.state.ResendFailure(seq, models.UserMessageFor(err))
		return err
	}

	s.state.ResendSuccess(seq)
	return nil
}

// CheckStatus rehydrates the session from the store at process start. No
// network call is made: a stored token whose expiry is still in the
// future restores the session, anything else leaves it anonymous. A token
// expiring exactly now counts as expired.
func (s *Service) CheckStatus(ctx context.Context) bool {
	seq := s.state.CheckStatusStart()

	tokens, user, ok := s.store.Load(ctx)
	if ok && identity.TokenValidAt(tokens.IDToken, s.now()) {
		s.state.Restored(seq, user, tokens)
		logger.LogInfo("session restored", zap.String("user_id", user.ID))
		return true
	}

	if ok {
		logger.LogInfo("stored session expired, starting anonymous")
	}
	s.state.NotRestored(seq)
	return false
}

// Logout clears the store and the container. Always succeeds; calling it
// while anonymous is a no-op beyond the loading flag.
func (s *Service) Logout(ctx context.Context) {
	if err := s.store.Clear(ctx); err != nil {
		logger.LogWarn("failed to clear stored session on logout", zap.Error(err))
	}
	s.state.Logout()
}

// ForceLogout destroys the session after an unrecoverable unauthorized
// response mid-session.
func (s *Service) ForceLogout(ctx context.Context) {
	logger.LogWarn("forcing logout after unrecoverable unauthorized response")
	s.Logout(ctx)
}

// RefreshTokens exchanges the stored refresh token for new short-lived
// tokens and updates both the container and the store.
func (s *Service) RefreshTokens(ctx context.Context) (models.Tokens, error) {
	current := s.currentTokens(ctx)
	if current.RefreshToken == "" {
		return models.Tokens{}, models.NewAuthError(models.ErrUnauthorized, "no refresh token")
	}

	fresh, err := s.ids.Refresh(ctx, current.RefreshToken)
	if err != nil {
		return models.Tokens{}, err
	}
	// Providers usually do not rotate the refresh token on refresh.
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = current.RefreshToken
	}

	s.state.SetAccessTokens(fresh.IDToken, fresh.AccessToken)
	if snap := s.state.Snapshot(); snap.User != nil {
		s.persist(ctx, fresh, *snap.User)
	} else if _, user, ok := s.store.Load(ctx); ok {
		// Refresh before rehydration: the container holds no session yet,
		// so the replay reads the store. Persist the new tokens with the
		// stored user or the replay would resend the stale one.
		s.persist(ctx, fresh, user)
	}
	logger.LogInfo("session tokens refreshed")
	return fresh, nil
}

// CurrentIDToken reads the bearer credential for outgoing requests,
// falling back to the store when the container is not yet populated.
func (s *Service) CurrentIDToken(ctx context.Context) string {
	return s.currentTokens(ctx).IDToken
}

func (s *Service) currentTokens(ctx context.Context) models.Tokens {
	if tokens := s.state.Tokens(); tokens.Complete() {
		return tokens
	}
	tokens, _, ok := s.store.Load(ctx)
	if !ok {
		return models.Tokens{}
	}
	return tokens
}

// persist is best-effort: the store already logs failures and treats the
// session as absent on the next load.
func (s *Service) persist(ctx context.Context, tokens models.Tokens, user models.User) {
	_ = s.store.Save(ctx, tokens, user)
}
