// Package session holds the process-wide authentication state. The
// Container is the only writer; screens and clients read immutable
// snapshots and dispatch the named transitions.
package session

import (
	"sync"

	"go.uber.org/zap"

	"github.com/digitrack/digitrack-go/enums"
	"github.com/digitrack/digitrack-go/models"
	"github.com/digitrack/digitrack-go/utils/logger"
)

// Kind identifies a lifecycle operation for the request-sequence guard.
// Resolutions carrying a stale sequence for their kind are dropped, so a
// slow response never overwrites the outcome of a later call of the same
// kind.
type Kind int

const (
	KindLogin Kind = iota
	KindSignUp
	KindConfirm
	KindResend
	KindCheckStatus
)

// Snapshot is the read-only state screens consume. IsAuthenticated implies
// User != nil; PendingConfirmation != "" implies !IsAuthenticated.
type Snapshot struct {
	User                *models.User
	IsAuthenticated     bool
	IsLoading           bool
	Error               string
	PendingConfirmation string
	Version             uint64
}

// Container serializes every state transition behind one mutex and hands
// out snapshots by value, so no observer ever sees a mid-transition state.
type Container struct {
	mu     sync.Mutex
	snap   Snapshot
	tokens models.Tokens
	seq    map[Kind]uint64
	active Kind
	subs   []chan Snapshot
}

func NewContainer() *Container {
	return &Container{seq: make(map[Kind]uint64)}
}

// Snapshot returns the current state by value.
func (c *Container) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Tokens returns the current session credentials, zero when anonymous.
func (c *Container) Tokens() models.Tokens {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens
}

// SetAccessTokens swaps the short-lived tokens after a refresh without
// touching the rest of the session.
func (c *Container) SetAccessTokens(idToken, accessToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.snap.IsAuthenticated {
		return
	}
	c.tokens.IDToken = idToken
	c.tokens.AccessToken = accessToken
	c.publishLocked()
}

// Status derives the coarse lifecycle state from the snapshot.
func (c *Container) Status() enums.AuthStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.snap.IsAuthenticated:
		return enums.AuthStatusAuthenticated
	case c.snap.IsLoading && c.active == KindConfirm:
		return enums.AuthStatusConfirming
	case c.snap.IsLoading && (c.active == KindLogin || c.active == KindSignUp):
		return enums.AuthStatusAuthenticating
	case c.snap.PendingConfirmation != "":
		return enums.AuthStatusAwaitingConfirmation
	default:
		return enums.AuthStatusAnonymous
	}
}

// Subscribe returns a channel that receives each published snapshot. Slow
// receivers skip intermediate versions rather than blocking a transition.
// The cancel func detaches the subscriber and closes the channel; calling
// it more than once is safe.
func (c *Container) Subscribe() (<-chan Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan Snapshot, 1)
	c.subs = append(c.subs, ch)
	ch <- c.snap

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, sub := range c.subs {
				if sub == ch {
					c.subs = append(c.subs[:i], c.subs[i+1:]...)
					break
				}
			}
			close(ch)
		})
	}
	return ch, cancel
}

func (c *Container) publishLocked() {
	c.snap.Version++
	for _, ch := range c.subs {
		select {
		case ch <- c.snap:
		default:
			// Replace the stale value so the receiver always gets the
			// latest snapshot.
			select {
			case <-ch:
			default:
			}
			ch <- c.snap
		}
	}
}

// start begins an operation of the given kind and returns the sequence the
// resolution must present.
func (c *Container) start(kind Kind, clearError bool) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq[kind]++
	c.active = kind
	c.snap.IsLoading = true
	if clearError {
		c.snap.Error = ""
	}
	c.publishLocked()
	return c.seq[kind]
}

// resolve runs apply under the lock unless seq is stale for kind. Every
// resolution clears IsLoading, so no transition can leave the spinner on.
func (c *Container) resolve(kind Kind, seq uint64, apply func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.seq[kind] {
		logger.LogDebug("dropping stale resolution",
			zap.Int("kind", int(kind)), zap.Uint64("seq", seq))
		return false
	}
	c.snap.IsLoading = false
	apply()
	c.publishLocked()
	return true
}

func (c *Container) LoginStart() uint64 { return c.start(KindLogin, true) }

func (c *Container) LoginSuccess(seq uint64, user models.User, tokens models.Tokens) bool {
	return c.resolve(KindLogin, seq, func() {
		u := user
		c.snap.User = &u
		c.snap.IsAuthenticated = true
		c.snap.Error = ""
		c.snap.PendingConfirmation = ""
		c.tokens = tokens
	})
}

func (c *Container) LoginFailure(seq uint64, message string) bool {
	return c.resolve(KindLogin, seq, func() {
		c.snap.Error = message
		c.snap.IsAuthenticated = false
		c.snap.User = nil
		c.tokens = models.Tokens{}
	})
}

func (c *Container) SignUpStart() uint64 { return c.start(KindSignUp, true) }

func (c *Container) SignUpPendingConfirmation(seq uint64, email string) bool {
	return c.resolve(KindSignUp, seq, func() {
		c.snap.PendingConfirmation = email
		c.snap.IsAuthenticated = false
		c.snap.User = nil
		c.snap.Error = ""
		c.tokens = models.Tokens{}
	})
}

func (c *Container) SignUpAuthenticated(seq uint64, user models.User, tokens models.Tokens) bool {
	return c.resolve(KindSignUp, seq, func() {
		u := user
		c.snap.User = &u
		c.snap.IsAuthenticated = true
		c.snap.Error = ""
		c.snap.PendingConfirmation = ""
		c.tokens = tokens
	})
}

func (c *Container) SignUpFailure(seq uint64, message string) bool {
	return c.resolve(KindSignUp, seq, func() {
		c.snap.Error = message
	})
}

func (c *Container) ConfirmStart() uint64 { return c.start(KindConfirm, true) }

// ConfirmSuccess clears the pending confirmation. It never sets
// IsAuthenticated; the user still has to sign in.
func (c *Container) ConfirmSuccess(seq uint64) bool {
	return c.resolve(KindConfirm, seq, func() {
		c.snap.PendingConfirmation = ""
		c.snap.Error = ""
	})
}

func (c *Container) ConfirmFailure(seq uint64, message string) bool {
	return c.resolve(KindConfirm, seq, func() {
		c.snap.Error = message
	})
}

func (c *Container) ResendStart() uint64 { return c.start(KindResend, true) }

func (c *Container) ResendSuccess(seq uint64) bool {
	return c.resolve(KindResend, seq, func() {
		c.snap.Error = ""
	})
}

func (c *Container) ResendFailure(seq uint64, message string) bool {
	return c.resolve(KindResend, seq, func() {
		c.snap.Error = message
	})
}

func (c *Container) CheckStatusStart() uint64 { return c.start(KindCheckStatus, false) }

func (c *Container) Restored(seq uint64, user models.User, tokens models.Tokens) bool {
	return c.resolve(KindCheckStatus, seq, func() {
		u := user
		c.snap.User = &u
		c.snap.IsAuthenticated = true
		c.snap.Error = ""
		c.snap.PendingConfirmation = ""
		c.tokens = tokens
	})
}

func (c *Container) NotRestored(seq uint64) bool {
	return c.resolve(KindCheckStatus, seq, func() {
		c.snap.User = nil
		c.snap.IsAuthenticated = false
		c.tokens = models.Tokens{}
	})
}

// Logout always succeeds. It clears the session, the pending confirmation
// and any error. Calling it while already anonymous changes nothing but
// IsLoading.
func (c *Container) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := c.snap.User != nil || c.snap.IsAuthenticated || c.snap.IsLoading ||
		c.snap.Error != "" || c.snap.PendingConfirmation != ""
	c.snap.User = nil
	c.snap.IsAuthenticated = false
	c.snap.IsLoading = false
	c.snap.Error = ""
	c.snap.PendingConfirmation = ""
	c.tokens = models.Tokens{}
	if changed {
		c.publishLocked()
	}
}

// ClearError is a no-op when no error is set.
func (c *Container) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap.Error == "" {
		return
	}
	c.snap.Error = ""
	c.publishLocked()
}

// ClearPendingConfirmation abandons the confirmation flow.
func (c *Container) ClearPendingConfirmation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap.PendingConfirmation == "" {
		return
	}
	c.snap.PendingConfirmation = ""
	c.publishLocked()
}
