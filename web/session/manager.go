// Package session issues, resolves and destroys login sessions. A session is a
// random token stored server-side with an absolute expiry and a sliding idle
// window; the client only ever holds the token inside a signed and encrypted
// cookie.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inkpost/blog/logger"
)

// Identity is the result of resolving a token. The zero value is anonymous.
type Identity struct {
	UserID int
}

// Anonymous is the identity of a caller without a live session.
var Anonymous = Identity{}

func (i Identity) IsAnonymous() bool {
	return i.UserID == 0
}

type Manager struct {
	store  Store
	maxAge time.Duration
	idle   time.Duration
	now    func() time.Time
}

// NewManager returns a manager whose sessions live at most maxAge and die
// after idle without use.
func NewManager(store Store, maxAge, idle time.Duration) *Manager {
	if idle <= 0 || idle > maxAge {
		idle = maxAge
	}
	return &Manager{store: store, maxAge: maxAge, idle: idle, now: time.Now}
}

func (m *Manager) MaxAge() time.Duration { return m.maxAge }

// Create starts a session for userID. The prior token, if any, is destroyed
// first so a client never keeps a pre-login identifier.
func (m *Manager) Create(ctx context.Context, userID int, prior Token) (Token, error) {
	if userID <= 0 {
		return "", fmt.Errorf("session: invalid user id %d", userID)
	}
	if prior != "" {
		if err := m.Destroy(ctx, prior); err != nil {
			return "", err
		}
	}

	token, err := NewToken()
	if err != nil {
		return "", err
	}
	now := m.now()
	rec := Record{
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.maxAge),
	}
	if err := m.store.Save(ctx, token, rec, m.idle); err != nil {
		return "", fmt.Errorf("session: save: %w", err)
	}
	return token, nil
}

// Resolve maps a token to its identity. Malformed, unknown and expired tokens
// all resolve to Anonymous, as do storage failures. A successful resolve
// extends the idle window, never past the absolute expiry.
func (m *Manager) Resolve(ctx context.Context, token Token) Identity {
	if !token.WellFormed() {
		return Anonymous
	}

	rec, err := m.store.Load(ctx, token)
	if err != nil {
		if !errors.Is(err, ErrSessionInvalid) {
			logger.Warning("session lookup failed:", err)
		}
		return Anonymous
	}

	remaining := rec.ExpiresAt.Sub(m.now())
	if remaining <= 0 || rec.UserID <= 0 {
		if err := m.store.Delete(ctx, token); err != nil {
			logger.Warning("expired session cleanup failed:", err)
		}
		return Anonymous
	}

	ttl := m.idle
	if remaining < ttl {
		ttl = remaining
	}
	if err := m.store.Touch(ctx, token, ttl); err != nil {
		if !errors.Is(err, ErrSessionInvalid) {
			logger.Warning("session refresh failed:", err)
		}
		return Anonymous
	}
	return Identity{UserID: rec.UserID}
}

// Destroy removes the session. Unknown or malformed tokens are not an error.
func (m *Manager) Destroy(ctx context.Context, token Token) error {
	if !token.WellFormed() {
		return nil
	}
	if err := m.store.Delete(ctx, token); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}
