// Package session manages refresh-token sessions embedded in user records.
// Sessions are created on signup and login, looked up by the session guard,
// and revoked on logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"tasklist/internal/users"
)

var (
	// ErrSessionNotFound is returned when no session carries the given token
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired is returned when the matching session has expired
	ErrSessionExpired = errors.New("session expired")
)

// Manager defines the interface for session management operations
type Manager interface {
	New() (users.Session, error)
	Create(ctx context.Context, user *users.User) (string, error)
	Validate(user *users.User, token string) (*users.Session, error)
	Revoke(ctx context.Context, userID, token string) error
	IsExpired(expiresAt int64) bool
}

// TokenFunc produces a new refresh token
type TokenFunc func() (string, error)

// manager implements Manager interface
type manager struct {
	store    Store
	cfg      Config
	newToken TokenFunc
	now      func() time.Time
}

// Option customizes the manager
type Option func(*manager)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(m *manager) { m.now = now }
}

// NewManager creates a new session manager
func NewManager(store Store, newToken TokenFunc, cfg Config, opts ...Option) Manager {
	m := &manager{
		store:    store,
		cfg:      cfg.normalized(),
		newToken: newToken,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// New mints a session without storing it. Signup embeds it in the new
// user record so the account and its first session are written together.
func (m *manager) New() (users.Session, error) {
	refreshToken, err := m.newToken()
	if err != nil {
		return users.Session{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return users.Session{
		Token:     refreshToken,
		ExpiresAt: m.now().Add(m.cfg.TTL).Unix(),
	}, nil
}

// Create mints a refresh token, appends a session for it and persists the
// user's session list. The token is only returned once it is stored.
func (m *manager) Create(ctx context.Context, user *users.User) (string, error) {
	s, err := m.New()
	if err != nil {
		return "", err
	}

	stored, err := m.store.UpdateSessions(ctx, user.ID, func(current []users.Session) []users.Session {
		return m.appendBounded(current, s)
	})
	if err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}

	user.Sessions = stored
	return s.Token, nil
}

// appendBounded drops expired sessions, appends s and evicts the oldest
// entries beyond MaxPerUser.
func (m *manager) appendBounded(current []users.Session, s users.Session) []users.Session {
	kept := make([]users.Session, 0, len(current)+1)
	for _, c := range current {
		if !m.IsExpired(c.ExpiresAt) {
			kept = append(kept, c)
		}
	}
	kept = append(kept, s)

	if over := len(kept) - m.cfg.MaxPerUser; over > 0 {
		// all sessions share one TTL, so the earliest expiry is the oldest
		sort.SliceStable(kept, func(i, j int) bool {
			return kept[i].ExpiresAt < kept[j].ExpiresAt
		})
		kept = kept[over:]
	}

	return kept
}

// Validate returns the first unexpired session carrying token. A token that
// only matches expired entries yields ErrSessionExpired.
func (m *manager) Validate(user *users.User, token string) (*users.Session, error) {
	if user == nil || token == "" {
		return nil, ErrSessionNotFound
	}

	matched := false
	for i := range user.Sessions {
		if user.Sessions[i].Token != token {
			continue
		}
		matched = true
		if !m.IsExpired(user.Sessions[i].ExpiresAt) {
			s := user.Sessions[i]
			return &s, nil
		}
	}

	if matched {
		return nil, ErrSessionExpired
	}
	return nil, ErrSessionNotFound
}

// Revoke removes the session with token from the user's list
func (m *manager) Revoke(ctx context.Context, userID, token string) error {
	found := false
	_, err := m.store.UpdateSessions(ctx, userID, func(current []users.Session) []users.Session {
		found = false
		out := make([]users.Session, 0, len(current))
		for _, c := range current {
			if c.Token == token {
				found = true
				continue
			}
			out = append(out, c)
		}
		return out
	})
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	if !found {
		return ErrSessionNotFound
	}
	return nil
}

// IsExpired reports whether expiresAt (Unix seconds) is at or before now
func (m *manager) IsExpired(expiresAt int64) bool {
	return expiresAt <= m.now().Unix()
}
