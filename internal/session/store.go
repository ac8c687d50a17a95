package session

import (
	"context"

	"tasklist/internal/users"
)

// Store is the persistence the manager needs: an atomic read-modify-write of
// one user's session list. users.Store satisfies it.
type Store interface {
	UpdateSessions(ctx context.Context, userID string, fn func([]users.Session) []users.Session) ([]users.Session, error)
}
