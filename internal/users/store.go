package users

import "context"

// Store persists users together with their embedded session lists
type Store interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// GetByIDAndSessionToken returns the user only when one of its sessions
	// carries exactly this token.
	GetByIDAndSessionToken(ctx context.Context, id, token string) (*User, error)
	// UpdateSessions replaces the user's session list with fn(current) as a
	// single atomic step and returns the stored list.
	UpdateSessions(ctx context.Context, id string, fn func([]Session) []Session) ([]Session, error)
}
