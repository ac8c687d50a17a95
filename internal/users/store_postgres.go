package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tasklist/internal/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PostgresStore keeps users in the users table with sessions as a JSONB array
type PostgresStore struct {
	db database.Service
}

// NewPostgresStore creates a Store over the given database service
func NewPostgresStore(db database.Service) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectUser = `SELECT id, email, password_hash, sessions, created_at FROM users`

func (s *PostgresStore) Create(ctx context.Context, user *User) error {
	if user.Sessions == nil {
		user.Sessions = []Session{}
	}
	sessions, err := json.Marshal(user.Sessions)
	if err != nil {
		return fmt.Errorf("failed to encode sessions: %w", err)
	}

	query := `
		INSERT INTO users (id, email, password_hash, sessions)
		VALUES ($1, $2, $3, $4::jsonb)
		RETURNING created_at
	`

	err = s.db.QueryRow(ctx, query, user.ID, user.Email, user.PasswordHash, string(sessions)).Scan(&user.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.scanOne(ctx, selectUser+` WHERE id = $1`, id)
}

func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.scanOne(ctx, selectUser+` WHERE email = $1`, email)
}

func (s *PostgresStore) GetByIDAndSessionToken(ctx context.Context, id, token string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	query := selectUser + `
		WHERE id = $1
		  AND sessions @> jsonb_build_array(jsonb_build_object('token', $2::text))
	`
	return s.scanOne(ctx, query, id, token)
}

// UpdateSessions locks the user row so concurrent logins append in turn
// instead of overwriting each other.
func (s *PostgresStore) UpdateSessions(ctx context.Context, id string, fn func([]Session) []Session) ([]Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var raw []byte
	err = tx.QueryRow(ctx, `SELECT sessions FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock user sessions: %w", err)
	}

	current, err := decodeSessions(raw)
	if err != nil {
		return nil, err
	}

	next := fn(current)
	if next == nil {
		next = []Session{}
	}

	encoded, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sessions: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE users SET sessions = $2::jsonb WHERE id = $1`, id, string(encoded)); err != nil {
		return nil, fmt.Errorf("failed to save sessions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit sessions: %w", err)
	}

	return next, nil
}

func (s *PostgresStore) scanOne(ctx context.Context, query string, args ...any) (*User, error) {
	var (
		u   User
		raw []byte
	)

	err := s.db.QueryRow(ctx, query, args...).Scan(&u.ID, &u.Email, &u.PasswordHash, &raw, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	u.Sessions, err = decodeSessions(raw)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

func decodeSessions(raw []byte) ([]Session, error) {
	sessions := []Session{}
	if len(raw) == 0 {
		return sessions, nil
	}
	if err := json.Unmarshal(raw, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}
	return sessions, nil
}
