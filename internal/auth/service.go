// Package auth implements signup, login and token refresh on top of the
// credential store, the token issuer and the session manager, plus the gin
// middleware guarding the rest of the API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tasklist/internal/ratelimit"
	"tasklist/internal/session"
	"tasklist/internal/users"
)

// CredentialStore is the subset of users.Service auth depends on
type CredentialStore interface {
	Prepare(email, password string) (*users.User, error)
	Register(ctx context.Context, user *users.User) error
	VerifyCredentials(ctx context.Context, email, password string) (*users.User, error)
	FindByIDAndSessionToken(ctx context.Context, id, token string) (*users.User, error)
}

// TokenIssuer signs and verifies access tokens
type TokenIssuer interface {
	GenerateAccessToken(userID string) (string, error)
	VerifyAccessToken(token string) (string, error)
}

// Service defines the authentication service interface
type Service interface {
	Signup(ctx context.Context, email, password string) (*Result, error)
	Login(ctx context.Context, email, password string) (*Result, error)
	IssueAccessToken(userID string) (string, error)
	Logout(ctx context.Context, userID, refreshToken string) error
}

// service implements the Service interface
type service struct {
	users    CredentialStore
	tokens   TokenIssuer
	sessions session.Manager
	limiter  ratelimit.LoginLimiter
}

// NewService creates a new authentication service. A nil limiter disables throttling.
func NewService(credentials CredentialStore, tokens TokenIssuer, sessions session.Manager, limiter ratelimit.LoginLimiter) Service {
	if limiter == nil {
		limiter = ratelimit.NewNoop()
	}
	return &service{
		users:    credentials,
		tokens:   tokens,
		sessions: sessions,
		limiter:  limiter,
	}
}

// Signup stores the user together with its first session. Everything that
// can fail runs before the single write, so a failed signup stores nothing.
func (s *service) Signup(ctx context.Context, email, password string) (*Result, error) {
	user, err := s.users.Prepare(email, password)
	if err != nil {
		return nil, err
	}

	first, err := s.sessions.New()
	if err != nil {
		return nil, err
	}

	accessToken, err := s.tokens.GenerateAccessToken(user.ID)
	if err != nil {
		return nil, err
	}

	user.Sessions = []users.Session{first}
	if err := s.users.Register(ctx, user); err != nil {
		return nil, err
	}

	return &Result{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: first.Token,
	}, nil
}

// Login verifies credentials and opens a new session
func (s *service) Login(ctx context.Context, email, password string) (*Result, error) {
	if err := s.limiter.Allow(ctx, email); err != nil {
		if errors.Is(err, ratelimit.ErrTooManyAttempts) {
			return nil, err
		}
		slog.Warn("Login limiter unavailable, allowing attempt", "error", err)
	}

	user, err := s.users.VerifyCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Reset(ctx, email); err != nil {
		slog.Warn("Failed to reset login limiter", "user_id", user.ID, "error", err)
	}

	return s.startSession(ctx, user)
}

// startSession signs the access token before the session is stored so a
// signing failure leaves no orphaned session behind.
func (s *service) startSession(ctx context.Context, user *users.User) (*Result, error) {
	accessToken, err := s.tokens.GenerateAccessToken(user.ID)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.sessions.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	return &Result{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// IssueAccessToken mints a fresh access token for an already verified session
func (s *service) IssueAccessToken(userID string) (string, error) {
	return s.tokens.GenerateAccessToken(userID)
}

// Logout revokes the session holding refreshToken
func (s *service) Logout(ctx context.Context, userID, refreshToken string) error {
	if err := s.sessions.Revoke(ctx, userID, refreshToken); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}
