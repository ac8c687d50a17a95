// Package users is the credential store: account creation, lookup, and
// password verification over a pluggable Store.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MinPasswordLength is the shortest accepted plaintext password
const MinPasswordLength = 8

// Service implements the credential store operations
type Service struct {
	store  Store
	hasher *Hasher

	dummyOnce sync.Once
	dummyHash string
}

// NewService creates a credential service
func NewService(store Store, hasher *Hasher) *Service {
	return &Service{store: store, hasher: hasher}
}

// Create validates the input, hashes the password once and stores a new user
func (s *Service) Create(ctx context.Context, email, password string) (*User, error) {
	user, err := s.Prepare(email, password)
	if err != nil {
		return nil, err
	}

	if err := s.Register(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Prepare validates the input and builds an unsaved user with a fresh id and
// the hashed password.
func (s *Service) Prepare(email, password string) (*User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, MinPasswordLength)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Sessions:     []Session{},
	}

	return user, nil
}

// Register stores a prepared user, including any sessions already attached,
// in a single write.
func (s *Service) Register(ctx context.Context, user *User) error {
	return s.store.Create(ctx, user)
}

// FindByEmail returns the user registered under email
func (s *Service) FindByEmail(ctx context.Context, email string) (*User, error) {
	return s.store.GetByEmail(ctx, strings.TrimSpace(email))
}

// FindByIDAndSessionToken returns the user only if it owns a session with this token
func (s *Service) FindByIDAndSessionToken(ctx context.Context, id, token string) (*User, error) {
	if id == "" || token == "" {
		return nil, ErrNotFound
	}
	return s.store.GetByIDAndSessionToken(ctx, id, token)
}

// VerifyCredentials checks an email/password pair. An unknown email and a
// wrong password both yield ErrInvalidCredentials, and an unknown email still
// pays for one bcrypt comparison.
func (s *Service) VerifyCredentials(ctx context.Context, email, password string) (*User, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.hasher.Compare(s.dummy(), password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Compare(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(uuid.NewString())
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
