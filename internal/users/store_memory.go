package users

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used as a test double by the handler
// and end-to-end tests.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*User
	byEmail map[string]string
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryStore) Create(ctx context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return ErrDuplicateEmail
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	s.byID[user.ID] = user.clone()
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u.clone(), nil
}

func (s *MemoryStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return s.byID[id].clone(), nil
}

func (s *MemoryStore) GetByIDAndSessionToken(ctx context.Context, id, token string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok || !u.hasSession(token) {
		return nil, ErrNotFound
	}
	return u.clone(), nil
}

func (s *MemoryStore) UpdateSessions(ctx context.Context, id string, fn func([]Session) []Session) ([]Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}

	current := append([]Session(nil), u.Sessions...)
	u.Sessions = fn(current)
	return append([]Session(nil), u.Sessions...), nil
}
