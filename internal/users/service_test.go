package users

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	return NewService(store, NewHasher(bcrypt.DefaultCost)), store
}

func TestCreate_HashesPassword(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	u, err := svc.Create(ctx, "  a@b.com ", "12345678")
	require.NoError(t, err)

	assert.NotEmpty(t, u.ID)
	assert.Equal(t, "a@b.com", u.Email)
	assert.NotEqual(t, "12345678", u.PasswordHash)
	assert.Empty(t, u.Sessions)

	stored, err := store.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, stored.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("12345678")))
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"missing email", "", "12345678"},
		{"blank email", "   ", "12345678"},
		{"short password", "a@b.com", "1234567"},
		{"password over bcrypt limit", "a@b.com", strings.Repeat("x", 73)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.email, tc.password)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "dup@b.com", "12345678")
	require.NoError(t, err)

	_, err = svc.Create(ctx, "dup@b.com", "87654321")
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestCreate_SamePasswordDifferentSalts(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u1, err := svc.Create(ctx, "one@b.com", "samepassword")
	require.NoError(t, err)
	u2, err := svc.Create(ctx, "two@b.com", "samepassword")
	require.NoError(t, err)

	assert.NotEqual(t, u1.PasswordHash, u2.PasswordHash)

	_, err = svc.VerifyCredentials(ctx, "one@b.com", "samepassword")
	assert.NoError(t, err)
	_, err = svc.VerifyCredentials(ctx, "two@b.com", "samepassword")
	assert.NoError(t, err)
}

func TestVerifyCredentials_NoEnumeration(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "known@b.com", "12345678")
	require.NoError(t, err)

	_, unknownErr := svc.VerifyCredentials(ctx, "unknown@b.com", "12345678")
	_, wrongErr := svc.VerifyCredentials(ctx, "known@b.com", "wrong-password")

	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestFindByIDAndSessionToken(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	u, err := svc.Create(ctx, "s@b.com", "12345678")
	require.NoError(t, err)

	_, err = store.UpdateSessions(ctx, u.ID, func(ss []Session) []Session {
		return append(ss, Session{Token: "tok-1", ExpiresAt: 100})
	})
	require.NoError(t, err)

	found, err := svc.FindByIDAndSessionToken(ctx, u.ID, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	_, err = svc.FindByIDAndSessionToken(ctx, u.ID, "tok-2")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.FindByIDAndSessionToken(ctx, "other-id", "tok-1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.FindByIDAndSessionToken(ctx, u.ID, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserJSON_OmitsSecrets(t *testing.T) {
	u := User{
		ID:           "id-1",
		Email:        "a@b.com",
		PasswordHash: "$2a$10$hash",
		Sessions:     []Session{{Token: "tok", ExpiresAt: 1}},
	}

	for _, v := range []any{u, &u} {
		b, err := json.Marshal(v)
		require.NoError(t, err)

		var out map[string]any
		require.NoError(t, json.Unmarshal(b, &out))

		assert.Equal(t, "id-1", out["_id"])
		assert.Equal(t, "a@b.com", out["email"])
		assert.NotContains(t, out, "password")
		assert.NotContains(t, out, "PasswordHash")
		assert.NotContains(t, out, "sessions")
		assert.NotContains(t, string(b), "$2a$10$hash")
	}
}

func TestFindByEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.Create(ctx, "a@b.com", "12345678")
	require.NoError(t, err)

	found, err := svc.FindByEmail(ctx, " a@b.com ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	_, err = svc.FindByEmail(ctx, "nobody@b.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPrepareAndRegister(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	u, err := svc.Prepare(" p@b.com ", "12345678")
	require.NoError(t, err)
	assert.Equal(t, "p@b.com", u.Email)

	_, err = store.GetByEmail(ctx, "p@b.com")
	require.ErrorIs(t, err, ErrNotFound, "Prepare must not store the user")

	u.Sessions = []Session{{Token: "t1", ExpiresAt: 1}}
	require.NoError(t, svc.Register(ctx, u))

	found, err := svc.FindByIDAndSessionToken(ctx, u.ID, "t1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	_, err = svc.Prepare("", "12345678")
	assert.ErrorIs(t, err, ErrValidation)
}
