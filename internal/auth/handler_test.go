package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tasklist/internal/ratelimit"
	"tasklist/internal/session"
	"tasklist/internal/token"
	"tasklist/internal/users"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	router   *gin.Engine
	store    *users.MemoryStore
	issuer   *token.Issuer
	sessions session.Manager
	now      time.Time
	rejects  []string
}

type limiterStub struct {
	allowErr error
	resets   int
}

func (l *limiterStub) Allow(context.Context, string) error { return l.allowErr }

func (l *limiterStub) Reset(context.Context, string) error {
	l.resets++
	return nil
}

// flakySessions fails New and Create while err is set
type flakySessions struct {
	session.Manager
	err error
}

func (f *flakySessions) New() (users.Session, error) {
	if f.err != nil {
		return users.Session{}, f.err
	}
	return f.Manager.New()
}

func (f *flakySessions) Create(ctx context.Context, user *users.User) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.Manager.Create(ctx, user)
}

func newTestEnv(t *testing.T, limiter ratelimit.LoginLimiter) *testEnv {
	return newTestEnvWithSessions(t, limiter, nil)
}

// newTestEnvWithSessions lets wrap replace the session manager the service sees
func newTestEnvWithSessions(t *testing.T, limiter ratelimit.LoginLimiter, wrap func(session.Manager) session.Manager) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{now: time.Now()}
	clock := func() time.Time { return env.now }

	env.store = users.NewMemoryStore()
	credentials := users.NewService(env.store, users.NewHasher(bcrypt.DefaultCost))

	issuer, err := token.NewIssuer("test-secret", token.WithClock(clock))
	require.NoError(t, err)
	env.issuer = issuer

	env.sessions = session.NewManager(env.store, token.GenerateRefreshToken, session.DefaultConfig(), session.WithClock(clock))

	if wrap != nil {
		env.sessions = wrap(env.sessions)
	}

	svc := NewService(credentials, issuer, env.sessions, limiter)
	mw := NewMiddleware(issuer, credentials, env.sessions, func(guard, reason string) {
		env.rejects = append(env.rejects, guard+":"+reason)
	})

	env.router = gin.New()
	NewHandler(svc).RegisterRoutes(env.router, mw)
	env.router.GET("/protected", mw.Authenticate(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c)})
	})

	return env
}

func (e *testEnv) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestSignup(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/users", CredentialsRequest{Email: "a@b.com", Password: "12345678"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.NotEmpty(t, body["_id"])
	assert.Equal(t, "a@b.com", body["email"])
	assert.NotContains(t, body, "password")
	assert.NotContains(t, body, "sessions")

	refresh := w.Header().Get(HeaderRefreshToken)
	access := w.Header().Get(HeaderAccessToken)
	assert.Len(t, refresh, 128)

	id, err := env.issuer.VerifyAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, body["_id"], id)

	stored, err := env.store.GetByIDAndSessionToken(context.Background(), id, refresh)
	require.NoError(t, err)
	require.Len(t, stored.Sessions, 1)
	assert.Equal(t, env.now.Add(10*24*time.Hour).Unix(), stored.Sessions[0].ExpiresAt)
}

func TestSignup_Rejections(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/users", CredentialsRequest{Email: "dup@b.com", Password: "12345678"}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	tests := []struct {
		name string
		body any
	}{
		{"short password", CredentialsRequest{Email: "x@b.com", Password: "1234567"}},
		{"missing email", map[string]string{"password": "12345678"}},
		{"duplicate email", CredentialsRequest{Email: "dup@b.com", Password: "12345678"}},
		{"malformed body", "not-an-object"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/users", tc.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decode(t, w), "error")
			assert.Empty(t, w.Header().Get(HeaderRefreshToken))
		})
	}
}

func TestSignup_SessionFailureStoresNothing(t *testing.T) {
	flaky := &flakySessions{err: errors.New("store down")}
	env := newTestEnvWithSessions(t, nil, func(m session.Manager) session.Manager {
		flaky.Manager = m
		return flaky
	})
	creds := CredentialsRequest{Email: "a@b.com", Password: "12345678"}

	w := env.do(http.MethodPost, "/users", creds, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, w.Header().Get(HeaderRefreshToken))

	_, err := env.store.GetByEmail(context.Background(), "a@b.com")
	assert.ErrorIs(t, err, users.ErrNotFound)

	flaky.err = nil
	w = env.do(http.MethodPost, "/users", creds, nil)
	require.Equal(t, http.StatusOK, w.Code)

	u, err := env.store.GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	require.Len(t, u.Sessions, 1)
	assert.Equal(t, w.Header().Get(HeaderRefreshToken), u.Sessions[0].Token)
}

func TestLogin_SessionFailure(t *testing.T) {
	flaky := &flakySessions{}
	env := newTestEnvWithSessions(t, nil, func(m session.Manager) session.Manager {
		flaky.Manager = m
		return flaky
	})
	creds := CredentialsRequest{Email: "a@b.com", Password: "12345678"}
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/users", creds, nil).Code)

	flaky.err = errors.New("store down")
	w := env.do(http.MethodPost, "/users/login", creds, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, w.Header().Get(HeaderAccessToken))

	u, err := env.store.GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Len(t, u.Sessions, 1)
}

func TestLogin(t *testing.T) {
	limiter := &limiterStub{}
	env := newTestEnv(t, limiter)
	creds := CredentialsRequest{Email: "a@b.com", Password: "12345678"}

	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/users", creds, nil).Code)

	w := env.do(http.MethodPost, "/users/login", creds, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a@b.com", decode(t, w)["email"])
	assert.NotEmpty(t, w.Header().Get(HeaderAccessToken))
	assert.Equal(t, 1, limiter.resets)

	u, err := env.store.GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Len(t, u.Sessions, 2)
}

func TestLogin_InvalidCredentialsAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t, nil)
	require.Equal(t, http.StatusOK,
		env.do(http.MethodPost, "/users", CredentialsRequest{Email: "a@b.com", Password: "12345678"}, nil).Code)

	wrong := env.do(http.MethodPost, "/users/login", CredentialsRequest{Email: "a@b.com", Password: "nope-nope"}, nil)
	unknown := env.do(http.MethodPost, "/users/login", CredentialsRequest{Email: "x@b.com", Password: "12345678"}, nil)

	assert.Equal(t, http.StatusBadRequest, wrong.Code)
	assert.Equal(t, http.StatusBadRequest, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
}

func TestLogin_RateLimited(t *testing.T) {
	env := newTestEnv(t, &limiterStub{allowErr: ratelimit.ErrTooManyAttempts})

	w := env.do(http.MethodPost, "/users/login", CredentialsRequest{Email: "a@b.com", Password: "12345678"}, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestLogin_LimiterFailsOpen(t *testing.T) {
	env := newTestEnv(t, &limiterStub{allowErr: errors.New("redis down")})
	creds := CredentialsRequest{Email: "a@b.com", Password: "12345678"}
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/users", creds, nil).Code)

	w := env.do(http.MethodPost, "/users/login", creds, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRefreshAccessToken(t *testing.T) {
	env := newTestEnv(t, nil)

	signup := env.do(http.MethodPost, "/users", CredentialsRequest{Email: "a@b.com", Password: "12345678"}, nil)
	require.Equal(t, http.StatusOK, signup.Code)
	userID := decode(t, signup)["_id"].(string)
	refresh := signup.Header().Get(HeaderRefreshToken)
	first := signup.Header().Get(HeaderAccessToken)

	env.now = env.now.Add(2 * time.Second)

	w := env.do(http.MethodGet, "/users/me/access-token", nil, map[string]string{
		HeaderRefreshToken: refresh,
		HeaderUserID:       userID,
	})
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	second := body["accessToken"].(string)
	assert.Equal(t, second, w.Header().Get(HeaderAccessToken))
	assert.NotEqual(t, first, second)

	id, err := env.issuer.VerifyAccessToken(second)
	require.NoError(t, err)
	assert.Equal(t, userID, id)
}

func TestRefreshAccessToken_GuardFailures(t *testing.T) {
	env := newTestEnv(t, nil)

	signup := env.do(http.MethodPost, "/users", CredentialsRequest{Email: "a@b.com", Password: "12345678"}, nil)
	require.Equal(t, http.StatusOK, signup.Code)
	userID := decode(t, signup)["_id"].(string)
	refresh := signup.Header().Get(HeaderRefreshToken)

	tests := []struct {
		name    string
		headers map[string]string
		advance time.Duration
		want    string
		reason  string
	}{
		{"no headers", nil, 0, MsgSessionUserNotFound, "session:not_found"},
		{"unknown token", map[string]string{HeaderRefreshToken: "deadbeef", HeaderUserID: userID}, 0, MsgSessionUserNotFound, "session:not_found"},
		{"wrong user", map[string]string{HeaderRefreshToken: refresh, HeaderUserID: "someone-else"}, 0, MsgSessionUserNotFound, "session:not_found"},
		{"expired session", map[string]string{HeaderRefreshToken: refresh, HeaderUserID: userID}, 11 * 24 * time.Hour, MsgSessionInvalid, "session:expired"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env.rejects = nil
			env.now = env.now.Add(tc.advance)

			w := env.do(http.MethodGet, "/users/me/access-token", nil, tc.headers)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tc.want, decode(t, w)["error"])
			assert.Equal(t, []string{tc.reason}, env.rejects)
		})
	}
}

func TestRefreshAccessToken_TokenMatchingNeitherSession(t *testing.T) {
	env := newTestEnv(t, nil)
	creds := CredentialsRequest{Email: "a@b.com", Password: "12345678"}

	signup := env.do(http.MethodPost, "/users", creds, nil)
	require.Equal(t, http.StatusOK, signup.Code)
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/users/login", creds, nil).Code)
	userID := decode(t, signup)["_id"].(string)

	u, err := env.store.GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	require.Len(t, u.Sessions, 2)

	w := env.do(http.MethodGet, "/users/me/access-token", nil, map[string]string{
		HeaderRefreshToken: "f00d",
		HeaderUserID:       userID,
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	// the store lookup already requires a matching token, so the guard
	// answers with the user-not-found message
	assert.Equal(t, MsgSessionUserNotFound, decode(t, w)["error"])
	assert.Empty(t, w.Header().Get(HeaderAccessToken))
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t, nil)

	signup := env.do(http.MethodPost, "/users", CredentialsRequest{Email: "a@b.com", Password: "12345678"}, nil)
	require.Equal(t, http.StatusOK, signup.Code)
	headers := map[string]string{
		HeaderRefreshToken: signup.Header().Get(HeaderRefreshToken),
		HeaderUserID:       decode(t, signup)["_id"].(string),
	}

	w := env.do(http.MethodDelete, "/users/me/session", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/users/me/access-token", nil, headers)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, MsgSessionUserNotFound, decode(t, w)["error"])
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t, nil)

	valid, err := env.issuer.GenerateAccessToken("user-1")
	require.NoError(t, err)

	w := env.do(http.MethodGet, "/protected", nil, map[string]string{HeaderAccessToken: valid})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", decode(t, w)["user_id"])

	w = env.do(http.MethodGet, "/protected", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(http.MethodGet, "/protected", nil, map[string]string{HeaderAccessToken: valid + "x"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	env.now = env.now.Add(16 * time.Minute)
	w = env.do(http.MethodGet, "/protected", nil, map[string]string{HeaderAccessToken: valid})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "access token expired", decode(t, w)["error"])

	assert.Equal(t, []string{"access:missing", "access:invalid", "access:expired"}, env.rejects)
}

func TestRefreshAccessToken_RequiresSessionUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/refresh", NewHandler(nil).RefreshAccessToken)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/refresh", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), MsgSessionUserNotFound)
}
