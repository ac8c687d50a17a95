// Package server assembles the HTTP API: it wires the stores into the
// services, mounts the routes and builds the *http.Server.
package server

import (
	"fmt"
	"net/http"
	"time"

	"tasklist/internal/auth"
	"tasklist/internal/config"
	"tasklist/internal/lists"
	"tasklist/internal/metrics"
	"tasklist/internal/ratelimit"
	"tasklist/internal/session"
	"tasklist/internal/storage"
	"tasklist/internal/token"
	"tasklist/internal/users"
)

// HealthChecker reports the state of a backing service
type HealthChecker interface {
	Health() map[string]string
}

// Deps are the backing services. DB, Storage and Limiter are optional.
type Deps struct {
	DB      HealthChecker
	Users   users.Store
	Lists   lists.Repository
	Storage storage.Service
	Limiter ratelimit.LoginLimiter
	Clock   func() time.Time
}

// Server holds the dependencies for the HTTP server
type Server struct {
	cfg *config.Config

	db      HealthChecker
	storage storage.Service
	metrics *metrics.Metrics

	authHandler  *auth.Handler
	authMW       *auth.Middleware
	listsHandler *lists.Handler
}

// New wires the services together
func New(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.Users == nil || deps.Lists == nil {
		return nil, fmt.Errorf("users and lists stores are required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	issuer, err := token.NewIssuer(cfg.JWTSecret, token.WithTTL(cfg.AccessTokenTTL), token.WithClock(clock))
	if err != nil {
		return nil, fmt.Errorf("failed to create token issuer: %w", err)
	}

	credentials := users.NewService(deps.Users, users.NewHasher(cfg.BcryptCost))
	sessions := session.NewManager(deps.Users, token.GenerateRefreshToken, session.Config{
		TTL:        cfg.SessionTTL,
		MaxPerUser: cfg.SessionMaxPerUser,
	}, session.WithClock(clock))

	m := metrics.New()

	var files lists.Presigner
	if deps.Storage != nil {
		files = deps.Storage
	}

	return &Server{
		cfg:          cfg,
		db:           deps.DB,
		storage:      deps.Storage,
		metrics:      m,
		authHandler:  auth.NewHandler(auth.NewService(credentials, issuer, sessions, deps.Limiter)),
		authMW:       auth.NewMiddleware(issuer, credentials, sessions, m.ObserveAuthRejection),
		listsHandler: lists.NewHandler(lists.NewService(deps.Lists), files),
	}, nil
}

// HTTPServer builds the http.Server with the configured timeouts
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.RegisterRoutes(),
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
}
