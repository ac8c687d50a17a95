package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"tasklist/internal/session"
	"tasklist/internal/token"

	"github.com/gin-gonic/gin"
)

// Error messages returned by the session guard
const (
	MsgSessionUserNotFound = "User not found. Make sure that the Refresh Token and User ID are correct."
	MsgSessionInvalid      = "Refresh Token has expired or Session is invalid"
)

// Guard names and rejection reasons reported to the RejectFunc
const (
	GuardAccess  = "access"
	GuardSession = "session"

	ReasonMissing  = "missing"
	ReasonInvalid  = "invalid"
	ReasonExpired  = "expired"
	ReasonNotFound = "not_found"
)

// RejectFunc observes guard rejections
type RejectFunc func(guard, reason string)

// Middleware holds the guards' dependencies
type Middleware struct {
	tokens   TokenIssuer
	users    CredentialStore
	sessions session.Manager
	onReject RejectFunc
}

// NewMiddleware creates the access and session guards. onReject may be nil.
func NewMiddleware(tokens TokenIssuer, credentials CredentialStore, sessions session.Manager, onReject RejectFunc) *Middleware {
	if onReject == nil {
		onReject = func(string, string) {}
	}
	return &Middleware{
		tokens:   tokens,
		users:    credentials,
		sessions: sessions,
		onReject: onReject,
	}
}

// Authenticate verifies x-access-token and sets user_id
func (m *Middleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(HeaderAccessToken)
		if raw == "" {
			m.onReject(GuardAccess, ReasonMissing)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "access token is required"})
			return
		}

		userID, err := m.tokens.VerifyAccessToken(raw)
		if err != nil {
			reason, msg := ReasonInvalid, "invalid access token"
			if errors.Is(err, token.ErrTokenExpired) {
				reason, msg = ReasonExpired, "access token expired"
			}
			m.onReject(GuardAccess, reason)
			slog.Debug("Access token rejected",
				"error", err.Error(),
				"request_id", c.GetString("request_id"),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(ContextUserID, userID)
		c.Next()
	}
}

// VerifySession checks x-refresh-token against the sessions of the user named by _id
func (m *Middleware) VerifySession() gin.HandlerFunc {
	return func(c *gin.Context) {
		refreshToken := c.GetHeader(HeaderRefreshToken)
		userID := c.GetHeader(HeaderUserID)

		user, err := m.users.FindByIDAndSessionToken(c.Request.Context(), userID, refreshToken)
		if err != nil {
			m.onReject(GuardSession, ReasonNotFound)
			slog.Warn("Session lookup failed",
				"user_id", userID,
				"error", err.Error(),
				"request_id", c.GetString("request_id"),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": MsgSessionUserNotFound})
			return
		}

		if _, err := m.sessions.Validate(user, refreshToken); err != nil {
			reason := ReasonNotFound
			if errors.Is(err, session.ErrSessionExpired) {
				reason = ReasonExpired
			}
			m.onReject(GuardSession, reason)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": MsgSessionInvalid})
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUser, user)
		c.Set(ContextRefreshToken, refreshToken)
		c.Next()
	}
}
