package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"tasklist/internal/ratelimit"
	"tasklist/internal/session"
	"tasklist/internal/users"

	"github.com/gin-gonic/gin"
)

// Handler handles authentication-related HTTP requests
type Handler struct {
	service Service
}

// NewHandler creates a new authentication handler
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Signup handles POST /users
func (h *Handler) Signup(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		slog.Warn("Signup failed",
			"error", err.Error(),
			"request_id", c.GetString("request_id"),
		)

		switch {
		case errors.Is(err, users.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, users.ErrDuplicateEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": "email already registered"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to create account"})
		}
		return
	}

	writeSession(c, res)
}

// Login handles POST /users/login
func (h *Handler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ratelimit.ErrTooManyAttempts):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		case errors.Is(err, users.ErrInvalidCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email or password"})
		default:
			slog.Error("Login failed",
				"error", err.Error(),
				"request_id", c.GetString("request_id"),
			)
			c.JSON(http.StatusBadRequest, gin.H{"error": "failed to log in"})
		}
		return
	}

	writeSession(c, res)
}

func writeSession(c *gin.Context, res *Result) {
	c.Header(HeaderRefreshToken, res.RefreshToken)
	c.Header(HeaderAccessToken, res.AccessToken)
	c.JSON(http.StatusOK, res.User)
}

// RefreshAccessToken handles GET /users/me/access-token behind the session guard
func (h *Handler) RefreshAccessToken(c *gin.Context) {
	user, ok := CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": MsgSessionUserNotFound})
		return
	}

	accessToken, err := h.service.IssueAccessToken(user.ID)
	if err != nil {
		slog.Error("Failed to issue access token",
			"user_id", user.ID,
			"error", err.Error(),
			"request_id", c.GetString("request_id"),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to generate access token"})
		return
	}

	c.Header(HeaderAccessToken, accessToken)
	c.JSON(http.StatusOK, AccessTokenResponse{AccessToken: accessToken})
}

// Logout handles DELETE /users/me/session behind the session guard
func (h *Handler) Logout(c *gin.Context) {
	err := h.service.Logout(c.Request.Context(), UserID(c), RefreshToken(c))
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": MsgSessionInvalid})
			return
		}
		slog.Error("Failed to revoke session",
			"user_id", UserID(c),
			"error", err.Error(),
			"request_id", c.GetString("request_id"),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log out"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully."})
}

// RegisterRoutes mounts the /users endpoints
func (h *Handler) RegisterRoutes(r gin.IRouter, mw *Middleware) {
	r.POST("/users", h.Signup)
	r.POST("/users/login", h.Login)

	me := r.Group("/users/me", mw.VerifySession())
	{
		me.GET("/access-token", h.RefreshAccessToken)
		me.DELETE("/session", h.Logout)
	}
}
