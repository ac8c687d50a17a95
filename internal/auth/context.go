package auth

import (
	"tasklist/internal/users"

	"github.com/gin-gonic/gin"
)

// Keys set on the gin context by the guards
const (
	ContextUserID       = "user_id"
	ContextUser         = "user"
	ContextRefreshToken = "refresh_token"
)

// UserID returns the caller id set by either guard
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

// CurrentUser returns the user loaded by the session guard
func CurrentUser(c *gin.Context) (*users.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*users.User)
	return u, ok
}

// RefreshToken returns the refresh token validated by the session guard
func RefreshToken(c *gin.Context) string {
	return c.GetString(ContextRefreshToken)
}
