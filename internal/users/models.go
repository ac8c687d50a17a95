package users

import (
	"encoding/json"
	"time"
)

// Session is a refresh-token session embedded in its owning User
type Session struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expiresAt"` // Unix seconds
}

// User is an account with its embedded session list
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Sessions     []Session
	CreatedAt    time.Time
}

// publicUser is the only external shape of a User; the password hash and
// sessions never leave the process.
type publicUser struct {
	ID    string `json:"_id"`
	Email string `json:"email"`
}

// MarshalJSON implements json.Marshaler
func (u User) MarshalJSON() ([]byte, error) {
	return json.Marshal(publicUser{ID: u.ID, Email: u.Email})
}

// clone returns a deep copy so callers never share the session slice with a store
func (u *User) clone() *User {
	c := *u
	c.Sessions = append([]Session(nil), u.Sessions...)
	return &c
}

// hasSession reports whether a session with exactly this token exists
func (u *User) hasSession(token string) bool {
	for _, s := range u.Sessions {
		if s.Token == token {
			return true
		}
	}
	return false
}
