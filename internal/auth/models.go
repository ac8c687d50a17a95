package auth

import "tasklist/internal/users"

// Header names carried by authenticated requests and auth responses
const (
	HeaderAccessToken  = "x-access-token"
	HeaderRefreshToken = "x-refresh-token"
	HeaderUserID       = "_id"
)

// CredentialsRequest is the payload for signup and login
type CredentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AccessTokenResponse is returned by the refresh endpoint
type AccessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// Result is what signup and login hand back to the handler
type Result struct {
	User         *users.User
	AccessToken  string
	RefreshToken string
}
