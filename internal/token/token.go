// Package token issues and verifies the credentials handed to API clients:
// short-lived HS256 access tokens and opaque refresh tokens.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultAccessTokenTTL is how long an access token stays valid.
	DefaultAccessTokenTTL = 15 * time.Minute

	// RefreshTokenBytes is the amount of entropy in a refresh token (hex encoded to twice the length).
	RefreshTokenBytes = 64
)

var (
	// ErrInvalidToken is returned for malformed, tampered or wrongly signed tokens
	ErrInvalidToken = errors.New("invalid access token")
	// ErrTokenExpired is returned when the token is past its exp claim
	ErrTokenExpired = errors.New("access token expired")
	// ErrEmptySecret is returned when the issuer is built without a signing key
	ErrEmptySecret = errors.New("jwt secret must not be empty")
)

// Claims carried by an access token.
type Claims struct {
	UserID string `json:"_id"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies tokens with a single HMAC secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option customizes an Issuer.
type Option func(*Issuer)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

// WithTTL overrides DefaultAccessTokenTTL.
func WithTTL(ttl time.Duration) Option {
	return func(i *Issuer) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

// NewIssuer creates an issuer for the given secret
func NewIssuer(secret string, opts ...Option) (*Issuer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	i := &Issuer{
		secret: []byte(secret),
		ttl:    DefaultAccessTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}

	return i, nil
}

// TTL returns the lifetime of issued access tokens.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// GenerateAccessToken signs an access token for userID.
func (i *Issuer) GenerateAccessToken(userID string) (string, error) {
	now := i.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return signed, nil
}

// VerifyAccessToken checks signature, algorithm and expiry and returns the
// user id from the `_id` claim.
func (i *Issuer) VerifyAccessToken(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			return i.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !parsed.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}

	return claims.UserID, nil
}

// GenerateRefreshToken returns RefreshTokenBytes of crypto/rand output, hex encoded.
func GenerateRefreshToken() (string, error) {
	buf := make([]byte, RefreshTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
