// Package config loads and validates the API configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrMissingJWTSecret is returned when JWT_SECRET_KEY is not set
	ErrMissingJWTSecret = errors.New("JWT_SECRET_KEY is required")
	// ErrWeakBcryptCost is returned when BCRYPT_COST is below bcrypt.DefaultCost
	ErrWeakBcryptCost = fmt.Errorf("BCRYPT_COST must be at least %d", bcrypt.DefaultCost)
)

// ValidateEnv validates that all required environment variables are set
func ValidateEnv(requiredVars []string) error {
	var missing []string

	for _, varName := range requiredVars {
		if os.Getenv(varName) == "" {
			missing = append(missing, varName)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return nil
}

// Validate checks the security-relevant settings of a loaded Config
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if c.BcryptCost < bcrypt.DefaultCost || c.BcryptCost > bcrypt.MaxCost {
		return ErrWeakBcryptCost
	}
	if c.AccessTokenTTL <= 0 || c.SessionTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if c.SessionMaxPerUser < 1 {
		return errors.New("SESSION_MAX_PER_USER must be at least 1")
	}
	return nil
}
