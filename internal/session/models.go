package session

import "time"

const (
	// DefaultTTL is the lifetime of a refresh-token session
	DefaultTTL = 10 * 24 * time.Hour
	// DefaultMaxPerUser caps the number of sessions stored per user
	DefaultMaxPerUser = 10
)

// Config controls session lifetime and per-user storage bounds
type Config struct {
	TTL        time.Duration
	MaxPerUser int
}

// DefaultConfig returns the stock session settings
func DefaultConfig() Config {
	return Config{
		TTL:        DefaultTTL,
		MaxPerUser: DefaultMaxPerUser,
	}
}

func (c Config) normalized() Config {
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.MaxPerUser <= 0 {
		c.MaxPerUser = DefaultMaxPerUser
	}
	return c
}
