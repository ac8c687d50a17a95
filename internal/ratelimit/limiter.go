// Package ratelimit throttles login attempts per email with a fixed-window
// counter kept in Redis.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrTooManyAttempts is returned once the window's attempt budget is spent
var ErrTooManyAttempts = errors.New("too many login attempts, try again later")

// LoginLimiter guards the login endpoint
type LoginLimiter interface {
	// Allow counts one attempt for email and reports ErrTooManyAttempts when over budget.
	Allow(ctx context.Context, email string) error
	// Reset clears the counter after a successful login.
	Reset(ctx context.Context, email string) error
}

// Config for the Redis limiter
type Config struct {
	MaxAttempts int
	Window      time.Duration
}

type redisLimiter struct {
	client *redis.Client
	cfg    Config
}

// NewRedisLimiter creates a Redis-backed fixed-window limiter
func NewRedisLimiter(client *redis.Client, cfg Config) LoginLimiter {
	return &redisLimiter{client: client, cfg: cfg}
}

// Allow increments the attempt counter. The window starts whenever the
// counter has no expiry, so a counter left without one by a failed EXPIRE
// heals on the next attempt.
func (l *redisLimiter) Allow(ctx context.Context, email string) error {
	key := loginKey(email)

	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.TTL(ctx, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to increment login counter: %w", err)
	}

	if ttl.Val() < 0 {
		if err := l.client.Expire(ctx, key, l.cfg.Window).Err(); err != nil {
			return fmt.Errorf("failed to set login window: %w", err)
		}
	}

	if incr.Val() > int64(l.cfg.MaxAttempts) {
		return ErrTooManyAttempts
	}

	return nil
}

// Reset deletes the counter
func (l *redisLimiter) Reset(ctx context.Context, email string) error {
	return l.client.Del(ctx, loginKey(email)).Err()
}

func loginKey(email string) string {
	return "login:" + strings.ToLower(strings.TrimSpace(email))
}

type noopLimiter struct{}

// NewNoop returns a limiter that never throttles, used when Redis is not configured
func NewNoop() LoginLimiter {
	return noopLimiter{}
}

func (noopLimiter) Allow(context.Context, string) error { return nil }

func (noopLimiter) Reset(context.Context, string) error { return nil }
