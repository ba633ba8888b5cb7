// Package ratelimit throttles repeated sign-in attempts per client key.
package ratelimit

import (
	"context"
	"time"
)

// Limiter decides whether another attempt for key is allowed. When it is
// not, retryAfter tells the client how long to wait.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// Config selects and tunes a limiter. A Limit of zero or less disables
// throttling entirely.
type Config struct {
	Limit         int
	Window        time.Duration
	RedisAddr     string
	RedisPassword string
	RedisTimeout  time.Duration
}

// New returns a Redis-backed limiter when RedisAddr is set and an
// in-process limiter otherwise.
func New(cfg Config) Limiter {
	if cfg.Limit <= 0 {
		return Unlimited{}
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.RedisAddr != "" {
		return NewRedisLimiter(cfg)
	}
	return NewMemoryLimiter(cfg.Limit, cfg.Window)
}

// Unlimited allows everything.
type Unlimited struct{}

func (Unlimited) Allow(context.Context, string) (bool, time.Duration, error) {
	return true, 0, nil
}
