package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "soundhub:signin:"

type counterStore interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// RedisLimiter is a fixed-window counter shared by every server instance:
// INCR per attempt, EXPIRE on the first hit of a window.
type RedisLimiter struct {
	store   counterStore
	limit   int
	window  time.Duration
	timeout time.Duration
}

func NewRedisLimiter(cfg Config) *RedisLimiter {
	timeout := cfg.RedisTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})
	return newRedisLimiter(client, cfg.Limit, cfg.Window, timeout)
}

func newRedisLimiter(store counterStore, limit int, window, timeout time.Duration) *RedisLimiter {
	return &RedisLimiter{store: store, limit: limit, window: window, timeout: timeout}
}

func (r *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	k := keyPrefix + key

	count, err := r.store.Incr(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis incr: %w", err)
	}
	if count == 1 {
		if err := r.store.Expire(ctx, k, r.window).Err(); err != nil {
			return false, 0, fmt.Errorf("redis expire: %w", err)
		}
	}
	if count <= int64(r.limit) {
		return true, 0, nil
	}

	ttl, err := r.store.TTL(ctx, k).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis ttl: %w", err)
	}
	if ttl <= 0 {
		return false, r.window, nil
	}
	return false, ttl, nil
}
