// Package cache provides Redis-backed infrastructure: the request rate
// limiter store.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LimiterConfig controls a fixed-window rate limit.
type LimiterConfig struct {
	// Prefix namespaces the counter keys, e.g. "rl:general".
	Prefix string
	// Window is the counting window length.
	Window time.Duration
	// Max is the number of requests allowed per window and key.
	Max int64
}

// DefaultLimiterConfig mirrors the general API limit: 100 requests per
// 15 minutes per client.
func DefaultLimiterConfig() LimiterConfig {
	return LimiterConfig{
		Prefix: "rl:general",
		Window: 15 * time.Minute,
		Max:    100,
	}
}

// StrictLimiterConfig is for credential endpoints: 5 attempts per 15 minutes.
func StrictLimiterConfig() LimiterConfig {
	return LimiterConfig{
		Prefix: "rl:strict",
		Window: 15 * time.Minute,
		Max:    5,
	}
}

// RateLimiter counts requests per key in Redis using a fixed window. The
// counter key carries the window TTL, so expiry resets the count.
type RateLimiter struct {
	client *redis.Client
	cfg    LimiterConfig
}

// NewRateLimiter creates a limiter on top of an existing Redis client.
func NewRateLimiter(client *redis.Client, cfg LimiterConfig) *RateLimiter {
	return &RateLimiter{client: client, cfg: cfg}
}

// NewRedisClient connects a Redis client suitable for the limiter.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Result reports the outcome of one Allow call.
type Result struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// Allow consumes one request slot for the key, typically a client IP.
// Errors come back to the caller so the middleware can decide whether to
// fail open.
func (l *RateLimiter) Allow(ctx context.Context, key string) (Result, error) {
	counterKey := fmt.Sprintf("%s:%s", l.cfg.Prefix, key)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, counterKey)
	pipe.ExpireNX(ctx, counterKey, l.cfg.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limit incr: %w", err)
	}

	count := incr.Val()
	if count > l.cfg.Max {
		ttl, err := l.client.TTL(ctx, counterKey).Result()
		if err != nil || ttl < 0 {
			ttl = l.cfg.Window
		}
		return Result{Allowed: false, Remaining: 0, RetryAfter: ttl}, nil
	}

	return Result{Allowed: true, Remaining: l.cfg.Max - count}, nil
}
