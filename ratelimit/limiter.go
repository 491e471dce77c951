// Package ratelimit implements fixed-window counters over arbitrary keys,
// backed by Redis. The limiter is a non-critical-path guard: when the store
// is unreachable it fails open, returning an allowed Result alongside a
// wrapped ErrUnavailable so the caller can record the degraded mode.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable wraps transport failures talking to the backing store.
var ErrUnavailable = errors.New("rate limit backend unavailable")

// Result is one admission decision. RetryAfter is meaningful only when
// Allowed is false and is bounded by the window.
type Result struct {
	Allowed    bool
	Count      int64
	RetryAfter time.Duration
}

// Limiter enforces fixed-window budgets. Keys are caller-defined strings;
// the limiter imposes no namespace of its own.
type Limiter struct {
	redis redis.UniversalClient
}

func New(redisClient redis.UniversalClient) *Limiter {
	return &Limiter{redis: redisClient}
}

// Check atomically increments the counter for key and admits or blocks the
// caller. The window TTL is set only on the 0→1 transition, so subsequent
// hits never extend it (true fixed-window semantics). Store failures return
// an allowed Result plus a wrapped ErrUnavailable.
func (l *Limiter) Check(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return Result{Allowed: true}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, window).Err(); err != nil {
			return Result{Allowed: true, Count: count}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	if count > int64(limit) {
		retryAfter, err := l.redis.TTL(ctx, key).Result()
		if err != nil || retryAfter < 0 {
			// The counter is over budget but its TTL is unreadable; block
			// with the full window rather than letting the burst through.
			retryAfter = window
		}
		return Result{Allowed: false, Count: count, RetryAfter: retryAfter}, nil
	}

	return Result{Allowed: true, Count: count}, nil
}

// Reset clears the counter for key. Used when a guarded operation succeeds
// and the failure streak should not carry into the next window.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	if err := l.redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
