package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow takes a token if one is available without blocking
	Allow() bool
	// Wait blocks until a token is available or ctx is done
	Wait(ctx context.Context) error
	// Reset refills the limiter to full capacity
	Reset()
}

// TokenBucket implements a continuously refilling token bucket.
// With capacity 1 and a one second period, two consecutive takes are
// always at least one second apart.
type TokenBucket struct {
	capacity     float64
	tokens       float64
	refillPeriod time.Duration // time to regain capacity tokens
	lastRefill   time.Time
	now          func() time.Time
	mu           sync.Mutex
}

// NewTokenBucket creates a token bucket that starts full.
// A refillPeriod of zero or less never blocks.
func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	if capacity < 1 {
		capacity = 1
	}
	return &TokenBucket{
		capacity:     float64(capacity),
		tokens:       float64(capacity),
		refillPeriod: refillPeriod,
		lastRefill:   time.Now(),
		now:          time.Now,
	}
}

// PerSecond returns a limiter allowing n requests per second, one at a time.
// n <= 0 disables limiting.
func PerSecond(n int) *TokenBucket {
	if n <= 0 {
		return NewTokenBucket(1, 0)
	}
	return NewTokenBucket(1, time.Second/time.Duration(n))
}

// Allow checks if a request can proceed
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// Wait blocks until a token is available
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if tb.Allow() {
			return nil
		}

		timer := time.NewTimer(tb.timeUntilToken())
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Reset resets the token bucket to full capacity
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.capacity
	tb.lastRefill = tb.now()
}

// refill adds tokens for the time elapsed since the last refill. Caller holds mu.
func (tb *TokenBucket) refill() {
	now := tb.now()
	if tb.refillPeriod <= 0 {
		tb.tokens = tb.capacity
		tb.lastRefill = now
		return
	}

	elapsed := now.Sub(tb.lastRefill)
	if elapsed <= 0 {
		return
	}
	tb.tokens += tb.capacity * float64(elapsed) / float64(tb.refillPeriod)
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = now
}

func (tb *TokenBucket) timeUntilToken() time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	missing := 1 - tb.tokens
	if missing <= 0 || tb.refillPeriod <= 0 {
		return time.Millisecond
	}
	d := time.Duration(missing / tb.capacity * float64(tb.refillPeriod))
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return d
}
