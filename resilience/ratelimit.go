package resilience

import (
	"context"
	"sync"
	"time"
)

// TokenBucketConfig tunes the per-source rate limit.
type TokenBucketConfig struct {
	// Capacity is the burst size, the most tokens the bucket holds.
	Capacity int

	// RefillRate is tokens added per second.
	RefillRate float64

	// InitialTokens seeds the bucket. Zero means start full.
	InitialTokens int
}

// DefaultTokenBucketConfig allows a 100-request burst refilled at 50
// per second.
func DefaultTokenBucketConfig() TokenBucketConfig {
	return TokenBucketConfig{Capacity: 100, RefillRate: 50}
}

// tokenBucket meters one source.
type tokenBucket struct {
	mu       sync.Mutex
	capacity float64
	rate     float64
	tokens   float64
	last     time.Time
}

func newTokenBucket(cfg TokenBucketConfig) *tokenBucket {
	tokens := float64(cfg.InitialTokens)
	if cfg.InitialTokens == 0 || cfg.InitialTokens > cfg.Capacity {
		tokens = float64(cfg.Capacity)
	}
	return &tokenBucket{
		capacity: float64(cfg.Capacity),
		rate:     cfg.RefillRate,
		tokens:   tokens,
		last:     time.Now(),
	}
}

// refill credits tokens for the time since the last call. Callers hold
// the lock.
func (tb *tokenBucket) refill() {
	now := time.Now()
	tb.tokens += now.Sub(tb.last).Seconds() * tb.rate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.last = now
}

func (tb *tokenBucket) allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens < 1 {
		return false
	}
	tb.tokens--
	return true
}

// nextToken estimates how long until a token is available.
func (tb *tokenBucket) nextToken() time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	deficit := 1 - tb.tokens
	if deficit <= 0 {
		return 0
	}
	return time.Duration(deficit / tb.rate * float64(time.Second))
}

func (tb *tokenBucket) wait(ctx context.Context) error {
	for {
		if tb.allow() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(tb.nextToken()):
		}
	}
}

// PerSourceLimiter keeps an independent token bucket per source host,
// so a slow private feed never starves nuget.org requests of tokens.
type PerSourceLimiter struct {
	cfg TokenBucketConfig

	mu        sync.Mutex
	perSource map[string]*tokenBucket
}

// NewPerSourceLimiter builds a limiter set with the given tuning.
func NewPerSourceLimiter(cfg TokenBucketConfig) *PerSourceLimiter {
	return &PerSourceLimiter{cfg: cfg, perSource: make(map[string]*tokenBucket)}
}

func (l *PerSourceLimiter) forSource(source string) *tokenBucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	tb := l.perSource[source]
	if tb == nil {
		tb = newTokenBucket(l.cfg)
		l.perSource[source] = tb
	}
	return tb
}

// Allow takes a token for source without blocking.
func (l *PerSourceLimiter) Allow(source string) bool {
	return l.forSource(source).allow()
}

// Wait blocks until source has a token or ctx is done.
func (l *PerSourceLimiter) Wait(ctx context.Context, source string) error {
	return l.forSource(source).wait(ctx)
}
