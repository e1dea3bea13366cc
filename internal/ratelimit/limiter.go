// Package ratelimit provides per-key token bucket rate limiting for MCP tools.
package ratelimit

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// ErrRateLimited is returned by CheckLimit when a tool's bucket is empty.
var ErrRateLimited = errors.New("rate limit exceeded")

// Tool names limited by NewToolLimiters.
const (
	ToolSimulate = "randosim_simulate"
	ToolOptions  = "randosim_options"
)

// Limiter is a per-key token bucket. Every key starts with a full bucket of
// burst tokens that refills at rate tokens per second. It is safe for
// concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64
	burst   int
	nowFunc func() time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

// NewLimiter creates a limiter refilling rate tokens per second up to burst.
func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		nowFunc: time.Now,
	}
}

// PerMinute creates a limiter allowing n calls per minute with burst.
func PerMinute(n, burst int) *Limiter {
	return NewLimiter(float64(n)/60.0, burst)
}

// refill returns key's bucket brought up to now. Callers hold l.mu.
func (l *Limiter) refill(key string) *bucket {
	now := l.nowFunc()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.burst), last: now}
		l.buckets[key] = b
		return b
	}
	if elapsed := now.Sub(b.last).Seconds(); elapsed > 0 {
		b.tokens = math.Min(float64(l.burst), b.tokens+l.rate*elapsed)
		b.last = now
	}
	return b
}

// Allow takes one token from key's bucket, reporting whether one was there.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.refill(key)
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// RetryAfter returns how long until key's bucket holds a whole token. It is
// zero when a call would be allowed now, and negative when the bucket never
// refills.
func (l *Limiter) RetryAfter(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.refill(key)
	if b.tokens >= 1 {
		return 0
	}
	if l.rate <= 0 {
		return -1
	}
	return time.Duration((1 - b.tokens) / l.rate * float64(time.Second))
}

// ToolLimiters maps tool names to their limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters builds the MCP tool limits. simulatePerMinute bounds the
// expensive simulate tool; the options listing is cheap and gets a fixed,
// generous limit.
func NewToolLimiters(simulatePerMinute int) ToolLimiters {
	burst := simulatePerMinute / 5
	if burst < 1 {
		burst = 1
	}
	return ToolLimiters{
		ToolSimulate: PerMinute(simulatePerMinute, burst),
		ToolOptions:  PerMinute(60, 10),
	}
}

// CheckLimit consumes one call of toolName. Tools without a limiter are
// never limited.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil
	}
	if limiter.Allow(toolName) {
		return nil
	}
	if wait := limiter.RetryAfter(toolName); wait > 0 {
		return fmt.Errorf("%w for %s, retry in %s", ErrRateLimited, toolName, wait.Round(time.Second))
	}
	return fmt.Errorf("%w for %s", ErrRateLimited, toolName)
}
