package nba

import (
	"log"
	"sync"
	"time"
)

// Clock abstracts wall-clock access so tests can simulate window rollover
// without real sleeping.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

const (
	// DefaultRateLimit matches the provider's documented budget of 600
	// requests per rolling minute.
	DefaultRateLimit = 600

	rateLimitWindow = 60 * time.Second
)

// RateLimiter enforces a maximum request budget per rolling window. It is
// shared by every outbound call on the fetch path, so all state is owned by
// a single mutex-guarded struct.
type RateLimiter struct {
	mu          sync.Mutex
	limit       int
	window      time.Duration
	count       int
	windowStart time.Time
	clock       Clock
}

// NewRateLimiter creates a limiter allowing limit requests per minute.
func NewRateLimiter(limit int) *RateLimiter {
	return NewRateLimiterWithClock(limit, realClock{})
}

// NewRateLimiterWithClock creates a limiter with an injected clock (tests).
func NewRateLimiterWithClock(limit int, clock Clock) *RateLimiter {
	if limit <= 0 {
		limit = DefaultRateLimit
	}
	return &RateLimiter{
		limit:       limit,
		window:      rateLimitWindow,
		windowStart: clock.Now(),
		clock:       clock,
	}
}

// Wait blocks until the caller is allowed to issue one request, then consumes
// one unit of the budget. Call it before every outbound request.
func (rl *RateLimiter) Wait() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()

	// Rolling window elapsed: start a fresh one.
	if now.Sub(rl.windowStart) >= rl.window {
		rl.count = 0
		rl.windowStart = now
	}

	if rl.count >= rl.limit {
		sleep := rl.window - now.Sub(rl.windowStart)
		if sleep > 0 {
			log.Printf("[ratelimit] budget of %d reached, sleeping %.2fs", rl.limit, sleep.Seconds())
			rl.clock.Sleep(sleep)
		}
		rl.count = 0
		rl.windowStart = rl.clock.Now()
	}

	rl.count++
}

// Reset clears the current window. The first call after a reset always
// proceeds without blocking.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.count = 0
	rl.windowStart = rl.clock.Now()
}
