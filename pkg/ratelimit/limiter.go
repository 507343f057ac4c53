package ratelimit

import (
	"context"
	"sync"
	"time"

	"firecrawl/pkg/config"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow reports whether a request may proceed now, consuming a slot if so
	Allow() bool
	// Wait blocks until a request may proceed or ctx is done
	Wait(ctx context.Context) error
	// Reset restores the full allowance
	Reset()
}

// RateLimiter smooths requests with a token bucket from golang.org/x/time/rate
type RateLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	limiter *rate.Limiter
}

// NewRateLimiter allows r events per second with bursts of up to burst
func NewRateLimiter(r rate.Limit, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limit: r, burst: burst, limiter: rate.NewLimiter(r, burst)}
}

// PerMinute allows n requests per minute with bursts of up to burst.
// A non-positive n disables limiting.
func PerMinute(n, burst int) *RateLimiter {
	if n <= 0 {
		return NewRateLimiter(rate.Inf, burst)
	}
	return NewRateLimiter(rate.Every(time.Minute/time.Duration(n)), burst)
}

// Strategies accepted in the rate_limit.strategy setting
const (
	StrategySmooth        = "smooth"
	StrategyFixedWindow   = "fixed_window"
	StrategySlidingWindow = "sliding_window"
)

// FromSettings builds the CLI's limiter from its rate limit section. The
// window strategies allow requests_per_minute per minute and ignore the
// burst size; a non-positive rate always yields an unlimited smooth limiter.
func FromSettings(s config.RateLimitConfig) Limiter {
	if s.RequestsPerMinute <= 0 {
		return PerMinute(0, s.BurstSize)
	}
	switch s.Strategy {
	case StrategyFixedWindow:
		return NewTokenBucket(s.RequestsPerMinute, time.Minute)
	case StrategySlidingWindow:
		return NewSlidingWindow(s.RequestsPerMinute, time.Minute)
	default:
		return PerMinute(s.RequestsPerMinute, s.BurstSize)
	}
}

func (rl *RateLimiter) current() *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.limiter
}

func (rl *RateLimiter) Allow() bool {
	return rl.current().Allow()
}

func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.current().Wait(ctx)
}

func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.limiter = rate.NewLimiter(rl.limit, rl.burst)
}

// TokenBucket refills to full capacity once per refill period
type TokenBucket struct {
	capacity     int
	tokens       int
	refillPeriod time.Duration
	lastRefill   time.Time
	mu           sync.Mutex
}

// NewTokenBucket creates a new token bucket rate limiter
func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:     capacity,
		tokens:       capacity,
		refillPeriod: refillPeriod,
		lastRefill:   time.Now(),
	}
}

func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(time.Now())
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

func (tb *TokenBucket) Wait(ctx context.Context) error {
	for !tb.Allow() {
		tb.mu.Lock()
		wait := tb.refillPeriod - time.Since(tb.lastRefill)
		tb.mu.Unlock()

		if wait <= 0 {
			wait = 10 * time.Millisecond
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
	return nil
}

func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.capacity
	tb.lastRefill = time.Now()
}

// Available returns the number of tokens left in the current period
func (tb *TokenBucket) Available() int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(time.Now())
	return tb.tokens
}

func (tb *TokenBucket) refill(now time.Time) {
	if now.Sub(tb.lastRefill) >= tb.refillPeriod {
		tb.tokens = tb.capacity
		tb.lastRefill = now
	}
}

// SlidingWindow allows at most maxRequests within any window
type SlidingWindow struct {
	windowSize  time.Duration
	maxRequests int
	requests    []time.Time
	mu          sync.Mutex
}

// NewSlidingWindow creates a new sliding window rate limiter
func NewSlidingWindow(maxRequests int, windowSize time.Duration) *SlidingWindow {
	return &SlidingWindow{
		windowSize:  windowSize,
		maxRequests: maxRequests,
		requests:    make([]time.Time, 0, maxRequests),
	}
}

func (sw *SlidingWindow) Allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	sw.evict(now)

	if len(sw.requests) < sw.maxRequests {
		sw.requests = append(sw.requests, now)
		return true
	}
	return false
}

func (sw *SlidingWindow) Wait(ctx context.Context) error {
	for !sw.Allow() {
		sw.mu.Lock()
		wait := 10 * time.Millisecond
		if len(sw.requests) > 0 {
			if d := sw.windowSize - time.Since(sw.requests[0]); d > 0 {
				wait = d
			}
		}
		sw.mu.Unlock()

		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
	return nil
}

func (sw *SlidingWindow) Reset() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.requests = sw.requests[:0]
}

// evict drops requests older than the window
func (sw *SlidingWindow) evict(now time.Time) {
	cutoff := now.Add(-sw.windowSize)

	i := 0
	for i < len(sw.requests) && sw.requests[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		sw.requests = append(sw.requests[:0], sw.requests[i:]...)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
