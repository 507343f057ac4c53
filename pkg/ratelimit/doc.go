// Package ratelimit paces requests to a Firecrawl instance.
//
// Self-hosted instances answer 429 when overloaded; the CLI shares one
// Limiter across its batch workers so bursts stay under the configured
// requests per minute.
//
// Implementations:
//
//   - RateLimiter: smooth token bucket backed by golang.org/x/time/rate
//     (strategy "smooth", the default).
//   - TokenBucket: fixed capacity that refills completely each period
//     (strategy "fixed_window").
//   - SlidingWindow: at most N requests in any moving window
//     (strategy "sliding_window").
//
// FromSettings picks one from the rate_limit section of the config.
//
// Usage:
//
//	limiter := ratelimit.PerMinute(60, 5)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
