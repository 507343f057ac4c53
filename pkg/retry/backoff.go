package retry

import (
	"context"
	stderrors "errors"
	"math"
	"math/rand"
	"time"

	"firecrawl/pkg/errors"
)

// BackoffStrategy computes the delay before retry attempt n (1-based)
type BackoffStrategy interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff grows the delay by Multiplier each attempt, with jitter
type ExponentialBackoff struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	// JitterFactor spreads each delay by up to ±factor (0.0 to 1.0)
	JitterFactor float64
}

// DefaultExponentialBackoff doubles from one second, capped at 30 seconds
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:    time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt-1))
	return capAndJitter(delay, eb.MaxDelay, eb.JitterFactor)
}

// LinearBackoff adds Increment to the delay each attempt
type LinearBackoff struct {
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	Increment    time.Duration
	JitterFactor float64
}

func (lb *LinearBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := float64(lb.BaseDelay + lb.Increment*time.Duration(attempt-1))
	return capAndJitter(delay, lb.MaxDelay, lb.JitterFactor)
}

// ConstantBackoff waits the same delay before every retry
type ConstantBackoff struct {
	Delay time.Duration
}

func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

func capAndJitter(delay float64, max time.Duration, jitterFactor float64) time.Duration {
	if max > 0 && delay > float64(max) {
		delay = float64(max)
	}
	if jitterFactor > 0 {
		jitter := delay * jitterFactor
		delay += rand.Float64()*2*jitter - jitter
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// Wait sleeps for delay or until ctx is done
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ErrorTypeBackoff picks a strategy by the Firecrawl error type. A nil
// strategy defers to Config.Backoff.
type ErrorTypeBackoff struct {
	Network     BackoffStrategy
	RateLimit   BackoffStrategy
	ServerError BackoffStrategy
	Default     BackoffStrategy
}

// For returns the strategy matching err
func (b *ErrorTypeBackoff) For(err error) BackoffStrategy {
	var apiErr *errors.Error
	if stderrors.As(err, &apiErr) {
		switch apiErr.Type {
		case errors.ErrorTypeNetwork, errors.ErrorTypeTimeout:
			return b.Network
		case errors.ErrorTypeRateLimit:
			return b.RateLimit
		case errors.ErrorTypeServerError:
			return b.ServerError
		}
	}
	return b.Default
}
