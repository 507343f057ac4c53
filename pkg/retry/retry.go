package retry

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"firecrawl/pkg/config"
	"firecrawl/pkg/errors"
	"firecrawl/pkg/logger"
)

// Operation is a call that may be retried. It receives the context passed to Do.
type Operation func(ctx context.Context) error

// OperationWithResult is an Operation that returns a value
type OperationWithResult[T any] func(ctx context.Context) (T, error)

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts (0 means unlimited)
	MaxAttempts int
	Backoff     BackoffStrategy
	// ErrorBackoff, when set, overrides Backoff per error type
	ErrorBackoff *ErrorTypeBackoff
	// RetryIf determines if an error should be retried
	RetryIf func(error) bool
	// OnRetry is called before each wait
	OnRetry func(attempt int, err error, delay time.Duration)
	Logger  logger.Logger
}

// DefaultConfig mirrors the common "three attempts, exponential" policy
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		Backoff:     DefaultExponentialBackoff(),
		RetryIf:     DefaultRetryIf,
		Logger:      logger.NewNopLogger(),
	}
}

const rateLimitFactor = 5

// FromSettings builds a Config from the CLI's retry section. A disabled
// section yields a single attempt.
func FromSettings(s config.RetryConfig, log logger.Logger) *Config {
	cfg := DefaultConfig()
	if log != nil {
		cfg.Logger = log
	}
	if !s.Enabled {
		cfg.MaxAttempts = 1
		return cfg
	}
	cfg.MaxAttempts = s.MaxAttempts
	cfg.Backoff = &ExponentialBackoff{
		BaseDelay:    s.BaseDelay.Std(),
		MaxDelay:     s.MaxDelay.Std(),
		Multiplier:   s.Multiplier,
		JitterFactor: 0.1,
	}
	// 429s wait longer and grow steadily instead of doubling
	cfg.ErrorBackoff = &ErrorTypeBackoff{
		RateLimit: &LinearBackoff{
			BaseDelay:    rateLimitFactor * s.BaseDelay.Std(),
			Increment:    rateLimitFactor * s.BaseDelay.Std(),
			MaxDelay:     s.MaxDelay.Std(),
			JitterFactor: 0.2,
		},
	}
	return cfg
}

// DefaultRetryIf retries transient Firecrawl errors: transport failures,
// timeouts, 429 and 5xx. Context cancellation is never retried.
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) {
		return false
	}

	var apiErr *errors.Error
	if stderrors.As(err, &apiErr) {
		return errors.IsRetryable(apiErr.Type)
	}

	return !stderrors.Is(err, context.DeadlineExceeded)
}

// Do runs op until it succeeds, returns a non-retryable error, exhausts
// MaxAttempts, or ctx is done
func Do(ctx context.Context, op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	retryIf := cfg.RetryIf
	if retryIf == nil {
		retryIf = DefaultRetryIf
	}

	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			if attempt > 1 {
				log.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}

		if !retryIf(err) || cfg.MaxAttempts == 1 {
			return err
		}
		if cfg.MaxAttempts > 0 && attempt >= cfg.MaxAttempts {
			log.WarnWithFields("max retry attempts exceeded", map[string]interface{}{
				"attempts":   attempt,
				"last_error": err.Error(),
			})
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, err)
		}

		delay := cfg.backoffFor(err).NextDelay(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}
		log.WarnWithFields("retrying operation", map[string]interface{}{
			"attempt":      attempt,
			"error":        err.Error(),
			"delay_ms":     delay.Milliseconds(),
			"max_attempts": cfg.MaxAttempts,
		})

		if err := Wait(ctx, delay); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

func (c *Config) backoffFor(err error) BackoffStrategy {
	if c.ErrorBackoff != nil {
		if b := c.ErrorBackoff.For(err); b != nil {
			return b
		}
	}
	if c.Backoff != nil {
		return c.Backoff
	}
	return DefaultExponentialBackoff()
}

// DoWithResult is Do for operations that return a value
func DoWithResult[T any](ctx context.Context, op OperationWithResult[T], cfg *Config) (T, error) {
	var result T
	err := Do(ctx, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	}, cfg)
	return result, err
}

// Retrier binds a Config for repeated use
type Retrier struct {
	config *Config
}

// NewRetrier creates a retrier; a nil cfg uses DefaultConfig
func NewRetrier(cfg *Config) *Retrier {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Retrier{config: cfg}
}

// Do runs op with the retrier's configuration
func (r *Retrier) Do(ctx context.Context, op Operation) error {
	return Do(ctx, op, r.config)
}

// Config returns the retrier's configuration, or nil for a nil Retrier
func (r *Retrier) Config() *Config {
	if r == nil {
		return nil
	}
	return r.config
}

// WithMaxAttempts returns a copy with a different attempt limit
func (r *Retrier) WithMaxAttempts(maxAttempts int) *Retrier {
	cfg := *r.config
	cfg.MaxAttempts = maxAttempts
	return &Retrier{config: &cfg}
}

// WithBackoff returns a copy with a different backoff strategy
func (r *Retrier) WithBackoff(backoff BackoffStrategy) *Retrier {
	cfg := *r.config
	cfg.Backoff = backoff
	return &Retrier{config: &cfg}
}
