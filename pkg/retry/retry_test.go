package retry

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"firecrawl/pkg/config"
	"firecrawl/pkg/errors"
	"firecrawl/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
	}
}

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
		Multiplier: 2.0,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{9, time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt %d", tt.attempt), func(t *testing.T) {
			assert.Equal(t, tt.want, backoff.NextDelay(tt.attempt))
		})
	}
}

func TestExponentialBackoffJitterStaysInRange(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}

	for i := 0; i < 50; i++ {
		delay := backoff.NextDelay(2)
		assert.GreaterOrEqual(t, delay, 140*time.Millisecond)
		assert.LessOrEqual(t, delay, 260*time.Millisecond)
	}
}

func TestLinearAndConstantBackoff(t *testing.T) {
	linear := &LinearBackoff{BaseDelay: time.Second, Increment: 500 * time.Millisecond, MaxDelay: 2 * time.Second}
	assert.Equal(t, time.Second, linear.NextDelay(1))
	assert.Equal(t, 1500*time.Millisecond, linear.NextDelay(2))
	assert.Equal(t, 2*time.Second, linear.NextDelay(5))

	constant := &ConstantBackoff{Delay: 3 * time.Second}
	assert.Equal(t, time.Duration(0), constant.NextDelay(0))
	assert.Equal(t, 3*time.Second, constant.NextDelay(7))
}

func TestErrorTypeBackoff(t *testing.T) {
	b := &ErrorTypeBackoff{
		Network:     &ConstantBackoff{Delay: time.Second},
		RateLimit:   &ConstantBackoff{Delay: time.Minute},
		ServerError: &ConstantBackoff{Delay: 2 * time.Second},
		Default:     &ConstantBackoff{Delay: 3 * time.Second},
	}

	assert.Same(t, b.RateLimit, b.For(errors.FromStatus(429, "")))
	assert.Same(t, b.ServerError, b.For(fmt.Errorf("wrapped: %w", errors.FromStatus(503, ""))))
	assert.Same(t, b.Network, b.For(errors.Wrap(errors.ErrorTypeNetwork, "dial", stderrors.New("refused"))))
	assert.Same(t, b.Default, b.For(stderrors.New("plain")))
}

func TestDefaultRetryIf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limit", errors.FromStatus(429, "slow down"), true},
		{"server error", errors.FromStatus(500, ""), true},
		{"network", errors.Wrap(errors.ErrorTypeNetwork, "request failed", stderrors.New("reset")), true},
		{"payment required", errors.FromStatus(402, ""), false},
		{"not found", errors.FromStatus(404, "Crawl job not found"), false},
		{"canceled transport", errors.Wrap(errors.ErrorTypeNetwork, "request failed", context.Canceled), false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, false},
		{"unknown", stderrors.New("boom"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultRetryIf(tt.err))
		})
	}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	var retried []int

	cfg := fastConfig(3)
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		retried = append(retried, attempt)
	}

	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.FromStatus(503, "")
		}
		return nil
	}, cfg)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	calls := 0
	notFound := errors.FromStatus(404, "Crawl job not found")

	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return notFound
	}, fastConfig(5))

	assert.Same(t, notFound, err)
	assert.Equal(t, 1, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	tl := logger.NewTestLogger()
	cfg := fastConfig(3)
	cfg.Logger = tl

	err := Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.FromStatus(429, "")
	}, cfg)

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "max retry attempts (3) exceeded")
	assert.True(t, errors.IsType(err, errors.ErrorTypeRateLimit))
	assert.Len(t, tl.GetMessagesByLevel("WARN"), 3)
}

func TestDoSingleAttemptReturnsErrorUnwrapped(t *testing.T) {
	failure := errors.FromStatus(500, "")
	err := Do(context.Background(), func(ctx context.Context) error { return failure }, fastConfig(1))
	assert.Same(t, failure, err)
}

func TestDoHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	cfg := fastConfig(0)
	cfg.Backoff = &ConstantBackoff{Delay: time.Hour}
	cfg.OnRetry = func(int, error, time.Duration) { cancel() }

	err := Do(ctx, func(ctx context.Context) error {
		calls++
		return errors.FromStatus(503, "")
	}, cfg)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDoWithResult(t *testing.T) {
	calls := 0
	got, err := DoWithResult(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.Wrap(errors.ErrorTypeTimeout, "request timed out", context.DeadlineExceeded)
		}
		return "job-1", nil
	}, fastConfig(3))

	require.NoError(t, err)
	assert.Equal(t, "job-1", got)
}

func TestRetrierCopies(t *testing.T) {
	base := NewRetrier(fastConfig(3))
	more := base.WithMaxAttempts(5).WithBackoff(&ConstantBackoff{})

	assert.Equal(t, 3, base.Config().MaxAttempts)
	assert.Equal(t, 5, more.Config().MaxAttempts)

	calls := 0
	err := more.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return errors.FromStatus(502, "")
	})
	assert.Error(t, err)
	assert.Equal(t, 5, calls)
}

func TestFromSettings(t *testing.T) {
	s := config.DefaultConfig().Retry
	cfg := FromSettings(s, nil)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Backoff.(*ExponentialBackoff).BaseDelay)

	s.Enabled = false
	assert.Equal(t, 1, FromSettings(s, nil).MaxAttempts)
}

func TestFromSettingsBacksOffLongerOnRateLimit(t *testing.T) {
	s := config.DefaultConfig().Retry
	s.BaseDelay = config.Duration(time.Second)
	s.MaxDelay = config.Duration(time.Minute)
	cfg := FromSettings(s, nil)

	limited := cfg.backoffFor(errors.FromStatus(429, "slow down"))
	require.IsType(t, &LinearBackoff{}, limited)
	assert.Equal(t, 5*time.Second, limited.(*LinearBackoff).BaseDelay)
	assert.Equal(t, 5*time.Second, limited.(*LinearBackoff).Increment)

	assert.Same(t, cfg.Backoff, cfg.backoffFor(errors.FromStatus(503, "")))
	assert.Same(t, cfg.Backoff, cfg.backoffFor(stderrors.New("plain")))
}

func TestWait(t *testing.T) {
	assert.NoError(t, Wait(context.Background(), 0))
	assert.NoError(t, Wait(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Wait(ctx, time.Hour), context.Canceled)
}
