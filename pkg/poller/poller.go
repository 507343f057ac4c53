// Package poller waits for asynchronous crawl jobs to finish by polling
// their status.
package poller

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"firecrawl/pkg/config"
	"firecrawl/pkg/firecrawl"
	"firecrawl/pkg/logger"
	"firecrawl/pkg/retry"
)

var (
	// ErrCrawlFailed is returned when the server reports status "failed"
	ErrCrawlFailed = stderrors.New("crawl failed")
	// ErrPollTimeout is returned when the job is still running at the deadline
	ErrPollTimeout = stderrors.New("timed out waiting for crawl")
)

// StatusGetter is satisfied by *firecrawl.Client
type StatusGetter interface {
	GetCrawlStatus(ctx context.Context, id string) (*firecrawl.CrawlStatusResponse, error)
}

// Options control how often and how long to poll
type Options struct {
	// Interval between status requests; defaults to one second
	Interval time.Duration
	// Timeout bounds the whole wait; zero waits until ctx is done
	Timeout time.Duration
	// Retry, when set, retries individual failed status requests
	Retry *retry.Config
	// OnUpdate is called with every status received
	OnUpdate func(status *firecrawl.CrawlStatusResponse)
	Logger   logger.Logger
}

// DefaultInterval is used when Options.Interval is zero
const DefaultInterval = time.Second

// FromSettings converts the CLI's poll section into Options
func FromSettings(s config.PollConfig) Options {
	return Options{Interval: s.Interval.Std(), Timeout: s.Timeout.Std()}
}

// Error carries the last status seen when polling stops unsuccessfully
type Error struct {
	JobID  string
	Status *firecrawl.CrawlStatusResponse
	Err    error
}

func (e *Error) Error() string {
	if e.Status != nil {
		return fmt.Sprintf("crawl %s: %v (status %q, %d/%d pages)", e.JobID, e.Err, e.Status.Status, e.Status.Completed, e.Status.Total)
	}
	return fmt.Sprintf("crawl %s: %v", e.JobID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WaitForCrawl polls the status of job id until it completes. A completed
// status is returned as is. A failed status yields ErrCrawlFailed and running
// past opts.Timeout yields ErrPollTimeout, both wrapped in *Error with the
// last status attached. Status request errors end the wait unless opts.Retry
// absorbs them.
func WaitForCrawl(ctx context.Context, getter StatusGetter, id string, opts Options) (*firecrawl.CrawlStatusResponse, error) {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	log = log.WithField("job_id", id)

	pollCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		pollCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last *firecrawl.CrawlStatusResponse
	for {
		status, err := fetch(pollCtx, getter, id, opts.Retry)
		if err != nil {
			if ctx.Err() == nil && pollCtx.Err() != nil {
				return nil, &Error{JobID: id, Status: last, Err: ErrPollTimeout}
			}
			return nil, err
		}
		last = status

		logger.LogCrawlProgress(log, id, string(status.Status), status.Completed, status.Total)
		if opts.OnUpdate != nil {
			opts.OnUpdate(status)
		}

		switch status.Status {
		case firecrawl.CrawlStatusCompleted:
			return status, nil
		case firecrawl.CrawlStatusFailed:
			return status, &Error{JobID: id, Status: status, Err: ErrCrawlFailed}
		}

		select {
		case <-ticker.C:
		case <-pollCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &Error{JobID: id, Status: last, Err: ErrPollTimeout}
		}
	}
}

func fetch(ctx context.Context, getter StatusGetter, id string, cfg *retry.Config) (*firecrawl.CrawlStatusResponse, error) {
	if cfg == nil {
		return getter.GetCrawlStatus(ctx, id)
	}
	return retry.DoWithResult(ctx, func(ctx context.Context) (*firecrawl.CrawlStatusResponse, error) {
		return getter.GetCrawlStatus(ctx, id)
	}, cfg)
}
