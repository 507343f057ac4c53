// Package batch scrapes many URLs concurrently through the Firecrawl client.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"firecrawl/pkg/firecrawl"
	"firecrawl/pkg/logger"
	"firecrawl/pkg/ratelimit"
	"firecrawl/pkg/retry"
	"firecrawl/pkg/storage"
)

// Job is a single URL to scrape
type Job struct {
	URL string
}

// Result is the outcome of one Job. Skipped results were already on disk and
// made no API call.
type Result struct {
	Job      Job
	Document *firecrawl.Document
	Files    *storage.SavedFiles
	Skipped  bool
	Error    error
	Duration time.Duration
}

// Scraper is satisfied by *firecrawl.Client
type Scraper interface {
	ScrapeWebpage(ctx context.Context, req firecrawl.ScrapeRequest) (*firecrawl.ScrapeResponse, error)
}

// DocumentStore is satisfied by *storage.Manager
type DocumentStore interface {
	ShouldSkip(url string) bool
	SaveDocument(doc *firecrawl.Document, sourceURL string) (*storage.SavedFiles, error)
}

// Options configure a Pool. Store, Limiter, Retry and Logger are optional.
type Options struct {
	Workers   int
	QueueSize int
	// Template is copied for every job with URL replaced
	Template firecrawl.ScrapeRequest
	Store    DocumentStore
	Limiter  ratelimit.Limiter
	Retry    *retry.Config
	Logger   logger.Logger
}

// Pool runs scrape jobs on a fixed number of workers
type Pool struct {
	opts    Options
	jobs    chan Job
	results chan Result
	group   *errgroup.Group
	ctx     context.Context
	cancel  context.CancelFunc
	client  Scraper
	logger  logger.Logger
	stop    sync.Once
}

// NewPool creates a pool; call Start before Submit
func NewPool(client Scraper, opts Options) *Pool {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = opts.Workers * 2
	}
	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	return &Pool{
		opts:    opts,
		jobs:    make(chan Job, opts.QueueSize),
		results: make(chan Result, opts.Workers),
		client:  client,
		logger:  log,
	}
}

// Start launches the workers. Canceling ctx abandons queued jobs.
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.group, _ = errgroup.WithContext(p.ctx)

	p.logger.DebugWithFields("Starting scrape pool", map[string]interface{}{
		"workers": p.opts.Workers,
	})
	for i := 0; i < p.opts.Workers; i++ {
		id := i
		p.group.Go(func() error {
			p.worker(id)
			return nil
		})
	}
}

// Stop waits for queued jobs to finish and closes Results
func (p *Pool) Stop() {
	p.stop.Do(func() {
		close(p.jobs)
		_ = p.group.Wait()
		close(p.results)
		p.cancel()
	})
}

// Submit queues a job, blocking while the queue is full
func (p *Pool) Submit(job Job) error {
	select {
	case p.jobs <- job:
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("scrape pool is shutting down: %w", p.ctx.Err())
	}
}

// Results must be drained while jobs are submitted
func (p *Pool) Results() <-chan Result {
	return p.results
}

// QueueSize returns the number of jobs waiting for a worker
func (p *Pool) QueueSize() int {
	return len(p.jobs)
}

func (p *Pool) worker(id int) {
	for job := range p.jobs {
		if p.ctx.Err() != nil {
			return
		}

		result := p.process(job, id)

		select {
		case p.results <- result:
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Pool) process(job Job, workerID int) Result {
	start := time.Now()
	result := Result{Job: job}
	fields := map[string]interface{}{"worker_id": workerID, "url": job.URL}

	if p.opts.Store != nil && p.opts.Store.ShouldSkip(job.URL) {
		p.logger.DebugWithFields("Page already saved", fields)
		result.Skipped = true
		result.Duration = time.Since(start)
		return result
	}

	if p.opts.Limiter != nil {
		if err := p.opts.Limiter.Wait(p.ctx); err != nil {
			result.Error = err
			result.Duration = time.Since(start)
			return result
		}
	}

	req := p.opts.Template
	req.URL = job.URL
	scrape := func(ctx context.Context) (*firecrawl.ScrapeResponse, error) {
		return p.client.ScrapeWebpage(ctx, req)
	}

	var resp *firecrawl.ScrapeResponse
	var err error
	if p.opts.Retry != nil {
		resp, err = retry.DoWithResult(p.ctx, scrape, p.opts.Retry)
	} else {
		resp, err = scrape(p.ctx)
	}
	if err == nil && (resp == nil || resp.Data == nil) {
		err = fmt.Errorf("scrape of %s returned no document", job.URL)
	}
	if err != nil {
		result.Error = fmt.Errorf("scrape failed: %w", err)
		result.Duration = time.Since(start)
		p.logger.WithError(err).DebugWithFields("Scrape failed", fields)
		return result
	}
	result.Document = resp.Data

	if p.opts.Store != nil {
		files, err := p.opts.Store.SaveDocument(resp.Data, job.URL)
		if err != nil {
			result.Error = fmt.Errorf("save failed: %w", err)
			result.Duration = time.Since(start)
			return result
		}
		result.Files = files
	}

	result.Duration = time.Since(start)
	fields["duration_ms"] = result.Duration.Milliseconds()
	p.logger.DebugWithFields("Scrape completed", fields)
	return result
}

// ScrapeAll scrapes urls on a temporary pool and returns results in input order
func ScrapeAll(ctx context.Context, client Scraper, urls []string, opts Options) []Result {
	pool := NewPool(client, opts)
	pool.Start(ctx)

	index := make(map[string][]int, len(urls))
	for i, u := range urls {
		index[u] = append(index[u], i)
	}

	go func() {
		defer pool.Stop()
		for _, u := range urls {
			if err := pool.Submit(Job{URL: u}); err != nil {
				return
			}
		}
	}()

	results := make([]Result, len(urls))
	filled := make([]bool, len(urls))
	for r := range pool.Results() {
		positions := index[r.Job.URL]
		results[positions[0]] = r
		filled[positions[0]] = true
		index[r.Job.URL] = positions[1:]
	}

	for i, ok := range filled {
		if !ok {
			err := ctx.Err()
			if err == nil {
				err = fmt.Errorf("scrape pool stopped before %s was processed", urls[i])
			}
			results[i] = Result{Job: Job{URL: urls[i]}, Error: err}
		}
	}
	return results
}
