package scraper

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"firecrawl/internal/batch"
	"firecrawl/pkg/config"
	"firecrawl/pkg/export"
	"firecrawl/pkg/firecrawl"
	"firecrawl/pkg/jobs"
	"firecrawl/pkg/logger"
	"firecrawl/pkg/poller"
	"firecrawl/pkg/ratelimit"
	"firecrawl/pkg/report"
	"firecrawl/pkg/retry"
	"firecrawl/pkg/storage"
	"firecrawl/pkg/telemetry"
	"firecrawl/pkg/ui"
)

// Scraper runs scrape, crawl and map jobs and keeps their results
type Scraper struct {
	client         FirecrawlClient
	config         *config.Config
	storageManager *storage.Manager
	jobStore       jobs.Store
	sinks          []export.Sink
	rateLimiter    ratelimit.Limiter
	retrier        *retry.Retrier
	notifier       *ui.Notifier
	logger         logger.Logger
}

// Option configures a Scraper
type Option func(*Scraper)

// WithJobStore records started crawls and their progress
func WithJobStore(store jobs.Store) Option {
	return func(s *Scraper) { s.jobStore = store }
}

// WithSink streams every crawled page to sink in addition to the output directory
func WithSink(sink export.Sink) Option {
	return func(s *Scraper) { s.sinks = append(s.sinks, sink) }
}

// WithNotifier reports finished jobs
func WithNotifier(n *ui.Notifier) Option {
	return func(s *Scraper) { s.notifier = n }
}

// WithLogger replaces the global logger
func WithLogger(l logger.Logger) Option {
	return func(s *Scraper) { s.logger = l }
}

// WithRateLimiter replaces the limiter built from the rate limit settings
func WithRateLimiter(l ratelimit.Limiter) Option {
	return func(s *Scraper) { s.rateLimiter = l }
}

// New creates a Scraper writing to cfg.Output.BaseDirectory
func New(client FirecrawlClient, cfg *config.Config, opts ...Option) (*Scraper, error) {
	if client == nil {
		return nil, fmt.Errorf("scraper requires a client")
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	storageManager, err := storage.NewManager(cfg.Output.BaseDirectory, cfg.Output.OverwriteExisting)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage manager: %w", err)
	}

	s := &Scraper{
		client:         client,
		config:         cfg,
		storageManager: storageManager,
		rateLimiter:    ratelimit.FromSettings(cfg.RateLimit),
		logger:         logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.Retry.Enabled {
		s.retrier = retry.NewRetrier(retry.FromSettings(cfg.Retry, s.logger))
	}
	return s, nil
}

// Storage returns the manager pages are saved through
func (s *Scraper) Storage() *storage.Manager {
	return s.storageManager
}

// formats converts the configured output formats
func (s *Scraper) formats() []firecrawl.Format {
	formats := make([]firecrawl.Format, 0, len(s.config.Output.Formats))
	for _, f := range s.config.Output.Formats {
		formats = append(formats, firecrawl.Format(f))
	}
	return formats
}

// ScrapeURLs scrapes every URL on the batch worker pool and saves each page.
// URLs saved by an earlier run are skipped. The error is non-nil only when
// no URL succeeded.
func (s *Scraper) ScrapeURLs(ctx context.Context, urls []string) ([]batch.Result, error) {
	ctx, span := telemetry.StartSpan(ctx, "scraper.ScrapeURLs", attribute.Int("firecrawl.urls", len(urls)))
	defer span.End()

	if len(urls) == 0 {
		return nil, fmt.Errorf("no URLs to scrape")
	}

	s.logger.InfoWithFields("Starting batch scrape", map[string]interface{}{
		"urls":    len(urls),
		"workers": s.config.Batch.Workers,
	})

	results := batch.ScrapeAll(ctx, s.client, urls, batch.Options{
		Workers:   s.config.Batch.Workers,
		QueueSize: s.config.Batch.QueueSize,
		Template:  firecrawl.ScrapeRequest{Formats: s.formats()},
		Store:     s.storageManager,
		Limiter:   s.rateLimiter,
		Retry:     s.retrier.Config(),
		Logger:    s.logger,
	})

	tracker := ui.NewStatusTracker(len(urls))
	var errs []error
	for _, r := range results {
		switch {
		case r.Error != nil:
			tracker.IncrementFailed()
			errs = append(errs, fmt.Errorf("%s: %w", r.Job.URL, r.Error))
		case r.Skipped:
			tracker.IncrementSkipped()
		default:
			tracker.IncrementSaved()
		}
	}

	s.logger.InfoWithFields("Batch scrape finished", map[string]interface{}{
		"saved":   tracker.Saved,
		"skipped": tracker.Skipped,
		"failed":  tracker.Failed,
	})
	span.SetAttributes(attribute.Int("firecrawl.failed", tracker.Failed))

	if tracker.Failed > 0 && tracker.Failed == len(urls) {
		err := stderrors.Join(errs...)
		span.SetStatus(codes.Error, "all scrapes failed")
		s.notifyError("Scrape failed", fmt.Sprintf("%d URLs could not be scraped", tracker.Failed))
		return results, err
	}

	s.notifySuccess("Scrape completed", fmt.Sprintf("%d saved, %d skipped, %d failed", tracker.Saved, tracker.Skipped, tracker.Failed))
	return results, nil
}

// CrawlOptions describe one crawl run
type CrawlOptions struct {
	Request firecrawl.CrawlRequest
	// Wait polls the job until it finishes and saves its pages
	Wait bool
	// OnUpdate is called with every status received while waiting
	OnUpdate func(status *firecrawl.CrawlStatusResponse)
}

// CrawlResult is the outcome of Crawl. Status is nil unless the crawl was
// waited for.
type CrawlResult struct {
	ID         string
	URL        string
	Status     *firecrawl.CrawlStatusResponse
	Saved      int
	Skipped    int
	ReportPath string
}

// Crawl starts a crawl and records it. With opts.Wait it also polls until
// the crawl finishes, saves and exports every page and writes a report.
// A crawl still running at the poll timeout is canceled when the poll
// settings ask for it.
func (s *Scraper) Crawl(ctx context.Context, opts CrawlOptions) (*CrawlResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "scraper.Crawl", attribute.String("firecrawl.url", opts.Request.URL))
	defer span.End()

	req := opts.Request
	if req.ScrapeOptions == nil && len(s.config.Output.Formats) > 0 {
		req.ScrapeOptions = &firecrawl.ScrapeOptions{Formats: s.formats()}
	}

	resp, err := s.client.StartCrawl(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.logger.WithError(err).WithField("url", req.URL).Error("Failed to start crawl")
		return nil, fmt.Errorf("failed to start crawl: %w", err)
	}
	if !resp.Success || resp.ID == "" {
		span.SetStatus(codes.Error, "crawl not accepted")
		return nil, fmt.Errorf("crawl of %s was not accepted by the server", req.URL)
	}
	span.SetAttributes(attribute.String("firecrawl.job_id", resp.ID))

	record := jobs.NewRecord(resp.ID, req.URL)
	s.saveRecord(ctx, record)

	s.logger.InfoWithFields("Crawl started", map[string]interface{}{
		"job_id": resp.ID,
		"url":    req.URL,
	})

	result := &CrawlResult{ID: resp.ID, URL: req.URL}
	if !opts.Wait {
		return result, nil
	}

	pollOpts := poller.FromSettings(s.config.Poll)
	pollOpts.Retry = s.retrier.Config()
	pollOpts.Logger = s.logger
	pollOpts.OnUpdate = func(status *firecrawl.CrawlStatusResponse) {
		record.Apply(status)
		s.saveRecord(ctx, record)
		if opts.OnUpdate != nil {
			opts.OnUpdate(status)
		}
	}

	status, err := poller.WaitForCrawl(ctx, s.client, resp.ID, pollOpts)
	result.Status = status
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if stderrors.Is(err, poller.ErrPollTimeout) && s.config.Poll.CancelOnTimeout {
			s.cancelAfterTimeout(ctx, &record)
		}
		s.notifyError("Crawl failed", fmt.Sprintf("%s: %v", req.URL, err))
		return result, err
	}

	if err := s.savePages(ctx, resp.ID, status.Data, result); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return result, err
	}

	if s.config.Output.WriteReport {
		path, err := s.writeCrawlReport(resp.ID, req.URL, status)
		if err != nil {
			return result, err
		}
		result.ReportPath = path
	}

	s.logger.InfoWithFields("Crawl completed", map[string]interface{}{
		"job_id":  resp.ID,
		"pages":   len(status.Data),
		"saved":   result.Saved,
		"skipped": result.Skipped,
	})
	s.notifySuccess("Crawl completed", fmt.Sprintf("%s: %d pages saved", req.URL, result.Saved))
	return result, nil
}

// savePages writes each page to disk and every configured sink
func (s *Scraper) savePages(ctx context.Context, jobID string, pages []firecrawl.Document, result *CrawlResult) error {
	sinks := append(export.MultiSink{export.NewFileSink(s.storageManager)}, s.sinks...)

	for i, page := range pages {
		key := export.PageKey(jobID, i, page)
		if s.storageManager.ShouldSkip(key) {
			result.Skipped++
		} else {
			result.Saved++
		}
		if err := sinks.WritePage(ctx, jobID, key, page); err != nil {
			s.logger.WithError(err).WithField("job_id", jobID).Error("Failed to save crawled page")
			return fmt.Errorf("failed to save crawled page: %w", err)
		}
	}
	return nil
}

func (s *Scraper) cancelAfterTimeout(ctx context.Context, record *jobs.Record) {
	if _, err := s.client.CancelCrawl(ctx, record.ID); err != nil {
		s.logger.WithError(err).WithField("job_id", record.ID).Warn("Failed to cancel crawl after timeout")
		return
	}
	s.logger.WarnWithFields("Crawl canceled after poll timeout", map[string]interface{}{
		"job_id": record.ID,
	})
	record.Status = jobs.StatusCancelled
	record.UpdatedAt = time.Now().UTC()
	s.saveRecord(ctx, *record)
}

func (s *Scraper) writeCrawlReport(jobID, url string, status *firecrawl.CrawlStatusResponse) (string, error) {
	var buf bytes.Buffer
	err := report.WriteCrawl(&buf, report.Crawl{
		JobID:       jobID,
		URL:         url,
		Status:      status,
		GeneratedAt: time.Now(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render crawl report: %w", err)
	}
	path, err := s.storageManager.SaveFile("crawl-"+jobID+".md", buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("failed to save crawl report: %w", err)
	}
	return path, nil
}

// SitemapResult is the outcome of Sitemap
type SitemapResult struct {
	Links      []string
	ReportPath string
}

// Sitemap maps a site and, when reports are enabled, saves the link list
func (s *Scraper) Sitemap(ctx context.Context, req firecrawl.MapRequest) (*SitemapResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "scraper.Sitemap", attribute.String("firecrawl.url", req.URL))
	defer span.End()

	if s.rateLimiter != nil {
		if err := s.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	var resp *firecrawl.MapResponse
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var err error
		resp, err = s.client.GenerateSitemap(ctx, req)
		return err
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to map %s: %w", req.URL, err)
	}

	result := &SitemapResult{Links: resp.Links}
	span.SetAttributes(attribute.Int("firecrawl.links", len(resp.Links)))

	if s.config.Output.WriteReport {
		var buf bytes.Buffer
		err := report.WriteSitemap(&buf, report.Sitemap{URL: req.URL, Links: resp.Links, GeneratedAt: time.Now()})
		if err != nil {
			return result, fmt.Errorf("failed to render sitemap report: %w", err)
		}
		path, err := s.storageManager.SaveFile("sitemap-"+storage.Slug(req.URL)+".md", buf.Bytes())
		if err != nil {
			return result, fmt.Errorf("failed to save sitemap report: %w", err)
		}
		result.ReportPath = path
	}

	s.logger.InfoWithFields("Sitemap generated", map[string]interface{}{
		"url":   req.URL,
		"links": len(resp.Links),
	})
	return result, nil
}

// Status fetches the current state of a crawl and updates its record
func (s *Scraper) Status(ctx context.Context, id string) (*firecrawl.CrawlStatusResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "scraper.Status", attribute.String("firecrawl.job_id", id))
	defer span.End()

	var status *firecrawl.CrawlStatusResponse
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var err error
		status, err = s.client.GetCrawlStatus(ctx, id)
		return err
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	record := s.loadRecord(ctx, id)
	record.Apply(status)
	s.saveRecord(ctx, record)
	return status, nil
}

// withRetry runs read-only calls through the retrier when retries are on
func (s *Scraper) withRetry(ctx context.Context, op retry.Operation) error {
	if s.retrier == nil {
		return op(ctx)
	}
	return s.retrier.Do(ctx, op)
}

// GetCrawlStatus is Status under the name pollers expect, so a Scraper can
// be watched in place of the client and still keep records current
func (s *Scraper) GetCrawlStatus(ctx context.Context, id string) (*firecrawl.CrawlStatusResponse, error) {
	return s.Status(ctx, id)
}

// Cancel stops a crawl on the server and marks its record
func (s *Scraper) Cancel(ctx context.Context, id string) (*firecrawl.CancelCrawlResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "scraper.Cancel", attribute.String("firecrawl.job_id", id))
	defer span.End()

	resp, err := s.client.CancelCrawl(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if resp.Success {
		record := s.loadRecord(ctx, id)
		record.Status = jobs.StatusCancelled
		record.UpdatedAt = time.Now().UTC()
		s.saveRecord(ctx, record)
	}
	return resp, nil
}

// Jobs lists the recorded crawls, newest first
func (s *Scraper) Jobs(ctx context.Context) ([]jobs.Record, error) {
	if s.jobStore == nil {
		return nil, nil
	}
	return s.jobStore.List(ctx)
}

// loadRecord returns the stored record for id or a fresh one
func (s *Scraper) loadRecord(ctx context.Context, id string) jobs.Record {
	if s.jobStore != nil {
		if record, err := s.jobStore.Get(ctx, id); err == nil {
			return *record
		}
	}
	return jobs.NewRecord(id, "")
}

// saveRecord persists a job record. Failures are logged but never fail the job.
func (s *Scraper) saveRecord(ctx context.Context, record jobs.Record) {
	if s.jobStore == nil {
		return
	}
	if err := s.jobStore.Save(ctx, record); err != nil {
		s.logger.WithError(err).WithField("job_id", record.ID).Warn("Failed to record crawl job")
	}
}

func (s *Scraper) notifySuccess(title, message string) {
	if s.notifier != nil {
		s.notifier.SendSuccess(title, message)
	}
}

func (s *Scraper) notifyError(title, message string) {
	if s.notifier != nil {
		s.notifier.SendError(title, message)
	}
}
