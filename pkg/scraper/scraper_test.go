package scraper

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"firecrawl/pkg/config"
	"firecrawl/pkg/errors"
	"firecrawl/pkg/firecrawl"
	"firecrawl/pkg/firecrawl/firecrawltest"
	"firecrawl/pkg/jobs"
	"firecrawl/pkg/logger"
	"firecrawl/pkg/poller"
	"firecrawl/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSink struct {
	mock.Mock
}

func (m *mockSink) WritePage(ctx context.Context, jobID, key string, page firecrawl.Document) error {
	return m.Called(jobID, key, page).Error(0)
}

func (m *mockSink) Close() error {
	return m.Called().Error(0)
}

type fixture struct {
	api     *firecrawltest.MockAPI
	cfg     *config.Config
	store   jobs.Store
	scraper *Scraper
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Output.BaseDirectory = filepath.Join(t.TempDir(), "out")
	cfg.Retry.Enabled = false
	cfg.RateLimit.RequestsPerMinute = 0
	cfg.Poll.Interval = config.Duration(time.Millisecond)
	cfg.Poll.Timeout = config.Duration(2 * time.Second)

	store, err := jobs.NewFileStore(filepath.Join(t.TempDir(), "jobs.json"))
	require.NoError(t, err)

	api := &firecrawltest.MockAPI{}
	opts = append([]Option{WithJobStore(store), WithLogger(logger.NewNopLogger())}, opts...)
	s, err := New(firecrawltest.NewClient(api, "fc-test"), cfg, opts...)
	require.NoError(t, err)

	return &fixture{api: api, cfg: cfg, store: store, scraper: s}
}

func page(url, title string) firecrawl.Document {
	return firecrawl.Document{
		Markdown: "# " + title,
		Metadata: &firecrawl.PageMetadata{Title: title, SourceURL: url, StatusCode: 200},
	}
}

func (f *fixture) expectStart(id string) {
	f.api.On("CrawlURLs", mock.Anything, mock.Anything, mock.MatchedBy(func(req firecrawl.CrawlRequest) bool {
		return req.ScrapeOptions != nil && len(req.ScrapeOptions.Formats) == 1 && req.ScrapeOptions.Formats[0] == firecrawl.FormatMarkdown
	})).Return(&firecrawl.CrawlResponse{Success: true, ID: id}, nil).Once()
}

func TestNewRequiresClient(t *testing.T) {
	_, err := New(nil, config.DefaultConfig())
	assert.Error(t, err)
}

func TestCrawlWaitsAndSavesPages(t *testing.T) {
	f := newFixture(t)
	f.expectStart("job-1")

	f.api.On("GetCrawlStatus", mock.Anything, mock.Anything, "job-1").
		Return(&firecrawl.CrawlStatusResponse{Status: firecrawl.CrawlStatusScraping, Total: 2, Completed: 1}, nil).Once()
	f.api.On("GetCrawlStatus", mock.Anything, mock.Anything, "job-1").
		Return(&firecrawl.CrawlStatusResponse{
			Status:    firecrawl.CrawlStatusCompleted,
			Total:     2,
			Completed: 2,
			Data: []firecrawl.Document{
				page("https://example.com", "Home"),
				page("https://example.com/about", "About"),
			},
		}, nil).Once()

	var updates int
	result, err := f.scraper.Crawl(context.Background(), CrawlOptions{
		Request:  firecrawl.CrawlRequest{URL: "https://example.com", Limit: firecrawl.Int(2)},
		Wait:     true,
		OnUpdate: func(*firecrawl.CrawlStatusResponse) { updates++ },
	})

	require.NoError(t, err)
	assert.Equal(t, "job-1", result.ID)
	assert.Equal(t, 2, result.Saved)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 2, updates)

	assert.True(t, f.scraper.Storage().IsSaved("https://example.com/about"))
	require.NotEmpty(t, result.ReportPath)
	reportData, err := os.ReadFile(result.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(reportData), "job-1")

	record, err := f.store.Get(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, firecrawl.CrawlStatusCompleted, record.Status)
	assert.Equal(t, 2, record.Completed)
	assert.Equal(t, "https://example.com", record.URL)

	f.api.AssertExpectations(t)
}

func TestCrawlSkipsSavedPagesAndExports(t *testing.T) {
	sink := &mockSink{}
	f := newFixture(t, WithSink(sink))
	f.cfg.Output.WriteReport = false

	_, err := f.scraper.Storage().SaveDocument(&firecrawl.Document{Markdown: "old"}, "https://example.com")
	require.NoError(t, err)

	pages := []firecrawl.Document{page("https://example.com", "Home"), page("https://example.com/new", "New")}
	f.expectStart("job-2")
	f.api.On("GetCrawlStatus", mock.Anything, mock.Anything, "job-2").
		Return(&firecrawl.CrawlStatusResponse{Status: firecrawl.CrawlStatusCompleted, Total: 2, Completed: 2, Data: pages}, nil)
	sink.On("WritePage", "job-2", mock.Anything, mock.Anything).Return(nil).Twice()

	result, err := f.scraper.Crawl(context.Background(), CrawlOptions{
		Request: firecrawl.CrawlRequest{URL: "https://example.com"},
		Wait:    true,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Saved)
	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, result.ReportPath)
	sink.AssertExpectations(t)
}

func TestCrawlSinkErrorFails(t *testing.T) {
	sink := &mockSink{}
	f := newFixture(t, WithSink(sink))

	f.expectStart("job-3")
	f.api.On("GetCrawlStatus", mock.Anything, mock.Anything, "job-3").
		Return(&firecrawl.CrawlStatusResponse{Status: firecrawl.CrawlStatusCompleted, Data: []firecrawl.Document{page("https://example.com", "Home")}}, nil)
	sink.On("WritePage", "job-3", mock.Anything, mock.Anything).Return(stderrors.New("broker down"))

	_, err := f.scraper.Crawl(context.Background(), CrawlOptions{
		Request: firecrawl.CrawlRequest{URL: "https://example.com"},
		Wait:    true,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestCrawlSavesPagesWithoutSourceURL(t *testing.T) {
	sink := &mockSink{}
	f := newFixture(t, WithSink(sink))
	f.cfg.Output.WriteReport = false

	pages := []firecrawl.Document{
		{Markdown: "# one"},
		{Markdown: "# two", Metadata: &firecrawl.PageMetadata{Title: "Two"}},
		{Markdown: "# three"},
	}
	f.expectStart("job-9")
	f.api.On("GetCrawlStatus", mock.Anything, mock.Anything, "job-9").
		Return(&firecrawl.CrawlStatusResponse{Status: firecrawl.CrawlStatusCompleted, Total: 3, Completed: 3, Data: pages}, nil)
	for _, key := range []string{"job-9/page-0", "job-9/page-1", "job-9/page-2"} {
		sink.On("WritePage", "job-9", key, mock.Anything).Return(nil).Once()
	}

	result, err := f.scraper.Crawl(context.Background(), CrawlOptions{
		Request: firecrawl.CrawlRequest{URL: "https://example.com"},
		Wait:    true,
	})

	require.NoError(t, err)
	assert.Equal(t, 3, result.Saved)
	assert.Equal(t, 3, f.scraper.Storage().SavedCount())

	entries, err := os.ReadDir(f.scraper.Storage().OutputDir())
	require.NoError(t, err)
	var markdown int
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".md" {
			markdown++
		}
	}
	assert.Equal(t, 3, markdown)
	sink.AssertExpectations(t)
}

func TestCrawlWithoutWait(t *testing.T) {
	f := newFixture(t)
	f.expectStart("job-4")

	result, err := f.scraper.Crawl(context.Background(), CrawlOptions{
		Request: firecrawl.CrawlRequest{URL: "https://example.com"},
	})

	require.NoError(t, err)
	assert.Equal(t, "job-4", result.ID)
	assert.Nil(t, result.Status)
	f.api.AssertNotCalled(t, "GetCrawlStatus", mock.Anything, mock.Anything, mock.Anything)

	records, err := f.scraper.Jobs(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, firecrawl.CrawlStatusScraping, records[0].Status)
}

func TestCrawlNotAccepted(t *testing.T) {
	f := newFixture(t)
	f.api.On("CrawlURLs", mock.Anything, mock.Anything, mock.Anything).
		Return(&firecrawl.CrawlResponse{Success: false}, nil)

	_, err := f.scraper.Crawl(context.Background(), CrawlOptions{Request: firecrawl.CrawlRequest{URL: "https://example.com"}})
	assert.Error(t, err)
}

func TestCrawlStartError(t *testing.T) {
	f := newFixture(t)
	apiErr := errors.FromStatus(402, "Payment required")
	f.api.On("CrawlURLs", mock.Anything, mock.Anything, mock.Anything).Return(nil, apiErr)

	_, err := f.scraper.Crawl(context.Background(), CrawlOptions{Request: firecrawl.CrawlRequest{URL: "https://example.com"}})

	require.Error(t, err)
	assert.ErrorIs(t, err, apiErr)
}

func TestCrawlFailed(t *testing.T) {
	f := newFixture(t)
	f.expectStart("job-5")
	f.api.On("GetCrawlStatus", mock.Anything, mock.Anything, "job-5").
		Return(&firecrawl.CrawlStatusResponse{Status: firecrawl.CrawlStatusFailed, Total: 3, Completed: 1}, nil)

	result, err := f.scraper.Crawl(context.Background(), CrawlOptions{
		Request: firecrawl.CrawlRequest{URL: "https://example.com"},
		Wait:    true,
	})

	require.ErrorIs(t, err, poller.ErrCrawlFailed)
	require.NotNil(t, result.Status)
	assert.Equal(t, firecrawl.CrawlStatusFailed, result.Status.Status)

	record, err := f.store.Get(context.Background(), "job-5")
	require.NoError(t, err)
	assert.Equal(t, firecrawl.CrawlStatusFailed, record.Status)
}

func TestCrawlCancelsOnTimeout(t *testing.T) {
	f := newFixture(t)
	f.cfg.Poll.Interval = config.Duration(5 * time.Millisecond)
	f.cfg.Poll.Timeout = config.Duration(30 * time.Millisecond)
	f.cfg.Poll.CancelOnTimeout = true

	f.expectStart("job-6")
	f.api.On("GetCrawlStatus", mock.Anything, mock.Anything, "job-6").
		Return(&firecrawl.CrawlStatusResponse{Status: firecrawl.CrawlStatusScraping, Total: 100, Completed: 1}, nil)
	f.api.On("CancelCrawl", mock.Anything, mock.Anything, "job-6").
		Return(&firecrawl.CancelCrawlResponse{Success: true}, nil).Once()

	_, err := f.scraper.Crawl(context.Background(), CrawlOptions{
		Request: firecrawl.CrawlRequest{URL: "https://example.com"},
		Wait:    true,
	})

	require.ErrorIs(t, err, poller.ErrPollTimeout)
	f.api.AssertCalled(t, "CancelCrawl", mock.Anything, mock.Anything, "job-6")

	record, err := f.store.Get(context.Background(), "job-6")
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusCancelled, record.Status)
}

func TestCrawlTimeoutWithoutCancel(t *testing.T) {
	f := newFixture(t)
	f.cfg.Poll.Interval = config.Duration(5 * time.Millisecond)
	f.cfg.Poll.Timeout = config.Duration(20 * time.Millisecond)

	f.expectStart("job-7")
	f.api.On("GetCrawlStatus", mock.Anything, mock.Anything, "job-7").
		Return(&firecrawl.CrawlStatusResponse{Status: firecrawl.CrawlStatusScraping}, nil)

	_, err := f.scraper.Crawl(context.Background(), CrawlOptions{
		Request: firecrawl.CrawlRequest{URL: "https://example.com"},
		Wait:    true,
	})

	require.ErrorIs(t, err, poller.ErrPollTimeout)
	f.api.AssertNotCalled(t, "CancelCrawl", mock.Anything, mock.Anything, mock.Anything)
}

func scrapeFor(url string) interface{} {
	return mock.MatchedBy(func(req firecrawl.ScrapeRequest) bool { return req.URL == url })
}

func TestScrapeURLs(t *testing.T) {
	f := newFixture(t)

	f.api.On("ScrapeAndExtractFromURL", mock.Anything, mock.Anything, scrapeFor("https://example.com/a")).
		Return(&firecrawl.ScrapeResponse{Success: true, Data: &firecrawl.Document{Markdown: "# A"}}, nil)
	f.api.On("ScrapeAndExtractFromURL", mock.Anything, mock.Anything, scrapeFor("https://example.com/b")).
		Return(nil, errors.FromStatus(500, "boom"))

	results, err := f.scraper.ScrapeURLs(context.Background(), []string{"https://example.com/a", "https://example.com/b"})

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.NoError(t, results[0].Error)
	require.NotNil(t, results[0].Files)
	assert.FileExists(t, filepath.Join(f.cfg.Output.BaseDirectory, storage.Slug("https://example.com/a")+".md"))
	assert.Error(t, results[1].Error)
}

func TestScrapeURLsAllFailed(t *testing.T) {
	f := newFixture(t)
	f.api.On("ScrapeAndExtractFromURL", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.FromStatus(404, "not found"))

	results, err := f.scraper.ScrapeURLs(context.Background(), []string{"https://example.com/missing"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "https://example.com/missing")
	assert.Len(t, results, 1)
}

func TestScrapeURLsSkipsSaved(t *testing.T) {
	f := newFixture(t)
	_, err := f.scraper.Storage().SaveDocument(&firecrawl.Document{Markdown: "cached"}, "https://example.com/a")
	require.NoError(t, err)

	results, err := f.scraper.ScrapeURLs(context.Background(), []string{"https://example.com/a"})

	require.NoError(t, err)
	assert.True(t, results[0].Skipped)
	f.api.AssertNotCalled(t, "ScrapeAndExtractFromURL", mock.Anything, mock.Anything, mock.Anything)
}

func TestScrapeURLsEmpty(t *testing.T) {
	f := newFixture(t)
	_, err := f.scraper.ScrapeURLs(context.Background(), nil)
	assert.Error(t, err)
}

func TestSitemap(t *testing.T) {
	f := newFixture(t)
	req := firecrawl.MapRequest{URL: "https://example.com", Search: "docs"}
	f.api.On("MapURLs", mock.Anything, mock.Anything, req).
		Return(&firecrawl.MapResponse{Success: true, Links: []string{"https://example.com/docs/b", "https://example.com/docs/a"}}, nil)

	result, err := f.scraper.Sitemap(context.Background(), req)

	require.NoError(t, err)
	assert.Len(t, result.Links, 2)
	require.NotEmpty(t, result.ReportPath)
	data, err := os.ReadFile(result.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "https://example.com/docs/a")
}

func TestSitemapError(t *testing.T) {
	f := newFixture(t)
	f.api.On("MapURLs", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.FromStatus(500, "down"))

	_, err := f.scraper.Sitemap(context.Background(), firecrawl.MapRequest{URL: "https://example.com"})
	assert.Error(t, err)
}

func newRetryingFixture(t *testing.T) *fixture {
	t.Helper()

	f := newFixture(t)
	f.cfg.Retry.Enabled = true
	f.cfg.Retry.MaxAttempts = 3
	f.cfg.Retry.BaseDelay = config.Duration(time.Millisecond)
	f.cfg.Retry.MaxDelay = config.Duration(5 * time.Millisecond)

	s, err := New(firecrawltest.NewClient(f.api, "fc-test"), f.cfg, WithJobStore(f.store), WithLogger(logger.NewNopLogger()))
	require.NoError(t, err)
	f.scraper = s
	return f
}

func TestSitemapRetriesServerErrors(t *testing.T) {
	f := newRetryingFixture(t)
	req := firecrawl.MapRequest{URL: "https://example.com"}
	f.api.On("MapURLs", mock.Anything, mock.Anything, req).Return(nil, errors.FromStatus(503, "busy")).Once()
	f.api.On("MapURLs", mock.Anything, mock.Anything, req).
		Return(&firecrawl.MapResponse{Success: true, Links: []string{"https://example.com/a"}}, nil).Once()

	result, err := f.scraper.Sitemap(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/a"}, result.Links)
	f.api.AssertNumberOfCalls(t, "MapURLs", 2)
}

func TestStatusDoesNotRetryNotFound(t *testing.T) {
	f := newRetryingFixture(t)
	f.api.On("GetCrawlStatus", mock.Anything, mock.Anything, "missing").Return(nil, errors.FromStatus(404, "")).Once()

	_, err := f.scraper.Status(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
	f.api.AssertNumberOfCalls(t, "GetCrawlStatus", 1)
}

func TestStatusRetriesServerErrors(t *testing.T) {
	f := newRetryingFixture(t)
	f.api.On("GetCrawlStatus", mock.Anything, mock.Anything, "job-10").Return(nil, errors.FromStatus(502, "")).Once()
	f.api.On("GetCrawlStatus", mock.Anything, mock.Anything, "job-10").
		Return(&firecrawl.CrawlStatusResponse{Status: firecrawl.CrawlStatusCompleted, Total: 1, Completed: 1}, nil).Once()

	status, err := f.scraper.Status(context.Background(), "job-10")

	require.NoError(t, err)
	assert.Equal(t, firecrawl.CrawlStatusCompleted, status.Status)
	f.api.AssertNumberOfCalls(t, "GetCrawlStatus", 2)
}

func TestStatusUpdatesRecord(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Save(context.Background(), jobs.NewRecord("job-8", "https://example.com")))

	f.api.On("GetCrawlStatus", mock.Anything, mock.Anything, "job-8").
		Return(&firecrawl.CrawlStatusResponse{Status: firecrawl.CrawlStatusScraping, Total: 10, Completed: 4}, nil)

	status, err := f.scraper.Status(context.Background(), "job-8")
	require.NoError(t, err)
	assert.Equal(t, 4, status.Completed)

	record, err := f.store.Get(context.Background(), "job-8")
	require.NoError(t, err)
	assert.Equal(t, 4, record.Completed)
	assert.Equal(t, "https://example.com", record.URL)
}

func TestStatusPassesErrorsThrough(t *testing.T) {
	f := newFixture(t)
	notFound := errors.FromStatus(404, "Crawl job not found")
	f.api.On("GetCrawlStatus", mock.Anything, mock.Anything, "missing").Return(nil, notFound)

	_, err := f.scraper.Status(context.Background(), "missing")
	assert.Same(t, notFound, err)

	_, err = f.store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, jobs.ErrNotFound)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Save(context.Background(), jobs.NewRecord("job-9", "https://example.com")))
	f.api.On("CancelCrawl", mock.Anything, mock.Anything, "job-9").
		Return(&firecrawl.CancelCrawlResponse{Success: true, Message: "Crawl job cancelled"}, nil)

	resp, err := f.scraper.Cancel(context.Background(), "job-9")
	require.NoError(t, err)
	assert.True(t, resp.Success)

	record, err := f.store.Get(context.Background(), "job-9")
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusCancelled, record.Status)
}

func TestJobsWithoutStore(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Output.BaseDirectory = t.TempDir()
	s, err := New(firecrawltest.NewClient(&firecrawltest.MockAPI{}, ""), cfg)
	require.NoError(t, err)

	records, err := s.Jobs(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, records)
}
