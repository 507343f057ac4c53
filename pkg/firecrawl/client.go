package firecrawl

import (
	"context"
	"net/http"
	"time"

	"firecrawl/internal/rest"
	"firecrawl/pkg/logger"
)

// Client is a thin wrapper over the Firecrawl Simple API. Every method sends
// one request and returns the decoded response body, or the transport's
// error value unchanged. A Client is safe for concurrent use.
type Client struct {
	config Config
	api    API
}

type clientOptions struct {
	httpClient *http.Client
	timeout    time.Duration
	logger     logger.Logger
	observer   rest.Observer
	userAgent  string
	api        API
}

// Option configures a Client
type Option func(*clientOptions)

// WithHTTPClient sets the http.Client used for requests
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = hc }
}

// WithTimeout bounds every request. It is ignored when WithHTTPClient is used.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// WithLogger sets the logger for request tracing at debug level
func WithLogger(l logger.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// WithObserver registers a per-request observer, such as a metrics collector
func WithObserver(obs rest.Observer) Option {
	return func(o *clientOptions) { o.observer = obs }
}

// WithUserAgent overrides the User-Agent header
func WithUserAgent(ua string) Option {
	return func(o *clientOptions) { o.userAgent = ua }
}

// WithAPI replaces the HTTP binding, mainly for tests
func WithAPI(api API) Option {
	return func(o *clientOptions) { o.api = api }
}

// NewClient creates a client. Fields left empty in cfg take their defaults.
func NewClient(cfg Config, opts ...Option) *Client {
	o := &clientOptions{}
	for _, opt := range opts {
		opt(o)
	}

	c := &Client{config: mergeConfig(cfg), api: o.api}
	if c.api != nil {
		return c
	}

	hc := o.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: o.timeout}
	}
	c.api = NewRESTAPI(rest.NewClient(c.config.APIURL,
		rest.WithHTTPClient(hc),
		rest.WithLogger(o.logger),
		rest.WithObserver(o.observer),
		rest.WithUserAgent(o.userAgent),
	))
	return c
}

// Config returns a copy of the client's configuration
func (c *Client) Config() Config {
	return c.config
}

// Headers returns the headers sent with every request: an Authorization
// bearer token when an API key is configured, nothing otherwise.
func (c *Client) Headers() map[string]string {
	headers := make(map[string]string)
	if c.config.APIKey != "" {
		headers["Authorization"] = "Bearer " + c.config.APIKey
	}
	return headers
}

// StartCrawl submits a crawl job. The returned ID is used with
// GetCrawlStatus and CancelCrawl.
func (c *Client) StartCrawl(ctx context.Context, req CrawlRequest) (*CrawlResponse, error) {
	return c.api.CrawlURLs(ctx, c.Headers(), req)
}

// GetCrawlStatus fetches the current status and results of a crawl job
func (c *Client) GetCrawlStatus(ctx context.Context, id string) (*CrawlStatusResponse, error) {
	return c.api.GetCrawlStatus(ctx, c.Headers(), id)
}

// CancelCrawl asks the server to stop a crawl job
func (c *Client) CancelCrawl(ctx context.Context, id string) (*CancelCrawlResponse, error) {
	return c.api.CancelCrawl(ctx, c.Headers(), id)
}

// ScrapeWebpage scrapes a single URL. Canceling ctx abandons the request;
// the server may still finish the scrape.
func (c *Client) ScrapeWebpage(ctx context.Context, req ScrapeRequest) (*ScrapeResponse, error) {
	return c.api.ScrapeAndExtractFromURL(ctx, c.Headers(), req)
}

// GenerateSitemap lists the URLs of a site
func (c *Client) GenerateSitemap(ctx context.Context, req MapRequest) (*MapResponse, error) {
	return c.api.MapURLs(ctx, c.Headers(), req)
}
