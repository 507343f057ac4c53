package firecrawl

import (
	"context"
	"net/http"

	"firecrawl/internal/rest"
)

// API is the set of endpoint calls the Client delegates to. Each call sends
// exactly one request with the given headers.
type API interface {
	ScrapeAndExtractFromURL(ctx context.Context, headers map[string]string, req ScrapeRequest) (*ScrapeResponse, error)
	CrawlURLs(ctx context.Context, headers map[string]string, req CrawlRequest) (*CrawlResponse, error)
	GetCrawlStatus(ctx context.Context, headers map[string]string, id string) (*CrawlStatusResponse, error)
	CancelCrawl(ctx context.Context, headers map[string]string, id string) (*CancelCrawlResponse, error)
	MapURLs(ctx context.Context, headers map[string]string, req MapRequest) (*MapResponse, error)
}

// Endpoint paths relative to the API URL
const (
	PathScrape   = "/scrape"
	PathCrawl    = "/crawl"
	PathCrawlJob = "/crawl/{id}"
	PathMap      = "/map"
)

// RESTAPI implements API over HTTP
type RESTAPI struct {
	client *rest.Client
}

// NewRESTAPI wraps a transport client
func NewRESTAPI(client *rest.Client) *RESTAPI {
	return &RESTAPI{client: client}
}

func (a *RESTAPI) ScrapeAndExtractFromURL(ctx context.Context, headers map[string]string, req ScrapeRequest) (*ScrapeResponse, error) {
	var out ScrapeResponse
	err := a.client.Do(ctx, rest.Request{
		Operation: "scrape",
		Method:    http.MethodPost,
		Path:      PathScrape,
		Headers:   headers,
		Body:      req,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *RESTAPI) CrawlURLs(ctx context.Context, headers map[string]string, req CrawlRequest) (*CrawlResponse, error) {
	var out CrawlResponse
	err := a.client.Do(ctx, rest.Request{
		Operation: "crawl",
		Method:    http.MethodPost,
		Path:      PathCrawl,
		Headers:   headers,
		Body:      req,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *RESTAPI) GetCrawlStatus(ctx context.Context, headers map[string]string, id string) (*CrawlStatusResponse, error) {
	var out CrawlStatusResponse
	err := a.client.Do(ctx, rest.Request{
		Operation:  "crawl_status",
		Method:     http.MethodGet,
		Path:       PathCrawlJob,
		PathParams: map[string]string{"id": id},
		Headers:    headers,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *RESTAPI) CancelCrawl(ctx context.Context, headers map[string]string, id string) (*CancelCrawlResponse, error) {
	var out CancelCrawlResponse
	err := a.client.Do(ctx, rest.Request{
		Operation:  "crawl_cancel",
		Method:     http.MethodDelete,
		Path:       PathCrawlJob,
		PathParams: map[string]string{"id": id},
		Headers:    headers,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *RESTAPI) MapURLs(ctx context.Context, headers map[string]string, req MapRequest) (*MapResponse, error) {
	var out MapResponse
	err := a.client.Do(ctx, rest.Request{
		Operation: "map",
		Method:    http.MethodPost,
		Path:      PathMap,
		Headers:   headers,
		Body:      req,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
