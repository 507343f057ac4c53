// Package firecrawltest provides test doubles for code built on the
// firecrawl client.
package firecrawltest

import (
	"context"

	"firecrawl/pkg/firecrawl"

	"github.com/stretchr/testify/mock"
)

// MockAPI is a testify mock of firecrawl.API
type MockAPI struct {
	mock.Mock
}

var _ firecrawl.API = (*MockAPI)(nil)

func (m *MockAPI) ScrapeAndExtractFromURL(ctx context.Context, headers map[string]string, req firecrawl.ScrapeRequest) (*firecrawl.ScrapeResponse, error) {
	args := m.Called(ctx, headers, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*firecrawl.ScrapeResponse), args.Error(1)
}

func (m *MockAPI) CrawlURLs(ctx context.Context, headers map[string]string, req firecrawl.CrawlRequest) (*firecrawl.CrawlResponse, error) {
	args := m.Called(ctx, headers, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*firecrawl.CrawlResponse), args.Error(1)
}

func (m *MockAPI) GetCrawlStatus(ctx context.Context, headers map[string]string, id string) (*firecrawl.CrawlStatusResponse, error) {
	args := m.Called(ctx, headers, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*firecrawl.CrawlStatusResponse), args.Error(1)
}

func (m *MockAPI) CancelCrawl(ctx context.Context, headers map[string]string, id string) (*firecrawl.CancelCrawlResponse, error) {
	args := m.Called(ctx, headers, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*firecrawl.CancelCrawlResponse), args.Error(1)
}

func (m *MockAPI) MapURLs(ctx context.Context, headers map[string]string, req firecrawl.MapRequest) (*firecrawl.MapResponse, error) {
	args := m.Called(ctx, headers, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*firecrawl.MapResponse), args.Error(1)
}

// NewClient returns a client backed by api, configured with key
func NewClient(api *MockAPI, key string) *firecrawl.Client {
	return firecrawl.NewClient(firecrawl.Config{APIKey: key}, firecrawl.WithAPI(api))
}
