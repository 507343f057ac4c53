package scraper

import (
	"context"

	"firecrawl/pkg/firecrawl"
)

// FirecrawlClient is the subset of *firecrawl.Client the scraper drives
type FirecrawlClient interface {
	ScrapeWebpage(ctx context.Context, req firecrawl.ScrapeRequest) (*firecrawl.ScrapeResponse, error)
	StartCrawl(ctx context.Context, req firecrawl.CrawlRequest) (*firecrawl.CrawlResponse, error)
	GetCrawlStatus(ctx context.Context, id string) (*firecrawl.CrawlStatusResponse, error)
	CancelCrawl(ctx context.Context, id string) (*firecrawl.CancelCrawlResponse, error)
	GenerateSitemap(ctx context.Context, req firecrawl.MapRequest) (*firecrawl.MapResponse, error)
}
