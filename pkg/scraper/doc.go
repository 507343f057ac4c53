// Package scraper runs the jobs behind the firecrawl CLI on top of the thin
// API client.
//
// A Scraper combines a client with everything around a request that the
// client deliberately leaves out:
//   - a worker pool, rate limiter and optional retries for batch scrapes
//   - local tracking of crawl jobs in a jobs.Store
//   - polling crawls to completion and canceling them on timeout
//   - saving pages to disk and streaming them to export sinks
//   - markdown reports and desktop notifications
//
// Usage:
//
//	cfg := config.DefaultConfig()
//	client := firecrawl.NewClient(firecrawl.ConfigFromSettings(cfg.API))
//
//	s, err := scraper.New(client, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := s.Crawl(ctx, scraper.CrawlOptions{
//	    Request: firecrawl.CrawlRequest{URL: "https://example.com", Limit: firecrawl.Int(10)},
//	    Wait:    true,
//	})
//
// Pages are written under cfg.Output.BaseDirectory as described in package
// storage. Pages saved by an earlier run are skipped unless
// cfg.Output.OverwriteExisting is set.
package scraper
