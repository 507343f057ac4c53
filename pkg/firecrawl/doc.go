// Package firecrawl is a client for the Firecrawl Simple API.
//
// The API crawls, scrapes and maps websites server-side; this package only
// submits requests and returns typed responses. Crawls are asynchronous:
// StartCrawl returns a job ID and the caller polls GetCrawlStatus until the
// status is completed or failed (see package poller for a helper).
//
// Basic Usage:
//
//	client := firecrawl.NewClient(firecrawl.Config{APIKey: os.Getenv("FIRECRAWL_API_KEY")})
//
//	page, err := client.ScrapeWebpage(ctx, firecrawl.ScrapeRequest{
//	    URL:     "https://example.com",
//	    Formats: []firecrawl.Format{firecrawl.FormatMarkdown},
//	})
//
//	job, err := client.StartCrawl(ctx, firecrawl.CrawlRequest{
//	    URL:      "https://example.com",
//	    MaxDepth: firecrawl.Int(2),
//	    Limit:    firecrawl.Int(10),
//	})
//
// The client never retries. Errors are *errors.Error values from package
// firecrawl/pkg/errors carrying the HTTP status and the server's message.
package firecrawl
