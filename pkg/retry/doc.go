// Package retry re-runs failed Firecrawl calls with backoff.
//
// The firecrawl client itself never retries; callers that want retries wrap
// individual calls:
//
//	resp, err := retry.DoWithResult(ctx, func(ctx context.Context) (*firecrawl.ScrapeResponse, error) {
//		return client.ScrapeWebpage(ctx, req)
//	}, retry.DefaultConfig())
//
// DefaultRetryIf retries network failures, timeouts, 429 and 5xx responses.
// Payment required, not found, auth and bad request errors are returned
// immediately. Setting Config.ErrorBackoff waits longer after rate limiting
// than after a dropped connection.
package retry
