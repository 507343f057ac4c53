package firecrawl

import (
	"encoding/json"
)

// Format selects a representation returned for a scraped page
type Format string

const (
	FormatMarkdown   Format = "markdown"
	FormatRawHTML    Format = "rawHtml"
	FormatScreenshot Format = "screenshot"
)

// CrawlStatus is the lifecycle state of a crawl job as reported by the server
type CrawlStatus string

const (
	CrawlStatusScraping  CrawlStatus = "scraping"
	CrawlStatusCompleted CrawlStatus = "completed"
	CrawlStatusFailed    CrawlStatus = "failed"
)

// Terminal reports whether no further status changes are expected
func (s CrawlStatus) Terminal() bool {
	return s == CrawlStatusCompleted || s == CrawlStatusFailed
}

// ScrapeRequest is the body of POST /scrape.
// WaitFor and Timeout are in milliseconds.
type ScrapeRequest struct {
	URL         string                 `json:"url"`
	Formats     []Format               `json:"formats,omitempty"`
	IncludeTags []string               `json:"includeTags,omitempty"`
	ExcludeTags []string               `json:"excludeTags,omitempty"`
	Headers     map[string]interface{} `json:"headers,omitempty"`
	WaitFor     *int                   `json:"waitFor,omitempty"`
	Timeout     *int                   `json:"timeout,omitempty"`
}

// ScrapeOptions are applied to every page of a crawl
type ScrapeOptions struct {
	Formats     []Format               `json:"formats,omitempty"`
	Headers     map[string]interface{} `json:"headers,omitempty"`
	IncludeTags []string               `json:"includeTags,omitempty"`
	ExcludeTags []string               `json:"excludeTags,omitempty"`
	WaitFor     *int                   `json:"waitFor,omitempty"`
}

// CrawlRequest is the body of POST /crawl
type CrawlRequest struct {
	URL                string                 `json:"url"`
	ExcludePaths       []string               `json:"excludePaths,omitempty"`
	IncludePaths       []string               `json:"includePaths,omitempty"`
	MaxDepth           *int                   `json:"maxDepth,omitempty"`
	IgnoreSitemap      *bool                  `json:"ignoreSitemap,omitempty"`
	Limit              *int                   `json:"limit,omitempty"`
	AllowBackwardLinks *bool                  `json:"allowBackwardLinks,omitempty"`
	AllowExternalLinks *bool                  `json:"allowExternalLinks,omitempty"`
	WebhookURL         string                 `json:"webhookUrl,omitempty"`
	WebhookMetadata    map[string]interface{} `json:"webhookMetadata,omitempty"`
	ScrapeOptions      *ScrapeOptions         `json:"scrapeOptions,omitempty"`
}

// MapRequest is the body of POST /map
type MapRequest struct {
	URL               string `json:"url"`
	Search            string `json:"search,omitempty"`
	IgnoreSitemap     *bool  `json:"ignoreSitemap,omitempty"`
	IncludeSubdomains *bool  `json:"includeSubdomains,omitempty"`
	Limit             *int   `json:"limit,omitempty"`
}

// Document is one scraped page. Only the formats that were requested are set.
type Document struct {
	Markdown   string        `json:"markdown,omitempty"`
	RawHTML    *string       `json:"rawHtml,omitempty"`
	Screenshot *string       `json:"screenshot,omitempty"`
	Links      []string      `json:"links,omitempty"`
	Metadata   *PageMetadata `json:"metadata,omitempty"`
	Warning    *string       `json:"warning,omitempty"`
}

// ScrapeResponse is returned by POST /scrape
type ScrapeResponse struct {
	Success bool      `json:"success"`
	Data    *Document `json:"data,omitempty"`
}

// CrawlResponse is returned by POST /crawl
type CrawlResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	URL     string `json:"url,omitempty"`
}

// CrawlStatusResponse is returned by GET /crawl/{id}. Next, when set, is the
// URL of the next page of results.
type CrawlStatusResponse struct {
	Status    CrawlStatus `json:"status,omitempty"`
	Total     int         `json:"total"`
	Completed int         `json:"completed"`
	ExpiresAt string      `json:"expiresAt,omitempty"`
	Next      *string     `json:"next,omitempty"`
	Data      []Document  `json:"data,omitempty"`
}

// CancelCrawlResponse is returned by DELETE /crawl/{id}
type CancelCrawlResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// MapResponse is returned by POST /map
type MapResponse struct {
	Success bool     `json:"success"`
	Links   []string `json:"links,omitempty"`
}

// ErrorResponse is the body the server sends with 402, 404, 429 and 500
type ErrorResponse struct {
	Error string `json:"error,omitempty"`
}

// PageMetadata describes a scraped page. Keys the server sends beyond the
// named fields are kept in Extra and written back out by MarshalJSON.
type PageMetadata struct {
	Title       string
	Description string
	Language    *string
	SourceURL   string
	StatusCode  int
	Error       *string
	Extra       map[string]interface{}
}

type pageMetadataFields struct {
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Language    *string `json:"language,omitempty"`
	SourceURL   string  `json:"sourceURL,omitempty"`
	StatusCode  int     `json:"statusCode,omitempty"`
	Error       *string `json:"error,omitempty"`
}

var knownMetadataKeys = map[string]bool{
	"title": true, "description": true, "language": true,
	"sourceURL": true, "statusCode": true, "error": true,
}

func (m *PageMetadata) UnmarshalJSON(data []byte) error {
	var fields pageMetadataFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var all map[string]interface{}
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	*m = PageMetadata{
		Title:       fields.Title,
		Description: fields.Description,
		Language:    fields.Language,
		SourceURL:   fields.SourceURL,
		StatusCode:  fields.StatusCode,
		Error:       fields.Error,
	}
	for key, value := range all {
		if knownMetadataKeys[key] {
			continue
		}
		if m.Extra == nil {
			m.Extra = make(map[string]interface{})
		}
		m.Extra[key] = value
	}
	return nil
}

func (m PageMetadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(m.Extra)+6)
	for key, value := range m.Extra {
		out[key] = value
	}

	fields, err := json.Marshal(pageMetadataFields{
		Title:       m.Title,
		Description: m.Description,
		Language:    m.Language,
		SourceURL:   m.SourceURL,
		StatusCode:  m.StatusCode,
		Error:       m.Error,
	})
	if err != nil {
		return nil, err
	}
	var named map[string]interface{}
	if err := json.Unmarshal(fields, &named); err != nil {
		return nil, err
	}
	for key, value := range named {
		out[key] = value
	}

	return json.Marshal(out)
}

// Int returns a pointer to v, for optional request fields
func Int(v int) *int { return &v }

// Bool returns a pointer to v, for optional request fields
func Bool(v bool) *bool { return &v }

// String returns a pointer to v
func String(v string) *string { return &v }
