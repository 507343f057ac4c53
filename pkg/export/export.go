// Package export forwards crawled pages to downstream consumers.
package export

import (
	"context"
	stderrors "errors"
	"fmt"

	"firecrawl/pkg/firecrawl"
	"firecrawl/pkg/storage"
)

// Sink receives every page produced by a crawl or scrape. key identifies the
// page within the job; see PageKey.
type Sink interface {
	WritePage(ctx context.Context, jobID, key string, page firecrawl.Document) error
	Close() error
}

// MultiSink fans pages out to several sinks. Every sink sees every page even
// when an earlier one fails; the errors are joined.
type MultiSink []Sink

func (m MultiSink) WritePage(ctx context.Context, jobID, key string, page firecrawl.Document) error {
	var errs []error
	for _, s := range m {
		if err := s.WritePage(ctx, jobID, key, page); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// FileSink saves pages through a storage.Manager
type FileSink struct {
	store *storage.Manager
}

func NewFileSink(store *storage.Manager) *FileSink {
	return &FileSink{store: store}
}

// WritePage saves page under key, skipping keys the manager already holds
// unless it overwrites
func (f *FileSink) WritePage(ctx context.Context, jobID, key string, page firecrawl.Document) error {
	if f.store.ShouldSkip(key) {
		return nil
	}
	_, err := f.store.SaveDocument(&page, key)
	return err
}

func (f *FileSink) Close() error {
	return nil
}

// PageKey is the page's source URL, or "<jobID>/page-<index>" when the
// server sent no metadata.sourceURL
func PageKey(jobID string, index int, page firecrawl.Document) string {
	if url := sourceURL(page); url != "" {
		return url
	}
	return fmt.Sprintf("%s/page-%d", jobID, index)
}

func sourceURL(page firecrawl.Document) string {
	if page.Metadata != nil {
		return page.Metadata.SourceURL
	}
	return ""
}
