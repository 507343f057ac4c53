package jobs

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"time"

	"firecrawl/pkg/config"
	"firecrawl/pkg/firecrawl"
)

// ErrNotFound is returned by Get when no record exists for the id
var ErrNotFound = stderrors.New("job not found")

// StatusCancelled marks a record whose crawl was canceled from this client.
// The server itself never reports it.
const StatusCancelled firecrawl.CrawlStatus = "cancelled"

// Record is the locally tracked state of a crawl job
type Record struct {
	ID        string                `json:"id"`
	URL       string                `json:"url"`
	Status    firecrawl.CrawlStatus `json:"status"`
	Total     int                   `json:"total"`
	Completed int                   `json:"completed"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// NewRecord starts tracking a crawl accepted by the server
func NewRecord(id, url string) Record {
	now := time.Now().UTC()
	return Record{
		ID:        id,
		URL:       url,
		Status:    firecrawl.CrawlStatusScraping,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Apply copies progress from a status response onto the record
func (r *Record) Apply(status *firecrawl.CrawlStatusResponse) {
	if status == nil {
		return
	}
	if status.Status != "" {
		r.Status = status.Status
	}
	r.Total = status.Total
	r.Completed = status.Completed
	r.UpdatedAt = time.Now().UTC()
}

// Store persists crawl job records
type Store interface {
	Save(ctx context.Context, record Record) error
	Get(ctx context.Context, id string) (*Record, error)
	// List returns records newest first
	List(ctx context.Context) ([]Record, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Backend names accepted by Open
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Open returns the store selected by cfg.Jobs.Backend
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Jobs.Backend {
	case "", BackendFile:
		return NewFileStore(cfg.JobsPath())
	case BackendSQLite:
		return NewSQLiteStore(cfg.JobsPath())
	case BackendRedis:
		return NewRedisStore(cfg.Jobs.RedisAddr, cfg.Jobs.RedisPrefix, cfg.Jobs.RedisTTL.Std()), nil
	default:
		return nil, fmt.Errorf("unknown jobs backend %q", cfg.Jobs.Backend)
	}
}

func sortNewestFirst(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}
