package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"firecrawl/pkg/logger"
)

// FileStore keeps all records in a single JSON file that is rewritten
// atomically on every change
type FileStore struct {
	path   string
	mu     sync.Mutex
	logger logger.Logger
}

// NewFileStore creates the parent directory of path if needed
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create jobs directory: %w", err)
	}
	return &FileStore{path: path, logger: logger.GetLogger()}, nil
}

// Path returns the backing file
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) load() (map[string]Record, error) {
	records := make(map[string]Record)

	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return records, nil
		}
		return nil, fmt.Errorf("failed to open jobs file: %w", err)
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode jobs file: %w", err)
	}
	return records, nil
}

func (s *FileStore) write(records map[string]Record) error {
	tempPath := s.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary jobs file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode jobs: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync jobs file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close jobs file: %w", err)
	}

	if err := os.Rename(tempPath, s.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace jobs file: %w", err)
	}
	return nil
}

func (s *FileStore) Save(ctx context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	records[record.ID] = record
	if err := s.write(records); err != nil {
		return err
	}

	s.logger.DebugWithFields("Job saved", map[string]interface{}{
		"job_id":    record.ID,
		"status":    record.Status,
		"completed": record.Completed,
		"total":     record.Total,
	})
	return nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	record, ok := records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &record, nil
}

func (s *FileStore) List(ctx context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	list := make([]Record, 0, len(records))
	for _, r := range records {
		list = append(list, r)
	}
	sortNewestFirst(list)
	return list, nil
}

// Delete is a no-op for unknown ids
func (s *FileStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := records[id]; !ok {
		return nil
	}
	delete(records, id)
	return s.write(records)
}

func (s *FileStore) Close() error {
	return nil
}
