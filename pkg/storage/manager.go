package storage

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"firecrawl/pkg/firecrawl"
)

const maxSlugLength = 100

// SavedFiles lists the files written for one document
type SavedFiles struct {
	URL   string
	Slug  string
	Paths []string
}

// Manager writes scraped documents to an output directory and remembers
// which URLs have already been saved
type Manager struct {
	outputDir string
	overwrite bool
	saved     map[string]bool
	mu        sync.RWMutex
}

// NewManager creates the output directory if needed and indexes documents
// saved by earlier runs
func NewManager(outputDir string, overwrite bool) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	m := &Manager{
		outputDir: outputDir,
		overwrite: overwrite,
		saved:     make(map[string]bool),
	}
	if err := m.scanExistingFiles(); err != nil {
		return nil, fmt.Errorf("failed to scan existing files: %w", err)
	}
	return m, nil
}

// scanExistingFiles treats every <slug>.json as a saved document
func (m *Manager) scanExistingFiles() error {
	entries, err := os.ReadDir(m.outputDir)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		m.saved[strings.TrimSuffix(entry.Name(), ".json")] = true
	}
	return nil
}

// Slug turns a URL into a stable, filesystem-safe file stem. Host and path
// are kept readable; a short hash of the full URL keeps distinct URLs apart
// when they only differ in query, fragment or punctuation.
func Slug(rawURL string) string {
	sum := sha1.Sum([]byte(rawURL))
	hash := hex.EncodeToString(sum[:])[:8]

	readable := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		readable = u.Host + u.Path
	}

	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(readable) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastDash = false
		} else if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}
	stem := strings.Trim(b.String(), "-")
	if len(stem) > maxSlugLength {
		stem = strings.TrimRight(stem[:maxSlugLength], "-")
	}
	if stem == "" {
		return hash
	}
	return stem + "-" + hash
}

// IsSaved reports whether a document for rawURL is already on disk
func (m *Manager) IsSaved(rawURL string) bool {
	slug := Slug(rawURL)

	m.mu.RLock()
	known := m.saved[slug]
	m.mu.RUnlock()
	if known {
		return true
	}

	if _, err := os.Stat(filepath.Join(m.outputDir, slug+".json")); err == nil {
		m.mu.Lock()
		m.saved[slug] = true
		m.mu.Unlock()
		return true
	}
	return false
}

// ShouldSkip reports whether SaveDocument would leave rawURL untouched
func (m *Manager) ShouldSkip(rawURL string) bool {
	return !m.overwrite && m.IsSaved(rawURL)
}

// SaveDocument writes the formats present in doc next to a JSON sidecar
// holding metadata and links. sourceURL is used when the document carries
// no metadata.sourceURL and must then be unique per document.
func (m *Manager) SaveDocument(doc *firecrawl.Document, sourceURL string) (*SavedFiles, error) {
	if doc == nil {
		return nil, fmt.Errorf("no document to save for %s", sourceURL)
	}
	if sourceURL == "" && (doc.Metadata == nil || doc.Metadata.SourceURL == "") {
		return nil, fmt.Errorf("no source URL or key for document")
	}
	if doc.Metadata != nil && doc.Metadata.SourceURL != "" {
		sourceURL = doc.Metadata.SourceURL
	}

	slug := Slug(sourceURL)
	result := &SavedFiles{URL: sourceURL, Slug: slug}
	write := func(ext string, data []byte) error {
		path := filepath.Join(m.outputDir, slug+ext)
		if err := WriteFileAtomic(path, data); err != nil {
			return err
		}
		result.Paths = append(result.Paths, path)
		return nil
	}

	if doc.Markdown != "" {
		if err := write(".md", []byte(doc.Markdown)); err != nil {
			return nil, err
		}
	}
	if doc.RawHTML != nil && *doc.RawHTML != "" {
		if err := write(".html", []byte(*doc.RawHTML)); err != nil {
			return nil, err
		}
	}
	if doc.Screenshot != nil && *doc.Screenshot != "" {
		ext, data := screenshotFile(*doc.Screenshot)
		if err := write(ext, data); err != nil {
			return nil, err
		}
	}

	sidecar, err := json.MarshalIndent(struct {
		URL      string                  `json:"url"`
		Metadata *firecrawl.PageMetadata `json:"metadata,omitempty"`
		Links    []string                `json:"links,omitempty"`
		Warning  *string                 `json:"warning,omitempty"`
	}{sourceURL, doc.Metadata, doc.Links, doc.Warning}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := write(".json", sidecar); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.saved[slug] = true
	m.mu.Unlock()

	return result, nil
}

// screenshotFile decodes inline base64 PNG data; anything else, normally a
// hosted screenshot URL, is kept as text
func screenshotFile(screenshot string) (string, []byte) {
	const prefix = "data:image/png;base64,"
	if strings.HasPrefix(screenshot, prefix) {
		if data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(screenshot, prefix)); err == nil {
			return ".png", data
		}
	}
	return ".screenshot.txt", []byte(screenshot + "\n")
}

// SaveFile writes an auxiliary file such as a report into the output directory
func (m *Manager) SaveFile(name string, data []byte) (string, error) {
	path := filepath.Join(m.outputDir, filepath.Base(name))
	if err := WriteFileAtomic(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// WriteFileAtomic writes data to a temporary file and renames it over path
func WriteFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	closeErr := tmp.Close()
	if err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if closeErr != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

// OutputDir returns the output directory path
func (m *Manager) OutputDir() string {
	return m.outputDir
}

// SavedCount returns the number of documents on disk
func (m *Manager) SavedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.saved)
}
