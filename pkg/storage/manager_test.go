package storage

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"firecrawl/pkg/firecrawl"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlug(t *testing.T) {
	a := Slug("https://example.com/docs/Getting_Started")
	assert.True(t, strings.HasPrefix(a, "example-com-docs-getting-started-"), a)
	assert.Len(t, a, len("example-com-docs-getting-started-")+8)

	assert.Equal(t, a, Slug("https://example.com/docs/Getting_Started"))
	assert.NotEqual(t, Slug("https://example.com/?page=1"), Slug("https://example.com/?page=2"))

	long := Slug("https://example.com/" + strings.Repeat("segment/", 40))
	assert.LessOrEqual(t, len(long), maxSlugLength+9)

	assert.Len(t, Slug("///"), 8)
}

func TestManagerSaveDocument(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, false)
	require.NoError(t, err)
	assert.Equal(t, 0, m.SavedCount())

	png := []byte{0x89, 'P', 'N', 'G'}
	doc := &firecrawl.Document{
		Markdown:   "# Example Domain",
		RawHTML:    firecrawl.String("<h1>Example Domain</h1>"),
		Screenshot: firecrawl.String("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)),
		Links:      []string{"https://www.iana.org/domains/example"},
		Metadata:   &firecrawl.PageMetadata{Title: "Example Domain", SourceURL: "https://example.com", StatusCode: 200},
	}

	saved, err := m.SaveDocument(doc, "https://ignored.example")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", saved.URL)
	assert.Len(t, saved.Paths, 4)

	base := filepath.Join(dir, Slug("https://example.com"))
	md, err := os.ReadFile(base + ".md")
	require.NoError(t, err)
	assert.Equal(t, "# Example Domain", string(md))

	html, err := os.ReadFile(base + ".html")
	require.NoError(t, err)
	assert.Equal(t, "<h1>Example Domain</h1>", string(html))

	shot, err := os.ReadFile(base + ".png")
	require.NoError(t, err)
	assert.Equal(t, png, shot)

	var sidecar struct {
		URL      string                 `json:"url"`
		Metadata map[string]interface{} `json:"metadata"`
		Links    []string               `json:"links"`
	}
	raw, err := os.ReadFile(base + ".json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &sidecar))
	assert.Equal(t, "https://example.com", sidecar.URL)
	assert.Equal(t, "Example Domain", sidecar.Metadata["title"])
	assert.Equal(t, doc.Links, sidecar.Links)

	assert.True(t, m.IsSaved("https://example.com"))
	assert.True(t, m.ShouldSkip("https://example.com"))
	assert.Equal(t, 1, m.SavedCount())
}

func TestManagerOnlyWritesPresentFormats(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, false)
	require.NoError(t, err)

	saved, err := m.SaveDocument(&firecrawl.Document{
		Screenshot: firecrawl.String("https://cdn.example/shot.png"),
	}, "https://example.com/a")
	require.NoError(t, err)

	require.Len(t, saved.Paths, 2)
	assert.True(t, strings.HasSuffix(saved.Paths[0], ".screenshot.txt"))
	assert.True(t, strings.HasSuffix(saved.Paths[1], ".json"))
}

func TestManagerDetectsEarlierRuns(t *testing.T) {
	dir := t.TempDir()
	first, err := NewManager(dir, false)
	require.NoError(t, err)
	_, err = first.SaveDocument(&firecrawl.Document{Markdown: "x"}, "https://example.com/page")
	require.NoError(t, err)

	second, err := NewManager(dir, false)
	require.NoError(t, err)
	assert.Equal(t, 1, second.SavedCount())
	assert.True(t, second.ShouldSkip("https://example.com/page"))
	assert.False(t, second.IsSaved("https://example.com/other"))

	overwriting, err := NewManager(dir, true)
	require.NoError(t, err)
	assert.False(t, overwriting.ShouldSkip("https://example.com/page"))
}

func TestManagerRejectsNilDocument(t *testing.T) {
	m, err := NewManager(t.TempDir(), false)
	require.NoError(t, err)

	_, err = m.SaveDocument(nil, "https://example.com")
	assert.Error(t, err)
}

func TestManagerRejectsDocumentWithoutKey(t *testing.T) {
	m, err := NewManager(t.TempDir(), false)
	require.NoError(t, err)

	_, err = m.SaveDocument(&firecrawl.Document{Markdown: "x"}, "")
	assert.Error(t, err)
	assert.Equal(t, 0, m.SavedCount())
}

func TestSaveFileLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, false)
	require.NoError(t, err)

	path, err := m.SaveFile("../report.md", []byte("# Report"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report.md"), path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "report.md", entries[0].Name())
}
