package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"

	"firecrawl/pkg/firecrawl"
)

// mockFirecrawlServer simulates a Firecrawl Simple server. Crawls report
// "scraping" for the configured number of polls before completing.
type mockFirecrawlServer struct {
	server       *httptest.Server
	requestCount int32

	mu          sync.Mutex
	authHeaders []string
	crawls      map[string]*mockCrawl
	pollsBefore int
	links       []string
}

type mockCrawl struct {
	url       string
	polls     int
	cancelled bool
}

func newMockFirecrawlServer() *mockFirecrawlServer {
	m := &mockFirecrawlServer{
		crawls:      make(map[string]*mockCrawl),
		pollsBefore: 1,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/scrape", m.handleScrape)
	mux.HandleFunc("POST /v1/crawl", m.handleCrawl)
	mux.HandleFunc("GET /v1/crawl/{id}", m.handleCrawlStatus)
	mux.HandleFunc("DELETE /v1/crawl/{id}", m.handleCancel)
	mux.HandleFunc("POST /v1/map", m.handleMap)

	m.server = httptest.NewServer(m.record(mux))
	return m
}

func (m *mockFirecrawlServer) URL() string {
	return m.server.URL + "/v1"
}

func (m *mockFirecrawlServer) Close() {
	m.server.Close()
}

func (m *mockFirecrawlServer) Requests() int {
	return int(atomic.LoadInt32(&m.requestCount))
}

func (m *mockFirecrawlServer) AuthHeaders() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.authHeaders...)
}

func (m *mockFirecrawlServer) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&m.requestCount, 1)
		m.mu.Lock()
		m.authHeaders = append(m.authHeaders, r.Header.Get("Authorization"))
		m.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (m *mockFirecrawlServer) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req firecrawl.ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		m.sendError(w, http.StatusBadRequest, "url is required")
		return
	}
	if strings.Contains(req.URL, "broken") {
		m.sendError(w, http.StatusInternalServerError, "Failed to scrape "+req.URL)
		return
	}

	writeJSON(w, http.StatusOK, firecrawl.ScrapeResponse{Success: true, Data: page(req.URL)})
}

func (m *mockFirecrawlServer) handleCrawl(w http.ResponseWriter, r *http.Request) {
	var req firecrawl.CrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		m.sendError(w, http.StatusBadRequest, "url is required")
		return
	}

	m.mu.Lock()
	id := "crawl-" + string(rune('a'+len(m.crawls)))
	m.crawls[id] = &mockCrawl{url: req.URL}
	m.mu.Unlock()

	writeJSON(w, http.StatusOK, firecrawl.CrawlResponse{Success: true, ID: id, URL: m.URL() + "/crawl/" + id})
}

func (m *mockFirecrawlServer) handleCrawlStatus(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	crawl, ok := m.crawls[r.PathValue("id")]
	if !ok {
		m.mu.Unlock()
		m.sendError(w, http.StatusNotFound, "Crawl job not found")
		return
	}
	crawl.polls++
	done := crawl.polls > m.pollsBefore
	url := crawl.url
	m.mu.Unlock()

	if !done {
		writeJSON(w, http.StatusOK, firecrawl.CrawlStatusResponse{Status: firecrawl.CrawlStatusScraping, Total: 2, Completed: 1})
		return
	}
	writeJSON(w, http.StatusOK, firecrawl.CrawlStatusResponse{
		Status:    firecrawl.CrawlStatusCompleted,
		Total:     2,
		Completed: 2,
		Data:      []firecrawl.Document{*page(url), *page(url + "/about")},
	})
}

func (m *mockFirecrawlServer) handleCancel(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	crawl, ok := m.crawls[r.PathValue("id")]
	if ok {
		crawl.cancelled = true
	}
	m.mu.Unlock()

	if !ok {
		m.sendError(w, http.StatusNotFound, "Crawl job not found")
		return
	}
	writeJSON(w, http.StatusOK, firecrawl.CancelCrawlResponse{Success: true, Message: "Crawl job cancelled"})
}

func (m *mockFirecrawlServer) handleMap(w http.ResponseWriter, r *http.Request) {
	var req firecrawl.MapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
		m.sendError(w, http.StatusBadRequest, "url is required")
		return
	}

	m.mu.Lock()
	links := m.links
	m.mu.Unlock()
	if links == nil {
		links = []string{req.URL, req.URL + "/about", req.URL + "/pricing"}
	}
	writeJSON(w, http.StatusOK, firecrawl.MapResponse{Success: true, Links: links})
}

func (m *mockFirecrawlServer) sendError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, firecrawl.ErrorResponse{Error: message})
}

func page(url string) *firecrawl.Document {
	return &firecrawl.Document{
		Markdown: "# " + url,
		Links:    []string{url + "/next"},
		Metadata: &firecrawl.PageMetadata{Title: url, SourceURL: url, StatusCode: 200},
	}
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}
