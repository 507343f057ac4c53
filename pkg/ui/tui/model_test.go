package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firecrawl/pkg/firecrawl"
)

func TestNewModel(t *testing.T) {
	m := NewModel(true)

	assert.NotNil(t, m.jobs)
	assert.Empty(t, m.Jobs())
	assert.Equal(t, 50, m.maxLogMessages)
	assert.True(t, m.quitWhenDone)
	assert.False(t, m.AllDone())
}

func TestApplyStatus(t *testing.T) {
	m := NewModel(false)
	m.AddJob("job-1", "https://example.com")
	m.AddJob("job-1", "https://ignored.example")

	m.ApplyStatus("job-1", &firecrawl.CrawlStatusResponse{Status: firecrawl.CrawlStatusScraping, Total: 10, Completed: 4})

	jobs := m.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "https://example.com", jobs[0].URL)
	assert.Equal(t, 4, jobs[0].Completed)
	assert.InDelta(t, 0.4, jobs[0].Percent(), 0.0001)
	assert.False(t, m.AllDone())

	m.ApplyStatus("job-1", &firecrawl.CrawlStatusResponse{Status: firecrawl.CrawlStatusCompleted, Total: 10, Completed: 10})
	assert.True(t, m.AllDone())
	require.Len(t, m.logMessages, 1)
	assert.Equal(t, "SUCCESS", m.logMessages[0].Level)

	m.ApplyStatus("job-1", nil)
	assert.Len(t, m.Jobs(), 1)
}

func TestApplyStatusUnknownJob(t *testing.T) {
	m := NewModel(false)
	m.ApplyStatus("late", &firecrawl.CrawlStatusResponse{Status: firecrawl.CrawlStatusFailed})

	jobs := m.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "late", jobs[0].ID)
	assert.True(t, jobs[0].Done())
}

func TestJobPercent(t *testing.T) {
	assert.Equal(t, 0.0, (&Job{Status: firecrawl.CrawlStatusScraping}).Percent())
	assert.Equal(t, 1.0, (&Job{Status: firecrawl.CrawlStatusCompleted}).Percent())
	assert.Equal(t, 1.0, (&Job{Completed: 12, Total: 10}).Percent())
}

func TestTotals(t *testing.T) {
	m := NewModel(false)
	m.ApplyStatus("a", &firecrawl.CrawlStatusResponse{Status: firecrawl.CrawlStatusScraping, Total: 5, Completed: 2})
	m.ApplyStatus("b", &firecrawl.CrawlStatusResponse{Status: firecrawl.CrawlStatusScraping, Total: 3, Completed: 3})

	completed, total := m.Totals()
	assert.Equal(t, 5, completed)
	assert.Equal(t, 8, total)
}

func TestLogMessageLimit(t *testing.T) {
	m := NewModel(false)
	m.maxLogMessages = 5

	for i := 0; i < 10; i++ {
		m.AddLogMessage("INFO", "message")
	}
	m.AddLogMessage("ERROR", "last")

	assert.Len(t, m.logMessages, 5)
	assert.Equal(t, "last", m.logMessages[4].Message)
	assert.Equal(t, emberRed, m.logMessages[4].Color)
}

func TestUpdateQuitsWhenAllDone(t *testing.T) {
	m := NewModel(true)
	m.Update(JobAddedMsg{ID: "a", URL: "https://example.com"})
	m.Update(JobAddedMsg{ID: "b", URL: "https://example.org"})

	_, cmd := m.Update(CrawlStatusMsg{ID: "a", Status: &firecrawl.CrawlStatusResponse{Status: firecrawl.CrawlStatusCompleted}})
	assert.Nil(t, cmd)

	_, cmd = m.Update(CrawlErrorMsg{ID: "b", Err: errors.New("not found")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestUpdateKeepsRunningWithoutQuitWhenDone(t *testing.T) {
	m := NewModel(false)
	_, cmd := m.Update(CrawlStatusMsg{ID: "a", Status: &firecrawl.CrawlStatusResponse{Status: firecrawl.CrawlStatusCompleted}})
	assert.Nil(t, cmd)
}

func TestKeyHandling(t *testing.T) {
	m := NewModel(false)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	assert.True(t, m.showHelp)

	m.AddLogMessage("INFO", "x")
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Empty(t, m.logMessages)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestView(t *testing.T) {
	m := NewModel(false)
	assert.Equal(t, "Initializing...", m.View())

	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Contains(t, m.View(), "No crawls yet")

	m.Update(JobAddedMsg{ID: "job-42", URL: "https://example.com"})
	m.Update(LogMsg{Level: "WARN", Message: "slow server"})
	view := m.View()
	assert.Contains(t, view, "job-42")
	assert.Contains(t, view, "slow server")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "00:00", formatDuration(-time.Second))
	assert.Equal(t, "01:05", formatDuration(65*time.Second))
	assert.Equal(t, "01:00:01", formatDuration(time.Hour+time.Second))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

type stubGetter struct{}

func (stubGetter) GetCrawlStatus(ctx context.Context, id string) (*firecrawl.CrawlStatusResponse, error) {
	return &firecrawl.CrawlStatusResponse{Status: firecrawl.CrawlStatusCompleted, Total: 1, Completed: 1}, nil
}

func TestWatchFeedsProgram(t *testing.T) {
	ui := NewTUI(true, tea.WithInput(nil), tea.WithoutRenderer())

	done := make(chan error, 1)
	go func() { done <- ui.Run() }()

	ui.Watch(context.Background(), stubGetter{}, []Target{{ID: "job-1", URL: "https://example.com"}}, time.Millisecond)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		ui.Stop()
		t.Fatal("program did not quit after the crawl completed")
	}

	assert.True(t, ui.model.AllDone())
}
