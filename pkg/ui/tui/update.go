package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"firecrawl/pkg/firecrawl"
)

// JobAddedMsg starts tracking a crawl
type JobAddedMsg struct {
	ID  string
	URL string
}

// CrawlStatusMsg carries a status poll result
type CrawlStatusMsg struct {
	ID     string
	Status *firecrawl.CrawlStatusResponse
}

// CrawlErrorMsg reports that polling a crawl stopped with an error
type CrawlErrorMsg struct {
	ID  string
	Err error
}

// LogMsg adds a line to the log panel
type LogMsg struct {
	Level   string
	Message string
}

// TickMsg refreshes elapsed times
type TickMsg time.Time

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		return m, tickCmd()

	case JobAddedMsg:
		m.AddJob(msg.ID, msg.URL)
		m.AddLogMessage("INFO", "Watching crawl "+msg.ID)
		return m, nil

	case CrawlStatusMsg:
		m.ApplyStatus(msg.ID, msg.Status)
		return m, m.quitIfDone()

	case CrawlErrorMsg:
		m.FailJob(msg.ID, msg.Err)
		return m, m.quitIfDone()

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil
	}

	return m, nil
}

func (m *Model) quitIfDone() tea.Cmd {
	if m.quitWhenDone && m.AllDone() {
		return tea.Quit
	}
	return nil
}

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c", "esc":
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.logMessages = nil
		return m, nil
	}

	return m, nil
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
