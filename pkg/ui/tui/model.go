package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"firecrawl/pkg/firecrawl"
)

// Job is the watched state of one crawl
type Job struct {
	ID        string
	URL       string
	Status    firecrawl.CrawlStatus
	Completed int
	Total     int
	Err       error
	StartTime time.Time
	UpdatedAt time.Time
}

// Done reports whether the job needs no further polling
func (j *Job) Done() bool {
	return j.Err != nil || j.Status.Terminal()
}

// Percent returns completion in [0, 1]
func (j *Job) Percent() float64 {
	if j.Total <= 0 {
		if j.Status == firecrawl.CrawlStatusCompleted {
			return 1
		}
		return 0
	}
	p := float64(j.Completed) / float64(j.Total)
	if p > 1 {
		p = 1
	}
	return p
}

// LogMessage is one line in the log panel
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// Model is the bubbletea model of the crawl watch view
type Model struct {
	spinner spinner.Model
	bar     progress.Model

	jobs  map[string]*Job
	order []string

	startTime      time.Time
	width          int
	height         int
	showHelp       bool
	quitWhenDone   bool
	logMessages    []LogMessage
	maxLogMessages int
}

// NewModel creates an empty model. With quitWhenDone the program exits once
// every watched job has finished.
func NewModel(quitWhenDone bool) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(flameOrange)

	return Model{
		spinner:        s,
		bar:            progress.New(progress.WithGradient("#FF3B30", "#FFD60A")),
		jobs:           make(map[string]*Job),
		startTime:      time.Now(),
		quitWhenDone:   quitWhenDone,
		maxLogMessages: 50,
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// AddJob starts tracking a crawl
func (m *Model) AddJob(id, url string) {
	if _, ok := m.jobs[id]; ok {
		return
	}
	now := time.Now()
	m.jobs[id] = &Job{
		ID:        id,
		URL:       url,
		Status:    firecrawl.CrawlStatusScraping,
		StartTime: now,
		UpdatedAt: now,
	}
	m.order = append(m.order, id)
}

// ApplyStatus records a status response, adding the job if unknown
func (m *Model) ApplyStatus(id string, status *firecrawl.CrawlStatusResponse) {
	if status == nil {
		return
	}
	m.AddJob(id, "")
	job := m.jobs[id]

	previous := job.Status
	job.Status = status.Status
	job.Completed = status.Completed
	job.Total = status.Total
	job.UpdatedAt = time.Now()

	if previous != status.Status {
		switch status.Status {
		case firecrawl.CrawlStatusCompleted:
			m.AddLogMessage("SUCCESS", "Crawl "+id+" completed")
		case firecrawl.CrawlStatusFailed:
			m.AddLogMessage("ERROR", "Crawl "+id+" failed")
		}
	}
}

// FailJob marks a job whose status could not be fetched
func (m *Model) FailJob(id string, err error) {
	m.AddJob(id, "")
	job := m.jobs[id]
	job.Err = err
	job.UpdatedAt = time.Now()
	m.AddLogMessage("ERROR", "Crawl "+id+": "+err.Error())
}

// AddLogMessage appends a log line, keeping the newest maxLogMessages
func (m *Model) AddLogMessage(level, message string) {
	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   levelColor(level),
	})
	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// Jobs returns the watched jobs in the order they were added
func (m *Model) Jobs() []Job {
	jobs := make([]Job, 0, len(m.order))
	for _, id := range m.order {
		jobs = append(jobs, *m.jobs[id])
	}
	return jobs
}

// AllDone reports whether at least one job is watched and all have finished
func (m *Model) AllDone() bool {
	if len(m.order) == 0 {
		return false
	}
	for _, id := range m.order {
		if !m.jobs[id].Done() {
			return false
		}
	}
	return true
}

// Totals sums pages over all jobs
func (m *Model) Totals() (completed, total int) {
	for _, job := range m.jobs {
		completed += job.Completed
		total += job.Total
	}
	return completed, total
}
