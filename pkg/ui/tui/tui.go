// Package tui renders live progress of crawl jobs with bubbletea.
package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"firecrawl/pkg/firecrawl"
	"firecrawl/pkg/poller"
)

// Target is a crawl to watch
type Target struct {
	ID  string
	URL string
}

// TUI runs the crawl watch program
type TUI struct {
	program *tea.Program
	model   *Model
}

// NewTUI creates the program; opts are passed to bubbletea
func NewTUI(quitWhenDone bool, opts ...tea.ProgramOption) *TUI {
	model := NewModel(quitWhenDone)
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	return &TUI{
		program: tea.NewProgram(&model, opts...),
		model:   &model,
	}
}

// Run blocks until the user quits or, with quitWhenDone, all jobs finish
func (t *TUI) Run() error {
	_, err := t.program.Run()
	return err
}

func (t *TUI) Stop() {
	t.program.Quit()
}

func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

// Log adds a line to the log panel
func (t *TUI) Log(level, message string) {
	t.Send(LogMsg{Level: level, Message: message})
}

// Watch polls every target in the background and feeds the results to the
// program. It returns immediately; polling stops when ctx is done.
func (t *TUI) Watch(ctx context.Context, getter poller.StatusGetter, targets []Target, interval time.Duration) {
	go func() {
		// all jobs are registered before any status arrives so that
		// quitWhenDone cannot fire early
		for _, target := range targets {
			t.Send(JobAddedMsg{ID: target.ID, URL: target.URL})
		}

		for _, target := range targets {
			go t.poll(ctx, getter, target.ID, interval)
		}
	}()
}

func (t *TUI) poll(ctx context.Context, getter poller.StatusGetter, id string, interval time.Duration) {
	_, err := poller.WaitForCrawl(ctx, getter, id, poller.Options{
		Interval: interval,
		OnUpdate: func(status *firecrawl.CrawlStatusResponse) {
			t.Send(CrawlStatusMsg{ID: id, Status: status})
		},
	})
	// a failed crawl was already reported through OnUpdate
	if err != nil && ctx.Err() == nil && !errors.Is(err, poller.ErrCrawlFailed) {
		t.Send(CrawlErrorMsg{ID: id, Err: err})
	}
}
