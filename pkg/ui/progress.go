package ui

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
	progressWidth = 20
)

// StatusTracker counts pages handled during a scrape batch or a crawl
type StatusTracker struct {
	Saved     int
	Skipped   int
	Failed    int
	Total     int
	StartTime time.Time
}

// NewStatusTracker creates a tracker expecting total pages; zero means unknown
func NewStatusTracker(total int) *StatusTracker {
	return &StatusTracker{
		Total:     total,
		StartTime: time.Now(),
	}
}

func (st *StatusTracker) IncrementSaved() {
	st.Saved++
}

func (st *StatusTracker) IncrementSkipped() {
	st.Skipped++
}

func (st *StatusTracker) IncrementFailed() {
	st.Failed++
}

// SetTotal updates the expected page count, e.g. from a crawl status
func (st *StatusTracker) SetTotal(total int) {
	st.Total = total
}

// Processed returns the number of pages handled in any way
func (st *StatusTracker) Processed() int {
	return st.Saved + st.Skipped + st.Failed
}

// RenderProgressBar renders done out of total as a fixed width bar
func RenderProgressBar(done, total int) string {
	filled := 0
	if total > 0 {
		filled = done * progressWidth / total
	}
	if filled > progressWidth {
		filled = progressWidth
	}

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, progressWidth-filled)

	if total <= 0 {
		return fmt.Sprintf("[%s] %d/?", bar, done)
	}
	return fmt.Sprintf("[%s] %d/%d", bar, done, total)
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.StartTime)
}

// GetRate returns the average number of pages processed per minute
func (st *StatusTracker) GetRate() float64 {
	elapsed := st.GetElapsedTime().Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(st.Processed()) / elapsed
}

// PrintProgress rewrites the current line with the running totals
func (st *StatusTracker) PrintProgress() {
	printf("\r%s %s saved: %d skipped: %d failed: %d",
		Green("[PROGRESS]"),
		RenderProgressBar(st.Processed(), st.Total),
		st.Saved,
		st.Skipped,
		st.Failed)
}

// PrintCrawlStatus prints one crawl status poll
func PrintCrawlStatus(id, status string, completed, total int) {
	printf("\r%s %s %s %s", Magenta("[CRAWL]"), Dim(id), Yellow(status), RenderProgressBar(completed, total))
}

// PrintSummary prints the final totals
func (st *StatusTracker) PrintSummary() {
	printf("\n%s saved %d, skipped %d, failed %d in %s\n",
		Cyan("[DONE]"),
		st.Saved,
		st.Skipped,
		st.Failed,
		st.GetElapsedTime().Round(time.Second))
}
