package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	sections := []string{
		m.renderHeader(),
		m.renderJobsPanel(m.width - 4),
		m.renderLogsPanel(m.width - 4),
	}

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("q quit • ? help"))
	}

	return baseStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func (m *Model) renderHeader() string {
	completed, total := m.Totals()
	title := fmt.Sprintf("🔥 FIRECRAWL  %s %d crawls  %d/%d pages  %s",
		m.spinner.View(),
		len(m.order),
		completed,
		total,
		formatDuration(time.Since(m.startTime)),
	)
	return headerStyle.Render(title)
}

func (m *Model) renderJobsPanel(width int) string {
	title := titleStyle.Render(" CRAWLS ")

	if len(m.order) == 0 {
		content := lipgloss.NewStyle().Foreground(dimWhite).Render("No crawls yet")
		return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
	}

	rows := []string{title}
	for _, id := range m.order {
		rows = append(rows, m.renderJob(m.jobs[id], width-4))
	}
	return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderJob(job *Job, width int) string {
	status := string(job.Status)
	if job.Err != nil {
		status = "error"
	}

	info := fmt.Sprintf("%s %s %s",
		labelStyle.Render(job.ID),
		statusStyle(job.Status).Render(status),
		valueStyle.Render(fmt.Sprintf("%d/%d", job.Completed, job.Total)),
	)
	if job.URL != "" {
		info += " " + lipgloss.NewStyle().Foreground(dimWhite).Render(job.URL)
	}

	bar := m.bar
	bar.Width = width
	if bar.Width > 80 {
		bar.Width = 80
	}
	lines := []string{info, bar.ViewAs(job.Percent())}
	if job.Err != nil {
		lines = append(lines, errorStyle.Render(truncate(job.Err.Error(), width)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) renderLogsPanel(width int) string {
	title := titleStyle.Render(" LOG ")

	start := len(m.logMessages) - 8
	if start < 0 {
		start = 0
	}

	var lines []string
	for _, msg := range m.logMessages[start:] {
		level := lipgloss.NewStyle().Foreground(msg.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", msg.Level))
		lines = append(lines, fmt.Sprintf("%s %s %s",
			timestampStyle.Render(msg.Time.Format("15:04:05")),
			level,
			truncate(msg.Message, width-22),
		))
	}

	content := strings.Join(lines, "\n")
	if content == "" {
		content = lipgloss.NewStyle().Foreground(dimWhite).Render("No messages yet...")
	}
	return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m *Model) renderHelp() string {
	help := `
  q/esc    - Stop watching (crawls keep running on the server)
  ctrl+l   - Clear the log
  ?        - Toggle this help

  ` + runningStyle.Render("scraping") + `  ` + successStyle.Render("completed") + `  ` + errorStyle.Render("failed") + `
`
	return panelStyle.Width(m.width - 4).Render(help)
}

func truncate(s string, max int) string {
	if max <= 3 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
