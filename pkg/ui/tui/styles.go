package tui

import (
	"github.com/charmbracelet/lipgloss"

	"firecrawl/pkg/firecrawl"
)

var (
	flameOrange = lipgloss.Color("#FF6A00")
	emberRed    = lipgloss.Color("#FF3B30")
	ashGreen    = lipgloss.Color("#3DDC84")
	sparkYellow = lipgloss.Color("#FFD60A")
	smokeBlue   = lipgloss.Color("#5AC8FA")
	darkBg      = lipgloss.Color("#141414")
	panelBg     = lipgloss.Color("#1F1F1F")
	dimWhite    = lipgloss.Color("#B0B0B0")

	baseStyle = lipgloss.NewStyle().
			Background(darkBg).
			Foreground(dimWhite)

	headerStyle = lipgloss.NewStyle().
			Foreground(flameOrange).
			Bold(true).
			Padding(1, 0)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(flameOrange).
			Background(panelBg).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Background(flameOrange).
			Foreground(darkBg).
			Bold(true).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(smokeBlue).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(sparkYellow)

	successStyle = lipgloss.NewStyle().
			Foreground(ashGreen).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(emberRed).
			Bold(true)

	runningStyle = lipgloss.NewStyle().
			Foreground(sparkYellow)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Padding(1, 0, 0, 2)
)

// statusStyle picks the colour for a crawl status
func statusStyle(s firecrawl.CrawlStatus) lipgloss.Style {
	switch s {
	case firecrawl.CrawlStatusCompleted:
		return successStyle
	case firecrawl.CrawlStatusFailed:
		return errorStyle
	default:
		return runningStyle
	}
}

func levelColor(level string) lipgloss.Color {
	switch level {
	case "ERROR":
		return emberRed
	case "WARN":
		return flameOrange
	case "SUCCESS":
		return ashGreen
	default:
		return smokeBlue
	}
}
