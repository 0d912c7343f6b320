package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	osuPink   = lipgloss.Color("#FF66AA")
	osuPurple = lipgloss.Color("#8866FF")
	green     = lipgloss.Color("#88DD44")
	yellow    = lipgloss.Color("#FFCC22")
	red       = lipgloss.Color("#FF4455")
	dimWhite  = lipgloss.Color("#B0B0B0")
	grey      = lipgloss.Color("#626262")

	bannerStyle = lipgloss.NewStyle().
			Foreground(osuPink).
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(osuPurple).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Background(osuPink).
			Foreground(lipgloss.Color("#1A1A2E")).
			Bold(true).
			Padding(0, 1)

	statsLabelStyle = lipgloss.NewStyle().
			Foreground(osuPurple).
			Bold(true)

	statsValueStyle = lipgloss.NewStyle().
			Foreground(yellow)

	currentStyle = lipgloss.NewStyle().
			Foreground(dimWhite).
			Italic(true)

	logTimestampStyle = lipgloss.NewStyle().
				Foreground(grey)

	helpStyle = lipgloss.NewStyle().
			Foreground(grey).
			PaddingTop(1)
)

// levelStyle colours a log line by level
func levelStyle(level string) lipgloss.Style {
	switch level {
	case LevelSuccess:
		return lipgloss.NewStyle().Foreground(green)
	case LevelWarn:
		return lipgloss.NewStyle().Foreground(yellow)
	case LevelError:
		return lipgloss.NewStyle().Foreground(red).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(dimWhite)
	}
}
