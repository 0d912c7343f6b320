package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// View renders the run
func (m *Model) View() string {
	var sections []string

	if m.banner != "" {
		sections = append(sections, bannerStyle.Render(m.banner))
	}

	sections = append(sections, m.renderStats(), m.renderProgress(), m.renderLogs())

	if !m.done {
		sections = append(sections, helpStyle.Render("Press q to stop"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func (m *Model) renderStats() string {
	stats := []string{
		stat("Elapsed", formatDuration(time.Since(m.startTime))),
		stat("Downloaded", fmt.Sprintf("%d / %d", m.downloaded, m.total)),
		stat("Failed", itoa(m.failed)),
		stat("Size", FormatBytes(m.bytes)),
	}

	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(" RUN "),
		strings.Join(stats, "\n"),
	))
}

func (m *Model) renderProgress() string {
	line := m.progress.ViewAs(m.Percent())
	if m.current != "" && !m.done {
		line += "\n" + m.spinner.View() + " " + currentStyle.Render(m.current)
	}
	return line
}

func (m *Model) renderLogs() string {
	if len(m.logs) == 0 {
		return ""
	}

	lines := make([]string, len(m.logs))
	for i, l := range m.logs {
		lines[i] = fmt.Sprintf("%s %s",
			logTimestampStyle.Render(l.Time.Format("15:04:05")),
			levelStyle(l.Level).Render(l.Message))
	}

	return panelStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(" LOG "),
		strings.Join(lines, "\n"),
	))
}

func stat(label, value string) string {
	return statsLabelStyle.Render(label+":") + " " + statsValueStyle.Render(value)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
