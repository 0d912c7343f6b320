package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// BannerMsg sets the run banner
type BannerMsg struct {
	Text string
}

// LogMsg adds a line to the log panel
type LogMsg struct {
	Level   string
	Message string
}

// QueueMsg announces the number of beatmap sets to download
type QueueMsg struct {
	Total int
}

// DownloadedMsg reports a stored archive
type DownloadedMsg struct {
	Name  string
	Bytes int64
}

// FailedMsg reports a failed download
type FailedMsg struct {
	Name string
	Err  error
}

// DoneMsg marks the end of the run
type DoneMsg struct{}

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "Q", "ctrl+c":
			if !m.done {
				m.interrupted = true
			}
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = max(10, msg.Width-8)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case BannerMsg:
		m.banner = msg.Text
		return m, nil

	case LogMsg:
		m.addLog(msg.Level, msg.Message)
		return m, nil

	case QueueMsg:
		m.total = msg.Total
		m.addLog(LevelInfo, "Queued beatmap sets: "+itoa(msg.Total))
		return m, nil

	case DownloadedMsg:
		m.downloaded++
		m.bytes += msg.Bytes
		m.current = msg.Name
		m.addLog(LevelSuccess, "Downloaded: "+msg.Name)
		return m, nil

	case FailedMsg:
		m.failed++
		m.current = msg.Name
		text := "Failed: " + msg.Name
		if msg.Err != nil {
			text += " - " + msg.Err.Error()
		}
		m.addLog(LevelWarn, text)
		return m, nil

	case DoneMsg:
		m.done = true
		return m, tea.Quit
	}

	return m, nil
}
