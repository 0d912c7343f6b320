package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Log levels of LogMsg
const (
	LevelInfo    = "INFO"
	LevelSuccess = "SUCCESS"
	LevelWarn    = "WARN"
	LevelError   = "ERROR"
)

const defaultMaxLogLines = 12

// LogLine is one entry of the log panel
type LogLine struct {
	Time    time.Time
	Level   string
	Message string
}

// Model is the bubbletea model of a downloader run
type Model struct {
	spinner  spinner.Model
	progress progress.Model

	banner     string
	total      int
	downloaded int
	failed     int
	bytes      int64
	current    string
	startTime  time.Time

	logs        []LogLine
	maxLogLines int

	width       int
	done        bool
	interrupted bool
}

// NewModel creates an empty run model
func NewModel() *Model {
	return &Model{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(statsLabelStyle),
		),
		progress:    progress.New(progress.WithGradient(string(osuPurple), string(osuPink))),
		startTime:   time.Now(),
		maxLogLines: defaultMaxLogLines,
	}
}

// Init starts the spinner
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Interrupted reports whether the user quit before the run ended
func (m *Model) Interrupted() bool {
	return m.interrupted
}

// Percent returns the share of the queue that has been downloaded
func (m *Model) Percent() float64 {
	if m.total == 0 {
		return 0
	}
	p := float64(m.downloaded) / float64(m.total)
	if p > 1 {
		p = 1
	}
	return p
}

func (m *Model) addLog(level, message string) {
	m.logs = append(m.logs, LogLine{Time: time.Now(), Level: level, Message: message})
	if len(m.logs) > m.maxLogLines {
		m.logs = m.logs[len(m.logs)-m.maxLogLines:]
	}
}

// FormatBytes formats a byte count in binary units
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
