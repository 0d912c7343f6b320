package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"osudl/pkg/ui"
)

var _ ui.Reporter = (*TUI)(nil)

// TUI shows a downloader run in the terminal. It implements ui.Reporter,
// so a session can report to it instead of the console.
type TUI struct {
	program *tea.Program
	model   *Model
}

// New creates a TUI; opts are passed to the bubbletea program
func New(opts ...tea.ProgramOption) *TUI {
	model := NewModel()
	return &TUI{
		program: tea.NewProgram(model, opts...),
		model:   model,
	}
}

// Run blocks until the run ends or the user quits
func (t *TUI) Run() error {
	_, err := t.program.Run()
	return err
}

// Interrupted reports whether the user quit before the run ended
func (t *TUI) Interrupted() bool {
	return t.model.Interrupted()
}

func (t *TUI) Banner(text string) {
	t.program.Send(BannerMsg{Text: text})
}

func (t *TUI) Info(label, value string) {
	t.program.Send(LogMsg{Level: LevelInfo, Message: label + ": " + value})
}

func (t *TUI) Success(msg string) {
	t.program.Send(LogMsg{Level: LevelSuccess, Message: msg})
}

func (t *TUI) Warning(msg string, err error) {
	t.program.Send(LogMsg{Level: LevelWarn, Message: withError(msg, err)})
}

func (t *TUI) Error(msg string, err error) {
	t.program.Send(LogMsg{Level: LevelError, Message: withError(msg, err)})
}

func (t *TUI) Queue(total int) {
	t.program.Send(QueueMsg{Total: total})
}

func (t *TUI) Downloaded(name string, bytes int64) {
	t.program.Send(DownloadedMsg{Name: name, Bytes: bytes})
}

func (t *TUI) Failed(name string, err error) {
	t.program.Send(FailedMsg{Name: name, Err: err})
}

// Finish marks the download queue as drained; the program keeps running
// until Close so the final banner is still shown
func (t *TUI) Finish() {
	t.program.Send(LogMsg{Level: LevelInfo, Message: "Download queue closed"})
}

// Close ends the program after all earlier messages are drawn. It returns
// immediately when the program has already exited.
func (t *TUI) Close() {
	t.program.Send(DoneMsg{})
}

func withError(msg string, err error) string {
	if err == nil {
		return msg
	}
	return msg + ": " + err.Error()
}
