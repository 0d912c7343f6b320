package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Output
	Output = &buf
	t.Cleanup(func() { Output = prev })
	return &buf
}

func TestBanner(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{" DOWNLOADER STARTED ", "###############" + " DOWNLOADER STARTED " + "###############"},
		{" DOWNLOADER FINISHED ", "##############" + " DOWNLOADER FINISHED " + "###############"},
		{" DOWNLOADER TERMINATED ", "#############" + " DOWNLOADER TERMINATED " + "##############"},
		{"", strings.Repeat("#", BannerWidth)},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := Banner(tt.text)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, BannerWidth)
		})
	}

	long := strings.Repeat("x", BannerWidth+5)
	assert.Equal(t, long, Banner(long))
}

func TestPrintHelpers(t *testing.T) {
	buf := captureOutput(t)

	PrintBanner(" DOWNLOADER STARTED ")
	PrintError("Login failed", "status 403")
	PrintWarning("Already downloaded")
	PrintInfo("Library", "/songs")

	out := buf.String()
	assert.Contains(t, out, " DOWNLOADER STARTED ")
	assert.Contains(t, out, "Login failed: status 403")
	assert.Contains(t, out, "Already downloaded")
	assert.Contains(t, out, "/songs")
}

func TestStatusTracker(t *testing.T) {
	buf := captureOutput(t)

	st := NewStatusTracker(4)
	assert.Equal(t, "[░░░░░░░░░░░░░░░░░░░░] 0/4", st.GetProgress())

	st.IncrementDownloaded()
	assert.Equal(t, "[█████░░░░░░░░░░░░░░░] 1/4", st.GetProgress())

	st.IncrementFailures()
	st.PrintProgress("1 Artist - Title")
	st.PrintSummary()

	out := buf.String()
	assert.Contains(t, out, "1/4")
	assert.Contains(t, out, "1 Artist - Title")
	assert.Contains(t, out, "downloaded=1 failed=1")

	empty := NewStatusTracker(0)
	assert.Equal(t, "[░░░░░░░░░░░░░░░░░░░░] 0/0", empty.GetProgress())
}

type fakeSender struct {
	titles   []string
	messages []string
}

func (f *fakeSender) Send(title, message string) error {
	f.titles = append(f.titles, title)
	f.messages = append(f.messages, message)
	return nil
}

func TestNotifier(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifierWithSender(sender)

	assert.NoError(t, n.Notify("osudl finished", "Downloaded 3 beatmap sets"))
	assert.Equal(t, []string{"osudl finished"}, sender.titles)
	assert.Equal(t, []string{"Downloaded 3 beatmap sets"}, sender.messages)

	var none *Notifier
	assert.NoError(t, none.Notify("x", "y"))
	assert.NoError(t, NewNotifierWithSender(nil).Notify("x", "y"))
}

func TestConsoleReporter(t *testing.T) {
	buf := captureOutput(t)

	r := NewConsoleReporter()
	r.Banner(" DOWNLOADER STARTED ")
	r.Queue(2)
	r.Downloaded("1 Artist - Title", 100)
	r.Failed("2 Artist - Other", errors.New("status 429"))
	r.Error("Failed 5 times in a row", nil)
	r.Finish()

	out := buf.String()
	assert.Contains(t, out, Banner(" DOWNLOADER STARTED "))
	assert.Contains(t, out, "1/2")
	assert.Contains(t, out, "Download failed: 2 Artist - Other: status 429")
	assert.Contains(t, out, "Failed 5 times in a row")
	assert.Contains(t, out, "downloaded=1 failed=1")
	assert.Equal(t, 2, r.Tracker().Total)
}
