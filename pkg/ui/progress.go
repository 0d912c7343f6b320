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

// StatusTracker keeps track of download progress against the queued total
type StatusTracker struct {
	Total      int
	Downloaded int
	Failures   int
	StartTime  time.Time
}

// NewStatusTracker creates a tracker for total queued archives
func NewStatusTracker(total int) *StatusTracker {
	return &StatusTracker{
		Total:     total,
		StartTime: time.Now(),
	}
}

func (st *StatusTracker) IncrementDownloaded() {
	st.Downloaded++
}

func (st *StatusTracker) IncrementFailures() {
	st.Failures++
}

// GetProgress returns a formatted progress bar
func (st *StatusTracker) GetProgress() string {
	filled := 0
	if st.Total > 0 {
		filled = st.Downloaded * progressWidth / st.Total
	}
	if filled > progressWidth {
		filled = progressWidth
	}

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, progressWidth-filled)

	return fmt.Sprintf("[%s] %d/%d", bar, st.Downloaded, st.Total)
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.StartTime)
}

// GetDownloadRate returns the average download rate (archives per minute)
func (st *StatusTracker) GetDownloadRate() float64 {
	elapsed := st.GetElapsedTime().Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(st.Downloaded) / elapsed
}

// PrintProgress prints the current progress line for a finished archive
func (st *StatusTracker) PrintProgress(name string) {
	fmt.Fprintf(Output, "%s %s %s\n", Green("[DOWNLOADED]"), Yellow(st.GetProgress()), name)
}

// PrintSummary prints the totals at the end of a run
func (st *StatusTracker) PrintSummary() {
	fmt.Fprintf(Output, "%s downloaded=%d failed=%d elapsed=%s\n",
		Cyan("[SUMMARY]"),
		st.Downloaded,
		st.Failures,
		st.GetElapsedTime().Round(time.Second))
}
