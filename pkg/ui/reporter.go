package ui

// Reporter receives the user-facing events of a downloader run
type Reporter interface {
	Banner(text string)
	Info(label, value string)
	Success(msg string)
	Warning(msg string, err error)
	Error(msg string, err error)

	// Queue announces how many beatmap sets are about to be downloaded
	Queue(total int)
	Downloaded(name string, bytes int64)
	Failed(name string, err error)
	Finish()
}

// ConsoleReporter prints run events to Output
type ConsoleReporter struct {
	tracker *StatusTracker
}

func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{tracker: NewStatusTracker(0)}
}

func (c *ConsoleReporter) Banner(text string) {
	PrintBanner(text)
}

func (c *ConsoleReporter) Info(label, value string) {
	PrintInfo(label, value)
}

func (c *ConsoleReporter) Success(msg string) {
	PrintSuccess(msg)
}

func (c *ConsoleReporter) Warning(msg string, err error) {
	if err != nil {
		PrintWarning(msg, err)
		return
	}
	PrintWarning(msg)
}

func (c *ConsoleReporter) Error(msg string, err error) {
	if err != nil {
		PrintError(msg, err)
		return
	}
	PrintError(msg)
}

func (c *ConsoleReporter) Queue(total int) {
	c.tracker = NewStatusTracker(total)
}

func (c *ConsoleReporter) Downloaded(name string, bytes int64) {
	c.tracker.IncrementDownloaded()
	c.tracker.PrintProgress(name)
}

func (c *ConsoleReporter) Failed(name string, err error) {
	c.tracker.IncrementFailures()
	PrintWarning("Download failed: "+name, err)
}

// Finish prints the run summary
func (c *ConsoleReporter) Finish() {
	c.tracker.PrintSummary()
}

// Tracker returns the tracker of the current queue
func (c *ConsoleReporter) Tracker() *StatusTracker {
	return c.tracker
}
