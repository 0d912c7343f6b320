package ui

import (
	"fmt"
	"os/exec"
	"runtime"
)

// NotificationSender delivers a desktop notification
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications with notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", "--app-name=osudl", title, message).Run()
}

// MacOSNotificationSender sends notifications with osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}

// WindowsNotificationSender sends a toast through PowerShell
type WindowsNotificationSender struct{}

func (w *WindowsNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		$template = [Windows.UI.Notifications.ToastTemplateType]::ToastText02
		$xml = [Windows.UI.Notifications.ToastNotificationManager]::GetTemplateContent($template)
		$text = $xml.GetElementsByTagName("text")
		$text.Item(0).AppendChild($xml.CreateTextNode('%s')) | Out-Null
		$text.Item(1).AppendChild($xml.CreateTextNode('%s')) | Out-Null
		$toast = [Windows.UI.Notifications.ToastNotification]::new($xml)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("osudl").Show($toast)
	`, title, message)

	return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script).Run()
}

// Notifier announces the end of a run on the desktop
type Notifier struct {
	sender NotificationSender
}

// NewNotifier picks the sender for the current platform. On other
// platforms notifications are dropped.
func NewNotifier() *Notifier {
	switch runtime.GOOS {
	case "linux":
		return &Notifier{sender: &LinuxNotificationSender{}}
	case "darwin":
		return &Notifier{sender: &MacOSNotificationSender{}}
	case "windows":
		return &Notifier{sender: &WindowsNotificationSender{}}
	default:
		return &Notifier{}
	}
}

// NewNotifierWithSender creates a Notifier using sender
func NewNotifierWithSender(sender NotificationSender) *Notifier {
	return &Notifier{sender: sender}
}

// Notify sends a notification. Delivery errors are returned so callers can
// log them; they never affect the run.
func (n *Notifier) Notify(title, message string) error {
	if n == nil || n.sender == nil {
		return nil
	}
	return n.sender.Send(title, message)
}
