package ui

import (
	"fmt"
	"os/exec"
	"runtime"

	"firecrawl/pkg/config"
)

// AppName is used as the notification source
const AppName = "Firecrawl"

// NotificationSender interface for platform-specific notification implementations
type NotificationSender interface {
	Send(title, message string) error
}

// LinuxNotificationSender sends notifications on Linux using notify-send
type LinuxNotificationSender struct{}

func (l *LinuxNotificationSender) Send(title, message string) error {
	return exec.Command("notify-send", "--app-name="+AppName, title, message).Run()
}

// MacOSNotificationSender sends notifications on macOS using osascript
type MacOSNotificationSender struct{}

func (m *MacOSNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	return exec.Command("osascript", "-e", script).Run()
}

// WindowsNotificationSender sends notifications on Windows using PowerShell
type WindowsNotificationSender struct{}

func (w *WindowsNotificationSender) Send(title, message string) error {
	script := fmt.Sprintf(`
		[Windows.UI.Notifications.ToastNotificationManager, Windows.UI.Notifications, ContentType = WindowsRuntime] | Out-Null
		[Windows.Data.Xml.Dom.XmlDocument, Windows.Data.Xml.Dom.XmlDocument, ContentType = WindowsRuntime] | Out-Null
		$xml = @"
<toast>
	<visual>
		<binding template="ToastText02">
			<text id="1">%s</text>
			<text id="2">%s</text>
		</binding>
	</visual>
</toast>
"@
		$doc = [Windows.Data.Xml.Dom.XmlDocument]::new()
		$doc.LoadXml($xml)
		$toast = [Windows.UI.Notifications.ToastNotification]::new($doc)
		[Windows.UI.Notifications.ToastNotificationManager]::CreateToastNotifier("%s").Show($toast)
	`, title, message, AppName)

	return exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", script).Run()
}

// Notifier prints job outcomes and mirrors them to desktop notifications
// when the settings allow it
type Notifier struct {
	sender   NotificationSender
	settings config.NotificationConfig
}

// NewNotifier picks the sender for the current platform
func NewNotifier(settings config.NotificationConfig) *Notifier {
	var sender NotificationSender

	switch runtime.GOOS {
	case "linux":
		sender = &LinuxNotificationSender{}
	case "darwin":
		sender = &MacOSNotificationSender{}
	case "windows":
		sender = &WindowsNotificationSender{}
	}

	return NewNotifierWithSender(sender, settings)
}

// NewNotifierWithSender uses the given sender; nil disables desktop notifications
func NewNotifierWithSender(sender NotificationSender, settings config.NotificationConfig) *Notifier {
	return &Notifier{sender: sender, settings: settings}
}

// SendNotification prints an informational message and forwards it
func (n *Notifier) SendNotification(title, message string) {
	printf("\n%s: %s\n", Cyan(title), Yellow(message))
	n.send(title, message, true)
}

// SendError reports a failed job
func (n *Notifier) SendError(title, message string) {
	fmt.Fprintf(output, "\n%s: %s\n", Red(title), Red(message))
	n.send(title, message, n.settings.OnError)
}

// SendSuccess reports a finished job
func (n *Notifier) SendSuccess(title, message string) {
	printf("\n%s: %s\n", Green(title), Green(message))
	n.send(title, message, n.settings.OnComplete)
}

func (n *Notifier) send(title, message string, wanted bool) {
	if n.sender == nil || !n.settings.Enabled || !wanted {
		return
	}
	// desktop notifications are best effort
	_ = n.sender.Send(title, message)
}
