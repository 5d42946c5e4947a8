package notification

import (
	"fmt"
	"os/exec"
	"strings"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	// TypeInfo is an informational notification
	TypeInfo NotificationType = "info"
	// TypeWarning is a warning notification
	TypeWarning NotificationType = "warning"
	// TypeError is an error notification
	TypeError NotificationType = "error"
	// TypeSuccess is a success notification
	TypeSuccess NotificationType = "success"
)

// Notification represents a macOS notification
type Notification struct {
	Title    string
	Subtitle string
	Message  string
	Type     NotificationType
}

// Runner executes an external command
type Runner func(name string, args ...string) error

func execRunner(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// NotificationManager handles sending notifications to the user
type NotificationManager struct {
	appName string
	run     Runner
}

// NewNotificationManager creates a manager that posts through osascript
func NewNotificationManager(appName string) *NotificationManager {
	return NewNotificationManagerWithRunner(appName, execRunner)
}

// NewNotificationManagerWithRunner creates a manager that posts through run
func NewNotificationManagerWithRunner(appName string, run Runner) *NotificationManager {
	return &NotificationManager{
		appName: appName,
		run:     run,
	}
}

// Script returns the AppleScript that displays n
func (nm *NotificationManager) Script(n *Notification) string {
	title := n.Title
	if title == "" {
		title = nm.appName
	}

	script := fmt.Sprintf(`display notification "%s" with title "%s"`,
		escapeAppleScript(n.Message),
		escapeAppleScript(title))
	if n.Subtitle != "" {
		script += fmt.Sprintf(` subtitle "%s"`, escapeAppleScript(n.Subtitle))
	}
	if n.Type == TypeError || n.Type == TypeWarning {
		script += ` sound name "Basso"`
	}
	return script
}

// Send sends a notification to the user via macOS notification center
func (nm *NotificationManager) Send(notification *Notification) error {
	if notification == nil {
		return fmt.Errorf("notification cannot be nil")
	}

	if err := nm.run("osascript", "-e", nm.Script(notification)); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	return nil
}

// SendInfo sends an informational notification
func (nm *NotificationManager) SendInfo(title, message string) error {
	return nm.Send(&Notification{
		Title:   title,
		Message: message,
		Type:    TypeInfo,
	})
}

// SendWarning sends a warning notification
func (nm *NotificationManager) SendWarning(title, message string) error {
	return nm.Send(&Notification{
		Title:   title,
		Message: message,
		Type:    TypeWarning,
	})
}

// SendError sends an error notification
func (nm *NotificationManager) SendError(title, message string) error {
	return nm.Send(&Notification{
		Title:   title,
		Message: message,
		Type:    TypeError,
	})
}

// SendSuccess sends a success notification
func (nm *NotificationManager) SendSuccess(title, message string) error {
	return nm.Send(&Notification{
		Title:   title,
		Message: message,
		Type:    TypeSuccess,
	})
}

// ShowDialog shows a modal dialog with an OK button. Used for the help text.
func (nm *NotificationManager) ShowDialog(title, message string) error {
	script := fmt.Sprintf(`display dialog "%s" buttons {"OK"} default button "OK" with title "%s"`,
		escapeAppleScript(message),
		escapeAppleScript(title))
	if err := nm.run("osascript", "-e", script); err != nil {
		return fmt.Errorf("failed to show dialog: %w", err)
	}
	return nil
}

// escapeAppleScript escapes special characters for AppleScript string literals
func escapeAppleScript(s string) string {
	// Escape backslashes first to avoid double-escaping
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	s = strings.ReplaceAll(s, "\r", `\r`)
	s = strings.ReplaceAll(s, "\t", `\t`)
	return s
}
