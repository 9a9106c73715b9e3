// Package notify delivers transient user-facing toasts. Persistent
// problems (hotkey health) go to the tray panel instead.
package notify

import "log"

// Notifier shows short-lived notifications.
type Notifier interface {
	// Toast shows a transient message.
	Toast(text string)

	// Error shows a user-visible failure message.
	Error(title, text string)
}

// Log writes notifications to the log. Desktop shells replace it with a
// platform popup implementation.
type Log struct{}

func (Log) Toast(text string) {
	log.Printf("toast: %s", truncate(text, 200))
}

func (Log) Error(title, text string) {
	log.Printf("error [%s]: %s", title, truncate(text, 200))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
