// Package notify delivers review-session events to chat platforms and
// local commands, and runs the scheduled digest and retention jobs.
package notify

import "context"

// Severity levels for events.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
	SeveritySuccess = "success"
)

// Sidebar color hints per severity.
const (
	ColorInfo    = "#439fe0"
	ColorWarning = "#f2c744"
	ColorError   = "#d00000"
	ColorSuccess = "#36a64f"
)

// Event is a review-session event formatted for delivery.
type Event struct {
	Title    string
	Body     string
	Severity string // "info", "warning", "error", "success"
	Fields   []Field
}

// Field is a key-value pair displayed alongside an event.
type Field struct {
	Name  string
	Value string
}

// Notifier is the interface that delivery adapters must satisfy. Send is
// best-effort from the caller's point of view: the dispatcher logs
// failures and moves on.
type Notifier interface {
	// Name identifies the adapter in logs.
	Name() string

	// Send delivers one event.
	Send(ctx context.Context, evt Event) error
}

// severityColor maps a severity to its sidebar color hint.
func severityColor(severity string) string {
	switch severity {
	case SeverityWarning:
		return ColorWarning
	case SeverityError:
		return ColorError
	case SeveritySuccess:
		return ColorSuccess
	default:
		return ColorInfo
	}
}
