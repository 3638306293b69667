// Package toast abstracts the console surface that displays transient
// notifications. The client core only depends on Surface; hosts plug in
// whatever rendering they have (the console UI bridge, a log, a recorder).
package toast

import "time"

// Severity classifies a toast for styling.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Options controls how a toast is displayed.
type Options struct {
	Severity Severity
	Icon     string
	Duration time.Duration
	Position string
}

// Surface displays toasts. Implementations must be safe for calls from the
// session goroutine and must not block.
type Surface interface {
	Show(message string, opts Options)
}

// DefaultIcon returns the conventional icon name for a severity.
func DefaultIcon(s Severity) string {
	switch s {
	case SeveritySuccess:
		return "check-circle"
	case SeverityWarning:
		return "alert-triangle"
	case SeverityError:
		return "alert-octagon"
	default:
		return "bell"
	}
}
