package issue

import "strings"

// Severity indicates the importance level of a reported issue.
type Severity int

const (
	// SeverityInfo indicates informational findings.
	SeverityInfo Severity = iota
	// SeverityWarning indicates issues that should be fixed but don't fail runs.
	SeverityWarning
	// SeverityError indicates issues that fail the run.
	SeverityError
)

// String returns the human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity maps a configuration string to a Severity.
// Unrecognized values fall back to warning.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return SeverityInfo
	case "error":
		return SeverityError
	default:
		return SeverityWarning
	}
}

// Issue is a single diagnostic attached to a source location.
// Implementations are immutable once constructed.
type Issue interface {
	// FilePath returns the file the issue applies to, if any.
	FilePath() string
	// Severity returns the issue severity level.
	Severity() Severity
	// Title returns a short, stable heading used for grouping.
	Title() string
	// Category returns the subsystem that produced the issue.
	Category() string
	// Description returns the human-readable problem statement.
	Description() string
	// Detail returns the underlying error text, if any.
	Detail() string
}
