package issue

import (
	"context"
	"log/slog"
	"sync"
)

// Reporter receives issues as they are found.
type Reporter interface {
	Report(ctx context.Context, issue Issue) error
	Close() error
}

// Multi fans a single report out to several reporters.
type Multi []Reporter

// Report forwards the issue to every reporter and returns the first error.
func (m Multi) Report(ctx context.Context, issue Issue) error {
	var firstErr error
	for _, r := range m {
		if err := r.Report(ctx, issue); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes every reporter and returns the first error.
func (m Multi) Close() error {
	var firstErr error
	for _, r := range m {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Collector is an in-memory Reporter that accumulates issues.
type Collector struct {
	mu     sync.Mutex
	issues []Issue
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Report records the issue.
func (c *Collector) Report(_ context.Context, issue Issue) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issues = append(c.issues, issue)
	return nil
}

// Close is a no-op for the collector.
func (c *Collector) Close() error { return nil }

// Issues returns a copy of everything reported so far.
func (c *Collector) Issues() []Issue {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Issue, len(c.issues))
	copy(out, c.issues)
	return out
}

// Count returns the number of reported issues.
func (c *Collector) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.issues)
}

// HasErrors returns true if any error-level issues were reported.
func (c *Collector) HasErrors() bool {
	return c.ErrorCount() > 0
}

// ErrorCount returns the number of error-level issues.
func (c *Collector) ErrorCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, issue := range c.issues {
		if issue.Severity() == SeverityError {
			count++
		}
	}
	return count
}

// WarningCount returns the number of warning-level issues.
func (c *Collector) WarningCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, issue := range c.issues {
		if issue.Severity() == SeverityWarning {
			count++
		}
	}
	return count
}

// LogReporter writes issues to a structured logger.
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter creates a reporter backed by the given logger.
// A nil logger uses the default logger.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger}
}

// Report logs the issue at a level matching its severity.
func (r *LogReporter) Report(ctx context.Context, issue Issue) error {
	level := slog.LevelInfo
	switch issue.Severity() {
	case SeverityWarning:
		level = slog.LevelWarn
	case SeverityError:
		level = slog.LevelError
	}

	attrs := []slog.Attr{
		slog.String("category", issue.Category()),
		slog.String("title", issue.Title()),
	}
	if issue.FilePath() != "" {
		attrs = append(attrs, slog.String("source", issue.FilePath()))
	}
	if issue.Detail() != "" {
		attrs = append(attrs, slog.String("detail", issue.Detail()))
	}

	r.logger.LogAttrs(ctx, level, issue.Description(), attrs...)
	return nil
}

// Close is a no-op for the log reporter.
func (r *LogReporter) Close() error { return nil }
