package issue

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Formatter renders collected issues for output.
type Formatter interface {
	Format(w io.Writer, issues []Issue) error
}

// TextFormatter formats issues as human-readable text.
type TextFormatter struct{}

// NewTextFormatter creates a text formatter.
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{}
}

// Format outputs issues grouped by source file with a summary footer.
func (f *TextFormatter) Format(w io.Writer, issues []Issue) error {
	if _, err := fmt.Fprintln(w, strings.Repeat("━", 60)); err != nil {
		return err
	}

	// Group issues by file, preserving first-seen order
	order := make([]string, 0)
	byFile := make(map[string][]Issue)
	for _, issue := range issues {
		path := issue.FilePath()
		if _, ok := byFile[path]; !ok {
			order = append(order, path)
		}
		byFile[path] = append(byFile[path], issue)
	}

	for _, path := range order {
		for _, issue := range byFile[path] {
			if err := f.formatIssue(w, issue); err != nil {
				return err
			}
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
	}

	// Summary
	if _, err := fmt.Fprintln(w, strings.Repeat("━", 60)); err != nil {
		return err
	}

	errorCount, warningCount, infoCount := countBySeverity(issues)
	if _, err := fmt.Fprintf(w, "Results:\n"); err != nil {
		return err
	}
	if errorCount > 0 {
		if _, err := fmt.Fprintf(w, "  %d error%s\n", errorCount, pluralize(errorCount)); err != nil {
			return err
		}
	}
	if warningCount > 0 {
		if _, err := fmt.Fprintf(w, "  %d warning%s\n", warningCount, pluralize(warningCount)); err != nil {
			return err
		}
	}
	if infoCount > 0 {
		if _, err := fmt.Fprintf(w, "  %d info\n", infoCount); err != nil {
			return err
		}
	}

	switch {
	case errorCount > 0:
		_, err := fmt.Fprintln(w, "❌ Some resources could not be fetched.")
		return err
	case warningCount > 0:
		_, err := fmt.Fprintln(w, "⚠️  Some resources reported warnings.")
		return err
	default:
		_, err := fmt.Fprintln(w, "✨ All resources fetched successfully!")
		return err
	}
}

// formatIssue formats a single issue.
func (f *TextFormatter) formatIssue(w io.Writer, issue Issue) error {
	var icon string
	switch issue.Severity() {
	case SeverityError:
		icon = "✗"
	case SeverityWarning:
		icon = "⚠"
	case SeverityInfo:
		icon = "ℹ"
	}

	location := issue.FilePath()
	if location == "" {
		location = issue.Category()
	}

	if _, err := fmt.Fprintf(w, "%s %s\n", icon, location); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "  %s: %s\n", issue.Severity(), issue.Description()); err != nil {
		return err
	}
	if issue.Detail() != "" {
		if _, err := fmt.Fprintf(w, "  Detail: %s\n", issue.Detail()); err != nil {
			return err
		}
	}
	return nil
}

// JSONFormatter formats issues as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// JSONOutput represents the JSON output structure.
type JSONOutput struct {
	ErrorCount   int         `json:"error_count"`
	WarningCount int         `json:"warning_count"`
	InfoCount    int         `json:"info_count"`
	Issues       []JSONIssue `json:"issues"`
}

// JSONIssue represents a single issue in JSON format.
type JSONIssue struct {
	FilePath    string `json:"file_path,omitempty"`
	Severity    string `json:"severity"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Detail      string `json:"detail,omitempty"`
}

// Format outputs issues in JSON format.
func (f *JSONFormatter) Format(w io.Writer, issues []Issue) error {
	errorCount, warningCount, infoCount := countBySeverity(issues)
	output := JSONOutput{
		ErrorCount:   errorCount,
		WarningCount: warningCount,
		InfoCount:    infoCount,
		Issues:       make([]JSONIssue, 0, len(issues)),
	}

	for _, issue := range issues {
		output.Issues = append(output.Issues, JSONIssue{
			FilePath:    issue.FilePath(),
			Severity:    issue.Severity().String(),
			Title:       issue.Title(),
			Category:    issue.Category(),
			Description: issue.Description(),
			Detail:      issue.Detail(),
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// NewFormatter creates the appropriate formatter based on format string.
func NewFormatter(format string) Formatter {
	switch format {
	case "json":
		return NewJSONFormatter()
	default:
		return NewTextFormatter()
	}
}

func countBySeverity(issues []Issue) (errors, warnings, infos int) {
	for _, issue := range issues {
		switch issue.Severity() {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		case SeverityInfo:
			infos++
		}
	}
	return errors, warnings, infos
}

// pluralize returns "s" if count != 1, otherwise empty string.
func pluralize(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}
