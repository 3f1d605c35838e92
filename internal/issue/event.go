package issue

import "time"

// Event is the wire form of an issue published to the reporting subject.
type Event struct {
	FilePath    string    `json:"file_path,omitempty"`
	Severity    string    `json:"severity"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Detail      string    `json:"detail,omitempty"`
	RunID       string    `json:"run_id,omitempty"`
	ReportedAt  time.Time `json:"reported_at"`
}

// NewEvent captures an issue as a publishable event.
// ReportedAt is stamped at publish time.
func NewEvent(issue Issue, runID string) *Event {
	return &Event{
		FilePath:    issue.FilePath(),
		Severity:    issue.Severity().String(),
		Title:       issue.Title(),
		Category:    issue.Category(),
		Description: issue.Description(),
		Detail:      issue.Detail(),
		RunID:       runID,
	}
}
