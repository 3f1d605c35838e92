package fetch

import (
	"fmt"

	"git.home.luguber.info/inful/docfetch/internal/issue"
)

// Title and category are fixed so downstream reporting groups all fetch
// failures together.
const (
	issueTitle    = "Error while requesting resource"
	issueCategory = "fetch"
)

// Issue is a fetch failure in the shape the reporting pipeline expects.
type Issue struct {
	filePath    string
	severity    issue.Severity
	description string
	detail      string
}

// ToIssue renders the error as a reportable issue. filePath names the
// document that referenced the resource and may be empty.
func (e *FetchError) ToIssue(severity issue.Severity, filePath string) *Issue {
	return &Issue{
		filePath:    filePath,
		severity:    severity,
		description: e.describe(),
		detail:      e.Detail,
	}
}

// describe renders the user-facing description for the error kind.
// The wording is stable; downstream grouping keys on these exact strings.
func (e *FetchError) describe() string {
	switch e.Kind {
	case KindConnect:
		return fmt.Sprintf("There was an issue establishing a connection while requesting %s.", e.URL)
	case KindStatus:
		return fmt.Sprintf("Received response with status %d when requesting %s", e.StatusCode, e.URL)
	case KindTimeout:
		return fmt.Sprintf("Connection timed out when requesting %s", e.URL)
	default:
		return fmt.Sprintf("There was an issue requesting %s", e.URL)
	}
}

// FilePath returns the document that referenced the resource.
func (i *Issue) FilePath() string { return i.filePath }

// Severity returns the severity assigned by the caller.
func (i *Issue) Severity() issue.Severity { return i.severity }

// Title returns the fixed issue heading.
func (i *Issue) Title() string { return issueTitle }

// Category returns the fixed issue category.
func (i *Issue) Category() string { return issueCategory }

// Description returns the kind-specific description.
func (i *Issue) Description() string { return i.description }

// Detail returns the transport's error text.
func (i *Issue) Detail() string { return i.detail }
