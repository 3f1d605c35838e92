package issue

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogReporter_Report(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := NewLogReporter(logger)
	err := r.Report(context.Background(), testIssue{
		filePath:    "docs/a.md",
		severity:    SeverityError,
		title:       "Error while requesting resource",
		category:    "fetch",
		description: "There was an issue requesting https://example.com",
		detail:      "mystery",
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "\"level\":\"ERROR\"")
	assert.Contains(t, out, "There was an issue requesting https://example.com")
	assert.Contains(t, out, "docs/a.md")
	assert.Contains(t, out, "fetch")
	assert.Contains(t, out, "mystery")
}

func TestLogReporter_SeverityLevels(t *testing.T) {
	cases := []struct {
		severity Severity
		level    string
	}{
		{SeverityInfo, "\"level\":\"INFO\""},
		{SeverityWarning, "\"level\":\"WARN\""},
		{SeverityError, "\"level\":\"ERROR\""},
	}

	for _, tc := range cases {
		var buf bytes.Buffer
		r := NewLogReporter(slog.New(slog.NewJSONHandler(&buf, nil)))
		require.NoError(t, r.Report(context.Background(), testIssue{severity: tc.severity, description: "x"}))
		assert.Contains(t, buf.String(), tc.level)
	}
}

func TestLogReporter_SkipsEmptyFields(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogReporter(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, r.Report(context.Background(), testIssue{severity: SeverityInfo, description: "bare"}))

	out := buf.String()
	assert.NotContains(t, out, "\"source\"")
	assert.NotContains(t, out, "\"detail\"")
}

func TestNewLogReporter_NilLoggerUsesDefault(t *testing.T) {
	r := NewLogReporter(nil)
	require.NotNil(t, r)
	assert.NoError(t, r.Close())
}
