package issue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/docfetch/internal/observability"
)

// NATSReporter publishes issues to a JetStream subject.
type NATSReporter struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
}

// NewNATSReporter connects to NATS and prepares a JetStream publisher.
func NewNATSReporter(natsURL, subject string) (*NATSReporter, error) {
	if subject == "" {
		return nil, fmt.Errorf("reporting subject is required")
	}

	// Connect to NATS
	conn, err := nats.Connect(natsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	// Create JetStream context
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	slog.Info("NATS reporter initialized",
		"url", natsURL,
		"subject", subject)

	return &NATSReporter{
		conn:    conn,
		js:      js,
		subject: subject,
	}, nil
}

// Report publishes the issue as an Event on the configured subject.
func (r *NATSReporter) Report(ctx context.Context, issue Issue) error {
	event := NewEvent(issue, observability.RunID(ctx))
	event.ReportedAt = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := r.js.Publish(ctx, r.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	slog.Debug("Published issue event",
		"subject", r.subject,
		"category", issue.Category(),
		"severity", issue.Severity().String())

	return nil
}

// Close closes the NATS connection.
func (r *NATSReporter) Close() error {
	if r.conn != nil {
		r.conn.Close()
	}
	return nil
}
