// internal/event/nats.go
// Package event provides NATS JetStream implementation for event publishing.
// It streams submission lifecycle events so downstream consumers can react to
// freshly refined record sets without polling the database.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/chatdlp/telegram-refiner-go/internal/model"
)

// SubmissionCreated is the payload of a submission created event. It carries
// the summary of the refined record set, never the message contents.
type SubmissionCreated struct {
	SubmissionID        string `json:"submissionId"`        // Generated submission identifier
	UserID              string `json:"userId"`              // Owning user identifier
	SubmissionReference string `json:"submissionReference"` // Opaque source reference
	Shape               string `json:"shape"`               // Detected source shape
	ChatCount           int    `json:"chatCount"`           // Number of chats in the submission
	MessageCount        int    `json:"messageCount"`        // Total messages across all chats
}

// Publisher interface defines the event publishing operations of the refiner.
type Publisher interface {
	// PublishSubmissionCreated announces one persisted record set.
	PublishSubmissionCreated(ctx context.Context, shape string, rs *model.RecordSet) error

	// Close closes the publisher connection
	Close() error
}

// noop is a no-op implementation of Publisher for when NATS is not configured.
// It implements all Publisher methods but does nothing, allowing the pipeline
// to run without event streaming when NATS is not available.
type noop struct{}

// Close implements Publisher
// It does nothing and always returns nil.
func (n *noop) Close() error { return nil }

// PublishSubmissionCreated implements Publisher
// It does nothing and always returns nil.
func (n *noop) PublishSubmissionCreated(ctx context.Context, shape string, rs *model.RecordSet) error {
	return nil
}

// natsPub is the NATS JetStream implementation of Publisher.
// It connects to a NATS server and publishes events to JetStream streams.
type natsPub struct {
	nc *nats.Conn            // NATS connection
	js nats.JetStreamContext // JetStream context for stream operations

	// Deduplication fields
	dedup map[string]time.Time // Map of submission IDs to last publish time
	mutex sync.RWMutex         // Mutex for thread-safe access to the dedup map
}

// NewPublisher creates a new publisher for the given NATS URL.
// If NATS is not configured or connection fails, it returns a no-op publisher:
// event streaming is an enhancement, never a reason to stall refinement.
// Parameters:
//   - url: NATS server URL, empty disables event publishing
// Returns:
//   - Publisher: Either a NATS publisher or a no-op publisher
func NewPublisher(url string) Publisher {
	if url == "" {
		return &noop{}
	}

	// Connect to NATS server
	nc, err := nats.Connect(url)
	if err != nil {
		slog.Warn("NATS connect failed, using noop publisher", "error", err)
		return &noop{}
	}

	// Create JetStream context for stream operations
	js, err := nc.JetStream()
	if err != nil {
		slog.Warn("NATS JetStream context creation failed, using noop publisher", "error", err)
		nc.Close()
		return &noop{}
	}

	// Initialize required streams
	if err := initStreams(js); err != nil {
		slog.Warn("NATS stream initialization failed, using noop publisher", "error", err)
		nc.Close()
		return &noop{}
	}

	return &natsPub{
		nc:    nc,
		js:    js,
		dedup: make(map[string]time.Time),
	}
}

// initStreams initializes the required NATS streams.
// It creates the REFINER_SUBMISSIONS stream used for submission lifecycle events.
func initStreams(js nats.JetStreamContext) error {
	_, err := js.AddStream(&nats.StreamConfig{
		Name:      "REFINER_SUBMISSIONS",           // Stream name
		Subjects:  []string{"refiner.submission.*"}, // Subjects pattern for submission events
		Retention: nats.LimitsPolicy,               // Retention policy
		MaxAge:    24 * time.Hour,                  // Keep events for 24 hours
		Discard:   nats.DiscardOld,                 // Discard old messages when limits reached
		Storage:   nats.FileStorage,                // Use file storage for persistence
	})
	if err != nil {
		return fmt.Errorf("failed to create REFINER_SUBMISSIONS stream: %w", err)
	}

	return nil
}

// EventEnvelope represents the standard event envelope structure.
// All events published to NATS are wrapped in this envelope for consistency.
type EventEnvelope struct {
	Type          string      `json:"type"`          // Event type identifier
	Version       string      `json:"version"`       // Event schema version
	OccurredAt    time.Time   `json:"occurredAt"`    // When the event occurred
	CorrelationID string      `json:"correlationId"` // Correlation ID for tracing
	Payload       interface{} `json:"payload"`       // Event-specific data
}

// Close closes the NATS connection.
func (p *natsPub) Close() error {
	if p.nc != nil {
		p.nc.Close()
	}
	return nil
}

// shouldDedup checks if an event should be deduplicated based on the 2-minute window.
func (p *natsPub) shouldDedup(key string) bool {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	if lastTime, exists := p.dedup[key]; exists {
		return time.Since(lastTime) < 2*time.Minute
	}

	return false
}

// updateDedup updates the deduplication map with the current time for a given key.
// This should be called after successfully publishing an event.
func (p *natsPub) updateDedup(key string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	// Clean up old entries to prevent memory leaks
	cutoff := time.Now().Add(-5 * time.Minute)
	for k, t := range p.dedup {
		if t.Before(cutoff) {
			delete(p.dedup, k)
		}
	}

	p.dedup[key] = time.Now()
}

// PublishSubmissionCreated publishes a submission created event.
// It wraps the record set summary in an event envelope and publishes it to the
// REFINER_SUBMISSIONS stream.
// Parameters:
//   - ctx: Context for the operation
//   - shape: The detected source shape of the input document
//   - rs: The record set that was persisted
// Returns:
//   - error: Any error that occurred during publishing
func (p *natsPub) PublishSubmissionCreated(ctx context.Context, shape string, rs *model.RecordSet) error {
	// Check if this event should be deduplicated
	if p.shouldDedup(rs.Submission.SubmissionID) {
		return nil
	}

	subject := "refiner.submission.created"

	// Create the event envelope with metadata
	envelope := EventEnvelope{
		Type:          subject,          // Event type
		Version:       "1.0.0",          // Event schema version
		OccurredAt:    time.Now().UTC(), // Event timestamp
		CorrelationID: uuid.New().String(),
		Payload: SubmissionCreated{
			SubmissionID:        rs.Submission.SubmissionID,
			UserID:              rs.User.UserID,
			SubmissionReference: rs.Submission.SubmissionReference,
			Shape:               shape,
			ChatCount:           len(rs.Chats),
			MessageCount:        rs.MessageCount(),
		},
	}

	// Marshal the envelope to JSON
	b, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	// Publish the event to the stream
	_, err = p.js.Publish(subject, b)
	if err != nil {
		return err
	}

	// Update deduplication map on successful publish
	p.updateDedup(rs.Submission.SubmissionID)

	return nil
}
