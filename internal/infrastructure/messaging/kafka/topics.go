// Package kafka publishes assessment lifecycle events.
package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	TopicAssessmentEvents = "assessment.events"

	schemaVersion = "1.0"
	eventSource   = "climarisk"
)

// EventEnvelope standardizes messages on the wire.  Payload carries the
// event-specific body; the envelope carries identity and tracing.
type EventEnvelope struct {
	EventID       string            `json:"event_id"`
	EventType     string            `json:"event_type"`
	Source        string            `json:"source"`
	Timestamp     time.Time         `json:"timestamp"`
	SchemaVersion string            `json:"schema_version"`
	TraceID       string            `json:"trace_id,omitempty"`
	Payload       json.RawMessage   `json:"payload"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NewEnvelope wraps a payload in a fresh envelope.
func NewEnvelope(eventType string, payload interface{}) (EventEnvelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return EventEnvelope{}, err
	}
	return EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		Source:        eventSource,
		Timestamp:     time.Now().UTC(),
		SchemaVersion: schemaVersion,
		Payload:       body,
	}, nil
}
