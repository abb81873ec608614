package kafka

import (
	"context"

	"github.com/propshield/climarisk/internal/application/assessment"
)

// EventPublisher adapts the Producer to the assessment service's publisher
// port.
type EventPublisher struct {
	producer *Producer
}

func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func (p *EventPublisher) PublishAssessmentEvent(ctx context.Context, event assessment.Event) error {
	envelope, err := NewEnvelope(string(event.Type), event)
	if err != nil {
		return err
	}
	envelope.TraceID = event.RequestID
	return p.producer.Publish(ctx, event.PropertyID, envelope)
}
