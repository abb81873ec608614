package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propshield/climarisk/internal/application/assessment"
	"github.com/propshield/climarisk/internal/infrastructure/monitoring/logging"
	"github.com/propshield/climarisk/pkg/errors"
)

type fakeWriter struct {
	messages []kafkago.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func newTestProducer(writer writerInterface) *Producer {
	return &Producer{
		writer: writer,
		config: ProducerConfig{Topic: TopicAssessmentEvents},
		logger: logging.NewNop(),
	}
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer(ProducerConfig{}, nil)
	assert.Equal(t, errors.ErrCodeValidation, errors.GetCode(err))
}

func TestNewProducer_Defaults(t *testing.T) {
	p, err := NewProducer(ProducerConfig{Brokers: []string{"localhost:9092"}}, nil)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, TopicAssessmentEvents, p.config.Topic)
	assert.Equal(t, 3, p.config.MaxRetries)
	assert.Equal(t, 100, p.config.BatchSize)
}

func TestPublish_KeyAndHeaders(t *testing.T) {
	writer := &fakeWriter{}
	p := newTestProducer(writer)

	envelope, err := NewEnvelope("assessment.completed", map[string]string{"property_id": "prop-1"})
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), "prop-1", envelope))

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, []byte("prop-1"), msg.Key)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("assessment.completed"), msg.Headers[0].Value)
	assert.Equal(t, "schema_version", msg.Headers[1].Key)

	var decoded EventEnvelope
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "assessment.completed", decoded.EventType)
	assert.NotEmpty(t, decoded.EventID)

	sent, failed, bytes := p.Metrics()
	assert.Equal(t, int64(1), sent)
	assert.Zero(t, failed)
	assert.Greater(t, bytes, int64(0))
}

func TestPublish_WriteFailureCounted(t *testing.T) {
	writer := &fakeWriter{err: errors.New(errors.ErrCodeInternal, "broker unreachable")}
	p := newTestProducer(writer)

	envelope, err := NewEnvelope("assessment.failed", map[string]string{})
	require.NoError(t, err)

	publishErr := p.Publish(context.Background(), "prop-1", envelope)
	require.Error(t, publishErr)

	_, failed, _ := p.Metrics()
	assert.Equal(t, int64(1), failed)
}

func TestPublish_AfterClose(t *testing.T) {
	writer := &fakeWriter{}
	p := newTestProducer(writer)

	require.NoError(t, p.Close())
	assert.True(t, writer.closed)
	require.NoError(t, p.Close(), "second close is a no-op")

	envelope, err := NewEnvelope("assessment.started", map[string]string{})
	require.NoError(t, err)
	assert.ErrorIs(t, p.Publish(context.Background(), "prop-1", envelope), ErrProducerClosed)
}

func TestEventPublisher_WrapsLifecycleEvent(t *testing.T) {
	writer := &fakeWriter{}
	p := newTestProducer(writer)
	publisher := NewEventPublisher(p)

	event := assessment.Event{
		Type:       assessment.EventAssessmentCompleted,
		PropertyID: "prop-1",
		RequestID:  "req-42",
		Timestamp:  time.Now().UTC(),
	}
	require.NoError(t, publisher.PublishAssessmentEvent(context.Background(), event))

	require.Len(t, writer.messages, 1)
	var decoded EventEnvelope
	require.NoError(t, json.Unmarshal(writer.messages[0].Value, &decoded))
	assert.Equal(t, string(assessment.EventAssessmentCompleted), decoded.EventType)
	assert.Equal(t, "req-42", decoded.TraceID)
	assert.Equal(t, []byte("prop-1"), writer.messages[0].Key)

	var payload assessment.Event
	require.NoError(t, json.Unmarshal(decoded.Payload, &payload))
	assert.Equal(t, "prop-1", payload.PropertyID)
}

func TestNewEnvelope(t *testing.T) {
	envelope, err := NewEnvelope("assessment.started", map[string]int{"n": 1})
	require.NoError(t, err)

	assert.Equal(t, eventSource, envelope.Source)
	assert.Equal(t, schemaVersion, envelope.SchemaVersion)
	assert.False(t, envelope.Timestamp.IsZero())
}
