package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/propshield/climarisk/internal/infrastructure/monitoring/logging"
	"github.com/propshield/climarisk/pkg/errors"
)

var (
	ErrProducerClosed = errors.New(errors.ErrCodeInternal, "producer closed")
	ErrPublishFailed  = errors.New(errors.ErrCodeInternal, "publish failed")
)

// ProducerConfig holds configuration for the Producer.
type ProducerConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	Acks         string        `mapstructure:"acks"`
	MaxRetries   int           `mapstructure:"max_retries"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// ProducerMetrics holds running producer counters.
type ProducerMetrics struct {
	MessagesSent   atomic.Int64
	MessagesFailed atomic.Int64
	BytesSent      atomic.Int64
}

// writerInterface abstracts kafka.Writer for testing.
type writerInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes envelopes to a single topic.
type Producer struct {
	writer  writerInterface
	config  ProducerConfig
	logger  logging.Logger
	closed  atomic.Bool
	metrics ProducerMetrics
}

// NewProducer creates a producer for cfg.Topic.
func NewProducer(cfg ProducerConfig, log logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.NewValidation("kafka brokers are required")
	}
	if cfg.Topic == "" {
		cfg.Topic = TopicAssessmentEvents
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if log == nil {
		log = logging.NewNop()
	}

	requiredAcks := kafka.RequireAll
	if cfg.Acks == "one" {
		requiredAcks = kafka.RequireOne
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: requiredAcks,
		MaxAttempts:  cfg.MaxRetries,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		Compression:  kafka.Snappy,
	}

	return &Producer{
		writer: writer,
		config: cfg,
		logger: log.Named("kafka"),
	}, nil
}

// Publish sends one envelope keyed by key.  Messages with the same key land
// on the same partition, so per-property ordering is preserved.
func (p *Producer) Publish(ctx context.Context, key string, envelope EventEnvelope) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}

	value, err := json.Marshal(envelope)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode event envelope")
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(envelope.EventType)},
			{Key: "schema_version", Value: []byte(envelope.SchemaVersion)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.MessagesFailed.Add(1)
		p.logger.Error("failed to publish message",
			logging.String("topic", p.config.Topic),
			logging.String("event_type", envelope.EventType),
			logging.Err(err),
		)
		return ErrPublishFailed.WithCause(err)
	}

	p.metrics.MessagesSent.Add(1)
	p.metrics.BytesSent.Add(int64(len(value)))
	return nil
}

// Metrics exposes the running counters.
func (p *Producer) Metrics() (sent, failed, bytes int64) {
	return p.metrics.MessagesSent.Load(), p.metrics.MessagesFailed.Load(), p.metrics.BytesSent.Load()
}

// Close flushes and shuts down the writer.  Safe to call more than once.
func (p *Producer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.writer.Close()
}
