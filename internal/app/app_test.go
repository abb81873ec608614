package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propshield/climarisk/internal/infrastructure/messaging/kafka"
	"github.com/propshield/climarisk/internal/infrastructure/monitoring/logging"
)

// The kafka writer dials lazily, so a producer can be constructed and closed
// without a broker.  Close must release every resource acquired before the
// failure point and stay safe to call again.
func TestClose_ReleasesProducerAndIsIdempotent(t *testing.T) {
	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers: []string{"localhost:9092"},
	}, nil)
	require.NoError(t, err)

	a := &Application{
		Logger:   logging.NewNop(),
		producer: producer,
	}

	a.Close()
	assert.Nil(t, a.producer)
	assert.Nil(t, a.redis)
	assert.Nil(t, a.pool)

	assert.NotPanics(t, a.Close)
}
