package kafka

import (
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	require.Error(t, err)
}

func TestNewProducerAppliesOptions(t *testing.T) {
	p, err := NewProducer(
		WithBrokers([]string{"localhost:9092"}),
		WithCompression("zstd"),
		WithRequiredAcks(1),
		WithMaxAttempts(5),
		WithWriteTimeout(2*time.Second),
		WithLinger(0), // ignored, keeps default
		WithHashByKey(true),
	)
	require.NoError(t, err)
	defer p.Close()

	w := p.writer
	assert.Equal(t, kafka.Zstd, w.Compression)
	assert.Equal(t, kafka.RequireOne, w.RequiredAcks)
	assert.Equal(t, 5, w.MaxAttempts)
	assert.Equal(t, 2*time.Second, w.WriteTimeout)
	assert.Equal(t, 10*time.Millisecond, w.BatchTimeout)
	assert.IsType(t, &kafka.Hash{}, w.Balancer)
}
