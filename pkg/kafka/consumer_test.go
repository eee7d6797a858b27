package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffWithJitterBounds(t *testing.T) {
	for attempt := 1; attempt <= 10; attempt++ {
		d := backoffWithJitter(50*time.Millisecond, time.Second, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, time.Second)
	}
	assert.LessOrEqual(t, backoffWithJitter(0, 0, 3), 50*time.Millisecond)
}

func TestNewConsumerRequiresBrokers(t *testing.T) {
	_, err := NewConsumer()
	require.Error(t, err)
}

func TestRegisterHandlerKeepsFirst(t *testing.T) {
	c, err := NewConsumer(WithConsumerBrokers([]string{"localhost:9092"}))
	require.NoError(t, err)

	first := &topicHandler{topic: "t"}
	c.RegisterHandler(first)
	c.RegisterHandler(&topicHandler{topic: "t"})
	assert.Same(t, first, c.handlers["t"])
}

func TestStartWithoutHandlers(t *testing.T) {
	c, err := NewConsumer(WithConsumerBrokers([]string{"localhost:9092"}))
	require.NoError(t, err)
	assert.Error(t, c.Start())
}

func TestHookFuncsNilSafe(t *testing.T) {
	var h HookFuncs
	ctx := context.Background()
	km := kafka.Message{Value: []byte("x")}
	gotCtx, gotMsg, data, err := h.BeforeHandle(ctx, "t", km, km.Value)
	require.NoError(t, err)
	assert.Equal(t, ctx, gotCtx)
	assert.Equal(t, km, gotMsg)
	assert.Equal(t, []byte("x"), data)
	assert.NotPanics(t, func() {
		h.AfterHandle(ctx, "t", km, data, nil)
		h.OnError(ctx, "t", km, data, errors.New("boom"))
	})
}

func TestParseCompression(t *testing.T) {
	c, ok := parseCompression("zstd")
	assert.True(t, ok)
	assert.Equal(t, kafka.Zstd, c)
	_, ok = parseCompression("none")
	assert.False(t, ok)
}

type topicHandler struct{ topic string }

func (h *topicHandler) Topic() string { return h.topic }
func (h *topicHandler) Handle(context.Context, []byte) error { return nil }
