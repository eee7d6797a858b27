package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"SymDir/internal/domain/models"
	"SymDir/internal/domain/repository"
	applogger "SymDir/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventHandlerDeliversValidEvents(t *testing.T) {
	var got []models.InvalidationEvent
	h := &eventHandler{topic: "inv", l: testLogger(), fn: func(_ context.Context, ev models.InvalidationEvent) error {
		got = append(got, ev)
		return nil
	}}

	require.NoError(t, h.Handle(context.Background(), []byte(`{"type":"symbol","id":"7","exchange":"NSE"}`)))
	require.NoError(t, h.Handle(context.Background(), []byte(`{"type":"all"}`)))

	require.Len(t, got, 2)
	assert.Equal(t, models.InvalidateSymbol, got[0].Kind)
	assert.Equal(t, "7", got[0].ID)
	assert.Equal(t, models.InvalidateAll, got[1].Kind)
	assert.Equal(t, "inv", h.Topic())
}

func TestEventHandlerAcksMalformedPayloads(t *testing.T) {
	called := false
	h := &eventHandler{topic: "inv", l: testLogger(), fn: func(context.Context, models.InvalidationEvent) error {
		called = true
		return nil
	}}

	assert.NoError(t, h.Handle(context.Background(), []byte(`not json`)))
	assert.NoError(t, h.Handle(context.Background(), []byte(`{"type":"symbol"}`)))
	assert.NoError(t, h.Handle(context.Background(), []byte(`{"type":"bogus"}`)))
	assert.False(t, called)
}

func TestEventHandlerPropagatesApplyErrors(t *testing.T) {
	boom := errors.New("boom")
	h := &eventHandler{topic: "inv", l: testLogger(), fn: func(context.Context, models.InvalidationEvent) error {
		return boom
	}}
	assert.ErrorIs(t, h.Handle(context.Background(), []byte(`{"type":"search"}`)), boom)
}

func TestNopBroadcaster(t *testing.T) {
	var b NopBroadcaster
	require.NoError(t, b.Publish(context.Background(), models.InvalidationEvent{Kind: models.InvalidateAll}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.NoError(t, b.Subscribe(ctx, nil))
	assert.NoError(t, b.Close())
}

type errorCounter struct {
	repository.NopMetrics
	kinds []string
}

func (m *errorCounter) RecordError(kind string) { m.kinds = append(m.kinds, kind) }

func TestInvalidationHookCountsFailures(t *testing.T) {
	m := &errorCounter{}
	hook := InvalidationHook(m, testLogger())

	ctx, km, data, err := hook.BeforeHandle(context.Background(), "inv", kafka.Message{Offset: 4}, []byte("x"))
	require.NoError(t, err)
	assert.NotNil(t, ctx)
	assert.EqualValues(t, 4, km.Offset)
	assert.Equal(t, []byte("x"), data)

	hook.AfterHandle(ctx, "inv", km, data, errors.New("retrying"))
	assert.Empty(t, m.kinds)

	hook.OnError(ctx, "inv", km, data, errors.New("gave up"))
	assert.Equal(t, []string{"invalidation_consume"}, m.kinds)

	assert.NotPanics(t, func() {
		InvalidationHook(nil, nil).OnError(ctx, "inv", km, data, errors.New("gave up"))
	})
}

func testLogger() *applogger.Logger { return applogger.Nop() }
