package repository

import (
	"context"
	"fmt"
	"time"

	"SymDir/internal/domain/models"
	"SymDir/internal/domain/repository"
	pkgkafka "SymDir/pkg/kafka"
	applogger "SymDir/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// KafkaBroadcaster fans invalidations out over a Kafka topic. Each instance
// must consume with its own group id so every instance sees every event.
type KafkaBroadcaster struct {
	producer *pkgkafka.Producer
	consumer *pkgkafka.Consumer
	topic    string
	origin   string
	l        *applogger.Logger
}

var _ repository.Broadcaster = (*KafkaBroadcaster)(nil)

// NewKafkaBroadcaster publishes with p and subscribes with c on topic.
func NewKafkaBroadcaster(p *pkgkafka.Producer, c *pkgkafka.Consumer, topic, origin string, l *applogger.Logger) *KafkaBroadcaster {
	if l == nil {
		l = applogger.Nop()
	}
	return &KafkaBroadcaster{producer: p, consumer: c, topic: topic, origin: origin, l: l.With("kafka_broadcaster")}
}

// Publish stamps the event with this instance's origin and writes it keyed
// by symbol, so events for one symbol stay ordered.
func (b *KafkaBroadcaster) Publish(ctx context.Context, ev models.InvalidationEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	if ev.Origin == "" {
		ev.Origin = b.origin
	}
	key := ev.ID
	if key == "" {
		key = ev.TradingSymbol
	}
	if err := b.producer.Publish(ctx, b.topic, []byte(key), ev); err != nil {
		return fmt.Errorf("publish invalidation: %w", err)
	}
	return nil
}

// Subscribe consumes the topic until ctx is cancelled.
func (b *KafkaBroadcaster) Subscribe(ctx context.Context, fn func(context.Context, models.InvalidationEvent) error) error {
	b.consumer.RegisterHandler(&eventHandler{topic: b.topic, fn: fn, l: b.l})
	if err := b.consumer.Start(); err != nil {
		return fmt.Errorf("start invalidation consumer: %w", err)
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return b.consumer.Stop(stopCtx)
}

// Close flushes and closes the producer.
func (b *KafkaBroadcaster) Close() error {
	return b.producer.Close()
}

// eventHandler adapts a subscriber func to pkgkafka.MessageHandler. Malformed
// payloads are logged and acknowledged since retrying cannot fix them.
type eventHandler struct {
	topic string
	fn    func(context.Context, models.InvalidationEvent) error
	l     *applogger.Logger
}

func (h *eventHandler) Topic() string { return h.topic }

func (h *eventHandler) Handle(ctx context.Context, data []byte) error {
	ev, err := models.DecodeInvalidation(data)
	if err != nil {
		h.l.Warn("dropping malformed invalidation", applogger.Error(err))
		return nil
	}
	return h.fn(ctx, ev)
}

// InvalidationHook counts invalidation messages that failed every retry and
// records where they sat, so a stale cache can be traced to its event.
func InvalidationHook(m repository.Metrics, l *applogger.Logger) pkgkafka.ConsumerHook {
	if m == nil {
		m = repository.NopMetrics{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return pkgkafka.HookFuncs{
		Err: func(_ context.Context, topic string, km kafka.Message, _ []byte, err error) {
			m.RecordError("invalidation_consume")
			l.Warn("invalidation not applied",
				applogger.String("topic", topic),
				applogger.Int("partition", km.Partition),
				applogger.Int64("offset", km.Offset),
				applogger.Error(err),
			)
		},
	}
}
