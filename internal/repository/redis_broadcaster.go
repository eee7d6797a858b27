package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"SymDir/internal/domain/models"
	"SymDir/internal/domain/repository"
	pkgcache "SymDir/pkg/cache"
	applogger "SymDir/pkg/logger"
)

// RedisBroadcaster fans invalidations out over Redis pub/sub. Delivery is
// at-most-once; an instance that is down misses events and relies on TTLs.
type RedisBroadcaster struct {
	client  *pkgcache.RedisClient
	channel string
	origin  string
	l       *applogger.Logger
}

var _ repository.Broadcaster = (*RedisBroadcaster)(nil)

// NewRedisBroadcaster fans invalidations out over a pub/sub channel.
func NewRedisBroadcaster(c *pkgcache.RedisClient, channel, origin string, l *applogger.Logger) *RedisBroadcaster {
	if l == nil {
		l = applogger.Nop()
	}
	return &RedisBroadcaster{client: c, channel: channel, origin: origin, l: l.With("redis_broadcaster")}
}

// Publish stamps the event with this instance's origin and sends it.
func (b *RedisBroadcaster) Publish(ctx context.Context, ev models.InvalidationEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	if ev.Origin == "" {
		ev.Origin = b.origin
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal invalidation: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload); err != nil {
		return fmt.Errorf("publish invalidation: %w", err)
	}
	return nil
}

// Subscribe delivers events until ctx is cancelled. Handler errors are
// logged; pub/sub has no redelivery.
func (b *RedisBroadcaster) Subscribe(ctx context.Context, fn func(context.Context, models.InvalidationEvent) error) error {
	sub, err := b.client.Subscribe(ctx, b.channel)
	if err != nil {
		return err
	}
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("redis subscription %s closed", b.channel)
			}
			ev, err := models.DecodeInvalidation([]byte(msg.Payload))
			if err != nil {
				b.l.Warn("dropping malformed invalidation", applogger.Error(err))
				continue
			}
			if err := fn(ctx, ev); err != nil {
				b.l.Error("apply invalidation failed",
					applogger.String("type", string(ev.Kind)),
					applogger.Error(err),
				)
			}
		}
	}
}

// Close is a no-op; the connection belongs to the Redis client.
func (b *RedisBroadcaster) Close() error { return nil }

// NopBroadcaster is used when no invalidation transport is configured.
// Publish succeeds without sending and Subscribe waits for cancellation.
type NopBroadcaster struct{}

var _ repository.Broadcaster = NopBroadcaster{}

func (NopBroadcaster) Publish(context.Context, models.InvalidationEvent) error { return nil }

func (NopBroadcaster) Subscribe(ctx context.Context, _ func(context.Context, models.InvalidationEvent) error) error {
	<-ctx.Done()
	return nil
}

func (NopBroadcaster) Close() error { return nil }
