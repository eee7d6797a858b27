package repository

import (
	"context"
	"time"

	"SymDir/internal/domain/models"
)

// InstrumentStore answers filtered, paginated instrument queries. Rows may carry
// a provisional relevance score; callers treat it as a lower bound.
// HasMore must equal offset+len(rows) < total.
type InstrumentStore interface {
	Query(ctx context.Context, q models.SearchQuery) (*models.StoreResult, error)
	Health(ctx context.Context) error
	Close() error
}

// Broadcaster fans cache invalidations out to every running instance.
type Broadcaster interface {
	Publish(ctx context.Context, ev models.InvalidationEvent) error
	// Subscribe blocks delivering events to fn until ctx is cancelled.
	Subscribe(ctx context.Context, fn func(context.Context, models.InvalidationEvent) error) error
	Close() error
}

// Metrics records cache and search observations.
type Metrics interface {
	RecordCacheHit(cache string)
	RecordCacheMiss(cache string)
	RecordCacheSize(cache string, size, capacity int)
	RecordLatency(op string, d time.Duration)
	RecordError(kind string)
}

// NopMetrics discards observations.
type NopMetrics struct{}

func (NopMetrics) RecordCacheHit(string) {}
func (NopMetrics) RecordCacheMiss(string) {}
func (NopMetrics) RecordCacheSize(string, int, int) {}
func (NopMetrics) RecordLatency(string, time.Duration) {}
func (NopMetrics) RecordError(string) {}
