package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheSize   *prometheus.GaugeVec
	cacheCap    *prometheus.GaugeVec
	errorsTotal *prometheus.CounterVec
	latency     *prometheus.HistogramVec
}

// New creates a recorder on the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder on reg. Tests pass a fresh registry so
// repeated construction does not panic on duplicate registration.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		cacheHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "symdir_cache_hits_total",
				Help: "Cache lookups that found a fresh entry",
			},
			[]string{"cache"},
		),
		cacheMisses: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "symdir_cache_misses_total",
				Help: "Cache lookups that found nothing or an expired entry",
			},
			[]string{"cache"},
		),
		cacheSize: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "symdir_cache_entries",
				Help: "Current number of entries per cache",
			},
			[]string{"cache"},
		),
		cacheCap: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "symdir_cache_capacity",
				Help: "Configured capacity per cache",
			},
			[]string{"cache"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "symdir_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "symdir_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordCacheHit(cache string) {
	r.cacheHits.WithLabelValues(cache).Inc()
}

func (r *Recorder) RecordCacheMiss(cache string) {
	r.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordCacheSize publishes the current size and capacity of one cache.
func (r *Recorder) RecordCacheSize(cache string, size, capacity int) {
	r.cacheSize.WithLabelValues(cache).Set(float64(size))
	r.cacheCap.WithLabelValues(cache).Set(float64(capacity))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency.
func (r *Recorder) RecordLatency(op string, d time.Duration) {
	r.latency.WithLabelValues(op).Observe(d.Seconds())
}
