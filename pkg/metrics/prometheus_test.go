package metrics

import (
	"testing"
	"time"

	"SymDir/internal/domain/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ repository.Metrics = (*Recorder)(nil)

func TestRecorderCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegisterer(reg)

	r.RecordCacheHit("symbol")
	r.RecordCacheHit("symbol")
	r.RecordCacheMiss("search")
	r.RecordError("store")
	r.RecordCacheSize("frequent", 12, 500)
	r.RecordLatency("search", 3*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(r.cacheHits.WithLabelValues("symbol")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.cacheMisses.WithLabelValues("search")))
	assert.Equal(t, float64(1), testutil.ToFloat64(r.errorsTotal.WithLabelValues("store")))
	assert.Equal(t, float64(12), testutil.ToFloat64(r.cacheSize.WithLabelValues("frequent")))
	assert.Equal(t, float64(500), testutil.ToFloat64(r.cacheCap.WithLabelValues("frequent")))

	n, err := testutil.GatherAndCount(reg, "symdir_operation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecorderSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewWithRegisterer(prometheus.NewRegistry())
		NewWithRegisterer(prometheus.NewRegistry())
	})
}
