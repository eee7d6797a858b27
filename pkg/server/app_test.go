package server

import (
	"context"
	"testing"
	"time"

	"SymDir/internal/domain/models"
	"SymDir/internal/handler/api"
	"SymDir/internal/repository"
	"SymDir/internal/service/symbolcache"
	"SymDir/internal/usecase"
	"SymDir/pkg/config"
	xhttp "SymDir/pkg/http"
	"SymDir/pkg/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService() (*usecase.SymbolService, *symbolcache.Layer) {
	store := repository.NewMemoryStore(
		models.Instrument{ID: "1", TradingSymbol: "RELIANCE", InstrumentType: models.InstrumentEquity, Exchange: models.ExchangeNSE, IsActive: true},
		models.Instrument{ID: "2", TradingSymbol: "TCS", InstrumentType: models.InstrumentEquity, Exchange: models.ExchangeNSE, IsActive: true},
	)
	cache := symbolcache.New(symbolcache.Config{})
	svc := usecase.NewSymbolService(store, cache, usecase.WithWarmConfig(usecase.WarmConfig{TopEquities: 10, Concurrency: 1}))
	return svc, cache
}

func TestRunContextWarmsAndShutsDown(t *testing.T) {
	cfg, err := config.Parse([]byte("environment: test\n"))
	require.NoError(t, err)
	cfg.Server.ShutdownTimeout = 2 * time.Second

	svc, cache := testService()
	inv := usecase.NewInvalidationHandler(svc, repository.NopBroadcaster{}, "test", nil, nil)
	srv := xhttp.NewServer(api.NewSymbolsHandler(nil, svc, inv, nil),
		xhttp.WithHost("127.0.0.1"),
		xhttp.WithPort(0),
		xhttp.WithMetrics("", nil, nil),
	)
	app := New(cfg, nil, srv, scheduler.New(nil), svc, inv)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.RunContext(ctx) }()

	require.Eventually(t, func() bool {
		return !cache.Stats().LastWarm.IsZero()
	}, 2*time.Second, 10*time.Millisecond)

	_, ok := cache.GetSymbol("sym:RELIANCE")
	assert.True(t, ok)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not shut down")
	}
}

func TestWarmJobSkipsWhenAlreadyWarming(t *testing.T) {
	svc, cache := testService()
	require.True(t, cache.BeginWarm())
	defer cache.EndWarm()

	job := WarmJob(svc, nil)
	assert.Equal(t, "cache_warm", job.Name())
	assert.NoError(t, job.Run(context.Background()))
}

func TestStatsJob(t *testing.T) {
	svc, _ := testService()
	assert.NoError(t, StatsJob(svc, nil).Run(context.Background()))
}
