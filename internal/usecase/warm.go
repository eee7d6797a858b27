package usecase

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"SymDir/internal/domain/models"
	"SymDir/internal/service/symbolcache"
	"SymDir/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// WarmConfig lists what a warm run pre-loads.
type WarmConfig struct {
	Underlyings []string `yaml:"underlyings"`
	TopEquities int      `yaml:"top_equities" default:"200" validate:"gte=0,lte=1000"`
	Concurrency int      `yaml:"concurrency" default:"4" validate:"gte=1"`
}

// DefaultWarmConfig warms the index underlyings and the top equities.
func DefaultWarmConfig() WarmConfig {
	return WarmConfig{
		Underlyings: []string{"NIFTY", "BANKNIFTY", "FINNIFTY"},
		TopEquities: 200,
		Concurrency: 4,
	}
}

// WarmCache pre-populates the symbol caches with every derivative of the
// configured underlyings and the top active equities. Readers are never
// blocked; a second concurrent call fails with ErrWarmInProgress.
func (s *SymbolService) WarmCache(ctx context.Context) (*models.WarmReport, error) {
	if !s.cache.BeginWarm() {
		return nil, symbolcache.ErrWarmInProgress
	}
	defer s.cache.EndWarm()

	start := s.now()
	var (
		derivatives, equities atomic.Int64
		failed                = make(chan string, len(s.warm.Underlyings)+1)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.warm.Concurrency, 1))

	dispatched := 0
	for _, u := range s.warm.Underlyings {
		u = strings.ToUpper(strings.TrimSpace(u))
		if u == "" {
			continue
		}
		dispatched++
		g.Go(func() error {
			rows, err := s.fetchUnderlying(gctx, u, "", time.Time{})
			if err != nil {
				s.log.Warn("warm underlying failed", logger.String("underlying", u), logger.Error(err))
				failed <- u
				return nil
			}
			for _, r := range rows {
				s.cache.CacheInstrument(r)
			}
			derivatives.Add(int64(len(rows)))
			return nil
		})
	}

	if s.warm.TopEquities > 0 {
		g.Go(func() error {
			page, err := s.store.Query(gctx, models.SearchQuery{
				InstrumentType: models.InstrumentEquity,
				IsActive:       models.Bool(true),
				Limit:          s.warm.TopEquities,
			}.Canonical(UnderlyingRowCap))
			if err != nil {
				s.log.Warn("warm equities failed", logger.Error(err))
				failed <- string(models.InstrumentEquity)
				return nil
			}
			for _, r := range page.Instruments {
				s.cache.CacheInstrument(r.Instrument)
			}
			equities.Add(int64(len(page.Instruments)))
			return nil
		})
	}

	// workers report failures through the channel and never return errors
	_ = g.Wait()
	close(failed)

	report := &models.WarmReport{
		Underlyings: dispatched,
		Derivatives: int(derivatives.Load()),
		Equities:    int(equities.Load()),
		Duration:    s.now().Sub(start),
	}
	for f := range failed {
		report.Failed = append(report.Failed, f)
	}

	s.log.Info("cache warm finished",
		logger.Int("underlyings", report.Underlyings),
		logger.Int("derivatives", report.Derivatives),
		logger.Int("equities", report.Equities),
		logger.Strings("failed", report.Failed),
		logger.Duration("duration_ms", report.Duration),
	)
	s.metrics.RecordLatency("warm", report.Duration)
	return report, nil
}
