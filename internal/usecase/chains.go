package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"SymDir/internal/domain/models"
	"SymDir/internal/service/ranking"
	"SymDir/internal/service/symbolcache"
	"SymDir/pkg/logger"
)

// SearchByUnderlying lists active instruments of one underlying (exact,
// case-insensitive match), optionally narrowed to a type and an exact expiry.
// Rows follow the derivative tie-break ladder.
func (s *SymbolService) SearchByUnderlying(ctx context.Context, underlying string, instrumentType models.InstrumentType, expiry time.Time) []models.Instrument {
	rows, err := s.fetchUnderlying(ctx, underlying, instrumentType, expiry)
	if err != nil {
		s.log.Error("search by underlying failed",
			logger.String("underlying", underlying),
			logger.String("instrument_type", string(instrumentType)),
			logger.Error(err),
		)
		s.metrics.RecordError("store")
		return []models.Instrument{}
	}
	return rows
}

func (s *SymbolService) fetchUnderlying(ctx context.Context, underlying string, instrumentType models.InstrumentType, expiry time.Time) (rows []models.Instrument, err error) {
	underlying = strings.ToUpper(strings.TrimSpace(underlying))
	if underlying == "" {
		return []models.Instrument{}, nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	q := models.SearchQuery{
		Underlying:     underlying,
		InstrumentType: instrumentType,
		ExpiryFrom:     expiry,
		ExpiryTo:       expiry,
		IsActive:       models.Bool(true),
		Limit:          UnderlyingRowCap,
	}.Canonical(UnderlyingRowCap)
	key := symbolcache.SearchKey(viewUnderlying, q)
	if cached, ok := s.cache.GetSearchResults(key); ok {
		return models.Instruments(cached.Symbols), nil
	}

	v, err, _ := s.flight.Do(key, func() (any, error) {
		start := s.now()
		page, err := s.store.Query(context.WithoutCancel(ctx), q)
		if err != nil {
			return nil, fmt.Errorf("store query: %w", err)
		}
		rows := models.Instruments(page.Instruments)
		ranking.SortInstruments(rows, q.InstrumentType)

		scored := make([]models.ScoredInstrument, len(rows))
		for i := range rows {
			scored[i] = models.ScoredInstrument{Instrument: rows[i], RelevanceScore: 1}
		}
		s.cache.CacheSearchResults(key, &models.SearchResult{
			Symbols: scored,
			Total:   page.Total,
			HasMore: page.HasMore,
			Filters: q,
		})
		s.metrics.RecordLatency("underlying", s.now().Sub(start))
		return rows, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]models.Instrument(nil), v.([]models.Instrument)...), nil
}

// GetOptionChain splits an underlying's options into calls and puts. Without
// an expiry every listed expiry is returned; with one, only that expiry.
func (s *SymbolService) GetOptionChain(ctx context.Context, underlying string, expiry time.Time) *models.OptionChain {
	rows := s.SearchByUnderlying(ctx, underlying, models.InstrumentOption, expiry)

	chain := &models.OptionChain{
		Underlying: strings.ToUpper(strings.TrimSpace(underlying)),
		Calls:      []models.Instrument{},
		Puts:       []models.Instrument{},
	}
	for _, r := range rows {
		switch r.OptionType {
		case models.OptionCall:
			chain.Calls = append(chain.Calls, r)
		case models.OptionPut:
			chain.Puts = append(chain.Puts, r)
		}
	}
	chain.Expiries = distinctExpiries(rows)
	return chain
}

// GetFuturesChain lists an underlying's futures, nearest expiry first.
func (s *SymbolService) GetFuturesChain(ctx context.Context, underlying string) *models.FuturesChain {
	rows := s.SearchByUnderlying(ctx, underlying, models.InstrumentFuture, time.Time{})
	return &models.FuturesChain{
		Underlying: strings.ToUpper(strings.TrimSpace(underlying)),
		Futures:    rows,
		Expiries:   distinctExpiries(rows),
	}
}

// distinctExpiries returns the ascending, de-duplicated expiry dates of rows.
func distinctExpiries(rows []models.Instrument) []string {
	out := make([]string, 0, 8)
	seen := make(map[string]struct{}, 8)
	for i := range rows {
		d := rows[i].Expiry()
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	// YYYY-MM-DD sorts chronologically
	slices.Sort(out)
	return out
}
