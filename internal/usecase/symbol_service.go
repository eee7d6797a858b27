package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"SymDir/internal/domain/models"
	domrepo "SymDir/internal/domain/repository"
	"SymDir/internal/service/ranking"
	"SymDir/internal/service/symbolcache"
	"SymDir/pkg/logger"

	"golang.org/x/sync/singleflight"
)

const (
	viewPage       = "page"
	viewUnderlying = "underlying"

	quickSearchMinLen  = 2
	quickSearchDefault = 10
	quickSearchWindow  = 20
	suggestionsDefault = 5
	popularDefault     = 10

	// UnderlyingRowCap bounds every by-underlying listing.
	UnderlyingRowCap = 1000
)

// SymbolService answers symbol searches through the cache layer, falling back
// to the instrument store on a miss. Search operations never return errors:
// store failures are logged and degrade to empty results.
type SymbolService struct {
	store   domrepo.InstrumentStore
	cache   *symbolcache.Layer
	metrics domrepo.Metrics
	log     *logger.Logger
	now     func() time.Time
	warm    WarmConfig
	flight  singleflight.Group
}

// Option configures a SymbolService.
type Option func(*SymbolService)

func WithLogger(l *logger.Logger) Option {
	return func(s *SymbolService) {
		if l != nil {
			s.log = l
		}
	}
}

func WithMetrics(m domrepo.Metrics) Option {
	return func(s *SymbolService) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *SymbolService) { s.now = now }
}

// WithWarmConfig replaces the default warm targets.
func WithWarmConfig(c WarmConfig) Option {
	return func(s *SymbolService) { s.warm = c }
}

// NewSymbolService builds the orchestrator over a store and a cache layer.
func NewSymbolService(store domrepo.InstrumentStore, cache *symbolcache.Layer, opts ...Option) *SymbolService {
	s := &SymbolService{
		store:   store,
		cache:   cache,
		metrics: domrepo.NopMetrics{},
		log:     logger.Nop(),
		now:     time.Now,
		warm:    DefaultWarmConfig(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("symbol_service")
	return s
}

// SearchSymbols runs a structured search. Free text is fuzzy-ranked; filter-only
// queries keep the store's scores. Identical concurrent misses share one store call.
func (s *SymbolService) SearchSymbols(ctx context.Context, q models.SearchQuery) (res *models.SearchResult) {
	start := s.now()
	q = q.Canonical(models.MaxSearchLimit)

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("search panic recovered", logger.Any("panic", r), logger.String("query", q.Query))
			s.metrics.RecordError("search_panic")
			res = emptyResult(q)
		}
		res.SearchTime = max(s.now().Sub(start), 0)
		s.metrics.RecordLatency("search", res.SearchTime)
	}()

	key := symbolcache.SearchKey(viewPage, q)
	if cached, ok := s.cache.GetSearchResults(key); ok {
		cached.Cached = true
		return cached
	}

	// The shared call outlives any one caller; a cancelled leader must not
	// fail the requests joined to it.
	v, err, _ := s.flight.Do(key, func() (any, error) {
		return s.searchStore(context.WithoutCancel(ctx), q, key)
	})
	if err != nil {
		s.log.Error("search failed",
			logger.String("query", q.Query),
			logger.String("underlying", q.Underlying),
			logger.Error(err),
		)
		s.metrics.RecordError("store")
		return emptyResult(q)
	}
	return v.(*models.SearchResult).Clone()
}

func (s *SymbolService) searchStore(ctx context.Context, q models.SearchQuery, key string) (*models.SearchResult, error) {
	page, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("store query: %w", err)
	}

	var rows []models.ScoredInstrument
	if q.Query != "" {
		rows = ranking.Rank(q.Query, page.Instruments)
	} else {
		rows = ranking.WithBaseline(page.Instruments)
	}
	ranking.Sort(rows, ranking.SortOptions{By: q.SortBy, Order: q.SortOrder, Context: q.InstrumentType})

	res := &models.SearchResult{
		Symbols: rows,
		Total:   page.Total,
		HasMore: page.HasMore,
		Filters: q,
	}
	s.cache.CacheSearchResults(key, res)
	return res, nil
}

func emptyResult(q models.SearchQuery) *models.SearchResult {
	return &models.SearchResult{Symbols: []models.ScoredInstrument{}, Filters: q}
}

// QuickSearch returns the best matches for short autocomplete-style text.
// Text shorter than two characters yields nothing.
func (s *SymbolService) QuickSearch(ctx context.Context, text string, limit int) []models.ScoredInstrument {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < quickSearchMinLen {
		return []models.ScoredInstrument{}
	}
	if limit <= 0 {
		limit = quickSearchDefault
	}
	limit = min(limit, models.MaxSearchLimit)

	res := s.SearchSymbols(ctx, models.SearchQuery{
		Query:  text,
		Limit:  min(models.MaxSearchLimit, max(2*limit, quickSearchWindow)),
		SortBy: models.SortByRelevance,
	})
	rows := res.Symbols
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// GetSearchSuggestions collects up to limit distinct symbol, display-name and
// company-name strings that literally contain partial.
func (s *SymbolService) GetSearchSuggestions(ctx context.Context, partial string, limit int) []string {
	if limit <= 0 {
		limit = suggestionsDefault
	}
	partial = strings.TrimSpace(partial)
	needle := strings.ToLower(partial)

	out := make([]string, 0, limit)
	seen := make(map[string]struct{}, limit)
	for _, r := range s.QuickSearch(ctx, partial, 2*limit) {
		for _, cand := range []string{r.TradingSymbol, r.DisplayName, r.CompanyName} {
			if cand == "" || !strings.Contains(strings.ToLower(cand), needle) {
				continue
			}
			if _, dup := seen[cand]; dup {
				continue
			}
			seen[cand] = struct{}{}
			out = append(out, cand)
			if len(out) == limit {
				return out
			}
		}
	}
	return out
}

// GetPopularSymbols passes straight through to the store for active
// instruments. There is no popularity signal behind it yet.
func (s *SymbolService) GetPopularSymbols(ctx context.Context, instrumentType models.InstrumentType, limit int) []models.Instrument {
	if limit <= 0 {
		limit = popularDefault
	}
	page, err := s.store.Query(ctx, models.SearchQuery{
		InstrumentType: instrumentType,
		IsActive:       models.Bool(true),
		Limit:          min(limit, models.MaxSearchLimit),
	})
	if err != nil {
		s.log.Error("popular symbols failed", logger.String("instrument_type", string(instrumentType)), logger.Error(err))
		s.metrics.RecordError("store")
		return []models.Instrument{}
	}
	return models.Instruments(page.Instruments)
}

// GetSymbol resolves one instrument by id, symbol+exchange or symbol, reading
// through the symbol caches. A key with no identifying field is an
// ErrInvalidInput; an unknown symbol is (nil, nil).
func (s *SymbolService) GetSymbol(ctx context.Context, k models.SymbolKey) (*models.Instrument, error) {
	k = k.Normalize()
	key, err := symbolcache.SymbolKey(k)
	if err != nil {
		return nil, err
	}
	if inst, ok := s.cache.GetSymbol(key); ok {
		return &inst, nil
	}

	v, err, _ := s.flight.Do(key, func() (any, error) {
		page, err := s.store.Query(context.WithoutCancel(ctx), models.SearchQuery{
			ID:            k.ID,
			TradingSymbol: k.TradingSymbol,
			Exchange:      k.Exchange,
			Limit:         10,
		})
		if err != nil {
			return nil, err
		}
		rows := models.Instruments(page.Instruments)
		if len(rows) == 0 {
			return (*models.Instrument)(nil), nil
		}
		ranking.SortInstruments(rows, "")
		inst := rows[0]
		s.cache.CacheInstrument(inst)
		s.cache.CacheSymbol(key, inst)
		return &inst, nil
	})
	if err != nil {
		s.log.Error("get symbol failed", logger.String("key", key), logger.Error(err))
		s.metrics.RecordError("store")
		return nil, nil
	}
	inst := v.(*models.Instrument)
	if inst == nil {
		return nil, nil
	}
	cp := *inst
	return &cp, nil
}

// InvalidateSymbol drops every cached form of one instrument and the search cache.
func (s *SymbolService) InvalidateSymbol(id, tradingSymbol string, exchange models.Exchange) {
	s.cache.InvalidateSymbol(id, tradingSymbol, exchange)
}

// InvalidateAll empties every cache tier.
func (s *SymbolService) InvalidateAll() { s.cache.InvalidateAll() }

// ClearSearchCache drops cached search results and keeps symbols.
func (s *SymbolService) ClearSearchCache() { s.cache.ClearSearchCache() }

// Stats reports per-tier sizes and hit rates.
func (s *SymbolService) Stats() models.CacheStats { return s.cache.Stats() }

// MemoryUsage estimates the bytes held by each tier.
func (s *SymbolService) MemoryUsage() models.MemoryUsage { return s.cache.MemoryUsage() }
