// Package symbolcache is the in-process cache tier in front of the
// instrument store: a hot frequent-symbols set, a symbol LRU and a
// search-result LRU, each with its own TTL and invalidation rules.
package symbolcache

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"SymDir/internal/domain/models"
	"SymDir/internal/domain/repository"
	pkgcache "SymDir/pkg/cache"
	"SymDir/pkg/logger"
)

// Cache names used for metrics labels.
const (
	CacheFrequent = "frequent"
	CacheSymbol   = "symbol"
	CacheSearch   = "search"
)

var ErrWarmInProgress = errors.New("cache warm already in progress")

// Config sizes the cache tiers.
type Config struct {
	FrequentCapacity int           `yaml:"frequent_capacity" default:"500" validate:"gte=1"`
	FrequentPolicy   string        `yaml:"frequent_policy" default:"fixed" validate:"oneof=fixed lru"`
	SymbolCapacity   int           `yaml:"symbol_capacity" default:"10000" validate:"gte=1"`
	SymbolTTL        time.Duration `yaml:"symbol_ttl" default:"30m"`
	SearchCapacity   int           `yaml:"search_capacity" default:"1000" validate:"gte=1"`
	SearchTTL        time.Duration `yaml:"search_ttl" default:"5m"`
}

// DefaultConfig returns the production tier sizes and TTLs.
func DefaultConfig() Config {
	return Config{
		FrequentCapacity: 500,
		FrequentPolicy:   PolicyFixed,
		SymbolCapacity:   10000,
		SymbolTTL:        30 * time.Minute,
		SearchCapacity:   1000,
		SearchTTL:        5 * time.Minute,
	}
}

type symbolEntry struct {
	inst     models.Instrument
	cachedAt time.Time
}

type searchEntry struct {
	result   *models.SearchResult
	cachedAt time.Time
}

type counters struct {
	hits, misses atomic.Int64
}

// Layer composes the three caches. Every method is safe for concurrent use
// and never blocks on I/O.
type Layer struct {
	cfg      Config
	now      func() time.Time
	log      *logger.Logger
	metrics  repository.Metrics
	frequent frequentSet
	symbols  *pkgcache.LRU[symbolEntry]
	searches *pkgcache.LRU[searchEntry]

	freqStats, symStats, searchStats counters

	warming  atomic.Bool
	lastWarm atomic.Int64
}

// Option configures a Layer.
type Option func(*Layer)

// WithClock replaces time.Now, for TTL tests.
func WithClock(now func() time.Time) Option {
	return func(l *Layer) { l.now = now }
}

func WithLogger(lg *logger.Logger) Option {
	return func(l *Layer) {
		if lg != nil {
			l.log = lg
		}
	}
}

func WithMetrics(m repository.Metrics) Option {
	return func(l *Layer) {
		if m != nil {
			l.metrics = m
		}
	}
}

// New creates a cache layer. Zero config values fall back to DefaultConfig.
func New(cfg Config, opts ...Option) *Layer {
	def := DefaultConfig()
	if cfg.FrequentCapacity <= 0 {
		cfg.FrequentCapacity = def.FrequentCapacity
	}
	if cfg.FrequentPolicy == "" {
		cfg.FrequentPolicy = def.FrequentPolicy
	}
	if cfg.SymbolCapacity <= 0 {
		cfg.SymbolCapacity = def.SymbolCapacity
	}
	if cfg.SymbolTTL <= 0 {
		cfg.SymbolTTL = def.SymbolTTL
	}
	if cfg.SearchCapacity <= 0 {
		cfg.SearchCapacity = def.SearchCapacity
	}
	if cfg.SearchTTL <= 0 {
		cfg.SearchTTL = def.SearchTTL
	}

	l := &Layer{
		cfg:      cfg,
		now:      time.Now,
		log:      logger.Nop(),
		metrics:  repository.NopMetrics{},
		frequent: newFrequentSet(cfg.FrequentPolicy, cfg.FrequentCapacity),
		symbols:  pkgcache.NewLRU[symbolEntry](cfg.SymbolCapacity),
		searches: pkgcache.NewLRU[searchEntry](cfg.SearchCapacity),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Config returns the effective configuration.
func (l *Layer) Config() Config { return l.cfg }

// GetSymbol checks the frequent set (no TTL) and then the symbol LRU.
func (l *Layer) GetSymbol(key string) (models.Instrument, bool) {
	if inst, ok := l.frequent.Get(key); ok {
		l.hit(&l.freqStats, CacheFrequent)
		return inst, true
	}
	l.miss(&l.freqStats, CacheFrequent)

	e, ok := l.symbols.Get(key)
	if ok && l.now().Sub(e.cachedAt) < l.cfg.SymbolTTL {
		l.hit(&l.symStats, CacheSymbol)
		return e.inst, true
	}
	if ok {
		l.symbols.Delete(key)
	}
	l.miss(&l.symStats, CacheSymbol)
	return models.Instrument{}, false
}

// CacheSymbol writes through to the symbol LRU and offers the entry to the
// frequent set.
func (l *Layer) CacheSymbol(key string, inst models.Instrument) {
	l.symbols.Put(key, symbolEntry{inst: inst, cachedAt: l.now()})
	l.frequent.Offer(key, inst)
}

// CacheInstrument stores inst under every key that can address it.
// The bare symbol key keeps the row from the preferred exchange, so bulk
// loads in any order resolve RELIANCE to NSE ahead of BSE.
func (l *Layer) CacheInstrument(inst models.Instrument) {
	bare := pkgcache.GenerateKey(symbolPrefix, strings.ToUpper(strings.TrimSpace(inst.TradingSymbol)))
	for _, key := range keyVariants(models.KeyOf(&inst)) {
		if key == bare && l.holdsPreferred(key, &inst) {
			continue
		}
		l.CacheSymbol(key, inst)
	}
}

func (l *Layer) holdsPreferred(key string, inst *models.Instrument) bool {
	cur, ok := l.frequent.Peek(key)
	if !ok {
		e, found := l.symbols.Peek(key)
		if !found || l.now().Sub(e.cachedAt) >= l.cfg.SymbolTTL {
			return false
		}
		cur = e.inst
	}
	return cur.ID != inst.ID && cur.Exchange.Preference() < inst.Exchange.Preference()
}

// GetSearchResults returns a copy of a fresh cached result.
func (l *Layer) GetSearchResults(key string) (*models.SearchResult, bool) {
	e, ok := l.searches.Get(key)
	if ok && l.now().Sub(e.cachedAt) < l.cfg.SearchTTL {
		l.hit(&l.searchStats, CacheSearch)
		return e.result.Clone(), true
	}
	if ok {
		l.searches.Delete(key)
	}
	l.miss(&l.searchStats, CacheSearch)
	return nil, false
}

// CacheSearchResults stores a copy of result under key.
func (l *Layer) CacheSearchResults(key string, result *models.SearchResult) {
	if result == nil {
		return
	}
	l.searches.Put(key, searchEntry{result: result.Clone(), cachedAt: l.now()})
}

// InvalidateSymbol drops every key variant that may address the instrument,
// including variants learned from a cached copy, and flushes the search
// cache. Calling it for an unknown symbol is a no-op apart from the flush.
func (l *Layer) InvalidateSymbol(id, tradingSymbol string, exchange models.Exchange) {
	k := models.SymbolKey{ID: id, TradingSymbol: tradingSymbol, Exchange: exchange}.Normalize()

	keys := keyVariants(k)
	for _, key := range keys {
		if e, ok := l.symbols.Peek(key); ok {
			keys = append(keys, keyVariants(models.KeyOf(&e.inst))...)
		}
		if inst, ok := l.frequent.Peek(key); ok {
			keys = append(keys, keyVariants(models.KeyOf(&inst))...)
		}
	}
	for _, key := range keys {
		l.symbols.Delete(key)
		l.frequent.Delete(key)
	}

	if k.TradingSymbol != "" && k.Exchange == "" {
		prefix := symbolKeyPrefix(k.TradingSymbol)
		for _, key := range l.symbols.Keys() {
			if strings.HasPrefix(key, prefix) {
				l.symbols.Delete(key)
			}
		}
		l.frequent.DeletePrefix(prefix)
	}

	l.searches.Clear()
	l.log.Debug("symbol invalidated",
		logger.String("id", k.ID),
		logger.String("trading_symbol", k.TradingSymbol),
		logger.String("exchange", string(k.Exchange)),
	)
}

// InvalidateAll empties all three caches.
func (l *Layer) InvalidateAll() {
	l.frequent.Clear()
	l.symbols.Clear()
	l.searches.Clear()
	l.log.Debug("all caches invalidated")
}

// ClearSearchCache empties only the search-result cache.
func (l *Layer) ClearSearchCache() {
	l.searches.Clear()
}

// BeginWarm claims the warm slot. It reports false when a warm is running.
func (l *Layer) BeginWarm() bool {
	return l.warming.CompareAndSwap(false, true)
}

// EndWarm releases the warm slot and stamps the completion time.
func (l *Layer) EndWarm() {
	l.lastWarm.Store(l.now().UnixNano())
	l.warming.Store(false)
}

// IsWarming reports whether a warm holds the slot.
func (l *Layer) IsWarming() bool { return l.warming.Load() }

func (l *Layer) hit(c *counters, name string) {
	c.hits.Add(1)
	l.metrics.RecordCacheHit(name)
}

func (l *Layer) miss(c *counters, name string) {
	c.misses.Add(1)
	l.metrics.RecordCacheMiss(name)
}
