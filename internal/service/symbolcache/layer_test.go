package symbolcache

import (
	"errors"
	"sync"
	"testing"
	"time"

	"SymDir/internal/domain/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 10, 9, 15, 0, 0, time.UTC)}
}

func inst(id, symbol string, ex models.Exchange) models.Instrument {
	return models.Instrument{
		ID:             id,
		TradingSymbol:  symbol,
		DisplayName:    symbol,
		InstrumentType: models.InstrumentEquity,
		Exchange:       ex,
		IsActive:       true,
	}
}

func TestSymbolKeyPriority(t *testing.T) {
	k, err := SymbolKey(models.SymbolKey{ID: "42", TradingSymbol: "tcs", Exchange: "nse"})
	require.NoError(t, err)
	assert.Equal(t, "id:42", k)

	k, err = SymbolKey(models.SymbolKey{TradingSymbol: " tcs ", Exchange: "nse"})
	require.NoError(t, err)
	assert.Equal(t, "sym:TCS:NSE", k)

	k, err = SymbolKey(models.SymbolKey{TradingSymbol: "tcs"})
	require.NoError(t, err)
	assert.Equal(t, "sym:TCS", k)

	_, err = SymbolKey(models.SymbolKey{Exchange: "NSE"})
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
	var ie *models.InvalidInputError
	assert.True(t, errors.As(err, &ie))
}

func TestSearchKeyDeterministic(t *testing.T) {
	a := models.SearchQuery{Query: "Rel", InstrumentType: models.InstrumentEquity}
	b := models.SearchQuery{
		InstrumentType: "equity",
		Query:          "  rel ",
		IsActive:       models.Bool(true),
		Limit:          50,
		SortBy:         models.SortByRelevance,
		SortOrder:      models.SortDesc,
	}
	assert.Equal(t, SearchKey("page", a), SearchKey("page", b))

	c := a
	c.IsActive = models.Bool(false)
	assert.NotEqual(t, SearchKey("page", a), SearchKey("page", c))

	d := a
	d.StrikeMin = decimal.NewNullDecimal(decimal.NewFromInt(100))
	assert.NotEqual(t, SearchKey("page", a), SearchKey("page", d))

	assert.NotEqual(t, SearchKey("page", a), SearchKey("underlying", a))
}

func TestGetSymbolTTL(t *testing.T) {
	clock := newClock()
	l := New(Config{FrequentCapacity: 1}, WithClock(clock.Now))

	// fill the frequent tier so the next symbol lives only in the TTL-bound LRU
	l.CacheSymbol("sym:HOT", inst("1", "HOT", models.ExchangeNSE))
	l.CacheSymbol("sym:TCS", inst("2", "TCS", models.ExchangeNSE))

	clock.Advance(29 * time.Minute)
	_, ok := l.GetSymbol("sym:TCS")
	assert.True(t, ok, "hit before TTL")

	clock.Advance(2 * time.Minute)
	_, ok = l.GetSymbol("sym:TCS")
	assert.False(t, ok, "miss after TTL")

	// the frequent tier never expires
	_, ok = l.GetSymbol("sym:HOT")
	assert.True(t, ok)
}

func TestFrequentFixedPolicyNeverReplaces(t *testing.T) {
	l := New(Config{FrequentCapacity: 2, SymbolCapacity: 1})
	l.CacheSymbol("a", inst("a", "A", models.ExchangeNSE))
	l.CacheSymbol("b", inst("b", "B", models.ExchangeNSE))
	l.CacheSymbol("c", inst("c", "C", models.ExchangeNSE))

	_, okA := l.GetSymbol("a")
	_, okB := l.GetSymbol("b")
	assert.True(t, okA)
	assert.True(t, okB)

	// c lives only in the one-slot LRU
	assert.Equal(t, 2, l.Stats().FrequentSymbols.Size)

	// refreshing an admitted key updates it in place
	updated := inst("a", "A", models.ExchangeNSE)
	updated.DisplayName = "Alpha"
	l.CacheSymbol("a", updated)
	got, _ := l.GetSymbol("a")
	assert.Equal(t, "Alpha", got.DisplayName)
}

func TestFrequentLRUPolicyReplaces(t *testing.T) {
	l := New(Config{FrequentCapacity: 2, FrequentPolicy: PolicyLRU, SymbolCapacity: 1})
	l.CacheSymbol("a", inst("a", "A", models.ExchangeNSE))
	l.CacheSymbol("b", inst("b", "B", models.ExchangeNSE))
	l.CacheSymbol("c", inst("c", "C", models.ExchangeNSE))

	_, okA := l.GetSymbol("a")
	_, okC := l.GetSymbol("c")
	assert.False(t, okA)
	assert.True(t, okC)
}

func TestSearchResultsTTLAndCopy(t *testing.T) {
	clock := newClock()
	l := New(Config{}, WithClock(clock.Now))
	key := SearchKey("page", models.SearchQuery{Query: "nifty"})

	res := &models.SearchResult{
		Symbols: []models.ScoredInstrument{{Instrument: inst("1", "NIFTY", models.ExchangeNSE), RelevanceScore: 200}},
		Total:   1,
	}
	l.CacheSearchResults(key, res)
	res.Symbols[0].RelevanceScore = -1 // caller mutation after caching

	got, ok := l.GetSearchResults(key)
	require.True(t, ok)
	assert.Equal(t, float64(200), got.Symbols[0].RelevanceScore)

	got.Symbols[0].TradingSymbol = "MUTATED"
	again, _ := l.GetSearchResults(key)
	assert.Equal(t, "NIFTY", again.Symbols[0].TradingSymbol)

	clock.Advance(5 * time.Minute)
	_, ok = l.GetSearchResults(key)
	assert.False(t, ok)
}

func TestInvalidateSymbolRemovesAllVariants(t *testing.T) {
	l := New(Config{})
	tcs := inst("7", "TCS", models.ExchangeNSE)
	l.CacheInstrument(tcs)
	l.CacheSearchResults("search:x", &models.SearchResult{})

	for _, k := range []string{"id:7", "sym:TCS:NSE", "sym:TCS"} {
		_, ok := l.GetSymbol(k)
		require.True(t, ok, k)
	}

	// only the id is known to the caller; the symbol variants come from the cached copy
	l.InvalidateSymbol("7", "", "")

	for _, k := range []string{"id:7", "sym:TCS:NSE", "sym:TCS"} {
		_, ok := l.GetSymbol(k)
		assert.False(t, ok, k)
	}
	_, ok := l.GetSearchResults("search:x")
	assert.False(t, ok)
}

func TestInvalidateBySymbolWithoutExchange(t *testing.T) {
	l := New(Config{})
	l.CacheSymbol("sym:INFY:NSE", inst("", "INFY", models.ExchangeNSE))
	l.CacheSymbol("sym:INFY:BSE", inst("", "INFY", models.ExchangeBSE))
	l.CacheSymbol("sym:INFYX:NSE", inst("", "INFYX", models.ExchangeNSE))

	l.InvalidateSymbol("", "infy", "")

	_, ok := l.GetSymbol("sym:INFY:NSE")
	assert.False(t, ok)
	_, ok = l.GetSymbol("sym:INFY:BSE")
	assert.False(t, ok)
	_, ok = l.GetSymbol("sym:INFYX:NSE")
	assert.True(t, ok)
}

func TestInvalidationIsIdempotent(t *testing.T) {
	l := New(Config{})
	assert.NotPanics(t, func() {
		l.InvalidateSymbol("1", "A", models.ExchangeNSE)
		l.InvalidateSymbol("1", "A", models.ExchangeNSE)
		l.InvalidateAll()
		l.InvalidateAll()
		l.ClearSearchCache()
	})
	s := l.Stats()
	assert.Zero(t, s.Symbols.Size)
	assert.Zero(t, s.FrequentSymbols.Size)
	assert.Zero(t, s.SearchResults.Size)
}

func TestClearSearchCacheKeepsSymbols(t *testing.T) {
	l := New(Config{})
	l.CacheSymbol("sym:A", inst("", "A", models.ExchangeNSE))
	l.CacheSearchResults("search:a", &models.SearchResult{})

	l.ClearSearchCache()

	_, ok := l.GetSymbol("sym:A")
	assert.True(t, ok)
	_, ok = l.GetSearchResults("search:a")
	assert.False(t, ok)
}

func TestStatsAndMemoryUsage(t *testing.T) {
	l := New(Config{FrequentCapacity: 1, SymbolCapacity: 4, SearchCapacity: 2})
	l.CacheSymbol("sym:A", inst("", "A", models.ExchangeNSE))
	l.CacheSymbol("sym:B", inst("", "B", models.ExchangeNSE))
	l.GetSymbol("sym:A")       // frequent hit
	l.GetSymbol("sym:B")       // LRU hit
	l.GetSymbol("sym:MISSING") // miss
	l.GetSearchResults("search:none")

	s := l.Stats()
	assert.Equal(t, 1, s.FrequentSymbols.Size)
	assert.Equal(t, float64(100), s.FrequentSymbols.Utilization)
	assert.Equal(t, 2, s.Symbols.Size)
	assert.Equal(t, float64(50), s.Symbols.Utilization)
	assert.EqualValues(t, 1, s.FrequentSymbols.Hits)
	assert.EqualValues(t, 1, s.Symbols.Hits)
	assert.EqualValues(t, 1, s.Symbols.Misses)
	assert.EqualValues(t, 1, s.SearchResults.Misses)
	assert.InDelta(t, 50.0, s.HitRate, 0.001)

	m := l.MemoryUsage()
	assert.Positive(t, m.FrequentSymbolsBytes)
	assert.Positive(t, m.SymbolsBytes)
	assert.Zero(t, m.SearchResultsBytes)
	assert.Equal(t, m.FrequentSymbolsBytes+m.SymbolsBytes, m.TotalBytes)
}

func TestWarmFlag(t *testing.T) {
	clock := newClock()
	l := New(Config{}, WithClock(clock.Now))
	require.True(t, l.BeginWarm())
	assert.False(t, l.BeginWarm())
	assert.True(t, l.Stats().Warming)

	l.EndWarm()
	assert.False(t, l.IsWarming())
	assert.True(t, clock.Now().Equal(l.Stats().LastWarm))
	assert.True(t, l.BeginWarm())
}

func TestConcurrentReadsAndInvalidation(t *testing.T) {
	l := New(Config{SymbolCapacity: 50})
	var wg sync.WaitGroup
	for g := 0; g < 6; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 300; i++ {
				sym := string(rune('A' + (i+g)%26))
				l.CacheInstrument(inst(sym, sym, models.ExchangeNSE))
				l.GetSymbol("sym:" + sym)
				if i%40 == 0 {
					l.InvalidateSymbol(sym, sym, models.ExchangeNSE)
				}
				if i%97 == 0 {
					l.InvalidateAll()
				}
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, l.Stats().Symbols.Size, 50)
}

func TestCacheInstrumentKeepsPreferredExchangeOnBareKey(t *testing.T) {
	l := New(Config{})
	l.CacheInstrument(inst("1", "RELIANCE", models.ExchangeNSE))
	l.CacheInstrument(inst("2", "RELIANCE", models.ExchangeBSE))

	got, ok := l.GetSymbol("sym:RELIANCE")
	require.True(t, ok)
	assert.Equal(t, models.ExchangeNSE, got.Exchange)

	got, ok = l.GetSymbol("sym:RELIANCE:BSE")
	require.True(t, ok)
	assert.Equal(t, "2", got.ID)

	// a preferred row arriving later takes over
	l2 := New(Config{})
	l2.CacheInstrument(inst("2", "RELIANCE", models.ExchangeBSE))
	l2.CacheInstrument(inst("1", "RELIANCE", models.ExchangeNSE))
	got, _ = l2.GetSymbol("sym:RELIANCE")
	assert.Equal(t, models.ExchangeNSE, got.Exchange)
}
