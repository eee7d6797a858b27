package symbolcache

import (
	"time"

	"SymDir/internal/domain/models"
)

// Rough per-object overheads used by MemoryUsage. These are estimates of
// struct headers and map/list bookkeeping, not measured values.
const (
	instrumentOverhead = 256
	entryOverhead      = 96
	resultOverhead     = 160
)

// Stats reports hit/miss counters and size/capacity/utilization per cache.
func (l *Layer) Stats() models.CacheStats {
	freq := stat(l.frequent.Len(), l.frequent.Cap(), &l.freqStats)
	sym := stat(l.symbols.Len(), l.symbols.Cap(), &l.symStats)
	search := stat(l.searches.Len(), l.searches.Cap(), &l.searchStats)

	l.metrics.RecordCacheSize(CacheFrequent, freq.Size, freq.Capacity)
	l.metrics.RecordCacheSize(CacheSymbol, sym.Size, sym.Capacity)
	l.metrics.RecordCacheSize(CacheSearch, search.Size, search.Capacity)

	// a symbol lookup that misses the frequent set but hits the LRU counts once, as a hit
	hits := freq.Hits + sym.Hits + search.Hits
	lookups := freq.Hits + sym.Hits + sym.Misses + search.Hits + search.Misses

	out := models.CacheStats{
		FrequentSymbols: freq,
		Symbols:         sym,
		SearchResults:   search,
		HitRate:         percent(hits, lookups),
		Warming:         l.IsWarming(),
	}
	if ns := l.lastWarm.Load(); ns > 0 {
		out.LastWarm = time.Unix(0, ns).UTC()
	}
	return out
}

// MemoryUsage estimates the bytes held by each cache.
func (l *Layer) MemoryUsage() models.MemoryUsage {
	var u models.MemoryUsage

	l.frequent.Range(func(key string, inst models.Instrument) bool {
		u.FrequentSymbolsBytes += int64(len(key)) + entryOverhead + instrumentSize(&inst)
		return true
	})
	l.symbols.Range(func(key string, e symbolEntry) bool {
		u.SymbolsBytes += int64(len(key)) + entryOverhead + instrumentSize(&e.inst)
		return true
	})
	l.searches.Range(func(key string, e searchEntry) bool {
		size := int64(len(key)) + entryOverhead + resultOverhead + int64(len(e.result.Filters.Query))
		for i := range e.result.Symbols {
			size += instrumentSize(&e.result.Symbols[i].Instrument) + 8
		}
		u.SearchResultsBytes += size
		return true
	})

	u.TotalBytes = u.FrequentSymbolsBytes + u.SymbolsBytes + u.SearchResultsBytes
	return u
}

func instrumentSize(i *models.Instrument) int64 {
	return instrumentOverhead + int64(len(i.ID)+len(i.TradingSymbol)+len(i.DisplayName)+
		len(i.CompanyName)+len(i.Sector)+len(i.Underlying)+len(i.Exchange)+len(i.InstrumentType)+len(i.OptionType))
}

func stat(size, capacity int, c *counters) models.CacheStat {
	return models.CacheStat{
		Size:        size,
		Capacity:    capacity,
		Utilization: percent(int64(size), int64(capacity)),
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
	}
}

func percent(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}
