package models

import "time"

// CacheStat describes one cache tier.
type CacheStat struct {
	Size        int     `json:"size"`
	Capacity    int     `json:"capacity"`
	Utilization float64 `json:"utilization"` // percent
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
}

// CacheStats aggregates every tier.
type CacheStats struct {
	FrequentSymbols CacheStat `json:"frequentSymbols"`
	Symbols         CacheStat `json:"symbols"`
	SearchResults   CacheStat `json:"searchResults"`
	HitRate         float64   `json:"hitRate"` // percent across all lookups
	Warming         bool      `json:"warming"`
	LastWarm        time.Time `json:"lastWarm,omitempty"`
}

// MemoryUsage is an estimate in bytes.
type MemoryUsage struct {
	FrequentSymbolsBytes int64 `json:"frequentSymbolsBytes"`
	SymbolsBytes         int64 `json:"symbolsBytes"`
	SearchResultsBytes   int64 `json:"searchResultsBytes"`
	TotalBytes           int64 `json:"totalBytes"`
}

// WarmReport summarises one warm run.
type WarmReport struct {
	Underlyings int           `json:"underlyings"`
	Derivatives int           `json:"derivatives"`
	Equities    int           `json:"equities"`
	Failed      []string      `json:"failed,omitempty"`
	Duration    time.Duration `json:"duration"`
}
