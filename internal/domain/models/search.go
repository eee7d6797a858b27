package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SortField names a result ordering.
type SortField string

const (
	SortByRelevance SortField = "relevance"
	SortByName      SortField = "name"
	SortBySymbol    SortField = "symbol"
	SortByExpiry    SortField = "expiry"
	SortByStrike    SortField = "strike"
)

func (f SortField) Valid() bool {
	switch f {
	case SortByRelevance, SortByName, SortBySymbol, SortByExpiry, SortByStrike:
		return true
	}
	return false
}

// SortOrder is asc or desc.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 100
)

// SearchQuery is a structured instrument query. Zero values mean "no filter"
// except IsActive, where nil means the default (active only).
type SearchQuery struct {
	Query          string              `json:"query,omitempty"`
	ID             string              `json:"id,omitempty"`
	TradingSymbol  string              `json:"tradingSymbol,omitempty"` // exact match
	InstrumentType InstrumentType      `json:"instrumentType,omitempty"`
	Exchange       Exchange            `json:"exchange,omitempty"`
	Underlying     string              `json:"underlying,omitempty"` // exact match, case-normalized
	StrikeMin      decimal.NullDecimal `json:"strikeMin"`
	StrikeMax      decimal.NullDecimal `json:"strikeMax"`
	ExpiryFrom     time.Time           `json:"expiryFrom"`
	ExpiryTo       time.Time           `json:"expiryTo"`
	OptionType     OptionType          `json:"optionType,omitempty"`
	IsActive       *bool               `json:"isActive,omitempty"`
	Limit          int                 `json:"limit"`
	Offset         int                 `json:"offset"`
	SortBy         SortField           `json:"sortBy,omitempty"`
	SortOrder      SortOrder           `json:"sortOrder,omitempty"`
}

// ActiveOnly resolves the IsActive filter, defaulting to true.
func (q *SearchQuery) ActiveOnly() bool {
	return q.IsActive == nil || *q.IsActive
}

// Bool returns a pointer to b, for optional query fields.
func Bool(b bool) *bool { return &b }

// DefaultSortOrder is descending for relevance and ascending for every other key.
func DefaultSortOrder(f SortField) SortOrder {
	if f == SortByRelevance || f == "" {
		return SortDesc
	}
	return SortAsc
}

// StoreResult is a page of instruments from the backing store. RelevanceScore
// on each row is the store's provisional score.
type StoreResult struct {
	Instruments []ScoredInstrument
	Total       int
	HasMore     bool
}

// SearchResult is the response of a symbol search.
type SearchResult struct {
	Symbols    []ScoredInstrument `json:"symbols"`
	Total      int                `json:"total"`
	HasMore    bool               `json:"hasMore"`
	SearchTime time.Duration      `json:"searchTime"`
	Filters    SearchQuery        `json:"filters"`
	Cached     bool               `json:"cached"`
}

// Clone copies the row slice so callers cannot mutate a cached result.
func (r *SearchResult) Clone() *SearchResult {
	cp := *r
	cp.Symbols = append([]ScoredInstrument(nil), r.Symbols...)
	return &cp
}

// OptionChain is an underlying's options split by side.
type OptionChain struct {
	Underlying string       `json:"underlying"`
	Calls      []Instrument `json:"calls"`
	Puts       []Instrument `json:"puts"`
	Expiries   []string     `json:"expiries"`
}

// FuturesChain is an underlying's futures by expiry.
type FuturesChain struct {
	Underlying string       `json:"underlying"`
	Futures    []Instrument `json:"futures"`
	Expiries   []string     `json:"expiries"`
}

// Canonical trims and case-normalizes text fields and fills defaults so two
// logically identical queries compare equal. Limit is clamped to maxLimit.
func (q SearchQuery) Canonical(maxLimit int) SearchQuery {
	q.Query = strings.TrimSpace(q.Query)
	q.ID = strings.TrimSpace(q.ID)
	q.TradingSymbol = strings.ToUpper(strings.TrimSpace(q.TradingSymbol))
	q.InstrumentType = InstrumentType(strings.ToUpper(strings.TrimSpace(string(q.InstrumentType))))
	q.Exchange = Exchange(strings.ToUpper(strings.TrimSpace(string(q.Exchange))))
	q.Underlying = strings.ToUpper(strings.TrimSpace(q.Underlying))
	q.OptionType = OptionType(strings.ToUpper(strings.TrimSpace(string(q.OptionType))))
	q.ExpiryFrom = NormalizeDate(q.ExpiryFrom)
	q.ExpiryTo = NormalizeDate(q.ExpiryTo)
	q.IsActive = Bool(q.ActiveOnly())

	if q.Limit <= 0 {
		q.Limit = DefaultSearchLimit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if !q.SortBy.Valid() {
		q.SortBy = SortByRelevance
	}
	if q.SortOrder != SortAsc && q.SortOrder != SortDesc {
		q.SortOrder = DefaultSortOrder(q.SortBy)
	}
	return q
}
