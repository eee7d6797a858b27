package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalDefaultsAndClamps(t *testing.T) {
	q := SearchQuery{
		Query:          "  nifty ",
		InstrumentType: " option",
		Exchange:       "nfo",
		Underlying:     "nifty ",
		OptionType:     "ce",
		ExpiryFrom:     time.Date(2025, 1, 30, 18, 45, 0, 0, time.UTC),
		Limit:          500,
		Offset:         -3,
		SortBy:         "bogus",
		SortOrder:      "sideways",
	}.Canonical(MaxSearchLimit)

	assert.Equal(t, "nifty", q.Query)
	assert.Equal(t, InstrumentOption, q.InstrumentType)
	assert.Equal(t, ExchangeNFO, q.Exchange)
	assert.Equal(t, "NIFTY", q.Underlying)
	assert.Equal(t, OptionCall, q.OptionType)
	assert.Equal(t, time.Date(2025, 1, 30, 0, 0, 0, 0, time.UTC), q.ExpiryFrom)
	require.NotNil(t, q.IsActive)
	assert.True(t, *q.IsActive)
	assert.Equal(t, MaxSearchLimit, q.Limit)
	assert.Equal(t, 0, q.Offset)
	assert.Equal(t, SortByRelevance, q.SortBy)
	assert.Equal(t, SortDesc, q.SortOrder)
}

func TestCanonicalKeepsExplicitValues(t *testing.T) {
	q := SearchQuery{IsActive: Bool(false), SortBy: SortByStrike}.Canonical(MaxSearchLimit)
	assert.False(t, *q.IsActive)
	assert.Equal(t, DefaultSearchLimit, q.Limit)
	assert.Equal(t, SortAsc, q.SortOrder)

	// no cap when maxLimit is zero
	q = SearchQuery{Limit: 1000}.Canonical(0)
	assert.Equal(t, 1000, q.Limit)
}

func TestSearchResultCloneIsIndependent(t *testing.T) {
	r := &SearchResult{Symbols: []ScoredInstrument{{Instrument: Instrument{TradingSymbol: "A"}, RelevanceScore: 1}}}
	c := r.Clone()
	c.Symbols[0].TradingSymbol = "B"
	c.Symbols = append(c.Symbols, ScoredInstrument{})
	assert.Equal(t, "A", r.Symbols[0].TradingSymbol)
	assert.Len(t, r.Symbols, 1)
}

func TestScoredInstrumentJSON(t *testing.T) {
	expiry, err := ParseDate("2025-01-30")
	require.NoError(t, err)
	si := ScoredInstrument{
		Instrument: Instrument{
			ID: "1", TradingSymbol: "NIFTY25JAN22000CE", InstrumentType: InstrumentOption,
			StrikePrice: decimal.NewNullDecimal(decimal.NewFromInt(22000)), ExpiryDate: expiry,
		},
		RelevanceScore: 187,
	}
	b, err := json.Marshal(si)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "2025-01-30", m["expiryDate"])
	assert.Equal(t, float64(187), m["relevanceScore"])
	assert.Equal(t, "NIFTY25JAN22000CE", m["tradingSymbol"])

	var back Instrument
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, back.ExpiryDate.Equal(expiry))
	assert.True(t, back.StrikePrice.Decimal.Equal(decimal.NewFromInt(22000)))
}

func TestInstrumentKeyIncludesDerivativeTuple(t *testing.T) {
	a := Instrument{TradingSymbol: "X", InstrumentType: InstrumentOption, Exchange: ExchangeNFO,
		StrikePrice: decimal.NewNullDecimal(decimal.NewFromInt(100)), OptionType: OptionCall}
	b := a
	b.OptionType = OptionPut
	assert.NotEqual(t, a.Key(), b.Key())

	e1 := Instrument{TradingSymbol: "TCS", InstrumentType: InstrumentEquity, Exchange: ExchangeNSE, DisplayName: "x"}
	e2 := e1
	e2.DisplayName = "y"
	assert.Equal(t, e1.Key(), e2.Key())
}

func TestInvalidationValidate(t *testing.T) {
	assert.NoError(t, InvalidationEvent{Kind: InvalidateAll}.Validate())
	assert.NoError(t, InvalidationEvent{Kind: InvalidateSearch}.Validate())
	assert.NoError(t, InvalidationEvent{Kind: InvalidateSymbol, TradingSymbol: "TCS"}.Validate())

	err := InvalidationEvent{Kind: InvalidateSymbol, Exchange: ExchangeNSE}.Validate()
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Error(t, InvalidationEvent{Kind: "drop"}.Validate())
}

func TestDecodeInvalidation(t *testing.T) {
	ev, err := DecodeInvalidation([]byte(`{"type":"symbol","tradingSymbol":"infy","exchange":"NSE","origin":"a"}`))
	require.NoError(t, err)
	assert.Equal(t, InvalidateSymbol, ev.Kind)
	assert.Equal(t, "infy", ev.TradingSymbol)
	assert.Equal(t, "a", ev.Origin)

	_, err = DecodeInvalidation([]byte(`{`))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExchangePreference(t *testing.T) {
	assert.Less(t, ExchangeNSE.Preference(), ExchangeBSE.Preference())
	assert.Less(t, ExchangeBSE.Preference(), ExchangeNFO.Preference())
	assert.Equal(t, ExchangeNFO.Preference(), ExchangeMCX.Preference())
}

func TestSearchRequestToQuery(t *testing.T) {
	req := SearchRequest{
		Query:          "nifty",
		InstrumentType: "option",
		OptionType:     "ce",
		StrikeMin:      "21500",
		StrikeMax:      "22000.5",
		ExpiryFrom:     "2025-01-01",
		ExpiryTo:       "2025-03-31",
		IsActive:       "false",
		Limit:          20,
		SortBy:         "strike",
	}
	q, err := req.ToQuery()
	require.NoError(t, err)
	assert.Equal(t, InstrumentOption, q.InstrumentType)
	assert.Equal(t, OptionCall, q.OptionType)
	assert.Equal(t, "21500", q.StrikeMin.Decimal.String())
	assert.Equal(t, "22000.5", q.StrikeMax.Decimal.String())
	assert.Equal(t, "2025-03-31", q.ExpiryTo.Format(DateLayout))
	require.NotNil(t, q.IsActive)
	assert.False(t, *q.IsActive)
	assert.Equal(t, SortByStrike, q.SortBy)
}

func TestSearchRequestToQueryRejects(t *testing.T) {
	cases := map[string]SearchRequest{
		"type":          {InstrumentType: "bond"},
		"option type":   {OptionType: "XX"},
		"strike":        {StrikeMin: "abc"},
		"strike range":  {StrikeMin: "200", StrikeMax: "100"},
		"expiry":        {ExpiryFrom: "01/02/2025"},
		"expiry range":  {ExpiryFrom: "2025-03-01", ExpiryTo: "2025-02-01"},
		"active filter": {IsActive: "maybe"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := req.ToQuery()
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestInvalidateRequestEvent(t *testing.T) {
	r := InvalidateRequest{Type: "symbol", TradingSymbol: " tcs ", Exchange: "nse"}
	ev := r.Event()
	assert.Equal(t, InvalidateSymbol, ev.Kind)
	assert.Equal(t, "TCS", ev.TradingSymbol)
	assert.Equal(t, ExchangeNSE, ev.Exchange)
	assert.NoError(t, ev.Validate())
}
