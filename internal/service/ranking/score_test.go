package ranking

import (
	"testing"

	"SymDir/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func equity(symbol, name string) models.Instrument {
	return models.Instrument{
		ID:             symbol,
		TradingSymbol:  symbol,
		DisplayName:    name,
		InstrumentType: models.InstrumentEquity,
		Exchange:       models.ExchangeNSE,
		IsActive:       true,
	}
}

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"rel", "reliance", 5},
		{"rel", "relaxo", 3},
		{"nifty", "nifty", 0},
		{"flaw", "lawn", 2},
		{"çava", "cava", 1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Levenshtein(c.a, c.b), "%q vs %q", c.a, c.b)
		assert.Equal(t, c.want, Levenshtein(c.b, c.a), "%q vs %q", c.b, c.a)
	}
}

func TestScoreSignals(t *testing.T) {
	inst := equity("RELIANCE", "Reliance Industries")
	// prefix 80 + contains 60 + fuzzy (19-5)/19*40 + active 10 + equity 5
	assert.Equal(t, float64(184), Score("rel", &inst))

	relaxo := equity("RELAXO", "Relaxo Footwears")
	// prefix 80 + contains 60 + (16-3)/16*40 + 15
	assert.Equal(t, float64(188), Score("rel", &relaxo))
}

func TestScoreEmptyQuery(t *testing.T) {
	inst := equity("TCS", "Tata Consultancy")
	assert.Zero(t, Score("", &inst))
}

func TestScoreMonotonicTiers(t *testing.T) {
	// same candidate, queries that hit exact, prefix and substring on the symbol
	inst := equity("INFY", "Infosys")
	inst.DisplayName = ""

	exact := Score("infy", &inst)
	prefix := Score("inf", &inst)
	substring := Score("nfy", &inst)

	assert.GreaterOrEqual(t, exact, prefix)
	assert.GreaterOrEqual(t, prefix, substring)
	assert.Greater(t, substring, float64(0))
}

func TestScoreTierFallsBackToCompanyName(t *testing.T) {
	inst := equity("HDFCBANK", "HDFC Bank")
	inst.CompanyName = "Housing Development Finance"
	inst.IsActive = false
	inst.InstrumentType = models.InstrumentFuture

	s := Score("housing development finance", &inst)
	// exact company 90 + prefix company 70 + contains company 50, plus a small fuzzy part
	assert.GreaterOrEqual(t, s, float64(210))
}

func TestFinalScoreStoreLowerBound(t *testing.T) {
	inst := equity("SBIN", "State Bank of India")
	computed := Score("sbin", &inst)

	assert.Equal(t, computed, FinalScore("sbin", &inst, 0))
	assert.Equal(t, computed+1, FinalScore("sbin", &inst, 1))
	assert.Equal(t, float64(1001), FinalScore("sbin", &inst, 1000))
	assert.Equal(t, float64(500.5), FinalScore("state bank of india", &inst, 500))
	assert.Equal(t, float64(1000), FinalScore("xyz", &inst, 1000))
}

func TestRankDropsZeroScores(t *testing.T) {
	inactive := models.Instrument{TradingSymbol: "AAA", InstrumentType: models.InstrumentOption}
	rows := []models.ScoredInstrument{
		{Instrument: equity("RELIANCE", "Reliance Industries")},
		{Instrument: inactive},
	}
	got := Rank("  ZZZZZZZZZZZZZZZZ ", rows)
	for _, r := range got {
		assert.Greater(t, r.RelevanceScore, float64(0))
	}

	got = Rank("REL", rows)
	require.NotEmpty(t, got)
	assert.Equal(t, "RELIANCE", got[0].TradingSymbol)
	assert.Zero(t, rows[0].RelevanceScore, "input rows must not be mutated")
}

func TestWithBaseline(t *testing.T) {
	rows := []models.ScoredInstrument{
		{Instrument: equity("A", ""), RelevanceScore: 3},
		{Instrument: equity("B", ""), RelevanceScore: 0},
		{Instrument: equity("C", ""), RelevanceScore: -1},
	}
	got := WithBaseline(rows)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{got[0].TradingSymbol, got[1].TradingSymbol, got[2].TradingSymbol})
	assert.Equal(t, float64(3), got[0].RelevanceScore)
	assert.Equal(t, float64(1), got[1].RelevanceScore)
	assert.Equal(t, float64(1), got[2].RelevanceScore)
}
