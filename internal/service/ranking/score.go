// Package ranking scores instruments against free-text queries and orders
// result sets with the trading-aware tie-break ladder.
package ranking

import (
	"math"
	"strings"
	"unicode/utf8"

	"SymDir/internal/domain/models"
)

// Signal weights. Exact, prefix and substring tiers each test symbol, then
// display name, then company name, and award only the first hit.
const (
	exactSymbol  = 100
	exactName    = 95
	exactCompany = 90

	prefixSymbol  = 80
	prefixName    = 75
	prefixCompany = 70

	containsSymbol  = 60
	containsName    = 55
	containsCompany = 50

	fuzzySymbolWeight = 40
	fuzzyNameWeight   = 35

	activeBoost = 10
	equityBoost = 5

	storeExactSymbolNudge = 1
	storeExactNameNudge   = 0.5
)

// NormalizeQuery trims and lower-cases free text.
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// Score computes the relevance of inst for an already normalized query,
// rounded to the nearest integer. An empty query scores zero.
func Score(query string, inst *models.Instrument) float64 {
	if query == "" {
		return 0
	}
	symbol := strings.ToLower(inst.TradingSymbol)
	name := strings.ToLower(inst.DisplayName)
	company := strings.ToLower(inst.CompanyName)

	var score float64
	score += tier(query, symbol, name, company, func(s, q string) bool { return s == q },
		exactSymbol, exactName, exactCompany)
	score += tier(query, symbol, name, company, strings.HasPrefix,
		prefixSymbol, prefixName, prefixCompany)
	score += tier(query, symbol, name, company, strings.Contains,
		containsSymbol, containsName, containsCompany)
	score += fuzzy(query, symbol, name)

	if inst.IsActive {
		score += activeBoost
	}
	if inst.InstrumentType == models.InstrumentEquity {
		score += equityBoost
	}
	return math.Round(score)
}

// FinalScore merges the computed score with a store-provided provisional score.
// The store score is a lower bound; literal matches get a small nudge so they
// still win ties when the store score dominates.
func FinalScore(query string, inst *models.Instrument, provided float64) float64 {
	computed := Score(query, inst)
	if provided <= 0 {
		return computed
	}
	final := math.Max(computed, provided)
	switch {
	case strings.EqualFold(inst.TradingSymbol, query):
		final += storeExactSymbolNudge
	case strings.EqualFold(inst.DisplayName, query):
		final += storeExactNameNudge
	}
	return final
}

// Rank scores every row against query and drops rows scoring zero or less.
// The input slice is left untouched.
func Rank(query string, rows []models.ScoredInstrument) []models.ScoredInstrument {
	query = NormalizeQuery(query)
	out := make([]models.ScoredInstrument, 0, len(rows))
	for i := range rows {
		s := FinalScore(query, &rows[i].Instrument, rows[i].RelevanceScore)
		if s <= 0 {
			continue
		}
		out = append(out, models.ScoredInstrument{Instrument: rows[i].Instrument, RelevanceScore: s})
	}
	return out
}

// WithBaseline keeps a filter-only page intact: rows the store left unscored
// get the baseline score of 1.
func WithBaseline(rows []models.ScoredInstrument) []models.ScoredInstrument {
	for i := range rows {
		if rows[i].RelevanceScore <= 0 {
			rows[i].RelevanceScore = 1
		}
	}
	return rows
}

func tier(query, symbol, name, company string, match func(s, q string) bool, sw, nw, cw float64) float64 {
	switch {
	case match(symbol, query):
		return sw
	case name != "" && match(name, query):
		return nw
	case company != "" && match(company, query):
		return cw
	}
	return 0
}

// fuzzy converts edit distance to a similarity fraction against a shared
// length bound and returns the better of the weighted symbol and name values.
// Company name is deliberately not compared here.
func fuzzy(query, symbol, name string) float64 {
	maxLen := max(utf8.RuneCountInString(symbol), utf8.RuneCountInString(name), utf8.RuneCountInString(query))
	if maxLen == 0 {
		return 0
	}
	symSim := float64(maxLen-Levenshtein(query, symbol)) / float64(maxLen)
	nameSim := float64(maxLen-Levenshtein(query, name)) / float64(maxLen)
	return math.Max(symSim*fuzzySymbolWeight, nameSim*fuzzyNameWeight)
}

// Levenshtein returns the edit distance between a and b, counted in runes.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	cols, rows := len(ra)+1, len(rb)+1

	// rows x cols table, row i tracks the first i runes of b
	dp := make([]int, rows*cols)
	for j := 0; j < cols; j++ {
		dp[j] = j
	}
	for i := 0; i < rows; i++ {
		dp[i*cols] = i
	}

	for i := 1; i < rows; i++ {
		for j := 1; j < cols; j++ {
			cost := 1
			if rb[i-1] == ra[j-1] {
				cost = 0
			}
			del := dp[(i-1)*cols+j] + 1
			ins := dp[i*cols+j-1] + 1
			sub := dp[(i-1)*cols+j-1] + cost
			dp[i*cols+j] = min(del, ins, sub)
		}
	}
	return dp[rows*cols-1]
}
