package ranking

import (
	"testing"
	"time"

	"SymDir/internal/domain/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func option(symbol, expiry string, strike int64, ot models.OptionType) models.ScoredInstrument {
	exp, _ := models.ParseDate(expiry)
	return models.ScoredInstrument{
		Instrument: models.Instrument{
			TradingSymbol:  symbol,
			InstrumentType: models.InstrumentOption,
			Exchange:       models.ExchangeNFO,
			Underlying:     "NIFTY",
			StrikePrice:    decimal.NewNullDecimal(decimal.NewFromInt(strike)),
			OptionType:     ot,
			ExpiryDate:     exp,
			IsActive:       true,
		},
		RelevanceScore: 10,
	}
}

func symbols(rows []models.ScoredInstrument) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.TradingSymbol
	}
	return out
}

func TestSortOptionChainLadder(t *testing.T) {
	rows := []models.ScoredInstrument{
		option("N25FEB22000PE", "2025-02-28", 22000, models.OptionPut),
		option("N25JAN22000CE", "2025-01-30", 22000, models.OptionCall),
		option("N25JAN21500PE", "2025-01-30", 21500, models.OptionPut),
		option("N25FEB21500CE", "2025-02-28", 21500, models.OptionCall),
		option("N25JAN21500CE", "2025-01-30", 21500, models.OptionCall),
		option("N25JAN22000PE", "2025-01-30", 22000, models.OptionPut),
	}

	Sort(rows, SortOptions{Context: models.InstrumentOption})

	assert.Equal(t, []string{
		"N25JAN21500CE", "N25JAN21500PE",
		"N25JAN22000CE", "N25JAN22000PE",
		"N25FEB21500CE", "N25FEB22000PE",
	}, symbols(rows))
}

func TestSortLadderWithoutContextWhenBothOptions(t *testing.T) {
	rows := []models.ScoredInstrument{
		option("B", "2025-02-28", 100, models.OptionCall),
		option("A", "2025-01-30", 100, models.OptionCall),
	}
	Sort(rows, SortOptions{})
	assert.Equal(t, []string{"A", "B"}, symbols(rows))
}

func TestSortRelevanceDescendingByDefault(t *testing.T) {
	rows := []models.ScoredInstrument{
		{Instrument: equity("LOW", ""), RelevanceScore: 10},
		{Instrument: equity("HIGH", ""), RelevanceScore: 90},
		{Instrument: equity("MID", ""), RelevanceScore: 50},
	}
	Sort(rows, SortOptions{})
	assert.Equal(t, []string{"HIGH", "MID", "LOW"}, symbols(rows))

	Sort(rows, SortOptions{Order: models.SortAsc})
	assert.Equal(t, []string{"LOW", "MID", "HIGH"}, symbols(rows))
}

func TestSortBySymbolAlphabetical(t *testing.T) {
	rows := []models.ScoredInstrument{
		{Instrument: equity("RELIANCE", "Reliance Industries"), RelevanceScore: 184},
		{Instrument: equity("RELAXO", "Relaxo Footwears"), RelevanceScore: 188},
	}
	Sort(rows, SortOptions{By: models.SortBySymbol})
	assert.Equal(t, []string{"RELAXO", "RELIANCE"}, symbols(rows))

	Sort(rows, SortOptions{By: models.SortBySymbol, Order: models.SortDesc})
	assert.Equal(t, []string{"RELIANCE", "RELAXO"}, symbols(rows))
}

func TestSortExchangePreferenceForSameSymbol(t *testing.T) {
	mk := func(ex models.Exchange) models.ScoredInstrument {
		i := equity("TCS", "Tata Consultancy")
		i.Exchange = ex
		return models.ScoredInstrument{Instrument: i, RelevanceScore: 100}
	}
	rows := []models.ScoredInstrument{mk(models.ExchangeMCX), mk(models.ExchangeBSE), mk(models.ExchangeNSE)}
	Sort(rows, SortOptions{})

	got := []models.Exchange{rows[0].Exchange, rows[1].Exchange, rows[2].Exchange}
	assert.Equal(t, []models.Exchange{models.ExchangeNSE, models.ExchangeBSE, models.ExchangeMCX}, got)
}

func TestSortFutureContextByExpiry(t *testing.T) {
	fut := func(sym, exp string) models.ScoredInstrument {
		d, _ := models.ParseDate(exp)
		return models.ScoredInstrument{Instrument: models.Instrument{
			TradingSymbol: sym, InstrumentType: models.InstrumentFuture, ExpiryDate: d, IsActive: true,
		}}
	}
	rows := []models.ScoredInstrument{fut("MAR", "2025-03-27"), fut("JAN", "2025-01-30"), fut("FEB", "2025-02-27")}
	Sort(rows, SortOptions{Context: models.InstrumentFuture})
	assert.Equal(t, []string{"JAN", "FEB", "MAR"}, symbols(rows))
}

func TestSortGlobalFallback(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a := equity("A", "")
	a.IsActive = false
	b := equity("B", "")
	b.LastUpdated = now
	c := equity("C", "")
	c.LastUpdated = now.Add(time.Hour)

	rows := []models.ScoredInstrument{{Instrument: a}, {Instrument: b}, {Instrument: c}}
	Sort(rows, SortOptions{})
	assert.Equal(t, []string{"C", "B", "A"}, symbols(rows))
}

func TestSortByStrikeMissingLast(t *testing.T) {
	noStrike := equity("EQ", "")
	rows := []models.ScoredInstrument{
		{Instrument: noStrike},
		option("HI", "2025-01-30", 300, models.OptionCall),
		option("LO", "2025-01-30", 100, models.OptionCall),
	}
	Sort(rows, SortOptions{By: models.SortByStrike})
	assert.Equal(t, []string{"LO", "HI", "EQ"}, symbols(rows))
}

func TestSortInstrumentsLadderOnly(t *testing.T) {
	rows := []models.Instrument{
		option("P", "2025-01-30", 100, models.OptionPut).Instrument,
		option("C", "2025-01-30", 100, models.OptionCall).Instrument,
	}
	SortInstruments(rows, models.InstrumentOption)
	assert.Equal(t, "C", rows[0].TradingSymbol)
}
