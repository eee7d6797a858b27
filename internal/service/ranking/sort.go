package ranking

import (
	"sort"
	"strings"

	"SymDir/internal/domain/models"
)

// SortOptions selects the primary key and the instrument-type context that
// drives the derivative tie-breaks.
type SortOptions struct {
	By      models.SortField
	Order   models.SortOrder
	Context models.InstrumentType
}

// Sort orders rows in place. The primary key honours Order; the tie-break
// ladder never flips:
//  1. same trading symbol: primary exchange, then secondary, then the rest
//  2. option context: nearer expiry, lower strike, CE before PE
//  3. future context: nearer expiry
//  4. active before inactive, then most recently updated
func Sort(rows []models.ScoredInstrument, opts SortOptions) {
	if opts.By == "" {
		opts.By = models.SortByRelevance
	}
	if opts.Order == "" {
		opts.Order = models.DefaultSortOrder(opts.By)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return Compare(&rows[i], &rows[j], opts) < 0
	})
}

// SortInstruments orders plain instruments with the tie-break ladder only.
func SortInstruments(rows []models.Instrument, ctx models.InstrumentType) {
	sort.SliceStable(rows, func(i, j int) bool {
		return tieBreak(&rows[i], &rows[j], ctx) < 0
	})
}

// Compare returns a negative number when a sorts before b.
func Compare(a, b *models.ScoredInstrument, opts SortOptions) int {
	c := primary(a, b, opts.By)
	if opts.Order == models.SortDesc {
		c = -c
	}
	if c != 0 {
		return c
	}
	return tieBreak(&a.Instrument, &b.Instrument, opts.Context)
}

func primary(a, b *models.ScoredInstrument, by models.SortField) int {
	switch by {
	case models.SortByName:
		return compareText(a.DisplayName, b.DisplayName)
	case models.SortBySymbol:
		return compareText(a.TradingSymbol, b.TradingSymbol)
	case models.SortByExpiry:
		return compareExpiry(&a.Instrument, &b.Instrument)
	case models.SortByStrike:
		return compareStrike(&a.Instrument, &b.Instrument)
	default:
		return compareFloat(a.RelevanceScore, b.RelevanceScore)
	}
}

func tieBreak(a, b *models.Instrument, ctx models.InstrumentType) int {
	if a.TradingSymbol == b.TradingSymbol {
		if c := compareInt(a.Exchange.Preference(), b.Exchange.Preference()); c != 0 {
			return c
		}
	}

	switch {
	case inContext(models.InstrumentOption, ctx, a, b):
		if c := compareExpiry(a, b); c != 0 {
			return c
		}
		if c := compareStrike(a, b); c != 0 {
			return c
		}
		if c := compareOptionType(a.OptionType, b.OptionType); c != 0 {
			return c
		}
	case inContext(models.InstrumentFuture, ctx, a, b):
		if c := compareExpiry(a, b); c != 0 {
			return c
		}
	}

	if a.IsActive != b.IsActive {
		if a.IsActive {
			return -1
		}
		return 1
	}
	// newer first
	switch {
	case a.LastUpdated.After(b.LastUpdated):
		return -1
	case a.LastUpdated.Before(b.LastUpdated):
		return 1
	}
	return 0
}

// inContext applies a type-specific ladder when the query names that type, or
// when no type was named and both rows are of it.
func inContext(t, ctx models.InstrumentType, a, b *models.Instrument) bool {
	if ctx != "" {
		return ctx == t
	}
	return a.InstrumentType == t && b.InstrumentType == t
}

// compareText is case-insensitive first, then byte order for a stable result.
func compareText(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// compareExpiry puts rows without an expiry last.
func compareExpiry(a, b *models.Instrument) int {
	az, bz := a.ExpiryDate.IsZero(), b.ExpiryDate.IsZero()
	switch {
	case az && bz:
		return 0
	case az:
		return 1
	case bz:
		return -1
	}
	return a.ExpiryDate.Compare(b.ExpiryDate)
}

// compareStrike puts rows without a strike last.
func compareStrike(a, b *models.Instrument) int {
	av, bv := a.StrikePrice.Valid, b.StrikePrice.Valid
	switch {
	case !av && !bv:
		return 0
	case !av:
		return 1
	case !bv:
		return -1
	}
	return a.StrikePrice.Decimal.Cmp(b.StrikePrice.Decimal)
}

func compareOptionType(a, b models.OptionType) int {
	rank := func(o models.OptionType) int {
		switch o {
		case models.OptionCall:
			return 0
		case models.OptionPut:
			return 1
		}
		return 2
	}
	return compareInt(rank(a), rank(b))
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
