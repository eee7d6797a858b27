package symbolcache

import (
	"strings"

	"SymDir/internal/domain/models"
	pkgcache "SymDir/pkg/cache"

	"github.com/shopspring/decimal"
)

const (
	idPrefix     = "id"
	symbolPrefix = "sym"
	searchPrefix = "search"
)

// SymbolKey derives the lookup key for a single instrument from the most
// specific identifying fields present: id, then symbol+exchange, then symbol.
func SymbolKey(k models.SymbolKey) (string, error) {
	k = k.Normalize()
	switch {
	case k.ID != "":
		return pkgcache.GenerateKey(idPrefix, k.ID), nil
	case k.TradingSymbol != "" && k.Exchange != "":
		return pkgcache.GenerateKey(symbolPrefix, k.TradingSymbol+":"+string(k.Exchange)), nil
	case k.TradingSymbol != "":
		return pkgcache.GenerateKey(symbolPrefix, k.TradingSymbol), nil
	}
	return "", models.NewInvalidInput("symbolKey", "id or tradingSymbol required")
}

// keyVariants lists every key that may address the instrument described by k.
func keyVariants(k models.SymbolKey) []string {
	k = k.Normalize()
	var keys []string
	if k.ID != "" {
		keys = append(keys, pkgcache.GenerateKey(idPrefix, k.ID))
	}
	if k.TradingSymbol != "" {
		if k.Exchange != "" {
			keys = append(keys, pkgcache.GenerateKey(symbolPrefix, k.TradingSymbol+":"+string(k.Exchange)))
		}
		keys = append(keys, pkgcache.GenerateKey(symbolPrefix, k.TradingSymbol))
	}
	return keys
}

// symbolKeyPrefix matches every exchange-qualified key of a trading symbol.
func symbolKeyPrefix(tradingSymbol string) string {
	return pkgcache.GenerateKey(symbolPrefix, strings.ToUpper(strings.TrimSpace(tradingSymbol))+":")
}

// SearchKey serializes every query field in a fixed order, with explicit
// placeholders for absent values, and hashes the result. view separates
// differently shaped payloads (search page, underlying listing) built from
// equal queries.
func SearchKey(view string, q models.SearchQuery) string {
	q = q.Canonical(0)
	raw := pkgcache.GenerateKeyWithParams(view,
		strings.ToLower(q.Query),
		q.ID,
		q.TradingSymbol,
		q.InstrumentType,
		q.Exchange,
		q.Underlying,
		decimalOrEmpty(q.StrikeMin),
		decimalOrEmpty(q.StrikeMax),
		dateOrEmpty(q),
		q.OptionType,
		q.ActiveOnly(),
		q.Limit,
		q.Offset,
		q.SortBy,
		q.SortOrder,
	)
	return pkgcache.GenerateKey(searchPrefix, pkgcache.HashKey(raw))
}

func decimalOrEmpty(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func dateOrEmpty(q models.SearchQuery) string {
	from, to := "", ""
	if !q.ExpiryFrom.IsZero() {
		from = q.ExpiryFrom.Format(models.DateLayout)
	}
	if !q.ExpiryTo.IsZero() {
		to = q.ExpiryTo.Format(models.DateLayout)
	}
	return from + ".." + to
}
