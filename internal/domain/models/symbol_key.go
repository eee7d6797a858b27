package models

import "strings"

// SymbolKey addresses a single instrument. ID wins over TradingSymbol+Exchange,
// which wins over TradingSymbol alone.
type SymbolKey struct {
	ID            string   `json:"id,omitempty" query:"id"`
	TradingSymbol string   `json:"tradingSymbol,omitempty" query:"tradingSymbol"`
	Exchange      Exchange `json:"exchange,omitempty" query:"exchange"`
}

// Normalize trims fields and upper-cases symbol and exchange.
func (k SymbolKey) Normalize() SymbolKey {
	return SymbolKey{
		ID:            strings.TrimSpace(k.ID),
		TradingSymbol: strings.ToUpper(strings.TrimSpace(k.TradingSymbol)),
		Exchange:      Exchange(strings.ToUpper(strings.TrimSpace(string(k.Exchange)))),
	}
}

func (k SymbolKey) Empty() bool {
	k = k.Normalize()
	return k.ID == "" && k.TradingSymbol == ""
}

// KeyOf builds the most specific key available for an instrument.
func KeyOf(inst *Instrument) SymbolKey {
	return SymbolKey{ID: inst.ID, TradingSymbol: inst.TradingSymbol, Exchange: inst.Exchange}
}
