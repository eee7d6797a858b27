package models

import "encoding/json"

// InvalidationKind selects what an event clears.
type InvalidationKind string

const (
	InvalidateSymbol InvalidationKind = "symbol"
	InvalidateAll    InvalidationKind = "all"
	InvalidateSearch InvalidationKind = "search"
)

// InvalidationEvent is the wire message fanned out to every instance after
// an upsert, delete or bulk reload.
type InvalidationEvent struct {
	Kind          InvalidationKind `json:"type"`
	ID            string           `json:"id,omitempty"`
	TradingSymbol string           `json:"tradingSymbol,omitempty"`
	Exchange      Exchange         `json:"exchange,omitempty"`
	Origin        string           `json:"origin,omitempty"` // publishing instance
}

// Validate rejects unknown kinds and symbol events without any identifier.
func (e InvalidationEvent) Validate() error {
	switch e.Kind {
	case InvalidateAll, InvalidateSearch:
		return nil
	case InvalidateSymbol:
		if (SymbolKey{ID: e.ID, TradingSymbol: e.TradingSymbol}).Normalize().Empty() {
			return NewInvalidInput("event", "symbol invalidation needs id or tradingSymbol")
		}
		return nil
	}
	return NewInvalidInput("type", "unknown invalidation type "+string(e.Kind))
}

// DecodeInvalidation parses and validates a JSON invalidation event.
func DecodeInvalidation(b []byte) (InvalidationEvent, error) {
	var ev InvalidationEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		return ev, NewInvalidInput("event", err.Error())
	}
	return ev, ev.Validate()
}
