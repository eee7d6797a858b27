package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InstrumentType classifies an instrument.
type InstrumentType string

const (
	InstrumentEquity InstrumentType = "EQUITY"
	InstrumentOption InstrumentType = "OPTION"
	InstrumentFuture InstrumentType = "FUTURE"
)

// Valid reports whether t is one of the known instrument types.
func (t InstrumentType) Valid() bool {
	switch t {
	case InstrumentEquity, InstrumentOption, InstrumentFuture:
		return true
	}
	return false
}

// OptionType is CE or PE.
type OptionType string

const (
	OptionCall OptionType = "CE"
	OptionPut  OptionType = "PE"
)

// Exchange is a listing venue code.
type Exchange string

// NSE is the primary cash venue, BSE the secondary; NFO/BFO/MCX carry derivatives.
const (
	ExchangeNSE Exchange = "NSE"
	ExchangeBSE Exchange = "BSE"
	ExchangeNFO Exchange = "NFO"
	ExchangeBFO Exchange = "BFO"
	ExchangeMCX Exchange = "MCX"
)

// Preference ranks venues for rows sharing a trading symbol: primary, then secondary, then the rest.
func (e Exchange) Preference() int {
	switch e {
	case ExchangeNSE:
		return 0
	case ExchangeBSE:
		return 1
	default:
		return 2
	}
}

// DateLayout is the calendar format used for expiries on the wire and in cache keys.
const DateLayout = "2006-01-02"

// Instrument is a tradable security record. The core only reads instruments.
type Instrument struct {
	ID             string              `json:"id" yaml:"id"`
	TradingSymbol  string              `json:"tradingSymbol" yaml:"trading_symbol"`
	DisplayName    string              `json:"displayName" yaml:"display_name"`
	CompanyName    string              `json:"companyName,omitempty" yaml:"company_name"`
	Sector         string              `json:"sector,omitempty" yaml:"sector"`
	InstrumentType InstrumentType      `json:"instrumentType" yaml:"instrument_type"`
	Exchange       Exchange            `json:"exchange" yaml:"exchange"`
	Underlying     string              `json:"underlying,omitempty" yaml:"underlying"`
	StrikePrice    decimal.NullDecimal `json:"strikePrice" yaml:"-"`
	OptionType     OptionType          `json:"optionType,omitempty" yaml:"option_type"`
	ExpiryDate     time.Time           `json:"-" yaml:"-"` // date only, UTC midnight; zero when absent
	LotSize        int                 `json:"lotSize" yaml:"lot_size"`
	TickSize       decimal.Decimal     `json:"tickSize" yaml:"-"`
	IsActive       bool                `json:"isActive" yaml:"is_active"`
	LastUpdated    time.Time           `json:"lastUpdated" yaml:"-"`
}

// Expiry returns the expiry as YYYY-MM-DD, or "" when the instrument has none.
func (i *Instrument) Expiry() string {
	if i.ExpiryDate.IsZero() {
		return ""
	}
	return i.ExpiryDate.Format(DateLayout)
}

// Key identifies the instrument per its uniqueness tuple.
func (i *Instrument) Key() string {
	parts := []string{string(i.InstrumentType), string(i.Exchange), i.TradingSymbol}
	switch i.InstrumentType {
	case InstrumentOption:
		parts = append(parts, i.Expiry(), i.StrikePrice.Decimal.String(), string(i.OptionType))
	case InstrumentFuture:
		parts = append(parts, i.Expiry())
	}
	return strings.Join(parts, ":")
}

// NormalizeDate strips the time component, keeping the calendar day in UTC.
func NormalizeDate(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
}

// ScoredInstrument pairs an instrument with the relevance it earned for one query.
// The same Instrument can be scored differently by concurrent queries.
type ScoredInstrument struct {
	Instrument
	RelevanceScore float64 `json:"relevanceScore"`
}

// Instruments unwraps scored rows.
func Instruments(rows []ScoredInstrument) []Instrument {
	out := make([]Instrument, len(rows))
	for i := range rows {
		out[i] = rows[i].Instrument
	}
	return out
}
