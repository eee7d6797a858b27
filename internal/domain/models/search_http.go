package models

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Requests for symbol HTTP endpoints. Limits are clamped by the service, not rejected here.

type SearchRequest struct {
	Query          string `query:"q" json:"q"`
	InstrumentType string `query:"instrumentType" json:"instrumentType"`
	Exchange       string `query:"exchange" json:"exchange"`
	Underlying     string `query:"underlying" json:"underlying"`
	StrikeMin      string `query:"strikeMin" json:"strikeMin" validate:"omitempty,numeric"`
	StrikeMax      string `query:"strikeMax" json:"strikeMax" validate:"omitempty,numeric"`
	ExpiryFrom     string `query:"expiryFrom" json:"expiryFrom" validate:"omitempty,datetime=2006-01-02"`
	ExpiryTo       string `query:"expiryTo" json:"expiryTo" validate:"omitempty,datetime=2006-01-02"`
	OptionType     string `query:"optionType" json:"optionType"`
	IsActive       string `query:"isActive" json:"isActive" validate:"omitempty,oneof=true false"`
	Limit          int    `query:"limit" json:"limit" default:"50"`
	Offset         int    `query:"offset" json:"offset"`
	SortBy         string `query:"sortBy" json:"sortBy" default:"relevance" validate:"oneof=relevance name symbol expiry strike"`
	SortOrder      string `query:"sortOrder" json:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

// ToQuery converts the request into a SearchQuery. Enumerations are matched
// case-insensitively; unknown values are an ErrInvalidInput.
func (r *SearchRequest) ToQuery() (SearchQuery, error) {
	q := SearchQuery{
		Query:      r.Query,
		Exchange:   Exchange(strings.ToUpper(strings.TrimSpace(r.Exchange))),
		Underlying: r.Underlying,
		Limit:      r.Limit,
		Offset:     r.Offset,
		SortBy:     SortField(r.SortBy),
		SortOrder:  SortOrder(r.SortOrder),
	}

	var err error
	if q.InstrumentType, err = parseInstrumentType(r.InstrumentType); err != nil {
		return q, err
	}
	if q.OptionType, err = parseOptionType(r.OptionType); err != nil {
		return q, err
	}
	if q.StrikeMin, err = parseStrike("strikeMin", r.StrikeMin); err != nil {
		return q, err
	}
	if q.StrikeMax, err = parseStrike("strikeMax", r.StrikeMax); err != nil {
		return q, err
	}
	if q.StrikeMin.Valid && q.StrikeMax.Valid && q.StrikeMin.Decimal.GreaterThan(q.StrikeMax.Decimal) {
		return q, NewInvalidInput("strikeMin", "must not exceed strikeMax")
	}
	if r.ExpiryFrom != "" {
		if q.ExpiryFrom, err = ParseDate(r.ExpiryFrom); err != nil {
			return q, NewInvalidInput("expiryFrom", "expected YYYY-MM-DD")
		}
	}
	if r.ExpiryTo != "" {
		if q.ExpiryTo, err = ParseDate(r.ExpiryTo); err != nil {
			return q, NewInvalidInput("expiryTo", "expected YYYY-MM-DD")
		}
	}
	if !q.ExpiryFrom.IsZero() && !q.ExpiryTo.IsZero() && q.ExpiryFrom.After(q.ExpiryTo) {
		return q, NewInvalidInput("expiryFrom", "must not be after expiryTo")
	}
	if r.IsActive != "" {
		b, perr := strconv.ParseBool(r.IsActive)
		if perr != nil {
			return q, NewInvalidInput("isActive", "expected true or false")
		}
		q.IsActive = &b
	}
	return q, nil
}

type QuickSearchRequest struct {
	Query string `query:"q" json:"q"`
	Limit int    `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=100"`
}

type SuggestionsRequest struct {
	Query string `query:"q" json:"q"`
	Limit int    `query:"limit" json:"limit" default:"5" validate:"gte=1,lte=50"`
}

type PopularRequest struct {
	InstrumentType string `query:"instrumentType" json:"instrumentType"`
	Limit          int    `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=100"`
}

func (r *PopularRequest) Type() (InstrumentType, error) {
	return parseInstrumentType(r.InstrumentType)
}

type UnderlyingRequest struct {
	Underlying     string `param:"underlying" validate:"required"`
	InstrumentType string `query:"instrumentType" json:"instrumentType"`
	Expiry         string `query:"expiry" json:"expiry" validate:"omitempty,datetime=2006-01-02"`
}

func (r *UnderlyingRequest) Type() (InstrumentType, error) {
	return parseInstrumentType(r.InstrumentType)
}

type SymbolRequest struct {
	ID            string `query:"id" json:"id"`
	TradingSymbol string `query:"tradingSymbol" json:"tradingSymbol"`
	Exchange      string `query:"exchange" json:"exchange"`
}

func (r *SymbolRequest) Key() SymbolKey {
	return SymbolKey{ID: r.ID, TradingSymbol: r.TradingSymbol, Exchange: Exchange(r.Exchange)}.Normalize()
}

type InvalidateRequest struct {
	Type          string `json:"type" default:"symbol" validate:"oneof=symbol all search"`
	ID            string `json:"id"`
	TradingSymbol string `json:"tradingSymbol"`
	Exchange      string `json:"exchange"`
}

func (r *InvalidateRequest) Event() InvalidationEvent {
	k := SymbolKey{ID: r.ID, TradingSymbol: r.TradingSymbol, Exchange: Exchange(r.Exchange)}.Normalize()
	return InvalidationEvent{
		Kind:          InvalidationKind(r.Type),
		ID:            k.ID,
		TradingSymbol: k.TradingSymbol,
		Exchange:      k.Exchange,
	}
}

func parseInstrumentType(s string) (InstrumentType, error) {
	t := InstrumentType(strings.ToUpper(strings.TrimSpace(s)))
	if t != "" && !t.Valid() {
		return "", NewInvalidInput("instrumentType", "must be one of EQUITY, OPTION, FUTURE")
	}
	return t, nil
}

func parseOptionType(s string) (OptionType, error) {
	t := OptionType(strings.ToUpper(strings.TrimSpace(s)))
	if t != "" && t != OptionCall && t != OptionPut {
		return "", NewInvalidInput("optionType", "must be CE or PE")
	}
	return t, nil
}

func parseStrike(field, s string) (decimal.NullDecimal, error) {
	if s = strings.TrimSpace(s); s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, NewInvalidInput(field, "must be a number")
	}
	return decimal.NewNullDecimal(d), nil
}
