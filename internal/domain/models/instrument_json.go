package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type instrumentAlias Instrument

// MarshalJSON renders the expiry as a calendar date.
func (i Instrument) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		instrumentAlias
		ExpiryDate string `json:"expiryDate,omitempty"`
	}{
		instrumentAlias: instrumentAlias(i),
		ExpiryDate:      i.Expiry(),
	})
}

// UnmarshalJSON accepts the expiry as YYYY-MM-DD.
func (i *Instrument) UnmarshalJSON(b []byte) error {
	aux := struct {
		*instrumentAlias
		ExpiryDate string `json:"expiryDate"`
	}{instrumentAlias: (*instrumentAlias)(i)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.ExpiryDate != "" {
		t, err := ParseDate(aux.ExpiryDate)
		if err != nil {
			return fmt.Errorf("expiryDate: %w", err)
		}
		i.ExpiryDate = t
	}
	return nil
}

// instrumentYAML is the seed-file shape of an instrument.
type instrumentYAML struct {
	instrumentAlias `yaml:",inline"`
	Strike          string    `yaml:"strike_price"`
	Tick            string    `yaml:"tick_size"`
	Expiry          string    `yaml:"expiry_date"`
	Updated         time.Time `yaml:"last_updated"`
}

// UnmarshalYAML decodes a seed record, parsing decimals and the expiry date.
func (i *Instrument) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var aux instrumentYAML
	aux.IsActive = true
	if err := unmarshal(&aux); err != nil {
		return err
	}
	*i = Instrument(aux.instrumentAlias)
	i.LastUpdated = aux.Updated
	if aux.Strike != "" {
		d, err := decimal.NewFromString(aux.Strike)
		if err != nil {
			return fmt.Errorf("strike_price: %w", err)
		}
		i.StrikePrice = decimal.NewNullDecimal(d)
	}
	if aux.Tick != "" {
		d, err := decimal.NewFromString(aux.Tick)
		if err != nil {
			return fmt.Errorf("tick_size: %w", err)
		}
		i.TickSize = d
	}
	if aux.Expiry != "" {
		t, err := ParseDate(aux.Expiry)
		if err != nil {
			return fmt.Errorf("expiry_date: %w", err)
		}
		i.ExpiryDate = t
	}
	return nil
}

// MarshalJSON keeps the relevance score next to the flattened instrument fields.
func (s ScoredInstrument) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		instrumentAlias
		ExpiryDate     string  `json:"expiryDate,omitempty"`
		RelevanceScore float64 `json:"relevanceScore"`
	}{
		instrumentAlias: instrumentAlias(s.Instrument),
		ExpiryDate:      s.Expiry(),
		RelevanceScore:  s.RelevanceScore,
	})
}
