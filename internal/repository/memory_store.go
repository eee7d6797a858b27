package repository

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"SymDir/internal/domain/models"
	"SymDir/internal/domain/repository"
	"SymDir/internal/service/ranking"

	"gopkg.in/yaml.v3"
)

// MemoryStore is an InstrumentStore over an in-process slice. It backs local
// development and tests, and mirrors the ClickHouse store's text scoring.
type MemoryStore struct {
	mu    sync.RWMutex
	items []models.Instrument
	index map[string]int // Instrument.Key -> position
}

var _ repository.InstrumentStore = (*MemoryStore)(nil)

// NewMemoryStore holds items in memory, keyed by id.
func NewMemoryStore(items ...models.Instrument) *MemoryStore {
	s := &MemoryStore{index: make(map[string]int, len(items))}
	s.Upsert(items...)
	return s
}

type seedFile struct {
	Instruments []models.Instrument `yaml:"instruments"`
}

// LoadSeedFile reads instruments from a YAML file with a top-level
// "instruments" list.
func LoadSeedFile(path string) ([]models.Instrument, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	return f.Instruments, nil
}

// NewMemoryStoreFromFile builds a store from a seed file.
func NewMemoryStoreFromFile(path string) (*MemoryStore, error) {
	items, err := LoadSeedFile(path)
	if err != nil {
		return nil, err
	}
	return NewMemoryStore(items...), nil
}

// Upsert inserts instruments or replaces rows with the same uniqueness key.
func (s *MemoryStore) Upsert(items ...models.Instrument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		k := it.Key()
		if pos, ok := s.index[k]; ok {
			s.items[pos] = it
			continue
		}
		s.index[k] = len(s.items)
		s.items = append(s.items, it)
	}
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Query filters, scores and pages the held instruments.
func (s *MemoryStore) Query(ctx context.Context, q models.SearchQuery) (*models.StoreResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q = q.Canonical(models.MaxSearchLimit * 10)
	text := strings.ToUpper(q.Query)

	s.mu.RLock()
	matched := make([]models.ScoredInstrument, 0, 64)
	for i := range s.items {
		it := &s.items[i]
		if !matchesFilters(it, &q) {
			continue
		}
		score := 1.0
		if text != "" {
			score = provisionalScore(text, it)
			if score == 0 {
				continue
			}
		}
		matched = append(matched, models.ScoredInstrument{Instrument: *it, RelevanceScore: score})
	}
	s.mu.RUnlock()

	ranking.Sort(matched, ranking.SortOptions{By: q.SortBy, Order: q.SortOrder, Context: q.InstrumentType})

	total := len(matched)
	start := min(q.Offset, total)
	end := min(start+q.Limit, total)
	page := append([]models.ScoredInstrument(nil), matched[start:end]...)

	return &models.StoreResult{
		Instruments: page,
		Total:       total,
		HasMore:     q.Offset+len(page) < total,
	}, nil
}

func (s *MemoryStore) Health(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

func matchesFilters(it *models.Instrument, q *models.SearchQuery) bool {
	switch {
	case q.ID != "" && it.ID != q.ID:
		return false
	case q.TradingSymbol != "" && !strings.EqualFold(it.TradingSymbol, q.TradingSymbol):
		return false
	case q.InstrumentType != "" && it.InstrumentType != q.InstrumentType:
		return false
	case q.Exchange != "" && it.Exchange != q.Exchange:
		return false
	case q.Underlying != "" && !strings.EqualFold(it.Underlying, q.Underlying):
		return false
	case q.OptionType != "" && it.OptionType != q.OptionType:
		return false
	case q.IsActive != nil && it.IsActive != *q.IsActive:
		return false
	}
	if q.StrikeMin.Valid && (!it.StrikePrice.Valid || it.StrikePrice.Decimal.LessThan(q.StrikeMin.Decimal)) {
		return false
	}
	if q.StrikeMax.Valid && (!it.StrikePrice.Valid || it.StrikePrice.Decimal.GreaterThan(q.StrikeMax.Decimal)) {
		return false
	}
	if !q.ExpiryFrom.IsZero() && (it.ExpiryDate.IsZero() || it.ExpiryDate.Before(q.ExpiryFrom)) {
		return false
	}
	if !q.ExpiryTo.IsZero() && (it.ExpiryDate.IsZero() || it.ExpiryDate.After(q.ExpiryTo)) {
		return false
	}
	return true
}

// provisionalScore is a coarse substring tier over symbol, display name and
// company name. Zero means the row does not match the text at all.
func provisionalScore(text string, it *models.Instrument) float64 {
	sym := strings.ToUpper(it.TradingSymbol)
	name := strings.ToUpper(it.DisplayName)
	company := strings.ToUpper(it.CompanyName)
	switch {
	case sym == text:
		return 100
	case name == text:
		return 95
	case strings.HasPrefix(sym, text):
		return 80
	case strings.HasPrefix(name, text):
		return 75
	case strings.Contains(sym, text):
		return 60
	case strings.Contains(name, text):
		return 55
	case strings.Contains(company, text):
		return 50
	}
	return 0
}
