package symbolcache

import (
	"strings"
	"sync"

	"SymDir/internal/domain/models"
	pkgcache "SymDir/pkg/cache"
)

const (
	// PolicyFixed keeps the first N symbols seen and never replaces them.
	PolicyFixed = "fixed"
	// PolicyLRU turns the frequent set into a second, small LRU.
	PolicyLRU = "lru"
)

// frequentSet is the hot tier. Entries carry no TTL; only invalidation removes them.
type frequentSet interface {
	Get(key string) (models.Instrument, bool)
	Peek(key string) (models.Instrument, bool)
	Offer(key string, inst models.Instrument)
	Delete(key string) bool
	DeletePrefix(prefix string)
	Clear()
	Len() int
	Cap() int
	Range(fn func(key string, inst models.Instrument) bool)
}

func newFrequentSet(policy string, capacity int) frequentSet {
	if policy == PolicyLRU {
		return &lruFrequent{l: pkgcache.NewLRU[models.Instrument](capacity)}
	}
	if capacity < 1 {
		capacity = 1
	}
	return &fixedFrequent{capacity: capacity, m: make(map[string]models.Instrument, capacity)}
}

type fixedFrequent struct {
	mu       sync.RWMutex
	capacity int
	m        map[string]models.Instrument
}

func (f *fixedFrequent) Get(key string) (models.Instrument, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	inst, ok := f.m[key]
	return inst, ok
}

func (f *fixedFrequent) Peek(key string) (models.Instrument, bool) { return f.Get(key) }

// Offer refreshes a present key, or admits a new one only while there is room.
func (f *fixedFrequent) Offer(key string, inst models.Instrument) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.m[key]; ok || len(f.m) < f.capacity {
		f.m[key] = inst
	}
}

func (f *fixedFrequent) Delete(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.m[key]
	delete(f.m, key)
	return ok
}

func (f *fixedFrequent) DeletePrefix(prefix string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k := range f.m {
		if strings.HasPrefix(k, prefix) {
			delete(f.m, k)
		}
	}
}

func (f *fixedFrequent) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m = make(map[string]models.Instrument, f.capacity)
}

func (f *fixedFrequent) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.m)
}

func (f *fixedFrequent) Cap() int { return f.capacity }

func (f *fixedFrequent) Range(fn func(string, models.Instrument) bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for k, v := range f.m {
		if !fn(k, v) {
			return
		}
	}
}

type lruFrequent struct {
	l *pkgcache.LRU[models.Instrument]
}

func (f *lruFrequent) Get(key string) (models.Instrument, bool) { return f.l.Get(key) }
func (f *lruFrequent) Peek(key string) (models.Instrument, bool) { return f.l.Peek(key) }
func (f *lruFrequent) Offer(key string, inst models.Instrument) { f.l.Put(key, inst) }
func (f *lruFrequent) Delete(key string) bool { return f.l.Delete(key) }
func (f *lruFrequent) Clear() { f.l.Clear() }
func (f *lruFrequent) Len() int { return f.l.Len() }
func (f *lruFrequent) Cap() int { return f.l.Cap() }

func (f *lruFrequent) DeletePrefix(prefix string) {
	for _, k := range f.l.Keys() {
		if strings.HasPrefix(k, prefix) {
			f.l.Delete(k)
		}
	}
}

func (f *lruFrequent) Range(fn func(string, models.Instrument) bool) { f.l.Range(fn) }
