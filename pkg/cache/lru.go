package cache

import "sync"

// lruNode is a doubly linked list node. head and tail are sentinels so
// link/unlink never test for nil neighbours.
type lruNode[V any] struct {
	key   string
	value V
	prev  *lruNode[V]
	next  *lruNode[V]
}

// LRU is a fixed-capacity least-recently-used cache with O(1) Get/Put.
// A single mutex guards the map and the recency list; Get mutates the list.
type LRU[V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*lruNode[V]
	head     *lruNode[V] // most recently used side
	tail     *lruNode[V] // least recently used side
}

// NewLRU creates an LRU holding at most capacity entries. Capacity below 1 is raised to 1.
func NewLRU[V any](capacity int) *LRU[V] {
	if capacity < 1 {
		capacity = 1
	}
	l := &LRU[V]{
		capacity: capacity,
		items:    make(map[string]*lruNode[V], capacity),
		head:     &lruNode[V]{},
		tail:     &lruNode[V]{},
	}
	l.head.next = l.tail
	l.tail.prev = l.head
	return l
}

// Get returns the value for key and promotes it to most recently used.
func (l *LRU[V]) Get(key string) (V, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	n, ok := l.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	l.unlink(n)
	l.pushFront(n)
	return n.value, true
}

// Peek returns the value for key without touching recency.
func (l *LRU[V]) Peek(key string) (V, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n, ok := l.items[key]; ok {
		return n.value, true
	}
	var zero V
	return zero, false
}

// Put inserts or updates key. When a new key arrives at capacity the least
// recently used entry is evicted first; the evicted key is returned.
func (l *LRU[V]) Put(key string, value V) (evicted string, didEvict bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n, ok := l.items[key]; ok {
		n.value = value
		l.unlink(n)
		l.pushFront(n)
		return "", false
	}

	if len(l.items) >= l.capacity {
		lru := l.tail.prev
		l.unlink(lru)
		delete(l.items, lru.key)
		evicted, didEvict = lru.key, true
	}

	n := &lruNode[V]{key: key, value: value}
	l.items[key] = n
	l.pushFront(n)
	return evicted, didEvict
}

// Delete removes key and reports whether it was present.
func (l *LRU[V]) Delete(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	n, ok := l.items[key]
	if !ok {
		return false
	}
	l.unlink(n)
	delete(l.items, key)
	return true
}

// Clear drops every entry.
func (l *LRU[V]) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = make(map[string]*lruNode[V], l.capacity)
	l.head.next = l.tail
	l.tail.prev = l.head
}

// Len reports the number of entries.
func (l *LRU[V]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Cap reports the capacity.
func (l *LRU[V]) Cap() int { return l.capacity }

// Keys returns keys ordered from most to least recently used.
func (l *LRU[V]) Keys() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	keys := make([]string, 0, len(l.items))
	for n := l.head.next; n != l.tail; n = n.next {
		keys = append(keys, n.key)
	}
	return keys
}

// Range calls fn for each entry from most to least recently used while
// holding the lock. fn must not call back into the cache.
func (l *LRU[V]) Range(fn func(key string, value V) bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for n := l.head.next; n != l.tail; n = n.next {
		if !fn(n.key, n.value) {
			return
		}
	}
}

func (l *LRU[V]) unlink(n *lruNode[V]) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev, n.next = nil, nil
}

func (l *LRU[V]) pushFront(n *lruNode[V]) {
	n.prev = l.head
	n.next = l.head.next
	l.head.next.prev = n
	l.head.next = n
}
