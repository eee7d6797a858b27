package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	l := NewLRU[int](3)
	l.Put("a", 1)
	l.Put("b", 2)
	l.Put("c", 3)

	// touch a so b becomes the oldest
	_, ok := l.Get("a")
	require.True(t, ok)

	evicted, did := l.Put("d", 4)
	require.True(t, did)
	assert.Equal(t, "b", evicted)

	_, ok = l.Get("b")
	assert.False(t, ok)
	assert.Equal(t, []string{"d", "a", "c"}, l.Keys())
}

func TestLRUUpdatePromotesWithoutEviction(t *testing.T) {
	l := NewLRU[string](2)
	l.Put("x", "1")
	l.Put("y", "2")

	_, did := l.Put("x", "updated")
	assert.False(t, did)
	assert.Equal(t, 2, l.Len())

	v, ok := l.Get("x")
	require.True(t, ok)
	assert.Equal(t, "updated", v)

	evicted, _ := l.Put("z", "3")
	assert.Equal(t, "y", evicted)
}

func TestLRUSizeNeverExceedsCapacity(t *testing.T) {
	l := NewLRU[int](10)
	for i := 0; i < 1000; i++ {
		l.Put(fmt.Sprintf("k%d", i), i)
		if i%3 == 0 {
			l.Get(fmt.Sprintf("k%d", i/2))
		}
		require.LessOrEqual(t, l.Len(), l.Cap())
	}
	assert.Equal(t, 10, l.Len())
}

// Replays a random-ish access pattern against a naive slice model.
func TestLRUMatchesReferenceModel(t *testing.T) {
	const capacity = 4
	l := NewLRU[int](capacity)
	var order []string // most recent first

	touch := func(k string) {
		for i, o := range order {
			if o == k {
				order = append(order[:i], order[i+1:]...)
				break
			}
		}
		order = append([]string{k}, order...)
	}

	for i := 0; i < 200; i++ {
		k := fmt.Sprintf("k%d", (i*7)%9)
		if i%2 == 0 {
			_, present := l.Peek(k)
			evicted, did := l.Put(k, i)
			if !present && len(order) == capacity {
				want := order[len(order)-1]
				order = order[:len(order)-1]
				require.True(t, did)
				require.Equal(t, want, evicted)
			} else {
				require.False(t, did)
			}
			touch(k)
		} else if _, ok := l.Get(k); ok {
			touch(k)
		}
		require.Equal(t, order, l.Keys())
	}
}

func TestLRUDeleteAndClear(t *testing.T) {
	l := NewLRU[int](2)
	l.Put("a", 1)

	assert.True(t, l.Delete("a"))
	assert.False(t, l.Delete("a"))

	l.Put("a", 1)
	l.Put("b", 2)
	l.Clear()
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.Keys())

	l.Put("c", 3)
	assert.Equal(t, []string{"c"}, l.Keys())
}

func TestLRUMinimumCapacity(t *testing.T) {
	l := NewLRU[int](0)
	assert.Equal(t, 1, l.Cap())
	l.Put("a", 1)
	l.Put("b", 2)
	assert.Equal(t, []string{"b"}, l.Keys())
}

func TestLRUConcurrentAccess(t *testing.T) {
	l := NewLRU[int](64)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				k := fmt.Sprintf("%d-%d", g, i%100)
				l.Put(k, i)
				l.Get(k)
				if i%50 == 0 {
					l.Delete(k)
				}
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, l.Len(), 64)
	assert.Len(t, l.Keys(), l.Len())
}
