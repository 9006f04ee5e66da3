// Package cache provides the caching layers for the package panel: the
// bounded LRU caches and cache-key builders the panel uses to avoid
// redundant host round-trips, and the disk-backed HTTP cache the host
// uses for registration metadata.
package cache

import "container/list"

// Bounded is a fixed-capacity string-keyed LRU cache.
//
// A successful Get promotes the entry to most recently used. Set
// overwrites in place (also promoting) or inserts, evicting the single
// least recently used entry first when the cache is at capacity. The
// capacity is fixed at construction and never grows.
//
// Bounded is not safe for concurrent use. The panel owns its caches and
// touches them only from its single-threaded update loop.
type Bounded[V any] struct {
	capacity int
	entries  map[string]*list.Element
	order    *list.List // front = most recently used
}

type boundedEntry[V any] struct {
	key   string
	value V
}

// NewBounded creates an empty cache holding at most capacity entries.
// It panics if capacity is not positive.
func NewBounded[V any](capacity int) *Bounded[V] {
	if capacity < 1 {
		panic("cache: capacity must be positive")
	}
	return &Bounded[V]{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get retrieves a value and promotes it to most recently used.
// Returns the zero value and false when the key is absent.
func (b *Bounded[V]) Get(key string) (V, bool) {
	elem, ok := b.entries[key]
	if !ok {
		var zero V
		return zero, false
	}

	b.order.MoveToFront(elem)
	return elem.Value.(*boundedEntry[V]).value, true
}

// Has reports whether the key is present without promoting it.
func (b *Bounded[V]) Has(key string) bool {
	_, ok := b.entries[key]
	return ok
}

// Set adds or overwrites a value, making it the most recently used
// entry. When inserting a new key at capacity, the least recently used
// entry is evicted first.
func (b *Bounded[V]) Set(key string, value V) {
	if elem, ok := b.entries[key]; ok {
		elem.Value.(*boundedEntry[V]).value = value
		b.order.MoveToFront(elem)
		return
	}

	if b.order.Len() >= b.capacity {
		oldest := b.order.Back()
		if oldest != nil {
			delete(b.entries, oldest.Value.(*boundedEntry[V]).key)
			b.order.Remove(oldest)
		}
	}

	b.entries[key] = b.order.PushFront(&boundedEntry[V]{key: key, value: value})
}

// Len returns the number of cached entries.
func (b *Bounded[V]) Len() int {
	return b.order.Len()
}

// Clear removes all entries.
func (b *Bounded[V]) Clear() {
	b.entries = make(map[string]*list.Element)
	b.order = list.New()
}
