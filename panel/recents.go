package panel

// recency is a bounded most-recent-first list. Adding an item whose key
// matches an existing entry moves it to the front instead of duplicating
// it; adding beyond the limit drops the oldest entry.
type recency[T any] struct {
	limit int
	keyOf func(T) string
	items []T
}

func newRecency[T any](limit int, keyOf func(T) string) *recency[T] {
	return &recency[T]{limit: limit, keyOf: keyOf}
}

func (r *recency[T]) add(item T) {
	key := r.keyOf(item)
	for i, existing := range r.items {
		if r.keyOf(existing) == key {
			copy(r.items[1:i+1], r.items[:i])
			r.items[0] = item
			return
		}
	}

	r.items = append(r.items, item)
	copy(r.items[1:], r.items[:len(r.items)-1])
	r.items[0] = item
	if len(r.items) > r.limit {
		r.items = r.items[:r.limit]
	}
}

func (r *recency[T]) list() []T {
	return r.items
}

func (r *recency[T]) len() int {
	return len(r.items)
}
