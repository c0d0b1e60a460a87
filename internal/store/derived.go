package store

import "sync"

// Derived memoizes a value computed from a store's collection. The compute
// function runs only when the collection has changed since the last call,
// never on every read.
type Derived[E Entity, T any] struct {
	store *Store[E]
	fn    func([]E) T

	mu    sync.Mutex
	gen   uint64
	valid bool
	value T
}

// Derive registers a derived value over the store's collection.
func Derive[E Entity, T any](s *Store[E], fn func([]E) T) *Derived[E, T] {
	return &Derived[E, T]{store: s, fn: fn}
}

// Value returns the memoized result, recomputing it only if the underlying
// collection changed.
func (d *Derived[E, T]) Value() T {
	items, gen := d.store.snapshotGen()

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.valid || gen != d.gen {
		d.value = d.fn(items)
		d.gen = gen
		d.valid = true
	}
	return d.value
}
