package store

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Arena is an in-memory table of T keyed by a monotonically assigned id.
// Writes are serialized by a mutex; ids come from an atomic counter, so no
// two records ever share an id.
type Arena[T any] struct {
	mu      sync.RWMutex
	nextID  atomic.Uint64
	records map[uint]T
}

// NewArena creates an empty arena. The first id handed out is 1.
func NewArena[T any]() *Arena[T] {
	return &Arena[T]{records: make(map[uint]T)}
}

// Insert stores the record returned by build under a fresh id. If conflicts
// reports true for any existing record, nothing is stored and ErrDuplicate is
// returned. build and conflicts run under the write lock.
func (a *Arena[T]) Insert(conflicts func(existing T) bool, build func(id uint) T) (T, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if conflicts != nil {
		for _, r := range a.records {
			if conflicts(r) {
				var zero T
				return zero, ErrDuplicate
			}
		}
	}

	id := uint(a.nextID.Add(1))
	r := build(id)
	a.records[id] = r
	return r, nil
}

// Get returns the record with id.
func (a *Arena[T]) Get(id uint) (T, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	r, ok := a.records[id]
	return r, ok
}

// Update applies fn to the record with id and stores the result.
func (a *Arena[T]) Update(id uint, fn func(T) T) (T, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	r, ok := a.records[id]
	if !ok {
		var zero T
		return zero, ErrNotFound
	}
	r = fn(r)
	a.records[id] = r
	return r, nil
}

// Find returns every record matching pred in id order.
func (a *Arena[T]) Find(pred func(T) bool) []T {
	a.mu.RLock()
	defer a.mu.RUnlock()

	ids := make([]uint, 0, len(a.records))
	for id, r := range a.records {
		if pred(r) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]T, len(ids))
	for i, id := range ids {
		out[i] = a.records[id]
	}
	return out
}

// First returns the lowest-id record matching pred.
func (a *Arena[T]) First(pred func(T) bool) (T, bool) {
	found := a.Find(pred)
	if len(found) == 0 {
		var zero T
		return zero, false
	}
	return found[0], true
}

// Len returns the number of stored records.
func (a *Arena[T]) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.records)
}
