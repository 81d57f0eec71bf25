// Package mirror holds the ordered local copy of a server collection.
//
// A List is only mutated in response to a completed remote operation; it
// never fetches on its own. All methods are safe for concurrent use.
package mirror

import "sync"

// List is an ordered, mutex-guarded slice of records.
type List[T any] struct {
	mu    sync.RWMutex
	items []T
}

// New returns an empty list.
func New[T any]() *List[T] {
	return &List[T]{}
}

// Replace swaps the whole contents for items.
func (l *List[T]) Replace(items []T) {
	cp := make([]T, len(items))
	copy(cp, items)
	l.mu.Lock()
	l.items = cp
	l.mu.Unlock()
}

// Append adds item at the end.
func (l *List[T]) Append(item T) {
	l.mu.Lock()
	l.items = append(l.items, item)
	l.mu.Unlock()
}

// AppendAll adds items at the end, in order, in one step.
func (l *List[T]) AppendAll(items []T) {
	if len(items) == 0 {
		return
	}
	l.mu.Lock()
	l.items = append(l.items, items...)
	l.mu.Unlock()
}

// ReplaceFirst overwrites the first entry matching match with item.
// It reports whether an entry was found.
func (l *List[T]) ReplaceFirst(match func(T) bool, item T) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.items {
		if match(l.items[i]) {
			l.items[i] = item
			return true
		}
	}
	return false
}

// RemoveAll drops every entry matching match, keeping the order of the
// rest, and returns how many were removed.
func (l *List[T]) RemoveAll(match func(T) bool) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.items[:0]
	removed := 0
	for _, item := range l.items {
		if match(item) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	var zero T
	for i := len(kept); i < len(l.items); i++ {
		l.items[i] = zero
	}
	l.items = kept
	return removed
}

// Clear empties the list.
func (l *List[T]) Clear() {
	l.mu.Lock()
	l.items = nil
	l.mu.Unlock()
}

// Find returns the first entry matching match.
func (l *List[T]) Find(match func(T) bool) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, item := range l.items {
		if match(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Snapshot returns a copy of the current contents.
func (l *List[T]) Snapshot() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

// Len returns the number of entries.
func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}
