// Package handle implements the arena that owns live window and timer
// records and hands out stable identifiers for them.
package handle

import "sort"

// ID identifies an entry. The zero ID is never issued.
type ID uint64

// Table owns entries of type T keyed by ID. IDs come from a monotonic counter
// and are never reissued, so a stale ID can only miss, never alias a newer
// entry.
//
// Table is not safe for concurrent use.
type Table[T any] struct {
	next    ID
	entries map[ID]T
}

// New returns an empty table.
func New[T any]() *Table[T] {
	return &Table[T]{entries: make(map[ID]T)}
}

// Allocate stores v under a fresh ID.
func (t *Table[T]) Allocate(v T) ID {
	t.next++
	t.entries[t.next] = v
	return t.next
}

// Get looks up id. Unknown and removed IDs report ok == false.
func (t *Table[T]) Get(id ID) (v T, ok bool) {
	v, ok = t.entries[id]
	return v, ok
}

// Contains reports whether id is live.
func (t *Table[T]) Contains(id ID) bool {
	_, ok := t.entries[id]
	return ok
}

// Remove retires id. It reports whether the id was live.
func (t *Table[T]) Remove(id ID) bool {
	if _, ok := t.entries[id]; !ok {
		return false
	}
	delete(t.entries, id)
	return true
}

// Len returns the number of live entries.
func (t *Table[T]) Len() int {
	return len(t.entries)
}

// IDs returns the live IDs in ascending (allocation) order.
func (t *Table[T]) IDs() []ID {
	ids := make([]ID, 0, len(t.entries))
	for id := range t.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Each calls fn for every live entry in allocation order. fn may remove
// entries; entries allocated during the walk are not visited.
func (t *Table[T]) Each(fn func(ID, T)) {
	for _, id := range t.IDs() {
		if v, ok := t.entries[id]; ok {
			fn(id, v)
		}
	}
}
