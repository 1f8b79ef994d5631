package cache

import (
	"slices"
	"sync"
	"time"
)

// Entity is a record the cache can key and order.
type Entity interface {
	EntityID() string
	// Stamps returns the creation time and version token as sent by the server.
	Stamps() (createdAt, timestamp string)
}

// Provenance records whether a cached value is known to the server.
type Provenance string

const (
	Synced       Provenance = "synced"
	PendingLocal Provenance = "pending-local-only"
)

// Entry is one cached value with its provenance.
type Entry[T Entity] struct {
	Value      T          `json:"value"`
	Provenance Provenance `json:"provenance"`
}

// Store holds the last known snapshot of one collection, newest first.
// Reads never block on the network and writes never fail.
type Store[T Entity] struct {
	mu       sync.RWMutex
	entries  []Entry[T]
	onChange func([]Entry[T])
}

// NewStore creates an empty store.
func NewStore[T Entity]() *Store[T] {
	return &Store[T]{}
}

// Replace installs a server snapshot, sorted newest first. Every entry is
// marked synced.
func (s *Store[T]) Replace(values []T) {
	entries := make([]Entry[T], len(values))
	for i, v := range values {
		entries[i] = Entry[T]{Value: v, Provenance: Synced}
	}
	SortNewestFirst(entries)

	s.mu.Lock()
	s.entries = entries
	s.mu.Unlock()
	s.changed()
}

// ReplaceMatching swaps every cached value matched by match for values, then
// re-sorts. Values outside the match keep their provenance.
func (s *Store[T]) ReplaceMatching(match func(T) bool, values []T) {
	s.mu.Lock()
	kept := slices.DeleteFunc(slices.Clone(s.entries), func(e Entry[T]) bool { return match(e.Value) })
	for _, v := range values {
		kept = append(kept, Entry[T]{Value: v, Provenance: Synced})
	}
	SortNewestFirst(kept)
	s.entries = kept
	s.mu.Unlock()
	s.changed()
}

// Prepend adds a newly created value at the front.
func (s *Store[T]) Prepend(v T, p Provenance) {
	s.mu.Lock()
	s.entries = append([]Entry[T]{{Value: v, Provenance: p}}, s.entries...)
	s.mu.Unlock()
	s.changed()
}

// Upsert replaces the value with the same id in place, or prepends it.
func (s *Store[T]) Upsert(v T, p Provenance) {
	s.mu.Lock()
	idx := s.index(v.EntityID())
	if idx >= 0 {
		s.entries[idx] = Entry[T]{Value: v, Provenance: p}
	} else {
		s.entries = append([]Entry[T]{{Value: v, Provenance: p}}, s.entries...)
	}
	s.mu.Unlock()
	s.changed()
}

// Remove deletes the value with id and reports whether it was present.
func (s *Store[T]) Remove(id string) bool {
	s.mu.Lock()
	idx := s.index(id)
	if idx >= 0 {
		s.entries = slices.Delete(s.entries, idx, idx+1)
	}
	s.mu.Unlock()
	if idx >= 0 {
		s.changed()
	}
	return idx >= 0
}

// Get returns the entry with id.
func (s *Store[T]) Get(id string) (Entry[T], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.index(id)
	if idx < 0 {
		return Entry[T]{}, false
	}
	return s.entries[idx], true
}

// Snapshot returns a copy of every entry.
func (s *Store[T]) Snapshot() []Entry[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries)
}

// Values returns a copy of every cached value.
func (s *Store[T]) Values() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Value
	}
	return out
}

// Len returns the number of cached values.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Pending returns the entries saved locally that the server has not seen.
func (s *Store[T]) Pending() []Entry[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry[T]
	for _, e := range s.entries {
		if e.Provenance == PendingLocal {
			out = append(out, e)
		}
	}
	return out
}

// restore installs persisted entries without notifying onChange.
func (s *Store[T]) restore(entries []Entry[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
}

func (s *Store[T]) index(id string) int {
	return slices.IndexFunc(s.entries, func(e Entry[T]) bool { return e.Value.EntityID() == id })
}

func (s *Store[T]) changed() {
	if s.onChange == nil {
		return
	}
	s.onChange(s.Snapshot())
}

var stampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// sortKey picks createdAt, then timestamp. ok is false when neither parses.
func sortKey(e Entity) (time.Time, bool) {
	createdAt, timestamp := e.Stamps()
	for _, raw := range []string{createdAt, timestamp} {
		if raw == "" {
			continue
		}
		for _, layout := range stampLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// SortNewestFirst orders entries by creation time descending. Entries without
// a usable stamp keep their relative order after every stamped entry.
func SortNewestFirst[T Entity](entries []Entry[T]) {
	slices.SortStableFunc(entries, func(a, b Entry[T]) int {
		ta, okA := sortKey(a.Value)
		tb, okB := sortKey(b.Value)
		switch {
		case okA && okB:
			return tb.Compare(ta)
		case okA:
			return -1
		case okB:
			return 1
		default:
			return 0
		}
	})
}
