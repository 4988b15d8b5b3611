package tracker

import (
	"maps"
	"slices"

	"github.com/1broseidon/dockwatch/internal/platform"
)

// Store is the canonical snapshot of every tracked window. It has no side
// effects beyond itself; recomputation is the Engine's job.
type Store struct {
	windows map[platform.WindowID]platform.WindowInfo
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{windows: make(map[platform.WindowID]platform.WindowInfo)}
}

// Upsert stores info and reports whether anything differed from the previous
// snapshot. Identical updates are applied but report false.
func (s *Store) Upsert(info platform.WindowInfo) bool {
	prev, ok := s.windows[info.ID]
	s.windows[info.ID] = info.Clone()
	return !ok || !prev.Equal(info)
}

// Remove deletes a window and reports whether it was present.
func (s *Store) Remove(id platform.WindowID) bool {
	if _, ok := s.windows[id]; !ok {
		return false
	}
	delete(s.windows, id)
	return true
}

// Get returns a copy of a window's snapshot.
func (s *Store) Get(id platform.WindowID) (platform.WindowInfo, bool) {
	info, ok := s.windows[id]
	if !ok {
		return platform.WindowInfo{}, false
	}
	return info.Clone(), true
}

// Has reports whether the window is tracked.
func (s *Store) Has(id platform.WindowID) bool {
	_, ok := s.windows[id]
	return ok
}

// IDs returns the tracked identifiers in ascending order.
func (s *Store) IDs() []platform.WindowID {
	return slices.Sorted(maps.Keys(s.windows))
}

// Len returns the number of tracked windows.
func (s *Store) Len() int {
	return len(s.windows)
}
