package history

import "time"

// Store holds one Ring per monitored source, addressed by source index.
// It is not safe for concurrent use; ingestion and rendering are expected to
// take turns on a single goroutine.
type Store struct {
	rings []*Ring
}

// NewStore creates a store for n sources with the given per-source capacity.
func NewStore(n, capacity int) *Store {
	rings := make([]*Ring, n)
	for i := range rings {
		rings[i] = NewRing(capacity)
	}
	return &Store{rings: rings}
}

// NumSources returns how many sources the store tracks.
func (s *Store) NumSources() int {
	return len(s.rings)
}

// Ring returns the ring for src, or nil when src is out of range.
func (s *Store) Ring(src int) *Ring {
	if src < 0 || src >= len(s.rings) {
		return nil
	}
	return s.rings[src]
}

// BeginRun appends a run for src that started at t.
func (s *Store) BeginRun(src int, t time.Time) {
	if r := s.Ring(src); r != nil {
		r.Begin(t)
	}
}

// SetStageTime records t in slot of the newest run of src. A boundary that
// arrives before any run has started is dropped and reported as false.
func (s *Store) SetStageTime(src, slot int, t time.Time) bool {
	r := s.Ring(src)
	if r == nil {
		return false
	}
	return r.SetStage(slot, t)
}

// CurrentRun returns the newest run of src.
func (s *Store) CurrentRun(src int) (Run, bool) {
	r := s.Ring(src)
	if r == nil {
		return Run{}, false
	}
	return r.Current()
}

// Runs returns the runs of src, oldest first.
func (s *Store) Runs(src int) []Run {
	r := s.Ring(src)
	if r == nil {
		return nil
	}
	return r.Runs()
}

// Len returns how many runs src holds.
func (s *Store) Len(src int) int {
	r := s.Ring(src)
	if r == nil {
		return 0
	}
	return r.Len()
}

// StageAt resolves the stage src was in at t.
func (s *Store) StageAt(src int, t time.Time) (Stage, bool) {
	r := s.Ring(src)
	if r == nil {
		return 0, false
	}
	return r.StageAt(t)
}
