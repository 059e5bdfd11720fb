package history

import "time"

// DefaultCapacity is how many runs are kept per source.
const DefaultCapacity = 512

// Ring is a fixed-capacity circular buffer of runs. Appending to a full ring
// evicts the oldest run. Only the newest run may change.
type Ring struct {
	// runs has one spare slot so head == tail can mean empty while
	// still holding capacity runs.
	runs []Run
	head int
	tail int
}

// NewRing returns an empty ring holding up to capacity runs.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{runs: make([]Run, capacity+1)}
}

// Cap returns the maximum number of runs retained.
func (r *Ring) Cap() int {
	return len(r.runs) - 1
}

// Len returns the number of runs currently held.
func (r *Ring) Len() int {
	n := r.tail - r.head
	if n < 0 {
		n += len(r.runs)
	}
	return n
}

// Begin appends a new run that started at t.
func (r *Ring) Begin(t time.Time) {
	r.tail = (r.tail + 1) % len(r.runs)
	if r.tail == r.head {
		r.head = (r.head + 1) % len(r.runs)
	}
	r.runs[r.newest()] = Run{}
	r.runs[r.newest()].Stamps[0] = t
}

// SetStage records t in slot of the newest run. It reports false when the
// ring is empty or the slot is out of range.
func (r *Ring) SetStage(slot int, t time.Time) bool {
	if r.head == r.tail || slot < 0 || slot >= NumSlots {
		return false
	}
	r.runs[r.newest()].Stamps[slot] = t
	return true
}

// Current returns the newest run.
func (r *Ring) Current() (Run, bool) {
	if r.head == r.tail {
		return Run{}, false
	}
	return r.runs[r.newest()], true
}

// Runs returns a copy of the held runs, oldest first.
func (r *Ring) Runs() []Run {
	out := make([]Run, 0, r.Len())
	for i := r.head; i != r.tail; i = (i + 1) % len(r.runs) {
		out = append(out, r.runs[i])
	}
	return out
}

// StageAt resolves the stage active at t. Runs are scanned newest first, so
// when two runs overlap the most recently started one wins.
func (r *Ring) StageAt(t time.Time) (Stage, bool) {
	for i := r.tail; i != r.head; {
		i--
		if i < 0 {
			i += len(r.runs)
		}
		if st, ok := r.runs[i].StageAt(t); ok {
			return st, true
		}
	}
	return 0, false
}

func (r *Ring) newest() int {
	cur := r.tail - 1
	if cur < 0 {
		cur += len(r.runs)
	}
	return cur
}
