// Package history keeps a bounded record of plotting runs per log source and
// resolves which stage a source was in at a given instant.
package history

import "time"

// Stage is one phase of the plotting pipeline.
type Stage int

const (
	StageForward Stage = iota
	StageBackprop
	StageCompress
	StageWrite
	StageCopy
	NumStages
)

// NumSlots is the number of boundary timestamps a run records: the start of
// every stage plus the completion of the last one.
const NumSlots = int(NumStages) + 1

// SlotComplete is the slot that marks the end of a run.
const SlotComplete = NumSlots - 1

var stageNames = [NumStages]string{
	StageForward:  "forward",
	StageBackprop: "backprop",
	StageCompress: "compress",
	StageWrite:    "write",
	StageCopy:     "copy",
}

func (s Stage) String() string {
	if s < 0 || s >= NumStages {
		return "unknown"
	}
	return stageNames[s]
}

// Run is one pass through the pipeline. A zero slot has not been reached.
type Run struct {
	Stamps [NumSlots]time.Time
}

// Start returns when the run began.
func (r Run) Start() time.Time {
	return r.Stamps[0]
}

// Complete reports whether the run reached its final slot.
func (r Run) Complete() bool {
	return !r.Stamps[SlotComplete].IsZero()
}

// Duration returns the wall-clock length of a completed run.
func (r Run) Duration() (time.Duration, bool) {
	if r.Stamps[0].IsZero() || !r.Complete() {
		return 0, false
	}
	return r.Stamps[SlotComplete].Sub(r.Stamps[0]), true
}

// StageSpan returns when stage st began and when it ended. A stage whose
// successor slot is unset is bounded by the next set slot; end is zero while
// nothing later has been reached.
func (r Run) StageSpan(st Stage) (begin, end time.Time, ok bool) {
	if st < 0 || st >= NumStages || r.Stamps[st].IsZero() {
		return time.Time{}, time.Time{}, false
	}
	return r.Stamps[st], r.nextSet(int(st) + 1), true
}

// StageAt reports which stage of this run covers t. Stages are tried from the
// last to the first so an open-ended stage in progress is preferred.
func (r Run) StageAt(t time.Time) (Stage, bool) {
	for st := NumStages - 1; st >= 0; st-- {
		begin, end, ok := r.StageSpan(st)
		if !ok || t.Before(begin) {
			continue
		}
		if end.IsZero() || t.Before(end) {
			return st, true
		}
	}
	return 0, false
}

func (r Run) nextSet(from int) time.Time {
	for k := from; k < NumSlots; k++ {
		if !r.Stamps[k].IsZero() {
			return r.Stamps[k]
		}
	}
	return time.Time{}
}
