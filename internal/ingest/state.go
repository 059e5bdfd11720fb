package ingest

import (
	"time"

	"github.com/tOgg1/plotgraph/internal/plotlog"
)

// PathState holds the directories announced by the plotter. Each field is
// set by its first announcement; repeats after a plotter restart are ignored.
type PathState struct {
	values [plotlog.NumPathFields]string
}

// Record stores value for field unless the field is already set. It reports
// whether the value was stored.
func (p *PathState) Record(field plotlog.PathField, value string) bool {
	if field < 0 || field >= plotlog.NumPathFields || value == "" {
		return false
	}
	if p.values[field] != "" {
		return false
	}
	p.values[field] = value
	return true
}

// Get returns the directory recorded for field.
func (p PathState) Get(field plotlog.PathField) string {
	if field < 0 || field >= plotlog.NumPathFields {
		return ""
	}
	return p.values[field]
}

// Summary holds derived statistics for one source.
type Summary struct {
	// Completed counts runs that reached their final slot.
	Completed int
	// LastEvent is the newest timestamp seen in this source.
	LastEvent time.Time

	total time.Duration
}

// AverageCycle returns the mean duration of completed runs.
func (s Summary) AverageCycle() time.Duration {
	if s.Completed == 0 {
		return 0
	}
	return s.total / time.Duration(s.Completed)
}

func (s *Summary) addCycle(d time.Duration) {
	if d < 0 {
		return
	}
	s.Completed++
	s.total += d
}

func (s *Summary) observe(t time.Time) {
	if t.After(s.LastEvent) {
		s.LastEvent = t
	}
}
