package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2021, time.May, 15, 12, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return base.Add(time.Duration(minutes) * time.Minute)
}

func TestRingEvictsOldest(t *testing.T) {
	const capacity = 8
	r := NewRing(capacity)
	require.Equal(t, capacity, r.Cap())

	r.Begin(at(0))
	for i := 1; i <= capacity+1; i++ {
		r.Begin(at(i))
	}

	require.Equal(t, capacity, r.Len())
	runs := r.Runs()
	require.Len(t, runs, capacity)
	for i, run := range runs {
		assert.Equal(t, at(i+2), run.Start(), "run %d", i)
	}
}

func TestRingWrapsManyTimes(t *testing.T) {
	r := NewRing(3)
	for i := 0; i < 100; i++ {
		r.Begin(at(i))
		require.LessOrEqual(t, r.Len(), 3)
	}
	runs := r.Runs()
	require.Len(t, runs, 3)
	require.Equal(t, at(97), runs[0].Start())
	require.Equal(t, at(99), runs[2].Start())

	cur, ok := r.Current()
	require.True(t, ok)
	require.Equal(t, at(99), cur.Start())
}

func TestBeginRunResetsReusedSlot(t *testing.T) {
	r := NewRing(1)
	r.Begin(at(0))
	require.True(t, r.SetStage(SlotComplete, at(10)))
	r.Begin(at(20))

	cur, ok := r.Current()
	require.True(t, ok)
	require.Equal(t, at(20), cur.Start())
	require.False(t, cur.Complete())
}

func TestSetStageTimeWithoutRunIsNoop(t *testing.T) {
	s := NewStore(2, 4)

	require.False(t, s.SetStageTime(0, 4, at(5)))
	require.Equal(t, 0, s.Len(0))
	_, ok := s.CurrentRun(0)
	require.False(t, ok)
}

func TestSetStageTimeMutatesNewestOnly(t *testing.T) {
	s := NewStore(1, 4)
	s.BeginRun(0, at(0))
	s.BeginRun(0, at(100))

	require.True(t, s.SetStageTime(0, 4, at(150)))
	require.Equal(t, 2, s.Len(0))

	runs := s.Runs(0)
	require.True(t, runs[0].Stamps[4].IsZero())
	require.Equal(t, at(150), runs[1].Stamps[4])
}

func TestSetStageTimeRejectsBadSlot(t *testing.T) {
	s := NewStore(1, 4)
	s.BeginRun(0, at(0))
	require.False(t, s.SetStageTime(0, NumSlots, at(1)))
	require.False(t, s.SetStageTime(0, -1, at(1)))
}

func TestStoreOutOfRangeSource(t *testing.T) {
	s := NewStore(1, 4)
	s.BeginRun(3, at(0))
	require.Nil(t, s.Ring(3))
	require.Nil(t, s.Runs(-1))
	require.Equal(t, 0, s.Len(5))
	_, ok := s.StageAt(2, at(0))
	require.False(t, ok)
}

func TestStageAtBeforeFirstRun(t *testing.T) {
	s := NewStore(1, 4)
	s.BeginRun(0, at(10))

	_, ok := s.StageAt(0, at(9))
	require.False(t, ok)

	st, ok := s.StageAt(0, at(10))
	require.True(t, ok)
	require.Equal(t, StageForward, st)
}

func TestStageAtEmptyHistory(t *testing.T) {
	s := NewStore(1, 4)
	_, ok := s.StageAt(0, at(0))
	require.False(t, ok)
}

func TestStageAtSkipsUnsetSlots(t *testing.T) {
	var run Run
	run.Stamps[0] = at(0)
	run.Stamps[1] = at(10)
	run.Stamps[5] = at(50)

	for m := 10; m < 50; m++ {
		st, ok := run.StageAt(at(m))
		require.True(t, ok, "minute %d", m)
		require.Equal(t, StageBackprop, st, "minute %d", m)
	}

	st, ok := run.StageAt(at(5))
	require.True(t, ok)
	require.Equal(t, StageForward, st)

	_, ok = run.StageAt(at(50))
	require.False(t, ok)
}

func TestStageAtFullRun(t *testing.T) {
	s := NewStore(1, 4)
	s.BeginRun(0, at(0))
	for slot := 1; slot < NumSlots; slot++ {
		require.True(t, s.SetStageTime(0, slot, at(slot*10)))
	}

	tests := []struct {
		minute int
		want   Stage
		ok     bool
	}{
		{minute: 0, want: StageForward, ok: true},
		{minute: 9, want: StageForward, ok: true},
		{minute: 10, want: StageBackprop, ok: true},
		{minute: 25, want: StageCompress, ok: true},
		{minute: 30, want: StageWrite, ok: true},
		{minute: 49, want: StageCopy, ok: true},
		{minute: 50, ok: false},
		{minute: 500, ok: false},
	}
	for _, tt := range tests {
		st, ok := s.StageAt(0, at(tt.minute))
		require.Equal(t, tt.ok, ok, "minute %d", tt.minute)
		if tt.ok {
			require.Equal(t, tt.want, st, "minute %d", tt.minute)
		}
	}
}

func TestStageAtInProgressIsOpenEnded(t *testing.T) {
	s := NewStore(1, 4)
	s.BeginRun(0, at(0))
	s.SetStageTime(0, 1, at(10))
	s.SetStageTime(0, 2, at(20))

	st, ok := s.StageAt(0, at(10_000))
	require.True(t, ok)
	require.Equal(t, StageCompress, st)
}

func TestStageAtPrefersMostRecentRunOnOverlap(t *testing.T) {
	s := NewStore(1, 4)
	// Abandoned run that never progressed past backprop.
	s.BeginRun(0, at(0))
	s.SetStageTime(0, 1, at(10))
	// A new run started later and is still in forward propagation.
	s.BeginRun(0, at(30))

	st, ok := s.StageAt(0, at(40))
	require.True(t, ok)
	require.Equal(t, StageForward, st)

	st, ok = s.StageAt(0, at(20))
	require.True(t, ok)
	require.Equal(t, StageBackprop, st)
}

func TestRunDuration(t *testing.T) {
	var run Run
	_, ok := run.Duration()
	require.False(t, ok)

	run.Stamps[0] = at(0)
	run.Stamps[SlotComplete] = at(90)
	d, ok := run.Duration()
	require.True(t, ok)
	require.Equal(t, 90*time.Minute, d)
}

func TestStageString(t *testing.T) {
	require.Equal(t, "forward", StageForward.String())
	require.Equal(t, "copy", StageCopy.String())
	require.Equal(t, "unknown", Stage(42).String())
}

func TestRunStageSpan(t *testing.T) {
	var run Run
	run.Stamps[0] = at(0)
	run.Stamps[1] = at(10)
	run.Stamps[4] = at(50)

	begin, end, ok := run.StageSpan(StageBackprop)
	require.True(t, ok)
	require.Equal(t, at(10), begin)
	require.Equal(t, at(50), end)

	_, _, ok = run.StageSpan(StageCompress)
	require.False(t, ok)

	begin, end, ok = run.StageSpan(StageCopy)
	require.True(t, ok)
	require.Equal(t, at(50), begin)
	require.True(t, end.IsZero())

	_, _, ok = run.StageSpan(NumStages)
	require.False(t, ok)
}
