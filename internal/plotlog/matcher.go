// Package plotlog recognizes the plotter log lines that mark stage boundaries
// and the auxiliary lines that announce the directories a plot is using.
package plotlog

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// MinLineLength is the length in bytes a line must exceed before it is
// considered. It is measured after any trailing "\r" or "\n" is stripped,
// so the same line counts the same with LF, CRLF or no terminator.
// Shorter lines are noise or partial reads.
const MinLineLength = 30

// stampLayout is the trailing timestamp the plotter appends to stage lines,
// e.g. "Sat May 15 19:14:40 2021".
const stampLayout = time.ANSIC

// ErrBadTimestamp is returned when a recognized stage line does not end in a
// parseable timestamp. Callers treat it as fatal: continuing would corrupt the
// stage history with a wrong or missing boundary.
var ErrBadTimestamp = errors.New("malformed log timestamp")

// Kind classifies a matched line.
type Kind int

const (
	KindNone Kind = iota
	// KindStage marks a stage boundary and carries a timestamp.
	KindStage
	// KindTempDirs announces the temporary directories of a plot.
	KindTempDirs
	// KindFinalDir announces the destination directory of a plot.
	KindFinalDir
	// KindRenamed reports that the finished plot was renamed in place
	// instead of copied, so no copy-time line will follow.
	KindRenamed
)

func (k Kind) String() string {
	switch k {
	case KindStage:
		return "stage"
	case KindTempDirs:
		return "temp-dirs"
	case KindFinalDir:
		return "final-dir"
	case KindRenamed:
		return "renamed"
	default:
		return "none"
	}
}

// PathField names one of the shared directory slots.
type PathField int

const (
	PathTmp PathField = iota
	PathTmp2
	PathFinal
	NumPathFields
)

func (f PathField) String() string {
	switch f {
	case PathTmp:
		return "tmp"
	case PathTmp2:
		return "tmp2"
	case PathFinal:
		return "final"
	default:
		return "unknown"
	}
}

// Path is a directory extracted from an auxiliary line.
type Path struct {
	Field PathField
	Value string
}

// Event is the result of a successful match.
type Event struct {
	Kind   Kind
	Phrase string

	// Slot is the run slot a stage line sets (0 starts a new run).
	Slot int
	// Time is the parsed trailing timestamp of a stage line.
	Time time.Time

	// Paths holds the directories announced by an auxiliary line.
	Paths []Path
	// Backfill asks the caller to copy the previous slot into the
	// cycle-complete slot when that slot was never set.
	Backfill bool
}

type phrase struct {
	prefix string
	kind   Kind
	slot   int
}

// phrases is ordered by priority: when several prefixes match a line the
// last one wins.
var phrases = []phrase{
	{prefix: "Starting phase 1/4:", kind: KindStage, slot: 0},
	{prefix: "Starting phase 2/4:", kind: KindStage, slot: 1},
	{prefix: "Starting phase 3/4:", kind: KindStage, slot: 2},
	{prefix: "Starting phase 4/4:", kind: KindStage, slot: 3},
	{prefix: "Time for phase 4 = ", kind: KindStage, slot: 4},
	{prefix: "Copy time = ", kind: KindStage, slot: 5},
	{prefix: "Starting plotting progress into temporary dirs: ", kind: KindTempDirs, slot: -1},
	{prefix: "Final Directory is: ", kind: KindFinalDir, slot: -1},
	{prefix: "Renamed final file from ", kind: KindRenamed, slot: -1},
}

// Phrases returns the recognized prefixes in priority order.
func Phrases() []string {
	out := make([]string, len(phrases))
	for i, p := range phrases {
		out[i] = p.prefix
	}
	return out
}

// Matcher matches plotter log lines. The zero value parses timestamps in
// the local time zone.
type Matcher struct {
	loc *time.Location
}

// NewMatcher returns a matcher that interprets timestamps in loc.
// A nil loc means time.Local.
func NewMatcher(loc *time.Location) *Matcher {
	return &Matcher{loc: loc}
}

// Match reports whether line is a recognized event. A recognized stage line
// with an unparseable timestamp yields an error wrapping ErrBadTimestamp.
func (m *Matcher) Match(line string) (Event, bool, error) {
	line = strings.TrimRight(line, "\r\n")
	if len(line) <= MinLineLength {
		return Event{}, false, nil
	}

	match := -1
	for i, p := range phrases {
		if strings.HasPrefix(line, p.prefix) {
			match = i
		}
	}
	if match < 0 {
		return Event{}, false, nil
	}

	p := phrases[match]
	ev := Event{Kind: p.kind, Phrase: p.prefix, Slot: p.slot}
	rest := line[len(p.prefix):]

	switch p.kind {
	case KindStage:
		t, err := m.parseStamp(line)
		if err != nil {
			return Event{}, false, err
		}
		ev.Time = t
	case KindTempDirs:
		tmp, tmp2, found := strings.Cut(rest, " and ")
		ev.Paths = appendPath(ev.Paths, PathTmp, tmp)
		if found {
			ev.Paths = appendPath(ev.Paths, PathTmp2, tmp2)
		}
	case KindFinalDir:
		ev.Paths = appendPath(ev.Paths, PathFinal, rest)
	case KindRenamed:
		ev.Backfill = true
		if _, dst, ok := strings.Cut(rest, ` to "`); ok {
			if end := strings.IndexByte(dst, '"'); end > 0 {
				ev.Paths = appendPath(ev.Paths, PathFinal, filepath.Dir(dst[:end]))
			}
		}
	}
	return ev, true, nil
}

func (m *Matcher) parseStamp(line string) (time.Time, error) {
	if len(line) < len(stampLayout) {
		return time.Time{}, fmt.Errorf("%w: line too short for timestamp: %q", ErrBadTimestamp, line)
	}
	stamp := line[len(line)-len(stampLayout):]
	loc := m.loc
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(stampLayout, stamp, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrBadTimestamp, stamp, err)
	}
	return t, nil
}

func appendPath(paths []Path, field PathField, value string) []Path {
	value = strings.TrimSpace(value)
	if value == "" {
		return paths
	}
	return append(paths, Path{Field: field, Value: value})
}
