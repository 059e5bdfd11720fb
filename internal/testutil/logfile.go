// Package testutil provides helpers for tests that need plotter log files.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// StampLayout formats timestamps the way the plotter appends them.
const StampLayout = time.ANSIC

// Stamp formats t as a plotter line suffix.
func Stamp(t time.Time) string {
	return t.Format(StampLayout)
}

// PhaseStart builds a "Starting phase N/4:" line stamped at t.
func PhaseStart(phase int, t time.Time) string {
	return "Starting phase " + string(rune('0'+phase)) + "/4: Working into tmp files... " + Stamp(t)
}

// PhaseFourTime builds the "Time for phase 4" line stamped at t.
func PhaseFourTime(t time.Time) string {
	return "Time for phase 4 = 604.377 seconds. CPU (99.150%) " + Stamp(t)
}

// CopyTime builds the "Copy time" line stamped at t.
func CopyTime(t time.Time) string {
	return "Copy time = 439.956 seconds. CPU (36.830%) " + Stamp(t)
}

// WriteLog creates a log file in a temp dir containing lines, each
// terminated by a newline, and returns its path.
func WriteLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plot.log")
	if err := os.WriteFile(path, []byte(joinLines(lines)), 0644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

// AppendLog appends raw text to the log at path.
func AppendLog(t *testing.T, path, text string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(text); err != nil {
		t.Fatalf("append log: %v", err)
	}
}

// AppendLines appends newline-terminated lines to the log at path.
func AppendLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	AppendLog(t, path, joinLines(lines))
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
