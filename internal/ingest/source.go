// Package ingest tails plotter logs and turns their lines into stage history.
package ingest

import (
	"bufio"
	"fmt"
	"os"
)

// Source is one monitored, append-only log file. It reads complete lines
// only; a trailing fragment without a newline is held back until the rest
// of the line has been written.
type Source struct {
	Index int
	Path  string

	file    *os.File
	reader  *bufio.Reader
	partial []byte
}

// OpenSource opens path for tailing from its beginning.
func OpenSource(index int, path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", path, err)
	}
	return &Source{
		Index:  index,
		Path:   path,
		file:   f,
		reader: bufio.NewReader(f),
	}, nil
}

// ReadLine returns the next complete line, including its terminator. It
// reports false when no complete line is available yet; end of file is not
// sticky, so a later call picks up whatever has been appended since.
func (s *Source) ReadLine() (string, bool) {
	chunk, err := s.reader.ReadString('\n')
	if err != nil {
		s.partial = append(s.partial, chunk...)
		return "", false
	}
	if len(s.partial) == 0 {
		return chunk, true
	}
	line := string(s.partial) + chunk
	s.partial = s.partial[:0]
	return line, true
}

// Pending returns and clears a held-back unterminated fragment. It is used
// when a log is read once to completion rather than tailed.
func (s *Source) Pending() (string, bool) {
	if len(s.partial) == 0 {
		return "", false
	}
	line := string(s.partial)
	s.partial = s.partial[:0]
	return line, true
}

// Close releases the underlying file.
func (s *Source) Close() error {
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}
