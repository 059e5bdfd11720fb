// Package diskfree reports free space on the filesystems the plotter writes to.
package diskfree

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/tOgg1/plotgraph/internal/logging"
)

// Free returns the bytes available to unprivileged users on the filesystem
// holding path.
func Free(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	return uint64(st.Bavail) * uint64(st.Bsize), nil
}

// Checker looks up free space and remembers which paths already failed so a
// broken mount is reported once rather than on every frame.
type Checker struct {
	lookup func(string) (uint64, error)
	failed map[string]struct{}
	logger zerolog.Logger
}

// NewChecker returns a Checker backed by Free.
func NewChecker() *Checker {
	return &Checker{
		lookup: Free,
		failed: make(map[string]struct{}),
		logger: logging.Component("diskfree"),
	}
}

// Describe returns a human readable free-space figure for path, or "" when
// the lookup fails.
func (c *Checker) Describe(path string) string {
	if path == "" {
		return ""
	}
	free, err := c.lookup(path)
	if err != nil {
		if _, seen := c.failed[path]; !seen {
			c.failed[path] = struct{}{}
			c.logger.Warn().Err(err).Str("path", path).Msg("disk space lookup failed")
		}
		return ""
	}
	delete(c.failed, path)
	return humanize.IBytes(free) + " free"
}
