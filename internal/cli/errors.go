package cli

import (
	"errors"

	"github.com/tOgg1/plotgraph/internal/plotlog"
)

// Process exit codes.
const (
	ExitUsage     = 1
	ExitLogFormat = 2
)

// ExitError carries the exit code the process should terminate with.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitCode wraps err with the exit code for its kind. A malformed plotter
// log is exit code 2, everything else is 1.
func exitCode(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	if errors.Is(err, plotlog.ErrBadTimestamp) {
		return &ExitError{Code: ExitLogFormat, Err: err}
	}
	return &ExitError{Code: ExitUsage, Err: err}
}
