package monitor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

const (
	hideCursor = "\x1b[?25l"
	showCursor = "\x1b[?25h"
)

// Terminal is the interactive side of the monitor: its size, resize
// notifications and keyboard input. None of its methods may block.
type Terminal interface {
	// Size returns the terminal size in cells.
	Size() (cols, rows int, err error)
	// Resized reports whether the terminal changed size since the last call.
	Resized() bool
	// ReadKey returns one pending key press, if any.
	ReadKey() (key byte, ok bool, err error)
	Close() error
}

// TTY is a Terminal backed by the controlling terminal in raw mode.
type TTY struct {
	in    *os.File
	out   *os.File
	state *term.State
	winch chan os.Signal
}

// OpenTTY switches in to raw mode and starts listening for SIGWINCH.
func OpenTTY(in, out *os.File) (*TTY, error) {
	state, err := term.MakeRaw(int(in.Fd()))
	if err != nil {
		return nil, fmt.Errorf("failed to enter raw mode: %w", err)
	}

	winch := make(chan os.Signal, 1)
	signal.Notify(winch, unix.SIGWINCH)

	_, _ = io.WriteString(out, hideCursor)
	return &TTY{in: in, out: out, state: state, winch: winch}, nil
}

// Size returns the size of the output terminal.
func (t *TTY) Size() (int, int, error) {
	return term.GetSize(int(t.out.Fd()))
}

// Resized drains pending SIGWINCH notifications.
func (t *TTY) Resized() bool {
	resized := false
	for {
		select {
		case <-t.winch:
			resized = true
		default:
			return resized
		}
	}
}

// ReadKey polls stdin with a zero timeout and reads one byte when available.
func (t *TTY) ReadKey() (byte, bool, error) {
	fd := int(t.in.Fd())
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, 0)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("poll stdin: %w", err)
	}
	if n == 0 || fds[0].Revents&unix.POLLIN == 0 {
		return 0, false, nil
	}

	var buf [1]byte
	n, err = unix.Read(fd, buf[:])
	if err != nil {
		if errors.Is(err, unix.EINTR) || errors.Is(err, unix.EAGAIN) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("read stdin: %w", err)
	}
	if n == 0 {
		return 0, false, nil
	}
	return buf[0], true, nil
}

// Close restores the terminal mode and stops signal delivery.
func (t *TTY) Close() error {
	signal.Stop(t.winch)
	_, _ = io.WriteString(t.out, showCursor)
	return term.Restore(int(t.in.Fd()), t.state)
}

// Headless is a Terminal of fixed size with no keyboard, used when frames
// are computed but not drawn.
type Headless struct {
	Cols, Rows int
}

// NewHeadless returns a headless terminal of cols×rows cells.
func NewHeadless(cols, rows int) *Headless {
	return &Headless{Cols: cols, Rows: rows}
}

func (h *Headless) Size() (int, int, error) { return h.Cols, h.Rows, nil }

func (h *Headless) Resized() bool { return false }

func (h *Headless) ReadKey() (byte, bool, error) { return 0, false, nil }

func (h *Headless) Close() error { return nil }
