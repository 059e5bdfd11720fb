// Package monitor runs the live plotting timeline: it tails the logs, redraws
// the graph when something changed and watches the keyboard for quit keys.
// Everything happens on the calling goroutine.
package monitor

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tOgg1/plotgraph/internal/diskfree"
	"github.com/tOgg1/plotgraph/internal/grapher"
	"github.com/tOgg1/plotgraph/internal/ingest"
	"github.com/tOgg1/plotgraph/internal/logging"
	"github.com/tOgg1/plotgraph/internal/plotlog"
	"github.com/tOgg1/plotgraph/internal/raster"
)

// Size used when the terminal cannot report one.
const (
	fallbackCols = 80
	fallbackRows = 24
)

// Config controls the loop timing and the graph layout.
type Config struct {
	FrameInterval   time.Duration
	RefreshInterval time.Duration
	Bucket          time.Duration
	BandPeriod      time.Duration
	Mode            grapher.Mode
	SkipDraw        bool
}

// DefaultConfig returns the standard timing and layout.
func DefaultConfig() Config {
	return Config{
		FrameInterval:   400 * time.Millisecond,
		RefreshInterval: time.Minute,
		Bucket:          450 * time.Second,
		BandPeriod:      time.Hour,
		Mode:            grapher.ModeDoubleColumn,
	}
}

// Describer reports free space for a directory.
type Describer interface {
	Describe(path string) string
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock overrides the wall clock.
func WithClock(clock func() time.Time) Option {
	return func(m *Monitor) {
		m.clock = clock
	}
}

// WithDescriber overrides the free-space lookup used in the status line.
func WithDescriber(d Describer) Option {
	return func(m *Monitor) {
		m.disk = d
	}
}

// WithLogger overrides the monitor logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// Monitor ties a poller to a terminal renderer.
type Monitor struct {
	config     Config
	poller     *ingest.Poller
	term       Terminal
	renderer   *grapher.Renderer
	compositor *raster.Compositor
	disk       Describer
	clock      func() time.Time
	logger     zerolog.Logger
	sessionID  string

	sized    bool
	forced   bool
	rendered time.Time // newest event included in the last frame
	lastDraw time.Time
}

// New creates a monitor drawing the poller's history to out.
func New(config Config, poller *ingest.Poller, t Terminal, out io.Writer, opts ...Option) *Monitor {
	def := DefaultConfig()
	if config.FrameInterval <= 0 {
		config.FrameInterval = def.FrameInterval
	}
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = def.RefreshInterval
	}

	sessionID := uuid.NewString()
	m := &Monitor{
		config: config,
		poller: poller,
		term:   t,
		renderer: grapher.New(out, grapher.Options{
			Mode:     config.Mode,
			SkipDraw: config.SkipDraw,
		}),
		compositor: raster.NewCompositor(poller.Store(), raster.Options{
			Bucket:     config.Bucket,
			BandPeriod: config.BandPeriod,
		}),
		disk:      diskfree.NewChecker(),
		clock:     time.Now,
		logger:    logging.Component("monitor"),
		sessionID: sessionID,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.WithSession(m.logger, sessionID)
	return m
}

// SessionID identifies this monitor run in the logs.
func (m *Monitor) SessionID() string {
	return m.sessionID
}

// Renderer returns the renderer the monitor draws with.
func (m *Monitor) Renderer() *grapher.Renderer {
	return m.renderer
}

// Run loops until a quit key is pressed, ctx is cancelled or ingestion
// fails. The screen is cleared on the way out.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info().
		Int("sources", len(m.poller.Sources())).
		Str("mode", m.config.Mode.String()).
		Bool("skip_draw", m.config.SkipDraw).
		Msg("monitor started")
	defer func() {
		if err := m.renderer.Close(); err != nil {
			m.logger.Warn().Err(err).Msg("failed to clear screen")
		}
	}()

	ctx = logging.WithContext(ctx, m.logger)

	timer := time.NewTimer(m.config.FrameInterval)
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			return nil
		}
		quit, err := m.Step(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			m.logger.Error().Err(err).Msg("monitor stopped")
			return err
		}
		if quit {
			m.logger.Info().Msg("quit requested")
			return nil
		}

		timer.Reset(m.config.FrameInterval)
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
	}
}

// Step runs one iteration of the loop without sleeping. It reports whether
// a quit key was pressed.
func (m *Monitor) Step(ctx context.Context) (bool, error) {
	if _, err := m.poller.PollOnce(ctx); err != nil {
		return false, err
	}

	if !m.sized || m.term.Resized() {
		if err := m.resize(); err != nil {
			return false, err
		}
	}

	now := m.clock()
	if m.needsRedraw(now) {
		if err := m.draw(now); err != nil {
			return false, err
		}
	}

	key, ok, err := m.term.ReadKey()
	if err != nil {
		return false, err
	}
	return ok && isQuitKey(key), nil
}

func (m *Monitor) resize() error {
	cols, rows, err := m.term.Size()
	if err != nil || cols <= 0 || rows <= 0 {
		if err != nil {
			m.logger.Warn().Err(err).Msg("terminal size unavailable")
		}
		cols, rows = fallbackCols, fallbackRows
	}
	if err := m.renderer.Resize(cols, rows); err != nil {
		return fmt.Errorf("resize: %w", err)
	}
	m.logger.Debug().Int("cols", cols).Int("rows", rows).Msg("resized")
	m.sized = true
	m.forced = true
	return nil
}

func (m *Monitor) needsRedraw(now time.Time) bool {
	switch {
	case m.forced:
		return true
	case m.poller.Newest().After(m.rendered):
		return true
	default:
		return now.Sub(m.lastDraw) >= m.config.RefreshInterval
	}
}

func (m *Monitor) draw(now time.Time) error {
	m.compositor.Compose(m.renderer.Raster(), now)
	m.renderer.SetStatus(m.status())
	if err := m.renderer.Render(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	m.rendered = m.poller.Newest()
	m.lastDraw = now
	m.forced = false
	return nil
}

var pathLabels = [plotlog.NumPathFields]string{
	plotlog.PathTmp:   "tmp",
	plotlog.PathTmp2:  "tmp2",
	plotlog.PathFinal: "final",
}

// status lists the plotting directories with their free space, followed by
// the number of finished runs and their average duration.
func (m *Monitor) status() string {
	var parts []string
	paths := m.poller.Paths()
	for field := plotlog.PathField(0); field < plotlog.NumPathFields; field++ {
		dir := paths.Get(field)
		if dir == "" {
			continue
		}
		part := pathLabels[field] + " " + dir
		if free := m.disk.Describe(dir); free != "" {
			part += " (" + free + ")"
		}
		parts = append(parts, part)
	}

	var completed int
	var total time.Duration
	for i := range m.poller.Sources() {
		s := m.poller.Summary(i)
		completed += s.Completed
		total += s.AverageCycle() * time.Duration(s.Completed)
	}
	if completed > 0 {
		avg := (total / time.Duration(completed)).Round(time.Minute)
		parts = append(parts, fmt.Sprintf("%d done, avg %s", completed, avg))
	}
	return strings.Join(parts, "  ")
}

func isQuitKey(key byte) bool {
	switch key {
	case 'q', 'Q', 0x1b, 0x03:
		return true
	}
	return false
}
