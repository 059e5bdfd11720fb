package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tOgg1/plotgraph/internal/history"
	"github.com/tOgg1/plotgraph/internal/logging"
	"github.com/tOgg1/plotgraph/internal/plotlog"
)

// ErrNoSources is returned when a poller is created without any logs.
var ErrNoSources = errors.New("no log sources given")

// Config contains configuration for the log poller.
type Config struct {
	// HistoryCapacity is how many runs are kept per source.
	// Default: 512
	HistoryCapacity int

	// PollWait bounds the wait for new data once every source is drained.
	// Zero disables waiting.
	// Default: 500ms
	PollWait time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HistoryCapacity: history.DefaultCapacity,
		PollWait:        500 * time.Millisecond,
	}
}

// Option configures a Poller.
type Option func(*Poller)

// WithWaiter sets the readiness waiter used when sources are drained.
func WithWaiter(w Waiter) Option {
	return func(p *Poller) {
		p.waiter = w
	}
}

// WithMatcher replaces the default local-time matcher.
func WithMatcher(m *plotlog.Matcher) Option {
	return func(p *Poller) {
		p.matcher = m
	}
}

// WithLogger sets the poller's logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Poller) {
		p.logger = logger
	}
}

// Poller reads new lines from every source and folds them into the history
// store. It is the only writer of the store and is driven from the same
// goroutine that renders, so neither needs locking.
type Poller struct {
	config  Config
	sources []*Source
	store   *history.Store
	matcher *plotlog.Matcher
	waiter  Waiter
	logger  zerolog.Logger

	paths     PathState
	summaries []Summary
	newest    time.Time
}

// New creates a Poller over already opened sources.
func New(config Config, sources []*Source, opts ...Option) (*Poller, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	if config.HistoryCapacity <= 0 {
		config.HistoryCapacity = DefaultConfig().HistoryCapacity
	}
	if config.PollWait < 0 {
		config.PollWait = 0
	}

	p := &Poller{
		config:    config,
		sources:   sources,
		store:     history.NewStore(len(sources), config.HistoryCapacity),
		matcher:   plotlog.NewMatcher(nil),
		logger:    logging.Component("ingest"),
		summaries: make([]Summary, len(sources)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Open opens every path as a source and watches them for writes.
func Open(config Config, paths []string, opts ...Option) (*Poller, error) {
	if len(paths) == 0 {
		return nil, ErrNoSources
	}
	sources := make([]*Source, 0, len(paths))
	closeAll := func() {
		for _, s := range sources {
			_ = s.Close()
		}
	}
	for i, path := range paths {
		s, err := OpenSource(i, path)
		if err != nil {
			closeAll()
			return nil, err
		}
		sources = append(sources, s)
	}

	p, err := New(config, sources, opts...)
	if err != nil {
		closeAll()
		return nil, err
	}
	if p.waiter == nil && config.PollWait > 0 {
		w, err := NewFileWatcher(paths)
		if err != nil {
			// Without a watcher the poller still works, it just never waits.
			p.logger.Warn().Err(err).Msg("file watcher unavailable, polling without wait")
		} else {
			p.waiter = w
		}
	}
	for _, s := range sources {
		logger := logging.WithSource(p.logger, s.Index, s.Path)
		logger.Info().Msg("opened log")
	}
	return p, nil
}

// PollOnce ingests every complete line currently available. When all sources
// are drained it waits up to PollWait for any of them to grow, then drains
// once more. It returns the number of lines read. A malformed timestamp on a
// recognized line is returned as an error wrapping plotlog.ErrBadTimestamp.
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	n, err := p.drain()
	if err != nil || n > 0 {
		return n, err
	}
	if p.waiter == nil || p.config.PollWait <= 0 {
		return 0, nil
	}
	if !p.waiter.Wait(ctx, p.config.PollWait) {
		return 0, nil
	}
	logger := logging.FromContext(ctx)
	logger.Trace().Msg("log activity")
	return p.drain()
}

// Finish ingests unterminated trailing fragments. It is meant for one-shot
// reads of logs that are no longer growing.
func (p *Poller) Finish() (int, error) {
	n := 0
	for _, s := range p.sources {
		line, ok := s.Pending()
		if !ok {
			continue
		}
		if err := p.Ingest(s.Index, line); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (p *Poller) drain() (int, error) {
	total := 0
	for _, s := range p.sources {
		for {
			line, ok := s.ReadLine()
			if !ok {
				break
			}
			if err := p.Ingest(s.Index, line); err != nil {
				return total, err
			}
			total++
		}
	}
	return total, nil
}

// Ingest applies one line from source src.
func (p *Poller) Ingest(src int, line string) error {
	if src < 0 || src >= len(p.sources) {
		return fmt.Errorf("source %d out of range", src)
	}
	ev, ok, err := p.matcher.Match(line)
	if err != nil {
		return fmt.Errorf("%s: %w", p.sources[src].Path, err)
	}
	if !ok {
		return nil
	}

	switch ev.Kind {
	case plotlog.KindStage:
		p.applyStage(src, ev)
	default:
		p.applyAuxiliary(src, ev)
	}
	return nil
}

func (p *Poller) applyStage(src int, ev plotlog.Event) {
	if ev.Slot == 0 {
		p.store.BeginRun(src, ev.Time)
	} else if !p.store.SetStageTime(src, ev.Slot, ev.Time) {
		p.logger.Debug().Int("source", src).Int("slot", ev.Slot).Msg("boundary before first run start, ignored")
		p.observe(src, ev.Time)
		return
	}
	p.logger.Debug().
		Int("source", src).
		Int("slot", ev.Slot).
		Time("stamp", ev.Time).
		Msg("stage boundary")
	p.observe(src, ev.Time)
	if ev.Slot == history.SlotComplete {
		p.completeRun(src)
	}
}

func (p *Poller) applyAuxiliary(src int, ev plotlog.Event) {
	for _, path := range ev.Paths {
		if p.paths.Record(path.Field, path.Value) {
			p.logger.Info().Str("field", path.Field.String()).Str("dir", path.Value).Msg("discovered directory")
		}
	}
	if !ev.Backfill {
		return
	}
	run, ok := p.store.CurrentRun(src)
	if !ok || run.Complete() {
		return
	}
	prev := run.Stamps[history.SlotComplete-1]
	if prev.IsZero() {
		return
	}
	p.store.SetStageTime(src, history.SlotComplete, prev)
	p.observe(src, prev)
	p.completeRun(src)
}

func (p *Poller) completeRun(src int) {
	run, ok := p.store.CurrentRun(src)
	if !ok {
		return
	}
	if d, ok := run.Duration(); ok {
		p.summaries[src].addCycle(d)
	}
}

func (p *Poller) observe(src int, t time.Time) {
	p.summaries[src].observe(t)
	if t.After(p.newest) {
		p.newest = t
	}
}

// Store returns the history store the poller writes to.
func (p *Poller) Store() *history.Store {
	return p.store
}

// Sources returns the monitored sources in index order.
func (p *Poller) Sources() []*Source {
	return p.sources
}

// Newest returns the latest event timestamp seen across all sources.
func (p *Poller) Newest() time.Time {
	return p.newest
}

// Paths returns the directories discovered so far.
func (p *Poller) Paths() PathState {
	return p.paths
}

// Summary returns the statistics for source src.
func (p *Poller) Summary(src int) Summary {
	if src < 0 || src >= len(p.summaries) {
		return Summary{}
	}
	return p.summaries[src]
}

// Close closes all sources and the waiter.
func (p *Poller) Close() error {
	var errs []error
	for _, s := range p.sources {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.waiter != nil {
		if err := p.waiter.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
