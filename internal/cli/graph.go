package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tOgg1/plotgraph/internal/config"
	"github.com/tOgg1/plotgraph/internal/grapher"
	"github.com/tOgg1/plotgraph/internal/ingest"
	"github.com/tOgg1/plotgraph/internal/logging"
	"github.com/tOgg1/plotgraph/internal/monitor"
)

// Size of the virtual terminal used when frames are not drawn.
const (
	headlessCols = 80
	headlessRows = 24
)

var errNoTTY = errors.New("plotgraph needs an interactive terminal; use --skip-draw to run without one")

func hasTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// monitorConfig translates the graph settings for the monitor loop.
func monitorConfig(cfg *config.Config) monitor.Config {
	mode := grapher.ModeDoubleColumn
	if !cfg.Graph.DoubleColumn {
		mode = grapher.ModeDoubleRow
	}
	return monitor.Config{
		FrameInterval:   cfg.Graph.FrameInterval,
		RefreshInterval: cfg.Graph.RefreshInterval,
		Bucket:          cfg.Graph.Bucket,
		BandPeriod:      cfg.Graph.BandPeriod,
		Mode:            mode,
		SkipDraw:        cfg.Graph.SkipDraw,
	}
}

func ingestConfig(cfg *config.Config) ingest.Config {
	return ingest.Config{
		HistoryCapacity: cfg.Ingest.HistoryCapacity,
		PollWait:        cfg.Ingest.PollWait,
	}
}

// runGraph tails paths and draws the live timeline until the user quits.
func runGraph(cmd *cobra.Command, cfg *config.Config, paths []string) error {
	if !cfg.Graph.SkipDraw && !hasTTY() {
		return errNoTTY
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poller, err := ingest.Open(ingestConfig(cfg), paths)
	if err != nil {
		return err
	}
	defer func() { _ = poller.Close() }()

	var terminal monitor.Terminal
	if cfg.Graph.SkipDraw {
		terminal = monitor.NewHeadless(headlessCols, headlessRows)
	} else {
		tty, err := monitor.OpenTTY(os.Stdin, os.Stdout)
		if err != nil {
			return err
		}
		defer func() {
			if err := tty.Close(); err != nil {
				logging.Logger.Warn().Err(err).Msg("failed to restore terminal")
			}
		}()
		terminal = tty
	}

	mon := monitor.New(monitorConfig(cfg), poller, terminal, cmd.OutOrStdout())
	return mon.Run(ctx)
}
