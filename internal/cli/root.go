// Package cli implements the plotgraph command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tOgg1/plotgraph/internal/config"
	"github.com/tOgg1/plotgraph/internal/logging"
)

// Execute runs the root command with os.Args.
func Execute(version string) error {
	return exitCode(newRootCmd(version).Execute())
}

// globalFlags are the flags shared by every command.
type globalFlags struct {
	configFile string
	doubleRow  bool
}

// flagKeys maps flag names to the config keys they override.
var flagKeys = map[string]string{
	"log-level":        "logging.level",
	"log-format":       "logging.format",
	"log-file":         "logging.file",
	"history":          "ingest.history_capacity",
	"poll-wait":        "ingest.poll_wait",
	"bucket":           "graph.bucket",
	"band-period":      "graph.band_period",
	"frame-interval":   "graph.frame_interval",
	"refresh-interval": "graph.refresh_interval",
	"skip-draw":        "graph.skip_draw",
}

func newRootCmd(version string) *cobra.Command {
	flags := &globalFlags{}
	def := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "plotgraph [flags] LOG...",
		Short: "Live timeline of chia plotting stages",
		Long: `plotgraph tails one or more chia plotter logs and draws a scrolling
timeline of the stage each plotter was in, one row per log.

Press q or ESC to quit.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			return runGraph(cmd, cfg, args)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "config file (default "+config.DefaultConfigDir()+"/config.yaml)")
	pf.String("log-level", def.Logging.Level, "log level: trace|debug|info|warn|error")
	pf.String("log-format", def.Logging.Format, "log format: console|json")
	pf.String("log-file", "", "write logs to this file instead of stderr")
	pf.Int("history", def.Ingest.HistoryCapacity, "runs kept per log")
	pf.Duration("poll-wait", def.Ingest.PollWait, "how long one poll waits for log growth")

	f := cmd.Flags()
	f.Duration("bucket", def.Graph.Bucket, "time covered by one pixel column")
	f.Duration("band-period", def.Graph.BandPeriod, "width of the alternating time bands")
	f.Duration("frame-interval", def.Graph.FrameInterval, "sleep between loop iterations")
	f.Duration("refresh-interval", def.Graph.RefreshInterval, "redraw at least this often")
	f.Bool("skip-draw", def.Graph.SkipDraw, "compute frames without drawing them")
	f.BoolVar(&flags.doubleRow, "double-row", false, "pack two rows per cell instead of two columns")

	cmd.AddCommand(newDumpCmd(flags))
	return cmd
}

// loadConfig loads configuration with the command's flags layered on top and
// initialises logging from it.
func loadConfig(cmd *cobra.Command, flags *globalFlags) (*config.Config, error) {
	loader := config.NewLoader()
	if flags.configFile != "" {
		loader.SetConfigFile(flags.configFile)
	}

	v := loader.Viper()
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(key, f)
	})
	if bindErr != nil {
		return nil, fmt.Errorf("bind flags: %w", bindErr)
	}
	if cmd.Flags().Changed("double-row") {
		v.Set("graph.double_column", !flags.doubleRow)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	if err := initLogging(cfg); err != nil {
		return nil, err
	}
	if used := loader.ConfigFileUsed(); used != "" {
		logging.Logger.Debug().Str("file", used).Msg("loaded config")
	}
	return cfg, nil
}

func initLogging(cfg *config.Config) error {
	out := os.Stderr
	if cfg.Logging.File != "" {
		f, err := logging.OpenFile(cfg.Logging.File)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		out = f
	}
	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       out,
		EnableCaller: cfg.Logging.EnableCaller,
	})
	return nil
}
