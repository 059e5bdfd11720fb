package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tOgg1/plotgraph/internal/config"
	"github.com/tOgg1/plotgraph/internal/history"
	"github.com/tOgg1/plotgraph/internal/ingest"
	"github.com/tOgg1/plotgraph/internal/logging"
	"github.com/tOgg1/plotgraph/internal/plotlog"
)

const dumpTimeLayout = time.RFC3339

type dumpReport struct {
	Directories map[string]string `yaml:"directories,omitempty"`
	Sources     []dumpSource      `yaml:"sources"`
}

type dumpSource struct {
	Path         string    `yaml:"path"`
	Completed    int       `yaml:"completed"`
	AverageCycle string    `yaml:"average_cycle,omitempty"`
	LastEvent    string    `yaml:"last_event,omitempty"`
	Runs         []dumpRun `yaml:"runs"`
}

type dumpRun struct {
	Start    string      `yaml:"start"`
	Duration string      `yaml:"duration,omitempty"`
	Stages   []dumpStage `yaml:"stages"`
}

type dumpStage struct {
	Stage    string `yaml:"stage"`
	Start    string `yaml:"start"`
	Duration string `yaml:"duration,omitempty"`
}

func newDumpCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dump LOG...",
		Short: "Print the runs parsed from plotter logs as YAML",
		Long: `dump reads each log once, from the beginning, and prints every run it
still remembers along with the directories the plotter announced.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}
			ctx := logging.WithContext(cmd.Context(), logging.Component("dump"))
			return dumpLogs(ctx, cmd.OutOrStdout(), cfg, args)
		},
	}
}

// dumpLogs reads paths to the end and writes the parsed history to w.
func dumpLogs(ctx context.Context, w io.Writer, cfg *config.Config, paths []string) error {
	icfg := ingestConfig(cfg)
	icfg.PollWait = 0

	poller, err := ingest.Open(icfg, paths)
	if err != nil {
		return err
	}
	defer func() { _ = poller.Close() }()

	for {
		n, err := poller.PollOnce(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			break
		}
	}
	if _, err := poller.Finish(); err != nil {
		return err
	}

	logger := logging.FromContext(ctx)
	logger.Debug().Int("sources", len(paths)).Msg("logs read")

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(buildReport(poller)); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return enc.Close()
}

var pathKeys = [plotlog.NumPathFields]string{
	plotlog.PathTmp:   "tmp",
	plotlog.PathTmp2:  "tmp2",
	plotlog.PathFinal: "final",
}

func buildReport(p *ingest.Poller) dumpReport {
	var report dumpReport
	paths := p.Paths()
	for field := plotlog.PathField(0); field < plotlog.NumPathFields; field++ {
		if dir := paths.Get(field); dir != "" {
			if report.Directories == nil {
				report.Directories = make(map[string]string)
			}
			report.Directories[pathKeys[field]] = dir
		}
	}

	store := p.Store()
	for _, src := range p.Sources() {
		sum := p.Summary(src.Index)
		ds := dumpSource{
			Path:      src.Path,
			Completed: sum.Completed,
			Runs:      []dumpRun{},
		}
		if avg := sum.AverageCycle(); avg > 0 {
			ds.AverageCycle = avg.String()
		}
		if !sum.LastEvent.IsZero() {
			ds.LastEvent = sum.LastEvent.Format(dumpTimeLayout)
		}
		for _, run := range store.Runs(src.Index) {
			ds.Runs = append(ds.Runs, buildRun(run))
		}
		report.Sources = append(report.Sources, ds)
	}
	return report
}

func buildRun(run history.Run) dumpRun {
	dr := dumpRun{
		Start:  run.Start().Format(dumpTimeLayout),
		Stages: []dumpStage{},
	}
	if d, ok := run.Duration(); ok {
		dr.Duration = d.String()
	}
	for st := history.Stage(0); st < history.NumStages; st++ {
		begin, end, ok := run.StageSpan(st)
		if !ok {
			continue
		}
		ds := dumpStage{Stage: st.String(), Start: begin.Format(dumpTimeLayout)}
		if !end.IsZero() {
			ds.Duration = end.Sub(begin).String()
		}
		dr.Stages = append(dr.Stages, ds)
	}
	return dr
}
