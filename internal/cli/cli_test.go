package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tOgg1/plotgraph/internal/plotlog"
	"github.com/tOgg1/plotgraph/internal/testutil"
)

func local(h, m, s int) time.Time {
	return time.Date(2021, time.May, 15, h, m, s, 0, time.Local)
}

// isolateEnv keeps user config files and env vars out of the test.
func isolateEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("SKIPDRAW", "")
	require.NoError(t, os.Unsetenv("SKIPDRAW"))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func execute(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd("test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), exitCode(err)
}

func TestDumpPrintsRuns(t *testing.T) {
	isolateEnv(t)
	path := testutil.WriteLog(t,
		"Starting plotting progress into temporary dirs: /mnt/tmp and /mnt/tmp2",
		"Final Directory is: /mnt/farm/plots",
		testutil.PhaseStart(1, local(10, 0, 0)),
		testutil.PhaseStart(2, local(12, 0, 0)),
		testutil.PhaseStart(3, local(13, 0, 0)),
		testutil.PhaseStart(4, local(14, 0, 0)),
		testutil.PhaseFourTime(local(15, 0, 0)),
		testutil.CopyTime(local(15, 30, 0)),
		testutil.PhaseStart(1, local(15, 30, 0)),
	)

	out, err := execute(t, context.Background(), "dump", path)
	require.NoError(t, err)

	var report dumpReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))

	assert.Equal(t, map[string]string{
		"tmp":   "/mnt/tmp",
		"tmp2":  "/mnt/tmp2",
		"final": "/mnt/farm/plots",
	}, report.Directories)

	require.Len(t, report.Sources, 1)
	src := report.Sources[0]
	assert.Equal(t, path, src.Path)
	assert.Equal(t, 1, src.Completed)
	assert.Equal(t, "5h30m0s", src.AverageCycle)
	require.Len(t, src.Runs, 2)

	first := src.Runs[0]
	assert.Equal(t, local(10, 0, 0).Format(time.RFC3339), first.Start)
	assert.Equal(t, "5h30m0s", first.Duration)
	require.Len(t, first.Stages, 5)
	assert.Equal(t, dumpStage{Stage: "forward", Start: local(10, 0, 0).Format(time.RFC3339), Duration: "2h0m0s"}, first.Stages[0])
	assert.Equal(t, "copy", first.Stages[4].Stage)
	assert.Equal(t, "30m0s", first.Stages[4].Duration)

	second := src.Runs[1]
	assert.Empty(t, second.Duration)
	require.Len(t, second.Stages, 1)
	assert.Empty(t, second.Stages[0].Duration)
}

func TestDumpReadsUnterminatedLastLine(t *testing.T) {
	isolateEnv(t)
	path := testutil.WriteLog(t)
	testutil.AppendLog(t, path, testutil.PhaseStart(1, local(9, 0, 0)))

	out, err := execute(t, context.Background(), "dump", path)
	require.NoError(t, err)

	var report dumpReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	require.Len(t, report.Sources, 1)
	require.Len(t, report.Sources[0].Runs, 1)
}

func TestDumpMultipleSources(t *testing.T) {
	isolateEnv(t)
	a := testutil.WriteLog(t, testutil.PhaseStart(1, local(9, 0, 0)))
	b := testutil.WriteLog(t, "nothing of interest in this log at all")

	out, err := execute(t, context.Background(), "dump", a, b)
	require.NoError(t, err)

	var report dumpReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	require.Len(t, report.Sources, 2)
	assert.Len(t, report.Sources[0].Runs, 1)
	assert.Empty(t, report.Sources[1].Runs)
	assert.Empty(t, report.Directories)
}

func TestDumpBadTimestampExitsTwo(t *testing.T) {
	isolateEnv(t)
	path := testutil.WriteLog(t, "Starting phase 3/4: Compression from tmp files into garbage timestamp!!")

	_, err := execute(t, context.Background(), "dump", path)
	require.Error(t, err)
	require.ErrorIs(t, err, plotlog.ErrBadTimestamp)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, ExitLogFormat, exitErr.Code)
}

func TestDumpMissingLog(t *testing.T) {
	isolateEnv(t)
	_, err := execute(t, context.Background(), "dump", filepath.Join(t.TempDir(), "missing.log"))

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, ExitUsage, exitErr.Code)
}

func TestRequiresLogArgument(t *testing.T) {
	isolateEnv(t)
	_, err := execute(t, context.Background())
	require.Error(t, err)

	_, err = execute(t, context.Background(), "dump")
	require.Error(t, err)
}

func TestInvalidFlagValueRejected(t *testing.T) {
	isolateEnv(t)
	path := testutil.WriteLog(t)
	_, err := execute(t, context.Background(), "--log-level", "chatty", "dump", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}

func TestSkipDrawRunsHeadless(t *testing.T) {
	isolateEnv(t)
	path := testutil.WriteLog(t, testutil.PhaseStart(1, local(9, 0, 0)))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	out, err := execute(t, ctx,
		"--skip-draw",
		"--frame-interval", "20ms",
		"--refresh-interval", "1s",
		"--poll-wait", "0s",
		path,
	)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGraphNeedsTerminal(t *testing.T) {
	if hasTTY() {
		t.Skip("running attached to a terminal")
	}
	isolateEnv(t)
	path := testutil.WriteLog(t)
	_, err := execute(t, context.Background(), path)
	require.ErrorIs(t, err, errNoTTY)
}

func TestLoadConfigFlagsAndEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv("SKIPDRAW", "yes")
	t.Setenv("PLOTGRAPH_GRAPH_BUCKET", "15m")

	cmd := newRootCmd("test")
	flags := &globalFlags{}
	require.NoError(t, cmd.ParseFlags([]string{"--double-row", "--history", "32", "--bucket", "5m"}))
	flags.doubleRow = true

	cfg, err := loadConfig(cmd, flags)
	require.NoError(t, err)
	assert.True(t, cfg.Graph.SkipDraw)
	assert.False(t, cfg.Graph.DoubleColumn)
	assert.Equal(t, 32, cfg.Ingest.HistoryCapacity)
	// Flags beat env vars.
	assert.Equal(t, 5*time.Minute, cfg.Graph.Bucket)

	mc := monitorConfig(cfg)
	assert.Equal(t, "double-row", mc.Mode.String())
	assert.True(t, mc.SkipDraw)
}

func TestLoadConfigFile(t *testing.T) {
	isolateEnv(t)
	file := filepath.Join(t.TempDir(), "plotgraph.yaml")
	require.NoError(t, os.WriteFile(file, []byte("graph:\n  refresh_interval: 2m\ningest:\n  history_capacity: 7\n"), 0644))

	cmd := newRootCmd("test")
	require.NoError(t, cmd.ParseFlags(nil))
	cfg, err := loadConfig(cmd, &globalFlags{configFile: file})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.Graph.RefreshInterval)
	assert.Equal(t, 7, cfg.Ingest.HistoryCapacity)
	assert.True(t, cfg.Graph.DoubleColumn)
}

func TestExitCode(t *testing.T) {
	require.NoError(t, exitCode(nil))

	err := exitCode(errors.New("boom"))
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, ExitUsage, exitErr.Code)
	assert.Equal(t, "boom", err.Error())

	wrapped := exitCode(&ExitError{Code: 7, Err: errors.New("custom")})
	require.True(t, errors.As(wrapped, &exitErr))
	assert.Equal(t, 7, exitErr.Code)
}
