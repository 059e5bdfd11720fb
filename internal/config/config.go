// Package config handles plotgraph configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tOgg1/plotgraph/internal/history"
	"github.com/tOgg1/plotgraph/internal/logging"
)

// Config is the root configuration structure for plotgraph.
type Config struct {
	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// Ingest settings
	Ingest IngestConfig `yaml:"ingest" mapstructure:"ingest"`

	// Graph settings
	Graph GraphConfig `yaml:"graph" mapstructure:"graph"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path. The graph owns the terminal, so
	// anything chattier than warnings should go here.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// IngestConfig controls how log sources are tailed.
type IngestConfig struct {
	// HistoryCapacity is the number of runs kept per log.
	HistoryCapacity int `yaml:"history_capacity" mapstructure:"history_capacity"`

	// PollWait bounds how long one poll waits for new data when every log
	// is drained.
	PollWait time.Duration `yaml:"poll_wait" mapstructure:"poll_wait"`
}

// GraphConfig controls the timeline rendering.
type GraphConfig struct {
	// Bucket is the span of time one pixel column covers.
	Bucket time.Duration `yaml:"bucket" mapstructure:"bucket"`

	// BandPeriod is the width of the alternating light/dark time bands.
	BandPeriod time.Duration `yaml:"band_period" mapstructure:"band_period"`

	// DoubleColumn packs two columns per cell instead of two rows.
	DoubleColumn bool `yaml:"double_column" mapstructure:"double_column"`

	// FrameInterval is the sleep between loop iterations.
	FrameInterval time.Duration `yaml:"frame_interval" mapstructure:"frame_interval"`

	// RefreshInterval forces a redraw even when no log activity arrived.
	RefreshInterval time.Duration `yaml:"refresh_interval" mapstructure:"refresh_interval"`

	// SkipDraw computes frames but never writes them to the terminal.
	SkipDraw bool `yaml:"skip_draw" mapstructure:"skip_draw"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:        "warn",
			Format:       "console",
			EnableCaller: false,
		},
		Ingest: IngestConfig{
			HistoryCapacity: history.DefaultCapacity,
			PollWait:        500 * time.Millisecond,
		},
		Graph: GraphConfig{
			Bucket:          450 * time.Second,
			BandPeriod:      time.Hour,
			DoubleColumn:    true,
			FrameInterval:   400 * time.Millisecond,
			RefreshInterval: time.Minute,
			SkipDraw:        false,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("logging.level %q is not one of trace, debug, info, warn, error, fatal", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json")
	}

	if c.Ingest.HistoryCapacity < 1 {
		return fmt.Errorf("ingest.history_capacity must be at least 1")
	}

	if c.Ingest.PollWait < 0 {
		return fmt.Errorf("ingest.poll_wait must not be negative")
	}

	if c.Graph.Bucket < time.Second {
		return fmt.Errorf("graph.bucket must be at least 1s")
	}

	if c.Graph.BandPeriod < c.Graph.Bucket {
		return fmt.Errorf("graph.band_period must be at least graph.bucket")
	}

	if c.Graph.FrameInterval < 10*time.Millisecond {
		return fmt.Errorf("graph.frame_interval must be at least 10ms")
	}

	if c.Graph.RefreshInterval < c.Graph.FrameInterval {
		return fmt.Errorf("graph.refresh_interval must be at least graph.frame_interval")
	}

	return nil
}

// DefaultConfigDir returns the directory searched for config.yaml.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "plotgraph")
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "plotgraph")
}
