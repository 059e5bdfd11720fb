package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading with Viper.
type Loader struct {
	v          *viper.Viper
	configFile string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		v: viper.New(),
	}
}

// SetConfigFile sets an explicit config file path.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
}

// Load loads configuration with proper precedence:
// defaults < config file < env vars < CLI flags
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	l.setupViper(cfg)

	if err := l.loadConfigFile(); err != nil {
		// Config file is optional, only error if explicitly specified
		if l.configFile != "" {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Logging.File = expandTilde(cfg.Logging.File)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// expandTilde expands ~ to the user's home directory.
func expandTilde(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// setupViper configures Viper with defaults and environment bindings.
func (l *Loader) setupViper(cfg *Config) {
	v := l.v

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(DefaultConfigDir())
	v.AddConfigPath(".")

	v.SetEnvPrefix("PLOTGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	l.setDefaults(cfg)
	if _, ok := os.LookupEnv(legacySkipDraw); ok {
		v.SetDefault("graph.skip_draw", true)
	}

	// Explicitly bind environment variables (Viper's Unmarshal has issues without this)
	bindEnvVars(v)

	v.AutomaticEnv()
}

// setDefaults sets all default values in Viper.
func (l *Loader) setDefaults(cfg *Config) {
	v := l.v

	// Logging
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.enable_caller", cfg.Logging.EnableCaller)

	// Ingest
	v.SetDefault("ingest.history_capacity", cfg.Ingest.HistoryCapacity)
	v.SetDefault("ingest.poll_wait", cfg.Ingest.PollWait)

	// Graph
	v.SetDefault("graph.bucket", cfg.Graph.Bucket)
	v.SetDefault("graph.band_period", cfg.Graph.BandPeriod)
	v.SetDefault("graph.double_column", cfg.Graph.DoubleColumn)
	v.SetDefault("graph.frame_interval", cfg.Graph.FrameInterval)
	v.SetDefault("graph.refresh_interval", cfg.Graph.RefreshInterval)
	v.SetDefault("graph.skip_draw", cfg.Graph.SkipDraw)
}

// loadConfigFile attempts to load the configuration file.
func (l *Loader) loadConfigFile() error {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}

	return nil
}

// ConfigFileUsed returns the config file that was loaded.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Viper returns the underlying Viper instance, used to bind CLI flags.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// legacySkipDraw turns drawing off whenever it is present in the
// environment, whatever its value, as older plot graphers did.
const legacySkipDraw = "SKIPDRAW"

// bindEnvVars binds PLOTGRAPH_* environment variables for every config key.
func bindEnvVars(v *viper.Viper) {
	envBindings := []string{
		// Logging
		"logging.level",
		"logging.format",
		"logging.file",
		"logging.enable_caller",
		// Ingest
		"ingest.history_capacity",
		"ingest.poll_wait",
		// Graph
		"graph.bucket",
		"graph.band_period",
		"graph.double_column",
		"graph.frame_interval",
		"graph.refresh_interval",
		"graph.skip_draw",
	}

	for _, key := range envBindings {
		// Convert key to env var format: graph.skip_draw -> GRAPH_SKIP_DRAW
		envVar := "PLOTGRAPH_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, envVar)
	}
}
