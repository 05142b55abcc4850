package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	ferrors "github.com/fin-foresight/foresight/internal/errors"
)

// LogLevel specifies the logging verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat specifies the log output format.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// BackendConfig holds settings for the analysis backend.
type BackendConfig struct {
	BaseURL string `toml:"base_url"`

	// Timeout bounds a single request. Agent steps run synchronously on the
	// server, so this must cover the slowest agent.
	Timeout time.Duration `toml:"timeout"`
}

// WorkflowConfig holds agent pipeline settings.
type WorkflowConfig struct {
	// Agents overrides the default pipeline order.
	Agents []string `toml:"agents"`

	// StepDelay is the pause between a completed step and the next request.
	StepDelay time.Duration `toml:"step_delay"`

	// CascadeOnError marks every pending agent as error when a step fails with
	// an application or transport error. An explicit "failed" signal from the
	// backend always cascades.
	CascadeOnError bool `toml:"cascade_on_error"`
}

// DashboardConfig holds the ticker lists used by the stocks command.
type DashboardConfig struct {
	Tickers []string `toml:"tickers"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  LogLevel  `toml:"level"`
	Format LogFormat `toml:"format"`
	File   string    `toml:"file"`
}

// Config is the main configuration struct for foresight.
type Config struct {
	Version   string          `toml:"version"`
	Backend   BackendConfig   `toml:"backend"`
	Workflow  WorkflowConfig  `toml:"workflow"`
	Dashboard DashboardConfig `toml:"dashboard"`
	Logging   LoggingConfig   `toml:"logging"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Version: "1",
		Backend: BackendConfig{
			BaseURL: "http://127.0.0.1:5000",
			Timeout: 5 * time.Minute,
		},
		Workflow: WorkflowConfig{
			StepDelay:      time.Second,
			CascadeOnError: true,
		},
		Dashboard: DashboardConfig{
			Tickers: []string{"AAPL", "MSFT", "GOOGL", "AMZN", "META", "TSLA", "NVDA", "JPM", "V", "WMT"},
		},
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
	}
}

// Load loads configuration from file, merging with defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := decodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromDir loads configuration from the standard locations in a directory.
// Applies in order: defaults -> ~/.foresight/config.toml -> <dir>/.foresight/config.toml
// Later configs override earlier ones.
func LoadFromDir(dir string) (*Config, error) {
	cfg := Default()

	if home, err := os.UserHomeDir(); err == nil {
		if err := decodeFile(filepath.Join(home, ".foresight", "config.toml"), cfg); err != nil {
			return nil, err
		}
	}

	if err := decodeFile(filepath.Join(dir, ".foresight", "config.toml"), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MergeFile overlays an explicit config file onto c. Unlike the standard
// locations, the file must exist.
func (c *Config) MergeFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	return decodeFile(path, c)
}

// decodeFile merges a TOML file into cfg. A missing file is not an error.
func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return ferrors.ConfigParseError(path, err)
	}
	return nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Version == "" {
		return ferrors.ConfigMissingField("version")
	}
	if c.Backend.BaseURL == "" {
		return ferrors.ConfigMissingField("backend.base_url")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ferrors.ConfigInvalidValue("backend.base_url", c.Backend.BaseURL, "must be an absolute URL")
	}
	if c.Backend.Timeout <= 0 {
		return ferrors.ConfigInvalidValue("backend.timeout", c.Backend.Timeout.String(), "must be positive")
	}
	if c.Workflow.StepDelay < 0 {
		return ferrors.ConfigInvalidValue("workflow.step_delay", c.Workflow.StepDelay.String(), "must not be negative")
	}
	switch c.Logging.Level {
	case "", LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return ferrors.ConfigInvalidValue("logging.level", c.Logging.Level, "expected debug, info, warn or error")
	}
	switch c.Logging.Format {
	case "", LogFormatJSON, LogFormatText:
	default:
		return ferrors.ConfigInvalidValue("logging.format", c.Logging.Format, "expected json or text")
	}
	return nil
}

// LogFile returns the absolute log file path.
func (c *Config) LogFile(baseDir string) string {
	if filepath.IsAbs(c.Logging.File) {
		return c.Logging.File
	}
	return filepath.Join(baseDir, c.Logging.File)
}
