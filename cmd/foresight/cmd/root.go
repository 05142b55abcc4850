package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fin-foresight/foresight/internal/backend"
	"github.com/fin-foresight/foresight/internal/config"
	"github.com/fin-foresight/foresight/internal/logging"
	"github.com/fin-foresight/foresight/internal/registry"
)

var (
	// Version is set at build time via ldflags
	Version = "dev"

	// Global flags
	verbose    bool
	workDir    string
	configPath string
	backendURL string
)

var rootCmd = &cobra.Command{
	Use:   "foresight",
	Short: "Foresight - stock analysis workflow client",
	Long: `Foresight drives the stock analysis backend from the terminal.

An analysis runs four agents in the order the backend dictates:
data_analyst, trade_strategy, trade_advisor and risk_advisor. Each agent is
one request; progress and results are printed as they arrive.

Configuration is read from ~/.foresight/config.toml, then
./.foresight/config.toml, then --config.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&workDir, "workdir", "C", "", "working directory (default: current)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file applied after the standard locations")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "analysis backend URL (overrides backend.base_url)")

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("foresight {{.Version}}\n")
}

// getWorkDir returns the effective working directory.
func getWorkDir() (string, error) {
	if workDir != "" {
		return workDir, nil
	}
	return os.Getwd()
}

// env is what every command needs after flag and config resolution.
type env struct {
	dir    string
	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
}

func (e *env) Close() {
	if e.closer != nil {
		e.closer.Close()
	}
}

// loadEnv resolves config (defaults, global, project, --config, --backend),
// validates it and builds the logger. Logs go to the command's stderr.
func loadEnv(cmd *cobra.Command) (*env, error) {
	dir, err := getWorkDir()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}

	cfg, err := config.LoadFromDir(dir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if configPath != "" {
		if err := cfg.MergeFile(configPath); err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}
	if backendURL != "" {
		cfg.Backend.BaseURL = backendURL
	}
	if verbose {
		cfg.Logging.Level = config.LogLevelDebug
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, closer, err := logging.NewFromConfig(cfg, dir, cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return &env{dir: dir, cfg: cfg, logger: logger, closer: closer}, nil
}

func (e *env) client() *backend.Client {
	return backend.New(e.cfg.Backend.BaseURL,
		backend.WithTimeout(e.cfg.Backend.Timeout),
		backend.WithHeader("User-Agent", "foresight/"+Version),
		backend.WithLogger(e.logger),
	)
}

func (e *env) registry() (*registry.Registry, error) {
	return registry.FromNames(e.cfg.Workflow.Agents)
}

// checkFormat validates an --output value.
func checkFormat(format string) error {
	switch format {
	case "text", "json", "yaml":
		return nil
	}
	return fmt.Errorf("unsupported output format %q (expected text, json or yaml)", format)
}
