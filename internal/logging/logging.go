// Package logging provides structured logging infrastructure for foresight.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fin-foresight/foresight/internal/config"
)

// NewFromConfig creates a new slog.Logger based on configuration.
// Logs go to w; when a file is configured they are also appended to it.
func NewFromConfig(cfg *config.Config, baseDir string, w io.Writer) (*slog.Logger, io.Closer, error) {
	level := parseLevel(cfg.Logging.Level)
	handler := newHandler(cfg.Logging.Format, w, level)

	var closer io.Closer
	if cfg.Logging.File != "" {
		logPath := cfg.LogFile(baseDir)

		if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
			return nil, nil, err
		}

		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, err
		}
		closer = file

		handler = newHandler(cfg.Logging.Format, io.MultiWriter(w, file), level)
	}

	return slog.New(handler), closer, nil
}

// parseLevel converts config log level to slog.Level.
func parseLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelInfo:
		return slog.LevelInfo
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newHandler creates a slog.Handler based on format.
func newHandler(format config.LogFormat, w io.Writer, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	switch format {
	case config.LogFormatJSON:
		return slog.NewJSONHandler(w, opts)
	default:
		return slog.NewTextHandler(w, opts)
	}
}

// WithRun returns a logger with run context.
func WithRun(logger *slog.Logger, runID, ticker string) *slog.Logger {
	return logger.With("run_id", runID, "ticker", ticker)
}

// WithAgent returns a logger with agent context.
func WithAgent(logger *slog.Logger, agentID string) *slog.Logger {
	return logger.With("agent", agentID)
}
