// Package logging configures the process-wide slog logger.
//
// The wizard owns the terminal while it runs, so log records are never
// written to stdout or stderr during a session. They go to a file, or are
// discarded when no file is configured.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/ebookmeta/internal/config"
)

const (
	formatJSON = "json"
	formatText = "text"
)

// Options holds logger configuration.
type Options struct {
	Writer io.Writer
	Level  slog.Level
	Format string
}

// New returns a logger writing to opts.Writer, or a discarding logger when
// the writer is nil.
func New(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = io.Discard
	}
	ho := &slog.HandlerOptions{Level: opts.Level}

	var h slog.Handler
	if strings.EqualFold(opts.Format, formatJSON) {
		h = slog.NewJSONHandler(w, ho)
	} else {
		h = slog.NewTextHandler(w, ho)
	}
	return slog.New(h)
}

// ParseLevel maps a level name to a slog.Level. Empty input means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// ValidFormat reports whether s names a supported handler format.
func ValidFormat(s string) bool {
	switch strings.ToLower(s) {
	case "", formatJSON, formatText:
		return true
	}
	return false
}

// Setup builds the logger described by cfg, installs it as the slog
// default and returns a function that closes the log file, if any.
func Setup(cfg config.LogConfig) (*slog.Logger, func() error, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	if !ValidFormat(cfg.Format) {
		return nil, nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	closeFn := func() error { return nil }
	var w io.Writer
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		w = f
		closeFn = f.Close
	}

	logger := New(Options{Writer: w, Level: level, Format: cfg.Format})
	slog.SetDefault(logger)
	return logger, closeFn, nil
}
