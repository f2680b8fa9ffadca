// Package logging sets up the process-wide slog logger.
//
// The TUI owns the terminal, so interactive sessions log to a file; CLI
// commands may log to stderr instead.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type Config struct {
	// Path is the log file. Empty means stderr when Stderr is set, else discard.
	Path   string
	Level  string
	JSON   bool
	Stderr bool
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup installs the default logger and returns a closer for the log file.
func Setup(cfg Config) (io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var (
		w      io.Writer
		closer io.Closer = nopCloser{}
	)
	switch {
	case cfg.Path != "":
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		w, closer = f, f
	case cfg.Stderr:
		w = os.Stderr
	default:
		slog.SetDefault(slog.New(slog.DiscardHandler))
		return closer, nil
	}

	slog.SetDefault(slog.New(newHandler(w, cfg.JSON, opts)))
	return closer, nil
}

func newHandler(w io.Writer, json bool, opts *slog.HandlerOptions) slog.Handler {
	if json {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// ParseLevel maps debug, info, warn or error to a slog level. Empty is info.
func ParseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
