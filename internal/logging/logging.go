// Package logging builds the slog logger used for diagnostics. Output goes
// to stderr through a tint handler and, when a directory is configured, to
// a rotating file as well.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the log file created inside Config.Dir.
const FileName = "rebalance.log"

type Config struct {
	Level      string // debug, info, warn, error
	Dir        string // empty: stderr only
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool

	// Stderr receives console output; nil means os.Stderr.
	Stderr io.Writer
	// Quiet drops console output, e.g. while a TUI owns the terminal.
	Quiet bool
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns the logger and a closer for the log file, if any.
func New(cfg Config) (*slog.Logger, io.Closer, error) {
	level := ParseLevel(cfg.Level)

	console := cfg.Stderr
	if console == nil {
		console = os.Stderr
	}
	color := isTerminal(console)
	if cfg.Quiet {
		console = io.Discard
	}

	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		return newLogger(console, level, !color), nopCloser{}, nil
	}

	if cfg.MaxSizeMB <= 0 || cfg.MaxAgeDays <= 0 || cfg.MaxBackups < 0 {
		return nil, nil, fmt.Errorf("invalid log config: size=%d backups=%d age_days=%d",
			cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}

	file := &lumberjack.Logger{
		Filename:   filepath.Join(dir, FileName),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}

	// The file must stay free of escape codes, so colour is off whenever it
	// shares the writer with the console.
	logger := newLogger(io.MultiWriter(console, file), level, true)
	logger.Debug("file_logging_enabled", slog.String("path", file.Filename))
	return logger, file, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newLogger(w io.Writer, level slog.Level, noColor bool) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}))
}

// ParseLevel maps a level name to a slog level; unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
