package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"pizzabox/internal/config"
)

const (
	// LogFileName is the shared log written by maintenance commands.
	LogFileName = "pizzabox.log"
	// RunLogPattern matches the per-run logs written by `pizzabox run`.
	RunLogPattern = "pizzabox-*.log"
)

// RunLogPath names the log file for one controller run.
func RunLogPath(dir, runID string) string {
	return filepath.Join(dir, "pizzabox-"+runID+".log")
}

// Options describes where and how a logger writes.
type Options struct {
	Level  string
	Format string
	// Console receives every line unless Quiet is set. Nil means stdout.
	Console io.Writer
	Quiet   bool
	// Files are appended to, created along with their directories.
	Files []string
	// Source adds file:line to each line. Debug level always does.
	Source bool
}

// New builds a logger from opts.
func New(opts Options) (*slog.Logger, error) {
	level := new(slog.LevelVar)
	level.Set(ParseLevel(opts.Level))

	out, err := openOutputs(opts)
	if err != nil {
		return nil, err
	}
	handler, err := buildHandler(opts.Format, out, level, opts.Source || level.Level() <= slog.LevelDebug)
	if err != nil {
		return nil, err
	}
	return slog.New(handler), nil
}

// NewFromConfig logs to the console and to LogFileName under the log directory.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{})
	}
	opts := Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format}
	if cfg.Paths.LogDir != "" {
		opts.Files = []string{filepath.Join(cfg.Paths.LogDir, LogFileName)}
	}
	return New(opts)
}

// NewRun logs to the console and to a fresh per-run file. It returns the
// file path so retention can leave it alone.
func NewRun(cfg *config.Config, runID string) (*slog.Logger, string, error) {
	path := RunLogPath(cfg.Paths.LogDir, runID)
	logger, err := New(Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Files:  []string{path},
	})
	if err != nil {
		return nil, "", err
	}
	return logger, path, nil
}

// ParseLevel maps a config level name to a slog level. Unknown names mean info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func buildHandler(format string, w io.Writer, level slog.Leveler, source bool) (slog.Handler, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "console":
		return newConsoleHandler(w, level, source), nil
	case "json":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:       level,
			AddSource:   source,
			ReplaceAttr: shortJSONKeys,
		}), nil
	}
	return nil, fmt.Errorf("log format: unsupported value %q", format)
}

func shortJSONKeys(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}
	switch a.Key {
	case slog.TimeKey:
		return slog.String("ts", a.Value.Time().UTC().Format("2006-01-02T15:04:05.000Z"))
	case slog.LevelKey:
		return slog.String("level", strings.ToLower(a.Value.String()))
	case slog.SourceKey:
		if src, ok := a.Value.Any().(*slog.Source); ok && src != nil {
			return slog.String("src", fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
		}
	}
	return a
}

func openOutputs(opts Options) (io.Writer, error) {
	var writers []io.Writer
	if !opts.Quiet {
		console := opts.Console
		if console == nil {
			console = os.Stdout
		}
		writers = append(writers, console)
	}
	seen := make(map[string]bool, len(opts.Files))
	for _, path := range opts.Files {
		path = strings.TrimSpace(path)
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", path, err)
		}
		writers = append(writers, f)
	}
	switch len(writers) {
	case 0:
		return io.Discard, nil
	case 1:
		return writers[0], nil
	}
	return io.MultiWriter(writers...), nil
}
