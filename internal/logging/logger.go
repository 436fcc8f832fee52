package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"hlspack/internal/config"
)

// Options describes logger construction parameters. OutputPaths accepts
// "stdout", "stderr" or file paths (appended, parent directories created).
type Options struct {
	Level       string
	Format      string
	OutputPaths []string
	Development bool
}

// New constructs a slog logger using the provided options.
func New(opts Options) (*slog.Logger, error) {
	handler, err := NewHandler(opts)
	if err != nil {
		return nil, err
	}
	return slog.New(handler), nil
}

// NewHandler builds the handler behind New so callers can tee it elsewhere.
func NewHandler(opts Options) (slog.Handler, error) {
	level := new(slog.LevelVar)
	level.Set(parseLevel(opts.Level))
	addSource := opts.Development || level.Level() <= slog.LevelDebug

	var build func(io.Writer, *slog.LevelVar, bool) slog.Handler
	switch format := strings.ToLower(strings.TrimSpace(opts.Format)); format {
	case "", "console":
		build = newPrettyHandler
	case "json":
		build = newJSONHandler
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	paths := opts.OutputPaths
	if len(paths) == 0 {
		paths = []string{"stdout"}
	}
	w, err := openWriters(paths)
	if err != nil {
		return nil, err
	}
	return build(w, level, addSource), nil
}

// NewFromConfig logs to stdout and to the persistent log file under
// paths.log_dir.
func NewFromConfig(cfg *config.Config) (*slog.Logger, error) {
	if cfg == nil {
		return New(Options{Level: "info"})
	}
	paths := []string{"stdout"}
	if file := cfg.LogFile(); file != "" {
		paths = append(paths, file)
	}
	return New(Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: paths,
	})
}

// TeeFile duplicates every record of base into an appended log file at path.
// The file uses the console format so it reads like the terminal output.
func TeeFile(base *slog.Logger, path, level string) (*slog.Logger, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return base, nil
	}
	handler, err := NewHandler(Options{Level: level, Format: "console", OutputPaths: []string{path}})
	if err != nil {
		return nil, fmt.Errorf("open job log %s: %w", path, err)
	}
	return TeeLogger(base, handler), nil
}

// parseLevel falls back to info for empty or unknown names.
func parseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func openWriters(paths []string) (io.Writer, error) {
	var writers []io.Writer
	var seen []string
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" || slices.Contains(seen, p) {
			continue
		}
		seen = append(seen, p)
		w, err := openWriter(p)
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}
	switch len(writers) {
	case 0:
		return os.Stdout, nil
	case 1:
		return writers[0], nil
	default:
		return io.MultiWriter(writers...), nil
	}
}

func openWriter(path string) (io.Writer, error) {
	switch path {
	case "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory for %s: %w", path, err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o664)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	return file, nil
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
