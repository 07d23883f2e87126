package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// defaultLogName is used when --log names a directory
const defaultLogName = "hops.log"

// SetupLogging installs the global slog logger for a hops run. Records go to
// stderr, since stdout carries progress and the report, and are copied to
// the --log file when one is given. Every record names the destination so a
// shared log file stays readable across runs.
// Returns the log file handle (caller must close it) or nil if no file.
func SetupLogging(args Args) (*os.File, error) {
	var w io.Writer = os.Stderr
	var logFile *os.File

	if args.Log != "" {
		path, err := logPath(args.Log)
		if err != nil {
			return nil, err
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		logFile = f
		w = io.MultiWriter(f, os.Stderr)
	}

	logger := slog.New(newHandler(w, args))
	if args.Destination != "" {
		logger = logger.With("destination", args.Destination)
	}
	slog.SetDefault(logger)

	return logFile, nil
}

// logPath places hops.log inside dir when --log points at a directory
func logPath(p string) (string, error) {
	fi, err := os.Stat(p)
	switch {
	case err == nil && fi.IsDir():
		return filepath.Join(p, defaultLogName), nil
	case err == nil || os.IsNotExist(err):
		return p, nil
	default:
		return "", fmt.Errorf("checking log path: %w", err)
	}
}

// newHandler picks JSON logs when the report itself is JSON, text otherwise.
// Debug records carry their source as file:line.
func newHandler(w io.Writer, args Args) slog.Handler {
	level := parseLogLevel(args.LogLevel)
	opts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   level <= slog.LevelDebug,
		ReplaceAttr: shortSource,
	}

	if args.Json {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func shortSource(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.SourceKey || len(groups) > 0 {
		return a
	}
	if src, ok := a.Value.Any().(*slog.Source); ok {
		a.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
	}
	return a
}

// parseLogLevel converts the --log-level value to a slog.Level. Anything
// unrecognised falls back to error, the flag's default.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
