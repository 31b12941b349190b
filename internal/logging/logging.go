// Package logging provides the process-wide leveled logger.
//
// Two sinks are written at the same time:
//   - a rotating JSON file (lumberjack) that keeps the full history at the
//     file level, bounded by size and backup count
//   - a concise text stream on stdout at the console level
//
// Callers use the printf-style convenience functions (Debug, Info, Warn,
// Error). Structured attributes such as the cycle id are attached with
// With, which returns a Logger bound to those attributes.
//
// Until Init is called every call is a no-op, so packages can log freely
// from tests without any setup.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls the log sinks.
type Options struct {
	File         string `yaml:"file"`
	MaxSizeMB    int    `yaml:"max_size_mb"`
	MaxBackups   int    `yaml:"max_backups"`
	FileLevel    string `yaml:"file_level"`
	ConsoleLevel string `yaml:"console_level"`
}

// DefaultOptions rotates at 5MB and keeps 5 backups.
func DefaultOptions() Options {
	return Options{
		File:         "review_responder.log",
		MaxSizeMB:    5,
		MaxBackups:   5,
		FileLevel:    "debug",
		ConsoleLevel: "info",
	}
}

// multiHandler dispatches records to the file and console handlers.
type multiHandler struct {
	console slog.Handler
	file    slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.console.Enabled(ctx, level) || h.file.Enabled(ctx, level)
}

func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.file.Enabled(ctx, r.Level) {
		if err := h.file.Handle(ctx, r); err != nil {
			return err
		}
	}
	if h.console.Enabled(ctx, r.Level) {
		if err := h.console.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &multiHandler{
		console: h.console.WithAttrs(attrs),
		file:    h.file.WithAttrs(attrs),
	}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	return &multiHandler{
		console: h.console.WithGroup(name),
		file:    h.file.WithGroup(name),
	}
}

var (
	mu     sync.RWMutex
	global *slog.Logger
	closer io.Closer
)

// Init installs the global logger. The returned cleanup closes the log file.
func Init(opts Options) (func(), error) {
	if opts.File == "" {
		opts.File = DefaultOptions().File
	}
	if dir := filepath.Dir(opts.File); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	lj := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		LocalTime:  true,
	}

	logger := slog.New(&multiHandler{
		console: slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: ParseLevel(opts.ConsoleLevel)}),
		file:    slog.NewJSONHandler(lj, &slog.HandlerOptions{Level: ParseLevel(opts.FileLevel)}),
	})
	install(logger, lj)

	Info("Logger initialized (file=%s, max=%dMB, backups=%d)", opts.File, opts.MaxSizeMB, opts.MaxBackups)

	return func() {
		Info("Logger closing")
		mu.Lock()
		defer mu.Unlock()
		if closer != nil {
			closer.Close()
			closer = nil
		}
		global = nil
	}, nil
}

// SetOutput routes all levels to w as text. Used by tests that assert on log output.
func SetOutput(w io.Writer) {
	install(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})), nil)
}

func install(logger *slog.Logger, c io.Closer) {
	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		closer.Close()
	}
	global = logger
	closer = c
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
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

// Logger is a logger bound to a set of attributes.
type Logger struct {
	attrs []any
}

// With returns a Logger that attaches the given key/value pairs to every record.
func With(args ...any) *Logger {
	return &Logger{attrs: args}
}

// With returns a child logger with additional attributes.
func (l *Logger) With(args ...any) *Logger {
	attrs := make([]any, 0, len(l.attrs)+len(args))
	attrs = append(attrs, l.attrs...)
	attrs = append(attrs, args...)
	return &Logger{attrs: attrs}
}

func (l *Logger) log(level slog.Level, format string, v ...interface{}) {
	logger := current()
	if logger == nil {
		return
	}
	logger.Log(context.Background(), level, fmt.Sprintf(format, v...), l.attrs...)
}

// Debug logs debug level messages
func (l *Logger) Debug(format string, v ...interface{}) { l.log(slog.LevelDebug, format, v...) }

// Info logs info level messages
func (l *Logger) Info(format string, v ...interface{}) { l.log(slog.LevelInfo, format, v...) }

// Warn logs warning level messages
func (l *Logger) Warn(format string, v ...interface{}) { l.log(slog.LevelWarn, format, v...) }

// Error logs error level messages
func (l *Logger) Error(format string, v ...interface{}) { l.log(slog.LevelError, format, v...) }

var root = &Logger{}

// Debug is a convenience function for debug logging
func Debug(format string, v ...interface{}) { root.Debug(format, v...) }

// Info is a convenience function for info logging
func Info(format string, v ...interface{}) { root.Info(format, v...) }

// Warn is a convenience function for warning logging
func Warn(format string, v ...interface{}) { root.Warn(format, v...) }

// Error is a convenience function for error logging
func Error(format string, v ...interface{}) { root.Error(format, v...) }
