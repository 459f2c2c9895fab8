// internal/logger/logger.go
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

// DefaultFileName is the log file used when Config.LogFilePath is empty.
const DefaultFileName = "ebb.log"

var (
	mu            sync.RWMutex
	defaultLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
	logLevel      = new(slog.LevelVar)
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Init configures the package logger from cfg and returns a closer for the
// opened log file.
func Init(cfg Config, appName string) (io.Closer, error) {
	var out io.Writer
	var closer io.Closer = nopCloser{}
	switch cfg.LogFilePath {
	case "-":
		out = os.Stderr
	default:
		path := cfg.LogFilePath
		if path == "" {
			dir, err := os.UserCacheDir()
			if err != nil {
				return nil, fmt.Errorf("cannot determine log directory: %w", err)
			}
			path = filepath.Join(dir, appName, DefaultFileName)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file '%s': %w", path, err)
		}
		out, closer = f, f
	}
	Setup(ParseLevel(cfg.LogLevel), out, cfg)
	return closer, nil
}

// Setup installs a logger writing to out. Tests use it with a buffer.
func Setup(level slog.Level, out io.Writer, cfg Config) {
	logLevel.Set(level)
	opts := slog.HandlerOptions{
		Level:     logLevel,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.SourceKey:
				if source, ok := a.Value.Any().(*slog.Source); ok {
					source.File = filepath.Base(source.File)
				}
			case slog.TimeKey:
				a.Value = slog.StringValue(a.Value.Time().Format(time.TimeOnly))
			}
			return a
		},
	}
	handler := newFilteringHandler(slog.NewTextHandler(out, &opts), cfg.filters())

	mu.Lock()
	defaultLogger = slog.New(handler)
	mu.Unlock()
}

// SetLevel changes the minimum level at runtime.
func SetLevel(level slog.Level) { logLevel.Set(level) }

// logAt builds a record with the caller's PC so source and filters see the
// real call site, not this package.
func logAt(level slog.Level, attrs []slog.Attr, format string, args ...interface{}) {
	mu.RLock()
	l := defaultLogger
	mu.RUnlock()
	if !l.Enabled(context.Background(), level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:]) // skip Callers, logAt, and the exported wrapper
	r := slog.NewRecord(time.Now(), level, fmt.Sprintf(format, args...), pcs[0])
	r.AddAttrs(attrs...)
	_ = l.Handler().Handle(context.Background(), r)
}

// Debugf logs a debug message using Printf-style formatting.
func Debugf(format string, args ...interface{}) { logAt(slog.LevelDebug, nil, format, args...) }

// DebugTagf logs a debug message carrying a filterable tag.
func DebugTagf(tag, format string, args ...interface{}) {
	logAt(slog.LevelDebug, []slog.Attr{slog.String(tagKey, tag)}, format, args...)
}

// Infof logs an info message using Printf-style formatting.
func Infof(format string, args ...interface{}) { logAt(slog.LevelInfo, nil, format, args...) }

// Warnf logs a warning message using Printf-style formatting.
func Warnf(format string, args ...interface{}) { logAt(slog.LevelWarn, nil, format, args...) }

// Errorf logs an error message using Printf-style formatting.
func Errorf(format string, args ...interface{}) { logAt(slog.LevelError, nil, format, args...) }

// Fatalf logs an error message then exits.
func Fatalf(format string, args ...interface{}) {
	logAt(slog.LevelError, nil, format, args...)
	os.Exit(1)
}

// Get returns the configured slog logger.
func Get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}
