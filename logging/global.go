// Package logging wires slog for the pharmacie API: console output,
// a weekly rotated JSON file and an HTTP request logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type LoggingService struct {
	Logger *slog.Logger
	file   *RotatingLogger
}

var DefaultLoggingService *LoggingService

// InitLogger initializes the global logger. An empty logDir logs to the console only.
func InitLogger(logDir string, level string, retentionWeeks int) {
	lvl := ParseLogLevel(level)
	console := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})

	service := &LoggingService{Logger: slog.New(console)}

	if logDir != "" {
		rl, err := OpenRotatingLogger(logDir, retentionWeeks)
		if err != nil {
			service.Logger.Error("Failed to open log directory, logging to console only", "dir", logDir, "error", err)
		} else {
			service.file = rl
			file := slog.NewJSONHandler(rl, &slog.HandlerOptions{Level: slog.LevelDebug})
			service.Logger = slog.New(&multiHandler{handlers: []slog.Handler{console, file}})
		}
	}

	DefaultLoggingService = service
	slog.SetDefault(service.Logger)
}

// Close releases the log file, if any
func Close() error {
	if DefaultLoggingService == nil || DefaultLoggingService.file == nil {
		return nil
	}
	return DefaultLoggingService.file.Close()
}

// ParseLogLevel maps a LOG_LEVEL value to a slog level, defaulting to info
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

func logger() *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return DefaultLoggingService.Logger
}

// Package-level functions for direct access

func Info(msg string, args ...any)  { logger().Info(msg, args...) }
func Warn(msg string, args ...any)  { logger().Warn(msg, args...) }
func Error(msg string, args ...any) { logger().Error(msg, args...) }
func Debug(msg string, args ...any) { logger().Debug(msg, args...) }

// NewTestLogger installs a logger writing to w, for tests
func NewTestLogger(w io.Writer) *slog.Logger {
	l := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	DefaultLoggingService = &LoggingService{Logger: l}
	return l
}

// Default returns the global logger, or a stderr logger before InitLogger
func Default() *slog.Logger { return logger() }
