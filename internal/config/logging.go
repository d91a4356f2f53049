package config

import (
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// SetupLogger creates a dual-output logger: text to stderr, JSON to file.
// Returns the logger and a cleanup function to close the file.
func SetupLogger(logFile string, level slog.Level) (*slog.Logger, func() error) {
	return setupLogger(os.Stderr, logFile, level)
}

// SetupFileLogger creates a logger that writes JSON to logFile only.
// Used while the TUI owns the terminal.
func SetupFileLogger(logFile string, level slog.Level) (*slog.Logger, func() error) {
	return setupLogger(nil, logFile, level)
}

func setupLogger(stderr io.Writer, logFile string, level slog.Level) (*slog.Logger, func() error) {
	opts := &slog.HandlerOptions{Level: level}

	var handlers []slog.Handler
	if stderr != nil {
		// Stderr handler (text for readability)
		handlers = append(handlers, slog.NewTextHandler(stderr, opts))
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		if stderr == nil {
			return slog.New(slog.NewTextHandler(io.Discard, opts)), func() error { return nil }
		}
		// Fall back to stderr-only if file fails
		slog.Error("failed to open log file, using stderr only", "error", err, "file", logFile)
		return slog.New(handlers[0]), func() error { return nil }
	}

	// File handler (JSON for machine parsing)
	handlers = append(handlers, slog.NewJSONHandler(file, opts))

	logger := slog.New(slogmulti.Fanout(handlers...))
	return logger, file.Close
}

// SetupLoggerWithWriters creates a logger with custom writers (for testing).
func SetupLoggerWithWriters(stderr, file io.Writer, level slog.Level) *slog.Logger {
	stderrHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(slogmulti.Fanout(stderrHandler, fileHandler))
}
