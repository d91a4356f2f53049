package client

import (
	"log/slog"
	"net/http"
	"time"
)

// maxQueryLogLen is the maximum length for logged query strings before truncation.
const maxQueryLogLen = 200

// defaultSlowRequest is used when no threshold is configured.
const defaultSlowRequest = 2 * time.Second

// LoggingTransport is an http.RoundTripper that logs every backend request with timing.
// Slow requests are logged at WARN level. Headers are never logged.
type LoggingTransport struct {
	base   http.RoundTripper
	logger *slog.Logger
	slow   time.Duration
}

// NewLoggingTransport wraps base (http.DefaultTransport when nil).
func NewLoggingTransport(base http.RoundTripper, logger *slog.Logger, slow time.Duration) *LoggingTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.Default()
	}
	if slow <= 0 {
		slow = defaultSlowRequest
	}
	return &LoggingTransport{base: base, logger: logger, slow: slow}
}

// RoundTrip implements http.RoundTripper.
func (t *LoggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := t.base.RoundTrip(req)

	duration := time.Since(start)

	attrs := []any{
		"method", req.Method,
		"path", req.URL.Path,
		"duration_ms", duration.Milliseconds(),
	}
	if req.URL.RawQuery != "" {
		attrs = append(attrs, "query", truncate(req.URL.RawQuery, maxQueryLogLen))
	}

	switch {
	case err != nil:
		attrs = append(attrs, "error", err.Error())
		t.logger.Error("request failed", attrs...)
	case resp.StatusCode >= 400:
		attrs = append(attrs, "status", resp.StatusCode)
		t.logger.Warn("request rejected", attrs...)
	case duration > t.slow:
		attrs = append(attrs, "status", resp.StatusCode)
		t.logger.Warn("slow request", attrs...)
	default:
		attrs = append(attrs, "status", resp.StatusCode)
		t.logger.Debug("request completed", attrs...)
	}

	return resp, err
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
