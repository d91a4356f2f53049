// Package client provides the REST gateway to the document question-answering backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/raphaelgruber/kbchat/internal/metrics"
)

// DefaultTopK is the number of passages requested when the caller does not say.
const DefaultTopK = 8

// maxErrorBody caps how much of an error response is kept for StatusError.Detail.
const maxErrorBody = 4096

// TokenSource supplies the current bearer token, or "" when signed out.
// It is consulted on every call so sign-in and sign-out take effect immediately.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

// Token implements TokenSource.
func (f TokenFunc) Token() string { return f() }

// Options configures a Client. Zero values are fine.
type Options struct {
	Tokens      TokenSource
	HTTPClient  *http.Client
	Timeout     time.Duration
	SlowRequest time.Duration
	Logger      *slog.Logger
	Metrics     *metrics.Collector
}

// Client is a single-attempt REST client for the backend. It never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
	metrics    *metrics.Collector
}

// New creates a new gateway client for baseURL (scheme and host, e.g. http://localhost:8000).
func New(baseURL string, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   opts.Timeout,
			Transport: NewLoggingTransport(nil, logger, opts.SlowRequest),
		}
	}

	tokens := opts.Tokens
	if tokens == nil {
		tokens = TokenFunc(func() string { return "" })
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		tokens:     tokens,
		logger:     logger,
		metrics:    opts.Metrics,
	}
}

// BaseURL returns the backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request describes one backend call.
type request struct {
	op          string
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	auth        bool
}

// jsonBody marshals v for a request body.
func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return bytes.NewReader(data), nil
}

// do executes req and decodes a 2xx JSON body into result (if non-nil).
func (c *Client) do(ctx context.Context, req request, result any) error {
	token := c.tokens.Token()
	if req.auth && token == "" {
		return ErrUnauthorized
	}

	u := c.baseURL + req.path
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u, req.body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	err = c.roundTrip(httpReq, req.op, result)
	if c.metrics != nil {
		c.metrics.Record(req.op, time.Since(start), err)
	}
	return err
}

func (c *Client) roundTrip(httpReq *http.Request, op string, result any) error {
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp, body)
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return malformed(op, "%v", err)
	}
	return nil
}

// statusError builds a StatusError, pulling FastAPI's "detail" field when present.
func statusError(resp *http.Response, body []byte) *StatusError {
	se := &StatusError{Code: resp.StatusCode, Status: resp.Status}

	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(body, &payload) == nil && len(payload.Detail) > 0 {
		var s string
		if json.Unmarshal(payload.Detail, &s) == nil {
			se.Detail = s
		} else {
			se.Detail = string(payload.Detail)
		}
		return se
	}

	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	se.Detail = strings.TrimSpace(string(body))
	return se
}

// Health checks that the backend is reachable.
func (c *Client) Health(ctx context.Context) error {
	var result struct {
		Status string `json:"status"`
	}
	err := c.do(ctx, request{
		op:     metrics.OpHealth,
		method: http.MethodGet,
		path:   "/api/health",
	}, &result)
	if err != nil {
		return fmt.Errorf("health: %w", err)
	}
	if result.Status != "ok" {
		return fmt.Errorf("health: backend reports %q", result.Status)
	}
	return nil
}
