// Package recognize talks to the backend that turns a drawing into
// expressions and their results.
package recognize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultPath is the backend endpoint that evaluates a drawing.
const DefaultPath = "/calculate"

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 4 << 20

// Observer receives the outcome of every call. It is used for metrics.
type Observer interface {
	ObserveRecognition(outcome string, d time.Duration, items int)
}

// Client submits drawings to the backend. It never retries; retry policy
// belongs to the caller.
type Client struct {
	baseURL    string
	path       string
	httpClient *http.Client
	logger     *slog.Logger
	observer   Observer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }

// WithTimeout sets the overall request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithPath overrides DefaultPath.
func WithPath(p string) Option { return func(c *Client) { c.path = p } }

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.logger = l } }

// WithObserver registers an outcome observer.
func WithObserver(o Observer) Option { return func(c *Client) { c.observer = o } }

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		path:       DefaultPath,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Submit posts the image (a PNG data URL) together with the variable
// snapshot and returns the recognised items in backend order. Any failure is
// returned as *Error; partial results are never returned.
func (c *Client) Submit(ctx context.Context, image string, vars map[string]string) ([]Item, error) {
	start := time.Now()
	id := uuid.NewString()
	items, err := c.submit(ctx, id, image, vars)

	outcome := "ok"
	if err != nil {
		outcome = err.(*Error).Op
		c.logger.Warn("recognition failed", "request_id", id, "error", err, "took", time.Since(start))
	} else {
		c.logger.Info("recognition done", "request_id", id, "items", len(items), "took", time.Since(start))
	}
	if c.observer != nil {
		c.observer.ObserveRecognition(outcome, time.Since(start), len(items))
	}
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) submit(ctx context.Context, id, image string, vars map[string]string) ([]Item, error) {
	if vars == nil {
		vars = map[string]string{}
	}
	body, err := json.Marshal(request{Image: image, DictOfVars: vars})
	if err != nil {
		return nil, &Error{Op: "encode", RequestID: id, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.path, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Op: "request", RequestID: id, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", id)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Op: "request", RequestID: id, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{Op: "decode", StatusCode: resp.StatusCode, RequestID: id, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Op: "status", StatusCode: resp.StatusCode, RequestID: id, Err: fmt.Errorf("%s", snippet(raw))}
	}

	var env response
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &Error{Op: "decode", StatusCode: resp.StatusCode, RequestID: id, Err: err}
	}
	if env.Data == nil {
		return nil, &Error{Op: "decode", StatusCode: resp.StatusCode, RequestID: id, Err: fmt.Errorf("response has no data field")}
	}

	items := make([]Item, 0, len(*env.Data))
	for _, w := range *env.Data {
		items = append(items, Item{Expr: w.Expr, Result: string(w.Result), Assign: w.Assign})
	}
	return items, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if s == "" {
		return "empty body"
	}
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
