// Package api is a typed client for the guardian REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// RequestObserver is notified after every request. status is 0 when the
// request failed before a response was received.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, d time.Duration)
}

// Client talks to the guardian API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	observer   RequestObserver
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout of the underlying http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRateLimit bounds outgoing requests to rps per second. rps <= 0 disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithObserver reports every request to o.
func WithObserver(o RequestObserver) Option {
	return func(c *Client) { c.observer = o }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the API root the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Error is returned for any non-2xx response.
type Error struct {
	Status int
	Method string
	Path   string
	Body   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: server returned %d: %s", e.Method, e.Path, e.Status, e.Detail())
}

// Detail returns the server's "detail" message when the body carries one,
// otherwise the raw body.
func (e *Error) Detail() string {
	var env struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal([]byte(e.Body), &env); err == nil && env.Detail != nil {
		if s, ok := env.Detail.(string); ok {
			return s
		}
		b, _ := json.Marshal(env.Detail)
		return string(b)
	}
	return strings.TrimSpace(e.Body)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// call performs one JSON request. route is the path template used for
// metrics; path is the concrete path, optionally with a query string.
// out may be nil to discard the response body.
func (c *Client) call(ctx context.Context, method, route, path string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshalling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(method, route, 0, start)
		return fmt.Errorf("API not reachable at %s (%w)", c.baseURL, err)
	}
	defer resp.Body.Close()
	c.observe(method, route, resp.StatusCode, start)

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		apiErr := &Error{Status: resp.StatusCode, Method: method, Path: path, Body: string(data)}
		c.logger.Debug("api error", "method", method, "path", path, "status", resp.StatusCode)
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) observe(method, route string, status int, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveRequest(method, route, status, time.Since(start))
	}
}

func (c *Client) get(ctx context.Context, route, path string, out any) error {
	return c.call(ctx, http.MethodGet, route, path, nil, out)
}

func (c *Client) post(ctx context.Context, route, path string, body, out any) error {
	return c.call(ctx, http.MethodPost, route, path, body, out)
}

func (c *Client) put(ctx context.Context, route, path string, body, out any) error {
	return c.call(ctx, http.MethodPut, route, path, body, out)
}

func (c *Client) delete(ctx context.Context, route, path string) error {
	return c.call(ctx, http.MethodDelete, route, path, nil, nil)
}

// seg escapes one path segment.
func seg(s string) string {
	return url.PathEscape(s)
}
