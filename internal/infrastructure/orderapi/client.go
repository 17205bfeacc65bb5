// Package orderapi is the typed HTTP client for the remote order API that
// owns orders, stores and profit calculations.
package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/orderdesk/backend/internal/infrastructure/logger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Config configures the client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Observer receives one observation per remote call. status is 0 when no
// response arrived.
type Observer interface {
	ObserveRemote(operation string, status int, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveRemote(string, int, time.Duration) {}

// Option configures a Client.
type Option func(*Client)

// WithObserver reports every call to o.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// Client talks JSON to the remote order API. It adds no retries: a failed
// call is reported to the caller as is.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	userAgent  string
	observer   Observer
	logger     *zap.Logger
}

// NewClient creates a client for cfg.BaseURL. Outgoing requests are traced
// with otelhttp so they join the inbound request's trace.
func NewClient(cfg Config, zapLogger *zap.Logger, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("base URL must be absolute: %s", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "orderdesk/1.0"
	}
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}

	c := &Client{
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.Timeout,
		},
		baseURL:   base,
		userAgent: cfg.UserAgent,
		observer:  nopObserver{},
		logger:    zapLogger.Named("orderapi"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the remote API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// call describes one request to the remote API.
type call struct {
	operation string
	method    string
	path      string
	query     map[string]string
	body      any
}

// do executes a call and decodes a 2xx JSON body into out when out is non-nil.
func (c *Client) do(ctx context.Context, req call, out any) error {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + req.path
	if len(req.query) > 0 {
		q := u.Query()
		for k, v := range req.query {
			if v != "" {
				q.Set(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("%s: marshaling request body: %w", req.operation, err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return fmt.Errorf("%s: creating request: %w", req.operation, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if requestID := logger.GetRequestID(ctx); requestID != "" {
		httpReq.Header.Set("X-Request-ID", requestID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	elapsed := time.Since(start)
	if err != nil {
		c.observer.ObserveRemote(req.operation, 0, elapsed)
		logger.L(ctx).Warn("Remote call failed",
			zap.String("operation", req.operation),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", req.operation, ctxErr)
		}
		return &APIError{Operation: req.operation, Message: unavailableMessage, cause: err}
	}
	defer resp.Body.Close()

	c.observer.ObserveRemote(req.operation, resp.StatusCode, elapsed)
	logger.L(ctx).Debug("Remote call",
		zap.String("operation", req.operation),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed),
	)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Operation: req.operation, StatusCode: resp.StatusCode, Message: unavailableMessage, cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(req.operation, resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &APIError{
			Operation:  req.operation,
			StatusCode: resp.StatusCode,
			Message:    "The order service returned an unreadable response",
			cause:      err,
		}
	}
	return nil
}

// IsUnavailable reports whether err means the remote API could not be reached.
func IsUnavailable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 0
}
