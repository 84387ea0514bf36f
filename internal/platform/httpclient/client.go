// Package httpclient provides the outbound HTTP transport shared by the
// registry and attestation clients: request pacing against one external
// authority, bounded exponential-backoff retries on transient failures, and
// a fixed per-request timeout.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout     = 15 * time.Second
	defaultMaxRetries  = 2
	defaultBackoffBase = 500 * time.Millisecond
	defaultUserAgent   = "verax (supply-chain veracity checker)"
)

// Client is an HTTP client for one external authority. One Client instance
// paces all requests to its authority through a shared limiter, so concurrent
// package evaluations never exceed the authority's tolerated request rate.
type Client struct {
	http        *http.Client
	limiter     *rate.Limiter
	userAgent   string
	maxRetries  int
	backoffBase time.Duration
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithPacing enforces a minimum interval between consecutive requests.
// A zero interval disables pacing.
func WithPacing(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.limiter = rate.NewLimiter(rate.Every(interval), 1)
		}
	}
}

// WithTimeout sets the fixed per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = timeout
	}
}

// WithMaxRetries sets how many times a failed request is retried.
// The total number of attempts is retries + 1.
func WithMaxRetries(retries int) Option {
	return func(c *Client) {
		if retries >= 0 {
			c.maxRetries = retries
		}
	}
}

// WithBackoffBase sets the base delay for exponential retry backoff.
func WithBackoffBase(base time.Duration) Option {
	return func(c *Client) {
		c.backoffBase = base
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithLogger sets the logger for retry diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Client with a 15s request timeout and 2 retries, unpaced
// unless WithPacing is given.
func New(opts ...Option) *Client {
	c := &Client{
		http:        &http.Client{Timeout: defaultTimeout},
		userAgent:   defaultUserAgent,
		maxRetries:  defaultMaxRetries,
		backoffBase: defaultBackoffBase,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get issues a paced, retried GET. Responses below 500 are returned to the
// caller for status mapping; the caller owns the body.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, url)
}

// Head issues a paced, retried HEAD.
func (c *Client) Head(ctx context.Context, url string) (*http.Response, error) {
	return c.do(ctx, http.MethodHead, url)
}

// do runs the attempt loop: pace, send, and retry on transport errors and
// 5xx responses with exponential backoff. Exhausting retries is a definite
// error, never an implicit "absent".
func (c *Client) do(ctx context.Context, method, url string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.backoffBase * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return nil, fmt.Errorf("build %s %s: %w", method, url, err)
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			c.logger.DebugContext(ctx, "request attempt failed, retrying",
				slog.String("method", method),
				slog.String("url", url),
				slog.Int("attempt", attempt+1),
				slog.String("error", err.Error()),
			)
			continue
		}

		if resp.StatusCode >= http.StatusInternalServerError {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("%s %s: %s", method, url, resp.Status)
			c.logger.DebugContext(ctx, "server error, retrying",
				slog.String("method", method),
				slog.String("url", url),
				slog.Int("attempt", attempt+1),
				slog.String("status", resp.Status),
			)
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxRetries+1, lastErr)
}
