// Package fetch implements thread.Fetcher over net/http with OpenTelemetry
// instrumented transport.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/WessleyAI/threadsnap/engine/thread"
)

// Options configures a Client.
type Options struct {
	// Timeout bounds a whole request. Zero leaves it to the context.
	Timeout time.Duration
	// UserAgent is sent when non-empty.
	UserAgent string
	// Transport overrides the base round tripper (tests).
	Transport http.RoundTripper
}

// Client performs single GETs without retries.
type Client struct {
	http      *http.Client
	userAgent string
}

var _ thread.Fetcher = (*Client)(nil)

// New creates a Client.
func New(opts Options) *Client {
	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &Client{
		http: &http.Client{
			Transport: otelhttp.NewTransport(base),
			Timeout:   opts.Timeout,
		},
		userAgent: opts.UserAgent,
	}
}

// Get issues one GET and returns status and body. Non-2xx statuses are not
// errors here; the caller decides.
func (c *Client) Get(ctx context.Context, url string) (*thread.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body from %s: %w", url, err)
	}
	return &thread.Response{Status: resp.StatusCode, Body: body}, nil
}
