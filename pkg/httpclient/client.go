// Package httpclient provides a resilient HTTP client with automatic
// retries and exponential backoff, used for all remote speech and TTS
// backend calls.
//
// The client wraps the standard http.Client and adds:
//   - Automatic retries with jittered exponential backoff
//   - Retryable status detection (429 and 5xx gateway errors)
//   - Structured logging (credential redaction handled by observability package)
//   - Configurable timeouts at connect and request levels
package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"time"
)

// Common errors returned by the client.
var (
	ErrMaxRetries     = errors.New("max retries exceeded")
	ErrQuotaExceeded  = errors.New("remote quota exceeded")
	ErrRequestTimeout = errors.New("request timeout")
)

// Client is a retrying HTTP client.
type Client struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

// New creates a new client with the given configuration.
func New(config Config) *Client {
	config = config.withDefaults()

	base := config.BaseClient
	if base == nil {
		base = &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   config.ConnectTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        10,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: config.ConnectTimeout,
			},
		}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{config: config, client: base, logger: logger}
}

// Do executes the request with retries. The request body, if any, must be
// replayable: callers pass it as a byte slice via NewRequest so retries can
// resend it.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	var (
		lastErr  error
		lastCode int
	)

	if c.config.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	for attempt := 0; attempt <= c.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(req.Context(), c.backoff(attempt)); err != nil {
				return nil, err
			}
			// Rewind the body for the retry.
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("rewinding request body: %w", err)
				}
				req.Body = body
			}
		}

		resp, err := c.client.Do(req)
		if err != nil {
			if req.Context().Err() != nil {
				return nil, req.Context().Err()
			}
			lastErr = err
			c.logger.Debug("request failed, will retry",
				slog.String("url", req.URL.Redacted()),
				slog.Int("attempt", attempt+1),
				slog.String("error", err.Error()))
			continue
		}

		if !IsRetryableStatus(resp.StatusCode) {
			return resp, nil
		}

		lastCode = resp.StatusCode
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
		c.logger.Debug("retryable status",
			slog.String("url", req.URL.Redacted()),
			slog.Int("status", resp.StatusCode),
			slog.Int("attempt", attempt+1))
	}

	if lastCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: %w", ErrQuotaExceeded, lastErr)
	}
	return nil, fmt.Errorf("%w: %w", ErrMaxRetries, lastErr)
}

// Get issues a GET request to url with the given headers.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*http.Response, error) {
	req, err := NewRequest(ctx, http.MethodGet, url, nil, headers)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// Post issues a POST request with a replayable byte body.
func (c *Client) Post(ctx context.Context, url string, body []byte, headers map[string]string) (*http.Response, error) {
	req, err := NewRequest(ctx, http.MethodPost, url, body, headers)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

// NewRequest builds a request with a replayable body so the client can
// resend it on retry.
func NewRequest(ctx context.Context, method, url string, body []byte, headers map[string]string) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// ReadBody drains and closes the response body, enforcing the configured
// size limit when one is set.
func (c *Client) ReadBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	var r io.Reader = resp.Body
	if c.config.MaxResponseSize > 0 {
		r = io.LimitReader(resp.Body, c.config.MaxResponseSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if c.config.MaxResponseSize > 0 && int64(len(data)) > c.config.MaxResponseSize {
		return nil, fmt.Errorf("response body exceeds %d bytes", c.config.MaxResponseSize)
	}
	return data, nil
}

// backoff returns the delay before the given retry attempt (1-based), with
// up to 25% jitter.
func (c *Client) backoff(attempt int) time.Duration {
	d := c.config.RetryDelay
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * c.config.BackoffMultiplier)
		if d >= c.config.RetryMaxDelay {
			d = c.config.RetryMaxDelay
			break
		}
	}
	return d + time.Duration(rand.Int63n(int64(d)/4+1))
}

// IsRetryableStatus reports whether a status code is worth retrying:
// throttling (429) and transient gateway failures.
func IsRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
