// Package httpx wraps net/http with the retry, pacing and timeout behavior
// every upstream connector shares.
package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/venuz/ingest/internal/logger"
)

const (
	// DefaultTimeout bounds a single attempt, not the whole retry cycle.
	DefaultTimeout = 15 * time.Second

	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 3

	backoffBase       = time.Second
	defaultRetryAfter = 5 * time.Second

	maxBodyBytes = 10 << 20
)

// StatusError is returned for non-2xx responses that exhaust retries.
type StatusError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http %s: %s", e.Status, e.URL)
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the per-attempt timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithMaxRetries overrides the retry count.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithRatePerMinute paces requests so at most n leave per minute.
func WithRatePerMinute(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
		}
	}
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithTransport swaps the underlying http.Client, mainly for tests.
func WithTransport(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// Client is a rate-limited, retrying HTTP client. A zero rate limiter means
// no pacing.
type Client struct {
	http       *http.Client
	log        logger.Logger
	limiter    *rate.Limiter
	timeout    time.Duration
	maxRetries int
	userAgent  string

	// sleep is swappable so tests run without real waits.
	sleep func(context.Context, time.Duration) error
}

// New builds a Client with the shared defaults.
func New(log logger.Logger, opts ...Option) *Client {
	c := &Client{
		http:       &http.Client{},
		log:        log,
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
		sleep:      sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
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

// Do issues the request with pacing and retries. The caller owns the response
// body of a successful result. Requests with bodies are not retried safely
// here, so connectors stick to GET.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		resp, err := c.attempt(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if attempt == c.maxRetries {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		wait := backoffBase << attempt
		c.log.Warn("request failed, retrying",
			logger.String("url", req.URL.String()),
			logger.Int("attempt", attempt+1),
			logger.Int("max_retries", c.maxRetries),
			logger.Duration("wait", wait),
			logger.Error(err),
		)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, req *http.Request) (*http.Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	resp, err := c.http.Do(req.Clone(attemptCtx))
	if err != nil {
		cancel()
		return nil, err
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		wait := retryAfter(resp)
		drain(resp)
		cancel()
		c.log.Warn("rate limited by upstream",
			logger.String("url", req.URL.String()),
			logger.Duration("retry_after", wait),
		)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, URL: req.URL.String()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		drain(resp)
		cancel()
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, URL: req.URL.String()}
	}

	// Tie body lifetime to the attempt context.
	resp.Body = &cancelBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultRetryAfter
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes)) //nolint:errcheck
	resp.Body.Close()
}

type cancelBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// GetJSON fetches url and decodes the response body into out.
func (c *Client) GetJSON(ctx context.Context, url string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", url, err)
	}
	return nil
}
