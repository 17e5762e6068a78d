// Package transport implements the stateless HTTP request executor: a
// reused connection pool, randomized user-agent, jitter delay, and bounded
// retries on transient 5xx responses. Adapted from the teacher's
// internal/fetcher/http.go HTTPFetcher.
package transport

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/archenemy/domainhawk/internal/types"
)

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"domainhawk/1.0 (+https://github.com/archenemy/domainhawk)",
}

// Response is the normalized result of one HTTP round trip.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Config tunes a Transport instance.
type Config struct {
	MinDelay   time.Duration
	MaxDelay   time.Duration
	MaxRetries int
	Timeout    time.Duration
	UserAgents []string
}

// Transport is a stateless request executor with a reused connection pool.
type Transport struct {
	client     *http.Client
	cfg        Config
	uaIndex    atomic.Uint64
	skipJitter atomic.Bool
}

// New builds a Transport with a pooled client matching the teacher's
// fetcher configuration style.
func New(cfg Config) *Transport {
	if len(cfg.UserAgents) == 0 {
		cfg.UserAgents = defaultUserAgents
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Transport{
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		cfg: cfg,
	}
}

// SkipNextJitter suppresses the pre-request jitter sleep exactly once, for
// callers that have just performed their own wait (e.g. the Governor's
// acquire-induced block).
func (t *Transport) SkipNextJitter() {
	t.skipJitter.Store(true)
}

func (t *Transport) randomUserAgent() string {
	return t.cfg.UserAgents[rand.Intn(len(t.cfg.UserAgents))]
}

func (t *Transport) jitterSleep(ctx context.Context) error {
	if t.skipJitter.CompareAndSwap(true, false) {
		return nil
	}
	min, max := t.cfg.MinDelay, t.cfg.MaxDelay
	if min <= 0 && max <= 0 {
		min, max = 2*time.Second, 5500*time.Millisecond
	}
	delay := min
	if max > min {
		delay = min + time.Duration(rand.Int63n(int64(max-min)))
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Fetch executes one GET request against url with the given headers and
// query parameters, retrying transient 5xx responses with exponential
// backoff (base 1s, factor 1) up to MaxRetries. 4xx responses are never
// retried here: callers (the Governor/Driver) interpret 401/403/422
// themselves.
func (t *Transport) Fetch(ctx context.Context, rawURL string, headers http.Header, params url.Values) (*Response, error) {
	if err := t.jitterSleep(ctx); err != nil {
		return nil, err
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &types.TransportError{URL: rawURL, Err: fmt.Errorf("parse url: %w", err)}
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= t.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<(attempt-1)) * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, &types.TransportError{URL: u.String(), Err: err}
		}
		for k, vs := range headers {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		req.Header.Set("User-Agent", t.randomUserAgent())
		req.Header.Set("Accept-Encoding", "gzip, deflate, br")

		resp, err := t.client.Do(req)
		if err != nil {
			lastErr = &types.TransportError{URL: u.String(), Err: err, Retryable: true}
			continue
		}

		body, decErr := decodeBody(resp)
		resp.Body.Close()
		if decErr != nil {
			lastErr = &types.TransportError{URL: u.String(), StatusCode: resp.StatusCode, Err: decErr}
			continue
		}

		if resp.StatusCode >= 500 && resp.StatusCode < 600 {
			lastErr = &types.TransportError{URL: u.String(), StatusCode: resp.StatusCode, Err: fmt.Errorf("server error"), Retryable: true}
			continue
		}

		return &Response{StatusCode: resp.StatusCode, Headers: resp.Header, Body: body}, nil
	}

	return nil, lastErr
}

func decodeBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	case "deflate":
		reader = flate.NewReader(resp.Body)
	case "br":
		reader = brotli.NewReader(resp.Body)
	}
	return io.ReadAll(reader)
}

// RetryAfterFromHeader parses a Retry-After header value (seconds form
// only, as the platform emits) into a Duration.
func RetryAfterFromHeader(h http.Header) (time.Duration, bool) {
	v := h.Get("Retry-After")
	if v == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0, false
	}
	// Honored exactly, never undercut: no upper cap on the wait, per §7.5.
	return time.Duration(secs) * time.Second, true
}
