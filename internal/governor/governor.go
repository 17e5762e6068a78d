// Package governor owns the credential pool and rate-limit accounting:
// selection, header-driven quota updates, and the waits that make it safe
// for a caller to send immediately after acquire returns. The rotation
// pattern is adapted from the teacher's internal/fetcher/proxy.go
// ProxyManager; the quota/backoff semantics are grounded in the Python
// original's rate_limiter.py and auth_manager.py.
package governor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/archenemy/domainhawk/internal/metrics"
	"github.com/archenemy/domainhawk/internal/transport"
	"github.com/archenemy/domainhawk/internal/types"
)

// Directive is the outcome of reporting an error response to the Governor.
type Directive int

const (
	DirectiveRetry Directive = iota
	DirectiveAbort
)

const (
	secondaryPenalty    = 60 * time.Second
	safetyMargin        = 5 * time.Second
	secondaryBackoffCap = time.Hour
)

// Governor is the credential pool / rate governor. Safe for single-threaded
// cooperative use as described by the spec; a mutex guards the pool so that
// if a caller does run per-credential workers, quota accounting is still
// serialized.
type Governor struct {
	mu             sync.Mutex
	creds          []*types.Credential
	cursor         int
	threshold      int
	log            *slog.Logger
	secondaryCount map[string]int // consecutive no-Retry-After secondary penalties, keyed by credential secret
	metrics        *metrics.Metrics
}

// New builds a Governor over the given credentials.
func New(creds []*types.Credential, threshold int, log *slog.Logger) *Governor {
	if log == nil {
		log = slog.Default()
	}
	return &Governor{
		creds:          creds,
		threshold:      threshold,
		log:            log,
		secondaryCount: make(map[string]int),
	}
}

// WithMetrics attaches a Metrics sink that Acquire/rotate/ReportError report
// rotations and secondary waits into. Optional; passing nil disables reporting.
func (g *Governor) WithMetrics(m *metrics.Metrics) *Governor {
	g.metrics = m
	return g
}

func (g *Governor) recordRotation() {
	if g.metrics != nil {
		g.metrics.RotationsTotal.Add(1)
	}
}

func (g *Governor) recordSecondaryWait() {
	if g.metrics != nil {
		g.metrics.SecondaryWaits.Add(1)
	}
}

// Warm consults the cost-free /rate_limit introspection endpoint once per
// credential at startup, pre-populating remaining/reset_epoch before the
// first real search request. Supplemented from auth_manager.py's
// check_rate_limit, which specifically reads resources.search, not core.
func (g *Governor) Warm(ctx context.Context, t *transport.Transport, apiBase string) {
	g.mu.Lock()
	creds := append([]*types.Credential(nil), g.creds...)
	g.mu.Unlock()

	for _, c := range creds {
		if !c.Valid {
			continue
		}
		headers := http.Header{"Authorization": []string{"Bearer " + c.Secret}}
		resp, err := t.Fetch(ctx, apiBase+"/rate_limit", headers, nil)
		if err != nil {
			g.log.Warn("rate_limit introspection failed", "credential", c.Masked(), "err", err)
			continue
		}
		if resp.StatusCode == http.StatusUnauthorized {
			g.mu.Lock()
			c.Valid = false
			g.mu.Unlock()
			continue
		}
		search, ok := parseSearchResource(resp.Body)
		if !ok {
			continue
		}
		g.mu.Lock()
		c.Remaining = search.Remaining
		c.Limit = search.Limit
		c.ResetEpoch = search.Reset
		g.mu.Unlock()
	}
}

// Acquire returns a credential safe to use right now, rotating or waiting
// as needed. It never returns an invalid credential.
func (g *Governor) Acquire(ctx context.Context) (*types.Credential, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.creds) == 0 {
		return nil, types.ErrNoCredentials
	}

	now := time.Now()
	if c := g.creds[g.cursor]; c.Usable(g.threshold, now) {
		return c, nil
	}

	// Bounded scan: at most |pool| rotation attempts per acquire.
	for attempts := 0; attempts < len(g.creds); attempts++ {
		g.cursor = (g.cursor + 1) % len(g.creds)
		if c := g.creds[g.cursor]; c.Usable(g.threshold, now) {
			return c, nil
		}
	}

	return g.waitForReset(ctx)
}

// waitForReset blocks until the minimum reset_epoch over valid credentials
// elapses, plus a small safety margin, then resets remaining quotas. Caller
// must hold g.mu.
func (g *Governor) waitForReset(ctx context.Context) (*types.Credential, error) {
	var minReset int64
	haveValid := false
	for _, c := range g.creds {
		if !c.Valid {
			continue
		}
		haveValid = true
		if minReset == 0 || (c.ResetEpoch > 0 && c.ResetEpoch < minReset) {
			minReset = c.ResetEpoch
		}
	}
	if !haveValid {
		return nil, types.ErrNoCredentials
	}

	var wait time.Duration
	if minReset > 0 {
		wait = time.Until(time.Unix(minReset, 0).Add(safetyMargin))
	}
	if wait < 0 {
		wait = 0
	}

	g.log.Warn("credential pool exhausted; waiting for quota reset", "wait", wait)

	g.mu.Unlock()
	select {
	case <-time.After(wait):
	case <-ctx.Done():
		g.mu.Lock()
		return nil, ctx.Err()
	}
	g.mu.Lock()

	// Refresh from X-RateLimit-Limit if known, per the Open Question
	// resolution documented in DESIGN.md: prefer the credential's own
	// known limit over a hardcoded constant.
	for _, c := range g.creds {
		if c.Valid {
			if c.Limit > 0 {
				c.Remaining = c.Limit
			} else {
				c.Remaining = 30
			}
		}
	}
	for i, c := range g.creds {
		if c.Valid {
			g.cursor = i
			break
		}
	}
	return g.creds[g.cursor], nil
}

// Observe parses the rate-limit headers from a response and updates the
// active credential, including any Retry-After directive.
func (g *Governor) Observe(c *types.Credential, headers http.Header) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if v := headers.Get("X-RateLimit-Remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Remaining = n
		}
	}
	if v := headers.Get("X-RateLimit-Limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Limit = n
		}
	}
	if v := headers.Get("X-RateLimit-Reset"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.ResetEpoch = n
		}
	}
	if v := headers.Get("X-RateLimit-Resource"); v != "" {
		c.Resource = v
	}
	if d, ok := transport.RetryAfterFromHeader(headers); ok {
		c.RetryAfter = time.Now().Add(d)
	}
}

// ReportError classifies a 401/403/429 response body and status, mutates
// the pool accordingly, and returns a directive telling the caller whether
// to retry the same request or abort the slice.
func (g *Governor) ReportError(ctx context.Context, c *types.Credential, statusCode int, body string) Directive {
	lower := strings.ToLower(body)

	switch {
	case statusCode == http.StatusUnauthorized:
		g.mu.Lock()
		c.Valid = false
		g.rotate()
		anyValid := false
		for _, cred := range g.creds {
			if cred.Valid {
				anyValid = true
				break
			}
		}
		g.mu.Unlock()
		if !anyValid {
			return DirectiveAbort
		}
		return DirectiveRetry

	case (statusCode == http.StatusForbidden || statusCode == http.StatusTooManyRequests) && (strings.Contains(lower, "abuse") || strings.Contains(lower, "secondary")):
		g.mu.Lock()
		secret := c.Secret
		hasRetryAfter := !c.RetryAfter.IsZero()
		g.mu.Unlock()

		if hasRetryAfter {
			g.mu.Lock()
			wait := time.Until(c.RetryAfter)
			g.mu.Unlock()
			g.recordSecondaryWait()
			sleep(ctx, wait)
			g.mu.Lock()
			g.secondaryCount[secret] = 0
			g.rotate()
			g.mu.Unlock()
			return DirectiveRetry
		}

		// Supplemented: exponential backoff (base 60s, doubling, capped at
		// 1h) when repeated secondary penalties arrive with no
		// Retry-After, grounded on rate_limiter.py's handle_rate_limit_response.
		g.mu.Lock()
		g.secondaryCount[secret]++
		n := g.secondaryCount[secret]
		g.mu.Unlock()

		penalty := secondaryPenalty
		if n > 1 {
			penalty = secondaryPenalty * time.Duration(1<<(n-1))
			if penalty > secondaryBackoffCap {
				penalty = secondaryBackoffCap
			}
		}
		g.log.Warn("secondary rate limit encountered", "credential", c.Masked(), "penalty", penalty)
		g.recordSecondaryWait()
		sleep(ctx, penalty)

		g.mu.Lock()
		g.rotate()
		g.mu.Unlock()
		return DirectiveRetry

	case (statusCode == http.StatusForbidden || statusCode == http.StatusTooManyRequests) && strings.Contains(lower, "rate limit"):
		g.mu.Lock()
		secret := c.Secret
		g.secondaryCount[secret] = 0
		g.rotate()
		g.mu.Unlock()
		return DirectiveRetry

	default:
		return DirectiveAbort
	}
}

// rotate advances the cursor. Caller must hold g.mu.
func (g *Governor) rotate() {
	if len(g.creds) == 0 {
		return
	}
	g.cursor = (g.cursor + 1) % len(g.creds)
	g.recordRotation()
}

// Status renders a one-line human-readable progress string, supplemented
// from rate_limiter.py's get_status_string / auth_manager.py's display_status.
func (g *Governor) Status() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	valid := 0
	for _, c := range g.creds {
		if c.Valid {
			valid++
		}
	}
	active := "none"
	if len(g.creds) > 0 {
		active = g.creds[g.cursor].Masked()
	}
	return fmt.Sprintf("credentials: %d/%d valid, active=%s, remaining=%d",
		valid, len(g.creds), active, currentRemaining(g))
}

func currentRemaining(g *Governor) int {
	if len(g.creds) == 0 {
		return 0
	}
	return g.creds[g.cursor].Remaining
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

