// Package search implements the recursive time-slicing search driver: the
// core of the system. It adaptively subdivides a date window so every leaf
// query stays under the platform's 1000-result cap, and streams parsed
// records to the Sink. Grounded on the Python original's
// core/engine.py SearchEngine, reimplemented as a bounded iterative
// routine per the spec's Design Notes (no recursive retry-via-exception).
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/archenemy/domainhawk/internal/governor"
	"github.com/archenemy/domainhawk/internal/metrics"
	"github.com/archenemy/domainhawk/internal/sink"
	"github.com/archenemy/domainhawk/internal/transport"
	"github.com/archenemy/domainhawk/internal/types"
)

const (
	maxResultCap  = 1000
	maxRetries    = 5 // bounded retry depth for 403 handling, per Design Notes
)

// Driver drives the recursive time-slicing search.
type Driver struct {
	transport *transport.Transport
	governor  *governor.Governor
	sink      *sink.Sink
	apiBase   string
	perPage   int
	log       *slog.Logger
	metrics   *metrics.Metrics
}

// New builds a Driver. perPage is clamped to the platform maximum of 100.
func New(t *transport.Transport, g *governor.Governor, s *sink.Sink, apiBase string, perPage int, log *slog.Logger) *Driver {
	if perPage <= 0 || perPage > 100 {
		perPage = 100
	}
	if log == nil {
		log = slog.Default()
	}
	return &Driver{transport: t, governor: g, sink: s, apiBase: apiBase, perPage: perPage, log: log}
}

// WithMetrics attaches a Metrics sink for request/retry/slice counters.
// Optional; passing nil disables reporting.
func (d *Driver) WithMetrics(m *metrics.Metrics) *Driver {
	d.metrics = m
	return d
}

// Search is the public contract: enumerate top-level year slices and
// descend into each enabled resource kind. Idempotent modulo external
// server state; streams records to the Sink as they are parsed.
func (d *Driver) Search(ctx context.Context, term string, yearFrom, yearTo int, includeRepos, includeCode bool, state *types.ScanState) error {
	var kinds []types.ResourceKind
	if includeRepos {
		kinds = append(kinds, types.ResourceRepositories)
	}
	if includeCode {
		kinds = append(kinds, types.ResourceCode)
	}

	for year := yearFrom; year <= yearTo; year++ {
		slice := types.NewYearSlice(year)
		for _, kind := range kinds {
			if state.IsInterrupted() {
				return nil
			}
			if err := d.descend(ctx, term, slice, kind, state); err != nil {
				d.log.Error("descend failed for top-level slice", "year", year, "kind", kind, "err", err)
			}
		}
	}
	return nil
}

// descend implements the probe-then-harvest-or-split algorithm.
func (d *Driver) descend(ctx context.Context, term string, slice types.TimeSlice, kind types.ResourceKind, state *types.ScanState) error {
	if state.IsInterrupted() {
		return nil
	}
	state.SetCurrentSlice(slice.Label)

	query, err := types.NewSearchQuery(term, slice, kind)
	if err != nil {
		return err
	}

	if d.metrics != nil {
		d.metrics.SlicesProbed.Add(1)
	}
	total, ok, err := d.probe(ctx, query)
	if err != nil {
		return err
	}
	if !ok {
		// 422: query rejected; slice considered complete, no recursion.
		return nil
	}
	if total == 0 {
		return nil
	}

	if total <= maxResultCap {
		return d.harvest(ctx, query, total, state)
	}

	if slice.IsDay() {
		d.log.Warn("day slice exceeds result cap; harvesting with truncation",
			"slice", slice.Label, "kind", kind, "total_count", total, "cap", maxResultCap)
		return d.harvest(ctx, query, total, state)
	}

	if d.metrics != nil {
		d.metrics.SlicesSplit.Add(1)
	}
	for _, child := range slice.Split() {
		if state.IsInterrupted() {
			return nil
		}
		if err := d.descend(ctx, term, child, kind, state); err != nil {
			d.log.Error("descend failed for child slice", "slice", child.Label, "kind", kind, "err", err)
		}
	}
	return nil
}

// probe issues a per_page=1 count query. ok=false means the platform
// rejected the query (422): the slice is handled, no recursion attempted.
func (d *Driver) probe(ctx context.Context, query types.SearchQuery) (total int, ok bool, err error) {
	resp, err := d.request(ctx, query, 1, 1)
	if err != nil {
		return 0, false, err
	}
	if resp == nil {
		return 0, false, nil // 422 abandonment
	}

	var body struct {
		TotalCount int `json:"total_count"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return 0, false, &types.ParseError{Kind: "probe", Err: err}
	}
	return body.TotalCount, true, nil
}

// harvest pages through results at the driver's perPage (100 by default),
// sort=indexed, order=desc,
// submitting each parsed record to the Sink.
func (d *Driver) harvest(ctx context.Context, query types.SearchQuery, totalCount int, state *types.ScanState) error {
	maxPages := (totalCount + d.perPage - 1) / d.perPage
	if capPages := maxResultCap / d.perPage; maxPages > capPages {
		maxPages = capPages
	}

	for page := 1; page <= maxPages; page++ {
		if state.IsInterrupted() {
			return nil
		}

		resp, err := d.request(ctx, query, d.perPage, page)
		if err != nil {
			return err
		}
		if resp == nil {
			return nil // 422 mid-harvest: slice considered handled
		}

		var body struct {
			TotalCount int               `json:"total_count"`
			Items      []json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(resp.Body, &body); err != nil {
			return &types.ParseError{Kind: "harvest", Err: err}
		}
		if len(body.Items) == 0 {
			break
		}

		for _, raw := range body.Items {
			record, parseErr := parseItem(raw, query.Kind)
			if parseErr != nil {
				d.log.Warn("skipping item with parse failure", "kind", query.Kind, "err", parseErr)
				continue
			}
			d.sink.Add(record)
		}

		if page*d.perPage >= body.TotalCount {
			break
		}
	}
	return nil
}

// request performs the per-request envelope: acquire a credential, set the
// auth header, send, observe the response, and handle 401/403/422 with a
// bounded iterative retry (cap maxRetries). A nil, nil return means the
// slice's current call was abandoned (422).
func (d *Driver) request(ctx context.Context, query types.SearchQuery, perPage, page int) (*transport.Response, error) {
	params := url.Values{
		"q":        []string{query.QueryString()},
		"per_page": []string{strconv.Itoa(perPage)},
		"page":     []string{strconv.Itoa(page)},
		"sort":     []string{"indexed"},
		"order":    []string{"desc"},
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		cred, err := d.governor.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire credential: %w", err)
		}

		headers := http.Header{
			"Authorization": []string{"Bearer " + cred.Secret},
			"Accept":        []string{"application/vnd.github.v3+json"},
		}

		if d.metrics != nil {
			d.metrics.RequestsTotal.Add(1)
			if attempt > 0 {
				d.metrics.RetriesTotal.Add(1)
			}
		}
		resp, err := d.transport.Fetch(ctx, d.apiBase+query.Endpoint(), headers, params)
		if err != nil {
			return nil, err
		}
		d.governor.Observe(cred, resp.Headers)

		switch {
		case resp.StatusCode == http.StatusOK:
			return resp, nil

		case resp.StatusCode == http.StatusUnprocessableEntity:
			return nil, nil // abandon this slice's call; slice considered complete

		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests:
			directive := d.governor.ReportError(ctx, cred, resp.StatusCode, string(resp.Body))
			if directive == governor.DirectiveAbort {
				return nil, types.ErrNoCredentials
			}
			continue // retry the same request

		default:
			return nil, &types.TransportError{URL: d.apiBase + query.Endpoint(), StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status")}
		}
	}

	return nil, fmt.Errorf("exceeded %d retries for %s", maxRetries, query.QueryString())
}
