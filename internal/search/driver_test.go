package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/archenemy/domainhawk/internal/governor"
	"github.com/archenemy/domainhawk/internal/sink"
	"github.com/archenemy/domainhawk/internal/transport"
	"github.com/archenemy/domainhawk/internal/types"
)

type fakeWriter struct{ written []types.ResultRecord }

func (w *fakeWriter) Write(r types.ResultRecord) error {
	w.written = append(w.written, r)
	return nil
}

func newTestDriver(t *testing.T, srv *httptest.Server) (*Driver, *sink.Sink) {
	tr := transport.New(transport.Config{MinDelay: time.Millisecond, MaxDelay: time.Millisecond})
	creds := []*types.Credential{types.NewCredential("ghp_" + fmt.Sprintf("%036d", 1))}
	creds[0].Remaining = 30
	creds[0].Limit = 30
	g := governor.New(creds, 2, nil)
	w := &fakeWriter{}
	s := sink.New(w, nil)
	d := New(tr, g, s, srv.URL, 100, nil)
	return d, s
}

func TestScenarioEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"total_count": 0, "items": []any{}})
	}))
	defer srv.Close()

	d, s := newTestDriver(t, srv)
	state := types.NewScanState()
	if err := d.Search(context.Background(), "example.invalid", 2023, 2023, true, false, state); err != nil {
		t.Fatal(err)
	}
	if s.Total() != 0 {
		t.Fatalf("got total %d, want 0", s.Total())
	}
}

func TestScenarioModestResultSinglePage(t *testing.T) {
	var pageCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		if r.URL.Query().Get("per_page") == "1" {
			json.NewEncoder(w).Encode(map[string]any{"total_count": 42})
			return
		}
		pageCalls++
		if page != "1" {
			t.Errorf("expected only page 1 to be fetched for 42 results, got page %s", page)
		}
		items := make([]map[string]any, 42)
		for i := range items {
			items[i] = map[string]any{
				"full_name": fmt.Sprintf("acme/repo-%d", i),
				"html_url":  fmt.Sprintf("https://github.com/acme/repo-%d", i),
				"owner":     map[string]any{"login": "acme"},
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"total_count": 42, "items": items})
	}))
	defer srv.Close()

	d, s := newTestDriver(t, srv)
	state := types.NewScanState()
	if err := d.Search(context.Background(), "acme.com", 2023, 2023, true, false, state); err != nil {
		t.Fatal(err)
	}
	if s.Total() != 42 {
		t.Fatalf("got total %d, want 42", s.Total())
	}
	if pageCalls != 1 {
		t.Fatalf("got %d page fetches, want exactly 1", pageCalls)
	}
}

func TestScenarioYearNeedsMonthlySplit(t *testing.T) {
	probeCount := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if r.URL.Query().Get("per_page") == "1" {
			probeCount++
			if strings.Contains(q, "created:2022-01-01..2022-12-31") {
				json.NewEncoder(w).Encode(map[string]any{"total_count": 1500})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"total_count": 10})
			return
		}
		items := make([]map[string]any, 10)
		for i := range items {
			items[i] = map[string]any{
				"full_name": fmt.Sprintf("acme/repo-%s-%d", q, i),
				"html_url":  fmt.Sprintf("https://github.com/acme/repo-%s-%d", q, i),
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"total_count": 10, "items": items})
	}))
	defer srv.Close()

	d, s := newTestDriver(t, srv)
	state := types.NewScanState()
	if err := d.Search(context.Background(), "acme", 2022, 2022, true, false, state); err != nil {
		t.Fatal(err)
	}
	// 1 year probe + 12 month probes
	if probeCount != 13 {
		t.Fatalf("got %d probes, want 13 (1 year + 12 months)", probeCount)
	}
	if s.Total() != 120 {
		t.Fatalf("got total %d, want 120 (12 months * 10 each, all unique)", s.Total())
	}
}

func TestScenarioPrimaryRateLimitMidHarvestRotatesAndRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("per_page") == "1" {
			json.NewEncoder(w).Encode(map[string]any{"total_count": 1})
			return
		}
		calls++
		auth := r.Header.Get("Authorization")
		if calls == 1 {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte("API rate limit exceeded for " + auth))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"total_count": 1, "items": []map[string]any{
			{"full_name": "acme/repo", "html_url": "https://github.com/acme/repo"},
		}})
	}))
	defer srv.Close()

	tr := transport.New(transport.Config{MinDelay: time.Millisecond, MaxDelay: time.Millisecond})
	creds := []*types.Credential{
		types.NewCredential("ghp_" + fmt.Sprintf("%036d", 1)),
		types.NewCredential("ghp_" + fmt.Sprintf("%036d", 2)),
	}
	for _, c := range creds {
		c.Remaining, c.Limit = 30, 30
	}
	g := governor.New(creds, 2, nil)
	w := &fakeWriter{}
	s := sink.New(w, nil)
	d := New(tr, g, s, srv.URL, 100, nil)

	state := types.NewScanState()
	if err := d.Search(context.Background(), "acme", 2023, 2023, true, false, state); err != nil {
		t.Fatal(err)
	}
	if s.Total() != 1 {
		t.Fatalf("got total %d, want 1 (harvest should complete after rotation+retry)", s.Total())
	}
	if calls != 2 {
		t.Fatalf("got %d harvest calls, want 2 (one 403, one successful retry)", calls)
	}
}

func TestScenarioInterruptStopsPromptly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"total_count": 0})
	}))
	defer srv.Close()

	d, s := newTestDriver(t, srv)
	state := types.NewScanState()
	state.Interrupt()

	if err := d.Search(context.Background(), "acme", 2015, 2023, true, false, state); err != nil {
		t.Fatal(err)
	}
	if s.Total() != 0 {
		t.Fatalf("expected no work to occur once interrupted")
	}
}
