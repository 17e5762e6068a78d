package gistscan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/archenemy/domainhawk/internal/sink"
	"github.com/archenemy/domainhawk/internal/transport"
	"github.com/archenemy/domainhawk/internal/types"
)

type fakeWriter struct{ written []types.ResultRecord }

func (w *fakeWriter) Write(r types.ResultRecord) error {
	w.written = append(w.written, r)
	return nil
}

func TestExtractGistLinksFiltersNonGistHrefs(t *testing.T) {
	html := `
	<html><body>
	<a href="/someuser/0123456789abcdef0123456789abcdef">gist one</a>
	<a href="/someuser/too-short">not a gist</a>
	<a href="/about">nav link</a>
	<a href="/otheruser/fedcba9876543210fedcba9876543210">gist two</a>
	</body></html>`

	links, err := extractGistLinks(html)
	if err != nil {
		t.Fatal(err)
	}
	if len(links) != 2 {
		t.Fatalf("got %d links, want 2: %v", len(links), links)
	}
}

func TestScanStopsOnEmptyPage(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`<html><body></body></html>`))
	}))
	defer srv.Close()

	tr := transport.New(transport.Config{MinDelay: time.Millisecond, MaxDelay: time.Millisecond})
	s := sink.New(&fakeWriter{}, nil)
	scanner := New(tr, s, srv.URL, 10, nil, nil)

	state := types.NewScanState()
	scanner.Scan(context.Background(), "acme.com", state)

	if calls != 1 {
		t.Fatalf("got %d page fetches, want 1 (should stop after first empty page)", calls)
	}
}

func TestScanRespectsInterruptBeforeFirstPage(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`<a href="/u/` + padHex(calls) + `">g</a>`))
	}))
	defer srv.Close()

	tr := transport.New(transport.Config{MinDelay: time.Millisecond, MaxDelay: time.Millisecond})
	s := sink.New(&fakeWriter{}, nil)
	scanner := New(tr, s, srv.URL, 10, nil, nil)

	state := types.NewScanState()
	state.Interrupt()
	scanner.Scan(context.Background(), "acme.com", state)

	if calls != 0 {
		t.Fatalf("expected no fetches once interrupted, got %d", calls)
	}
}

func padHex(n int) string {
	s := ""
	for i := 0; i < 32; i++ {
		s += "a"
	}
	_ = n
	return s
}
