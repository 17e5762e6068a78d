package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "29")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"total_count":1}`))
	}))
	defer srv.Close()

	tr := New(Config{MinDelay: time.Millisecond, MaxDelay: time.Millisecond})
	resp, err := tr.Fetch(context.Background(), srv.URL, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d, want 200", resp.StatusCode)
	}
	if resp.Headers.Get("X-RateLimit-Remaining") != "29" {
		t.Fatalf("missing rate limit header in response")
	}
}

func TestFetchRetries5xxThenSucceeds(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr := New(Config{MinDelay: time.Millisecond, MaxDelay: time.Millisecond, MaxRetries: 3})
	resp, err := tr.Fetch(context.Background(), srv.URL, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got %d, want 200 after retry", resp.StatusCode)
	}
	if calls != 2 {
		t.Fatalf("got %d calls, want 2", calls)
	}
}

func TestFetchNeverRetries4xx(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	tr := New(Config{MinDelay: time.Millisecond, MaxDelay: time.Millisecond, MaxRetries: 3})
	resp, err := tr.Fetch(context.Background(), srv.URL, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("got %d, want 403", resp.StatusCode)
	}
	if calls != 1 {
		t.Fatalf("got %d calls, want exactly 1 (no retry on 4xx)", calls)
	}
}

func TestRetryAfterFromHeader(t *testing.T) {
	h := http.Header{}
	h.Set("Retry-After", "45")
	d, ok := RetryAfterFromHeader(h)
	if !ok || d != 45*time.Second {
		t.Fatalf("got %v, %v; want 45s, true", d, ok)
	}

	h2 := http.Header{}
	if _, ok := RetryAfterFromHeader(h2); ok {
		t.Fatalf("expected no Retry-After to report ok=false")
	}
}

func TestFetchAppliesQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "2" {
			t.Errorf("expected page=2, got %q", r.URL.Query().Get("page"))
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr := New(Config{MinDelay: time.Millisecond, MaxDelay: time.Millisecond})
	params := url.Values{"page": []string{"2"}}
	if _, err := tr.Fetch(context.Background(), srv.URL, nil, params); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
