// Package metrics tracks process-wide atomic counters and exposes them over
// a small text endpoint, in the same hand-rolled style as the teacher's
// internal/observability/metrics.go (the teacher does not reach for
// prometheus/client_golang for this concern even though it appears
// elsewhere in the example pack; see DESIGN.md).
package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

// Metrics holds process-wide counters for one scan run.
type Metrics struct {
	RequestsTotal    atomic.Int64
	RetriesTotal     atomic.Int64
	RotationsTotal   atomic.Int64
	SecondaryWaits   atomic.Int64
	RecordsAccepted  atomic.Int64
	RecordsDuplicate atomic.Int64
	SlicesProbed     atomic.Int64
	SlicesSplit      atomic.Int64
}

// New returns a fresh, zeroed Metrics.
func New() *Metrics {
	return &Metrics{}
}

// Handler serves a plain-text snapshot suitable for scraping.
func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "domainhawk_requests_total %d\n", m.RequestsTotal.Load())
		fmt.Fprintf(w, "domainhawk_retries_total %d\n", m.RetriesTotal.Load())
		fmt.Fprintf(w, "domainhawk_rotations_total %d\n", m.RotationsTotal.Load())
		fmt.Fprintf(w, "domainhawk_secondary_waits_total %d\n", m.SecondaryWaits.Load())
		fmt.Fprintf(w, "domainhawk_records_accepted_total %d\n", m.RecordsAccepted.Load())
		fmt.Fprintf(w, "domainhawk_records_duplicate_total %d\n", m.RecordsDuplicate.Load())
		fmt.Fprintf(w, "domainhawk_slices_probed_total %d\n", m.SlicesProbed.Load())
		fmt.Fprintf(w, "domainhawk_slices_split_total %d\n", m.SlicesSplit.Load())
	})
}

// Serve starts an HTTP server exposing the metrics handler at /metrics. It
// runs until ctx-driven shutdown is performed by the caller via the
// returned server's Shutdown method.
func (m *Metrics) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go srv.ListenAndServe()
	return srv
}
