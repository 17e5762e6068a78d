// Package sink implements the Result Sink: deduplication by canonical URL,
// per-kind counters, and forwarding to an external report.Writer. Adapted
// from the teacher's internal/engine/dedup.go Deduplicator.
package sink

import (
	"log/slog"
	"sync"

	"github.com/archenemy/domainhawk/internal/metrics"
	"github.com/archenemy/domainhawk/internal/types"
)

// Writer is the external collaborator that durably persists accepted
// records. Implementations live in internal/report.
type Writer interface {
	Write(record types.ResultRecord) error
}

// Sink holds the dedup set and counters; it does not perform I/O beyond
// forwarding to its Writer.
type Sink struct {
	mu     sync.Mutex
	seen   map[string]struct{}
	counts map[types.RecordKind]int
	writer  Writer
	log     *slog.Logger
	metrics *metrics.Metrics
}

// New builds a Sink that forwards accepted records to w.
func New(w Writer, log *slog.Logger) *Sink {
	if log == nil {
		log = slog.Default()
	}
	return &Sink{
		seen:   make(map[string]struct{}),
		counts: make(map[types.RecordKind]int),
		writer: w,
		log:    log,
	}
}

// WithMetrics attaches a Metrics sink that Add reports accepted/duplicate
// counts into. Optional; passing nil disables reporting.
func (s *Sink) WithMetrics(m *metrics.Metrics) *Sink {
	s.metrics = m
	return s
}

// Add canonicalizes the record's URL, returns false if already seen (the
// record is neither counted nor forwarded; only the duplicate metric, if
// attached, is bumped), otherwise counts it, forwards it to the writer, and
// returns true.
func (s *Sink) Add(record types.ResultRecord) bool {
	canonical := types.CanonicalizeURL(record.CanonicalURL)

	s.mu.Lock()
	if _, ok := s.seen[canonical]; ok {
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.RecordsDuplicate.Add(1)
		}
		return false
	}
	s.seen[canonical] = struct{}{}
	s.counts[record.Kind]++
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordsAccepted.Add(1)
	}
	record.CanonicalURL = canonical
	if s.writer != nil {
		if err := s.writer.Write(record); err != nil {
			s.log.Warn("report writer failed to persist record", "url", canonical, "err", err)
		}
	}
	return true
}

// Count returns the current counter for a record kind.
func (s *Sink) Count(kind types.RecordKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[kind]
}

// Total returns the seen-set cardinality.
func (s *Sink) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// Snapshot returns a point-in-time copy of all per-kind counters.
func (s *Sink) Snapshot() map[types.RecordKind]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[types.RecordKind]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}
