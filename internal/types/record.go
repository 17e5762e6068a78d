package types

import (
	"net/url"
	"strings"
	"sync"
	"time"
)

// ResultRecord is a single discovered artifact. Immutable once created.
type ResultRecord struct {
	Kind         RecordKind
	Name         string
	CanonicalURL string
	Owner        string
	Description  string
	Language     string
	StarCount    int
	CreatedAt    string
	UpdatedAt    string
}

// CanonicalizeURL normalizes a URL for use as a dedup key: lowercases
// scheme/host, strips fragments and default ports, sorts query parameters,
// and trims a single trailing slash.
func CanonicalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return strings.TrimSuffix(raw, "/")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	if host, port, ok := strings.Cut(u.Host, ":"); ok {
		if (u.Scheme == "https" && port == "443") || (u.Scheme == "http" && port == "80") {
			u.Host = host
		}
	}
	if q := u.Query(); len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	path := strings.TrimSuffix(u.Path, "/")
	u.Path = path
	return u.String()
}

// ScanState tracks the mutable progress of one scan. Writes are restricted
// to the Sink and the interrupt handler; all other readers treat it as
// read-mostly.
type ScanState struct {
	mu           sync.Mutex
	seen         map[string]struct{}
	counts       map[RecordKind]int
	StartedAt    time.Time
	Interrupted  bool
	CurrentSlice string
}

// NewScanState creates a fresh, empty ScanState.
func NewScanState() *ScanState {
	return &ScanState{
		seen:      make(map[string]struct{}),
		counts:    make(map[RecordKind]int),
		StartedAt: time.Now(),
	}
}

// MarkSeen records a canonical URL as seen and bumps its kind counter.
// Returns true if this is the first time the URL has been seen.
func (s *ScanState) MarkSeen(canonicalURL string, kind RecordKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[canonicalURL]; ok {
		return false
	}
	s.seen[canonicalURL] = struct{}{}
	s.counts[kind]++
	return true
}

// Count returns the current counter for a record kind.
func (s *ScanState) Count(kind RecordKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[kind]
}

// Total returns the sum of all per-kind counters, equal to the seen set's
// cardinality.
func (s *ScanState) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// Interrupt flips Interrupted monotonically false->true.
func (s *ScanState) Interrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Interrupted = true
}

// IsInterrupted reports the current interrupt flag.
func (s *ScanState) IsInterrupted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Interrupted
}

// SetCurrentSlice records a diagnostic label for the slice in progress.
func (s *ScanState) SetCurrentSlice(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CurrentSlice = label
}

// Snapshot returns a point-in-time copy of the per-kind counters.
func (s *ScanState) Snapshot() map[RecordKind]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[RecordKind]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}
