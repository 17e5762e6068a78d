package sink

import (
	"testing"

	"github.com/archenemy/domainhawk/internal/types"
)

type recordingWriter struct {
	written []types.ResultRecord
}

func (w *recordingWriter) Write(r types.ResultRecord) error {
	w.written = append(w.written, r)
	return nil
}

func TestAddDeduplicatesByCanonicalURL(t *testing.T) {
	w := &recordingWriter{}
	s := New(w, nil)

	first := s.Add(types.ResultRecord{Kind: types.RecordRepository, CanonicalURL: "https://GitHub.com/acme/widget/"})
	second := s.Add(types.ResultRecord{Kind: types.RecordRepository, CanonicalURL: "https://github.com/acme/widget"})

	if !first {
		t.Fatalf("expected first add to be accepted")
	}
	if second {
		t.Fatalf("expected second add (same canonical URL) to be rejected as duplicate")
	}
	if s.Count(types.RecordRepository) != 1 {
		t.Fatalf("got count %d, want 1", s.Count(types.RecordRepository))
	}
	if len(w.written) != 1 {
		t.Fatalf("got %d writes, want 1", len(w.written))
	}
}

func TestTotalEqualsSeenSetCardinality(t *testing.T) {
	s := New(&recordingWriter{}, nil)
	urls := []string{
		"https://github.com/a/one",
		"https://github.com/a/two",
		"https://github.com/a/one", // duplicate
		"https://github.com/a/three",
	}
	for _, u := range urls {
		s.Add(types.ResultRecord{Kind: types.RecordRepository, CanonicalURL: u})
	}
	if s.Total() != 3 {
		t.Fatalf("got total %d, want 3", s.Total())
	}
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	s := New(&recordingWriter{}, nil)
	s.Add(types.ResultRecord{Kind: types.RecordGist, CanonicalURL: "https://gist.github.com/a/1"})

	snap := s.Snapshot()
	snap[types.RecordGist] = 100

	if s.Count(types.RecordGist) != 1 {
		t.Fatalf("mutating snapshot must not affect sink state")
	}
}
