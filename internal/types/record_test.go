package types

import "testing"

func TestCanonicalizeURLLowercasesSchemeAndHost(t *testing.T) {
	got := CanonicalizeURL("HTTPS://GitHub.com/Acme/Widget")
	want := "https://github.com/Acme/Widget"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCanonicalizeURLStripsTrailingSlashAndFragment(t *testing.T) {
	got := CanonicalizeURL("https://github.com/acme/widget/#readme")
	want := "https://github.com/acme/widget"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestScanStateMarkSeenDedup(t *testing.T) {
	s := NewScanState()
	first := s.MarkSeen("https://github.com/a/b", RecordRepository)
	second := s.MarkSeen("https://github.com/a/b", RecordRepository)

	if !first || second {
		t.Fatalf("expected first mark to succeed and second to report duplicate")
	}
	if s.Count(RecordRepository) != 1 {
		t.Fatalf("got count %d, want 1", s.Count(RecordRepository))
	}
	if s.Total() != 1 {
		t.Fatalf("got total %d, want 1", s.Total())
	}
}

func TestScanStateInterruptIsMonotonic(t *testing.T) {
	s := NewScanState()
	if s.IsInterrupted() {
		t.Fatalf("expected fresh ScanState to not be interrupted")
	}
	s.Interrupt()
	if !s.IsInterrupted() {
		t.Fatalf("expected Interrupt to set the flag")
	}
}
