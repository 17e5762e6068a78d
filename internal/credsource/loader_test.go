package credsource

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDirectoryFiltersInvalidLines(t *testing.T) {
	dir := t.TempDir()
	content := strings.Join([]string{
		"# a comment",
		"",
		"ghp_" + strings.Repeat("a", 36),
		"not-a-real-token",
		"github_pat_" + strings.Repeat("b", 22),
	}, "\n")
	if err := os.WriteFile(filepath.Join(dir, "tokens.txt"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	creds, err := LoadDirectory(dir, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(creds) != 2 {
		t.Fatalf("got %d credentials, want 2", len(creds))
	}
}

func TestLoadDirectoryCreatesOnDemand(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "does-not-exist-yet")

	if _, err := LoadDirectory(dir, nil); err == nil {
		t.Fatalf("expected error for empty newly-created directory")
	}
	if _, statErr := os.Stat(dir); statErr != nil {
		t.Fatalf("expected directory to be created on demand: %v", statErr)
	}
}

func TestLoadInlineRejectsMalformed(t *testing.T) {
	if _, err := LoadInline("not-a-token"); err == nil {
		t.Fatalf("expected error for malformed inline credential")
	}
}

func TestLoadInlineAcceptsValid(t *testing.T) {
	creds, err := LoadInline("ghp_" + strings.Repeat("c", 36))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(creds) != 1 {
		t.Fatalf("got %d credentials, want 1", len(creds))
	}
}
