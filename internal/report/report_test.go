package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/archenemy/domainhawk/internal/types"
)

func sampleRecord() types.ResultRecord {
	return types.ResultRecord{
		Kind:         types.RecordRepository,
		Name:         "acme/widget",
		CanonicalURL: "https://github.com/acme/widget",
		Owner:        "acme",
		Description:  "a widget",
		Language:     "Go",
		StarCount:    5,
	}
}

func TestTextWriterAppendsLine(t *testing.T) {
	base := filepath.Join(t.TempDir(), "out")
	w, err := NewFileWriter("txt", base)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(sampleRecord()); err != nil {
		t.Fatal(err)
	}
	w.Close()

	content, err := os.ReadFile(base + ".txt")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "acme/widget") {
		t.Fatalf("expected output to contain record name, got: %s", content)
	}
}

func TestJSONLWriterOneObjectPerLine(t *testing.T) {
	base := filepath.Join(t.TempDir(), "out")
	w, err := NewFileWriter("json", base)
	if err != nil {
		t.Fatal(err)
	}
	w.Write(sampleRecord())
	w.Write(sampleRecord())
	w.Close()

	content, err := os.ReadFile(base + ".jsonl")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
}

func TestCSVWriterHeaderOnce(t *testing.T) {
	base := filepath.Join(t.TempDir(), "out")
	w, err := NewFileWriter("csv", base)
	if err != nil {
		t.Fatal(err)
	}
	w.Write(sampleRecord())
	w.Close()

	w2, err := NewFileWriter("csv", base)
	if err != nil {
		t.Fatal(err)
	}
	w2.Write(sampleRecord())
	w2.Close()

	content, err := os.ReadFile(base + ".csv")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(string(content), "kind,name") != 1 {
		t.Fatalf("expected header exactly once across reopen, got: %s", content)
	}
}

func TestURLListWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	w, err := NewURLListWriter(path)
	if err != nil {
		t.Fatal(err)
	}
	w.Write(sampleRecord())
	w.Close()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(content)) != "https://github.com/acme/widget" {
		t.Fatalf("got %q", content)
	}
}

func TestMultiWriterFansOut(t *testing.T) {
	base := filepath.Join(t.TempDir(), "out")
	txt, _ := NewFileWriter("txt", base)
	csvw, _ := NewFileWriter("csv", base)
	m := NewMultiWriter(txt, csvw)

	if err := m.Write(sampleRecord()); err != nil {
		t.Fatal(err)
	}
	m.Close()

	if _, err := os.Stat(base + ".txt"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(base + ".csv"); err != nil {
		t.Fatal(err)
	}
}
