package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/archenemy/domainhawk/internal/types"
)

// NewFileWriter builds the writer named by format ("txt", "json", "csv",
// "html") rooted at basePath (without extension), matching the teacher's
// storage.NewFileStorage factory.
func NewFileWriter(format, basePath string) (Writer, error) {
	switch format {
	case "txt":
		return newTextWriter(basePath + ".txt")
	case "json":
		return newJSONLWriter(basePath + ".jsonl")
	case "csv":
		return newCSVWriter(basePath + ".csv")
	case "html":
		return newHTMLWriter(basePath + ".html")
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}

// NewAllFormatsWriter builds one writer per supported format, combined via
// MultiWriter, for the "all" format selector.
func NewAllFormatsWriter(basePath string) (Writer, error) {
	var writers []Writer
	for _, format := range []string{"txt", "json", "csv", "html"} {
		w, err := NewFileWriter(format, basePath)
		if err != nil {
			return nil, err
		}
		writers = append(writers, w)
	}
	return NewMultiWriter(writers...), nil
}

// textWriter appends one display line per record: streaming, so a
// long-running scan survives interruption (the literal purpose-statement
// requirement).
type textWriter struct {
	mu   sync.Mutex
	file *os.File
}

func newTextWriter(path string) (*textWriter, error) {
	f, err := openAppend(path)
	if err != nil {
		return nil, err
	}
	return &textWriter{file: f}, nil
}

func (w *textWriter) Write(r types.ResultRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := fmt.Fprintf(w.file, "[%s] %s — %s\n", r.Kind, r.Name, r.CanonicalURL)
	return err
}

func (w *textWriter) Close() error { return w.file.Close() }
func (w *textWriter) Name() string { return "txt" }

// jsonlWriter appends one JSON object per line (streaming; unlike a single
// JSON array, this survives truncation on interrupt).
type jsonlWriter struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

func newJSONLWriter(path string) (*jsonlWriter, error) {
	f, err := openAppend(path)
	if err != nil {
		return nil, err
	}
	return &jsonlWriter{file: f, enc: json.NewEncoder(f)}, nil
}

func (w *jsonlWriter) Write(r types.ResultRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(r)
}

func (w *jsonlWriter) Close() error { return w.file.Close() }
func (w *jsonlWriter) Name() string { return "json" }

// csvWriter writes a fixed header matching ResultRecord's fields.
type csvWriter struct {
	mu          sync.Mutex
	file        *os.File
	writer      *csv.Writer
	wroteHeader bool
}

func newCSVWriter(path string) (*csvWriter, error) {
	_, statErr := os.Stat(path)
	f, err := openAppend(path)
	if err != nil {
		return nil, err
	}
	return &csvWriter{file: f, writer: csv.NewWriter(f), wroteHeader: statErr == nil}, nil
}

var csvHeader = []string{"kind", "name", "canonical_url", "owner", "description", "language", "star_count", "created_at", "updated_at"}

func (w *csvWriter) Write(r types.ResultRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.wroteHeader {
		if err := w.writer.Write(csvHeader); err != nil {
			return err
		}
		w.wroteHeader = true
	}

	row := []string{
		string(r.Kind), r.Name, r.CanonicalURL, r.Owner, r.Description, r.Language,
		strconv.Itoa(r.StarCount), r.CreatedAt, r.UpdatedAt,
	}
	if err := w.writer.Write(row); err != nil {
		return err
	}
	w.writer.Flush()
	return w.writer.Error()
}

func (w *csvWriter) Close() error { return w.file.Close() }
func (w *csvWriter) Name() string { return "csv" }

// htmlWriter appends one <tr> per record. The table opening is written when
// the file is created empty and Close appends the closing tags, so the rows
// of one writer's lifetime form a complete document.
type htmlWriter struct {
	mu     sync.Mutex
	file   *os.File
	opened bool
}

func newHTMLWriter(path string) (*htmlWriter, error) {
	f, err := openAppend(path)
	if err != nil {
		return nil, err
	}
	info, statErr := f.Stat()
	opened := statErr == nil && info.Size() > 0
	w := &htmlWriter{file: f, opened: opened}
	if !opened {
		if _, err := f.WriteString("<html><body><table border=\"1\">\n<tr><th>kind</th><th>name</th><th>url</th><th>owner</th></tr>\n"); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (w *htmlWriter) Write(r types.ResultRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := fmt.Fprintf(w.file, "<tr><td>%s</td><td>%s</td><td><a href=%q>%s</a></td><td>%s</td></tr>\n",
		html.EscapeString(string(r.Kind)), html.EscapeString(r.Name), r.CanonicalURL, html.EscapeString(r.CanonicalURL), html.EscapeString(r.Owner))
	return err
}

func (w *htmlWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.file.WriteString("</table></body></html>\n"); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}
func (w *htmlWriter) Name() string { return "html" }

// URLListWriter appends one canonical URL per line for downstream tooling
// (the optional "plain URL list" export named in the external interfaces).
type URLListWriter struct {
	mu   sync.Mutex
	file *os.File
}

// NewURLListWriter opens path for append.
func NewURLListWriter(path string) (*URLListWriter, error) {
	f, err := openAppend(path)
	if err != nil {
		return nil, err
	}
	return &URLListWriter{file: f}, nil
}

func (w *URLListWriter) Write(r types.ResultRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := fmt.Fprintln(w.file, r.CanonicalURL)
	return err
}

func (w *URLListWriter) Close() error { return w.file.Close() }
func (w *URLListWriter) Name() string { return "url-list" }

func openAppend(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure output dir %s: %w", dir, err)
		}
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o644)
}
