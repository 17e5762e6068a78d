// Package report implements the external report writer: the out-of-scope
// collaborator the Sink forwards accepted records to. Formats are adapted
// from the teacher's internal/storage package (file.go, database.go).
package report

import (
	"github.com/archenemy/domainhawk/internal/types"
)

// Writer persists one ResultRecord. Implementations must be safe for
// sequential use from the Sink's single writer goroutine; MultiWriter fans
// out to several.
type Writer interface {
	Write(record types.ResultRecord) error
	Close() error
	Name() string
}

// MultiWriter fans a single Write out to every underlying writer, matching
// the teacher's storage.MultiStorage.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter combines writers into one.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

func (m *MultiWriter) Write(record types.ResultRecord) error {
	var firstErr error
	for _, w := range m.writers {
		if err := w.Write(record); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *MultiWriter) Close() error {
	var firstErr error
	for _, w := range m.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *MultiWriter) Name() string { return "multi" }
