// Package domainhawk is a small embeddable facade over the internal search
// pipeline, for callers that want to drive a scan from Go code rather than
// the CLI. Modeled on the teacher's pkg/webstalk/sdk.go public-facade
// pattern.
package domainhawk

import (
	"context"
	"log/slog"
	"time"

	"github.com/archenemy/domainhawk/internal/credsource"
	"github.com/archenemy/domainhawk/internal/governor"
	"github.com/archenemy/domainhawk/internal/report"
	"github.com/archenemy/domainhawk/internal/search"
	"github.com/archenemy/domainhawk/internal/sink"
	"github.com/archenemy/domainhawk/internal/transport"
	"github.com/archenemy/domainhawk/internal/types"
)

// Options configures a Scanner, covering the subset of configuration
// meaningful to a programmatic embedder.
type Options struct {
	APIBase            string
	PerPage            int
	MinDelaySeconds    float64
	MaxDelaySeconds    float64
	MaxRetries         int
	CredentialThreshold int
	Logger             *slog.Logger
}

// RecordCallback is invoked for every accepted (non-duplicate) record.
type RecordCallback func(types.ResultRecord)

type callbackWriter struct {
	fn RecordCallback
}

func (w callbackWriter) Write(r types.ResultRecord) error {
	w.fn(r)
	return nil
}

// Scanner is the embeddable facade: construct once, call Search per term.
type Scanner struct {
	driver *search.Driver
	sink   *sink.Sink
	gov    *governor.Governor
}

// NewScanner builds a Scanner over inline bearer credentials, streaming
// accepted records to onRecord.
func NewScanner(credentials []string, opts Options, onRecord RecordCallback) (*Scanner, error) {
	if opts.APIBase == "" {
		opts.APIBase = "https://api.github.com"
	}
	if opts.PerPage <= 0 {
		opts.PerPage = 100
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	var creds []*types.Credential
	for _, c := range credentials {
		loaded, err := credsource.LoadInline(c)
		if err != nil {
			return nil, err
		}
		creds = append(creds, loaded...)
	}

	tr := transport.New(transport.Config{
		MinDelay:   durationFromSeconds(opts.MinDelaySeconds),
		MaxDelay:   durationFromSeconds(opts.MaxDelaySeconds),
		MaxRetries: opts.MaxRetries,
	})
	gov := governor.New(creds, opts.CredentialThreshold, opts.Logger)
	s := sink.New(callbackWriter{fn: onRecord}, opts.Logger)
	driver := search.New(tr, gov, s, opts.APIBase, opts.PerPage, opts.Logger)

	return &Scanner{driver: driver, sink: s, gov: gov}, nil
}

// Search runs one term across the given year window.
func (s *Scanner) Search(ctx context.Context, term string, yearFrom, yearTo int, includeRepos, includeCode bool) (*types.ScanState, error) {
	state := types.NewScanState()
	err := s.driver.Search(ctx, term, yearFrom, yearTo, includeRepos, includeCode, state)
	return state, err
}

// Status returns the underlying governor's human-readable progress string.
func (s *Scanner) Status() string {
	return s.gov.Status()
}

// NewFileReportWriter exposes the report package's file writer factory for
// callers that want durable output without composing internal packages
// directly.
func NewFileReportWriter(format, basePath string) (report.Writer, error) {
	return report.NewFileWriter(format, basePath)
}

func durationFromSeconds(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}
