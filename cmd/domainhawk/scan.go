package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/archenemy/domainhawk/internal/checkpoint"
	"github.com/archenemy/domainhawk/internal/config"
	"github.com/archenemy/domainhawk/internal/credsource"
	"github.com/archenemy/domainhawk/internal/gistscan"
	"github.com/archenemy/domainhawk/internal/governor"
	"github.com/archenemy/domainhawk/internal/logging"
	"github.com/archenemy/domainhawk/internal/metrics"
	"github.com/archenemy/domainhawk/internal/report"
	"github.com/archenemy/domainhawk/internal/search"
	"github.com/archenemy/domainhawk/internal/sink"
	"github.com/archenemy/domainhawk/internal/transport"
	"github.com/archenemy/domainhawk/internal/types"
)

// scanFlags mirrors the external command surface in §6: term/term-list,
// year window, resource toggles, delay override, credential source, output
// selection, and the optional plain URL-list export.
type scanFlags struct {
	term           string
	termsFile      string
	yearWindow     string
	reposOnly      bool
	codeOnly       bool
	gistsOnly      bool
	delay          string
	credential     string
	credentialsDir string
	outputBase     string
	outputFormat   string
	urlListPath    string
	configFile     string
	apiBase        string
}

func newScanCommand() *cobra.Command {
	f := &scanFlags{}
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a recursive time-sliced search for one or more terms",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.term, "term", "", "target term (scalar)")
	flags.StringVar(&f.termsFile, "terms-file", "", "target list file, one term per line (# comments, blanks ignored)")
	flags.StringVar(&f.yearWindow, "years", "", `year window "YYYY-YYYY" or "YYYY" (default 2015-current)`)
	flags.BoolVar(&f.reposOnly, "repos-only", false, "search repositories only")
	flags.BoolVar(&f.codeOnly, "code-only", false, "search code only")
	flags.BoolVar(&f.gistsOnly, "gists-only", false, "scan gists only")
	flags.StringVar(&f.delay, "delay", "", `fixed seconds ("2.5") or inclusive range ("1.5-3.5")`)
	flags.StringVar(&f.credential, "credential", "", "single credential, inline")
	flags.StringVar(&f.credentialsDir, "credentials-dir", "", "directory of credential files")
	flags.StringVar(&f.outputBase, "output", "./domainhawk-output", "output base path (no extension)")
	flags.StringVar(&f.outputFormat, "format", "json", "output format: txt|json|csv|html|all")
	flags.StringVar(&f.urlListPath, "url-list", "", "optional plain URL list export path")
	flags.StringVar(&f.configFile, "config", "", "path to a config file")
	flags.StringVar(&f.apiBase, "api-base", "https://api.github.com", "platform API base URL")

	return cmd
}

func runScan(cmd *cobra.Command, f *scanFlags) error {
	v := viper.New()
	cfg, err := buildConfig(v, f)
	if err != nil {
		return err
	}

	logger, closer := logging.New(logging.Config(cfg.Logging))
	if closer != nil {
		defer closer.Close()
	}
	config.NormalizeYearWindow(cfg, logger)

	terms, err := resolveTerms(cfg)
	if err != nil {
		return err
	}

	creds, err := loadCredentials(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	var interrupted atomic.Bool
	var currentState atomic.Pointer[types.ScanState]
	go func() {
		<-sigCh
		interrupted.Store(true)
		if s := currentState.Load(); s != nil {
			s.Interrupt()
		}
		cancel()
	}()

	tr := transport.New(transport.Config{
		MinDelay:   time.Duration(cfg.Search.MinDelaySeconds * float64(time.Second)),
		MaxDelay:   time.Duration(cfg.Search.MaxDelaySeconds * float64(time.Second)),
		MaxRetries: cfg.Search.MaxRetries,
		Timeout:    cfg.Search.RequestTimeout,
	})

	gov := governor.New(creds, cfg.Credentials.Threshold, logger)
	gov.Warm(ctx, tr, cfg.Search.APIBase)

	m := metrics.New()
	gov.WithMetrics(m)
	if cfg.Metrics.Enabled {
		srv := m.Serve(cfg.Metrics.Addr)
		defer srv.Shutdown(context.Background())
	}

	writer, err := buildWriter(cfg)
	if err != nil {
		return err
	}
	defer writer.Close()

	var urlListWriter *report.URLListWriter
	if cfg.Output.URLListPath != "" {
		urlListWriter, err = report.NewURLListWriter(cfg.Output.URLListPath)
		if err != nil {
			return err
		}
		defer urlListWriter.Close()
		writer = report.NewMultiWriter(writer, urlListWriter)
	}

	resultSink := sink.New(writer, logger).WithMetrics(m)
	driver := search.New(tr, gov, resultSink, cfg.Search.APIBase, cfg.Search.PerPage, logger).WithMetrics(m)
	ckpt := checkpoint.NewFile(cfg.Checkpoint.Path)

	var gistScanner *gistscan.Scanner
	if cfg.GistScan.Enabled {
		var fallback gistscan.BrowserFallback
		if cfg.GistScan.BrowserFallback {
			if bf, err := gistscan.NewRodBrowserFallback(cfg.Search.RequestTimeout); err == nil {
				fallback = bf
			} else {
				logger.Warn("browser fallback unavailable for gist scan", "err", err)
			}
		}
		gistScanner = gistscan.New(tr, resultSink, cfg.GistScan.SearchURL, cfg.GistScan.MaxPages, fallback, logger)
	}

	overallStart := time.Now()
	for _, term := range terms {
		state := types.NewScanState()
		currentState.Store(state)
		if interrupted.Load() {
			break
		}

		if err := driver.Search(ctx, term, cfg.Search.YearFrom, cfg.Search.YearTo, cfg.Search.IncludeRepos, cfg.Search.IncludeCode, state); err != nil {
			logger.Error("search failed for term", "term", term, "err", err)
		}
		if cfg.Search.IncludeGists && gistScanner != nil {
			gistScanner.Scan(ctx, term, state)
		}

		if err := ckpt.Save(term, state, nil); err != nil {
			logger.Warn("failed to persist checkpoint", "term", term, "err", err)
		}

		printSummary(cmd, term, state, resultSink)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "scan complete in %s; %s\n", time.Since(overallStart).Round(time.Second), gov.Status())

	if interrupted.Load() {
		return exitInterrupt{}
	}
	return nil
}

func buildConfig(v *viper.Viper, f *scanFlags) (*config.Config, error) {
	if f.term != "" {
		v.Set("search.terms", []string{f.term})
	}
	if f.termsFile != "" {
		v.Set("search.terms_file", f.termsFile)
	}
	if f.yearWindow != "" {
		from, to, err := types.ParseYearWindow(f.yearWindow)
		if err != nil {
			return nil, err
		}
		v.Set("search.year_from", from)
		v.Set("search.year_to", to)
	}

	switch {
	case f.reposOnly:
		v.Set("search.include_repos", true)
		v.Set("search.include_code", false)
		v.Set("search.include_gists", false)
	case f.codeOnly:
		v.Set("search.include_repos", false)
		v.Set("search.include_code", true)
		v.Set("search.include_gists", false)
	case f.gistsOnly:
		v.Set("search.include_repos", false)
		v.Set("search.include_code", false)
		v.Set("search.include_gists", true)
		v.Set("gistscan.enabled", true)
	}

	if f.delay != "" {
		min, max, err := parseDelay(f.delay)
		if err != nil {
			return nil, err
		}
		v.Set("search.min_delay_seconds", min)
		v.Set("search.max_delay_seconds", max)
	}

	if f.credential != "" {
		v.Set("credentials.inline", f.credential)
	}
	if f.credentialsDir != "" {
		v.Set("credentials.directory", f.credentialsDir)
	}
	if f.outputBase != "" {
		v.Set("output.base_path", f.outputBase)
	}
	if f.outputFormat != "" {
		v.Set("output.format", f.outputFormat)
	}
	if f.urlListPath != "" {
		v.Set("output.url_list_path", f.urlListPath)
	}
	if f.apiBase != "" {
		v.Set("search.api_base", f.apiBase)
	}

	return config.Load(v, f.configFile)
}

// parseDelay accepts either a fixed value ("2.5") or an inclusive range
// ("1.5-3.5").
func parseDelay(s string) (min, max float64, err error) {
	if before, after, ok := strings.Cut(s, "-"); ok {
		min, err = strconv.ParseFloat(before, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid delay range %q: %w", s, err)
		}
		max, err = strconv.ParseFloat(after, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid delay range %q: %w", s, err)
		}
		return min, max, nil
	}
	fixed, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid delay %q: %w", s, err)
	}
	return fixed, fixed, nil
}

func resolveTerms(cfg *config.Config) ([]string, error) {
	if len(cfg.Search.Terms) > 0 {
		return cfg.Search.Terms, nil
	}

	f, err := os.Open(cfg.Search.TermsFile)
	if err != nil {
		return nil, fmt.Errorf("opening terms file: %w", err)
	}
	defer f.Close()

	var terms []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		terms = append(terms, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("terms file %s contained no usable terms", cfg.Search.TermsFile)
	}
	return terms, nil
}

func loadCredentials(cfg *config.Config, logger *slog.Logger) ([]*types.Credential, error) {
	if cfg.Credentials.Inline != "" {
		return credsource.LoadInline(cfg.Credentials.Inline)
	}
	return credsource.LoadDirectory(cfg.Credentials.Directory, logger)
}

func buildWriter(cfg *config.Config) (report.Writer, error) {
	if cfg.Output.MongoURI != "" {
		return report.NewMongoWriter(context.Background(), cfg.Output.MongoURI, cfg.Output.MongoDB)
	}
	if cfg.Output.Format == "all" {
		return report.NewAllFormatsWriter(cfg.Output.BasePath)
	}
	return report.NewFileWriter(cfg.Output.Format, cfg.Output.BasePath)
}

func printSummary(cmd *cobra.Command, term string, state *types.ScanState, s *sink.Sink) {
	snap := s.Snapshot()
	fmt.Fprintf(cmd.OutOrStdout(), "term=%q repos=%d code=%d gists=%d interrupted=%v\n",
		term, snap[types.RecordRepository], snap[types.RecordCode], snap[types.RecordGist], state.IsInterrupted())
}
