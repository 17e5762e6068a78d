// Package gistscan implements the best-effort gist HTML scraping
// collaborator: it MUST NOT block the main scan or mutate governor state.
// Query grammar and pagination bound are kept verbatim from the Python
// original's core/engine.py GistSearchEngine; DOM extraction uses goquery
// in place of the original's raw regex, the same idiom the teacher uses
// for parsing fetched HTML (internal/types.Response / parser package).
package gistscan

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/archenemy/domainhawk/internal/sink"
	"github.com/archenemy/domainhawk/internal/transport"
	"github.com/archenemy/domainhawk/internal/types"
)

const maxPages = 10

var gistHrefPattern = regexp.MustCompile(`^/[^/]+/[a-f0-9]{32}$`)

// Scanner is isolated from the Governor used by the main search driver: it
// holds no Governor or Credential and sends no Authorization header, so a
// gist-page failure can never perturb credential rotation. It sends through
// whatever Transport it is given, which may be shared with the driver.
type Scanner struct {
	transport *transport.Transport
	sink      *sink.Sink
	searchURL string
	maxPages  int
	log       *slog.Logger
	fallback  BrowserFallback
}

// BrowserFallback is invoked when the plain HTTP fetch of a gist-search
// page appears bot-walled (empty body, non-200 with no useful signal).
// Implemented by browser_fallback.go's go-rod/stealth-based fetcher.
type BrowserFallback interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// New builds a Scanner. fallback may be nil to disable the browser path.
func New(t *transport.Transport, s *sink.Sink, searchURL string, maxPg int, fallback BrowserFallback, log *slog.Logger) *Scanner {
	if maxPg <= 0 || maxPg > maxPages {
		maxPg = maxPages
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scanner{transport: t, sink: s, searchURL: searchURL, maxPages: maxPg, fallback: fallback, log: log}
}

// Scan fetches up to maxPages of gist-search results for term. Any failure
// is logged and absorbed here; it never propagates to the caller, and it
// never touches the Governor or a search Credential.
func (s *Scanner) Scan(ctx context.Context, term string, state *types.ScanState) {
	query := fmt.Sprintf(`*."%s"`, term)

	for page := 1; page <= s.maxPages; page++ {
		if state.IsInterrupted() {
			return
		}

		body, err := s.fetchPage(ctx, query, page)
		if err != nil {
			s.log.Warn("gist scan page fetch failed; abandoning gist collaborator for this term", "term", term, "page", page, "err", err)
			return
		}
		if body == "" {
			return
		}

		matches, err := extractGistLinks(body)
		if err != nil {
			s.log.Warn("gist scan page parse failed", "term", term, "page", page, "err", err)
			return
		}
		if len(matches) == 0 {
			return
		}

		for _, href := range matches {
			record := types.ResultRecord{
				Kind:         types.RecordGist,
				Name:         href,
				CanonicalURL: "https://gist.github.com" + href,
			}
			s.sink.Add(record)
		}
	}
}

func (s *Scanner) fetchPage(ctx context.Context, query string, page int) (string, error) {
	params := url.Values{"q": []string{query}, "p": []string{strconv.Itoa(page)}}
	resp, err := s.transport.Fetch(ctx, s.searchURL, nil, params)
	if err == nil && resp.StatusCode == 200 && len(resp.Body) > 0 {
		return string(resp.Body), nil
	}

	if s.fallback == nil {
		if err != nil {
			return "", err
		}
		return "", fmt.Errorf("unexpected status %d and no browser fallback configured", resp.StatusCode)
	}

	s.log.Info("falling back to headless browser for gist scan page", "page", page)
	pageURL := s.searchURL + "?" + params.Encode()
	return s.fallback.Fetch(ctx, pageURL)
}

// extractGistLinks parses the gist-search results page and returns every
// href matching /<owner>/<32-hex-id>, via goquery DOM traversal rather
// than the original's raw regex over the whole document.
func extractGistLinks(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse gist search html: %w", err)
	}

	var hrefs []string
	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || !gistHrefPattern.MatchString(href) {
			return
		}
		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}
		hrefs = append(hrefs, href)
	})
	return hrefs, nil
}
