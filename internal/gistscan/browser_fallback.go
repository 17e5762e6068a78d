package gistscan

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/stealth"
)

// RodBrowserFallback renders a gist-search page with a stealth-patched
// headless browser when the plain HTTP fetch looks bot-walled. Adapted
// from the teacher's internal/fetcher/browser.go BrowserFetcher /
// stealth.go StealthConfig, trimmed to the one page-load operation this
// collaborator needs.
type RodBrowserFallback struct {
	browser *rod.Browser
	timeout time.Duration
}

// NewRodBrowserFallback launches a headless, stealth-patched browser
// instance. Call Close when the scan completes.
func NewRodBrowserFallback(timeout time.Duration) (*RodBrowserFallback, error) {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	browser := rod.New()
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect headless browser: %w", err)
	}
	return &RodBrowserFallback{browser: browser, timeout: timeout}, nil
}

// Fetch loads pageURL in a fresh stealth-patched page and returns its
// rendered HTML.
func (f *RodBrowserFallback) Fetch(ctx context.Context, pageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	page, err := stealth.Page(f.browser)
	if err != nil {
		return "", fmt.Errorf("open stealth page: %w", err)
	}
	defer page.Close()

	page = page.Context(ctx)
	if err := page.Navigate(pageURL); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load: %w", err)
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("read rendered html: %w", err)
	}
	return html, nil
}

// Close releases the underlying browser process.
func (f *RodBrowserFallback) Close() error {
	return f.browser.Close()
}
