package config

import (
	"fmt"
	"log/slog"
	"time"
)

// Validate checks structural invariants that do not depend on the current
// wall-clock time or logger (those live in NormalizeYearWindow, applied
// separately so callers can log the clamp warning).
func Validate(cfg *Config) error {
	if cfg.Search.YearFrom > cfg.Search.YearTo {
		return fmt.Errorf("search.year_from (%d) must not exceed search.year_to (%d)", cfg.Search.YearFrom, cfg.Search.YearTo)
	}
	if cfg.Search.MinDelaySeconds < 0 || cfg.Search.MaxDelaySeconds < cfg.Search.MinDelaySeconds {
		return fmt.Errorf("invalid delay range [%.2f, %.2f]", cfg.Search.MinDelaySeconds, cfg.Search.MaxDelaySeconds)
	}
	if cfg.Search.PerPage <= 0 || cfg.Search.PerPage > 100 {
		return fmt.Errorf("search.per_page must be in (0, 100], got %d", cfg.Search.PerPage)
	}
	if cfg.Credentials.Threshold < 0 {
		return fmt.Errorf("credentials.threshold must be >= 0, got %d", cfg.Credentials.Threshold)
	}
	if cfg.Credentials.Inline == "" && cfg.Credentials.Directory == "" {
		return fmt.Errorf("one of credentials.inline or credentials.directory must be set")
	}

	enabledToggles := 0
	for _, b := range []bool{cfg.Search.IncludeRepos, cfg.Search.IncludeCode, cfg.Search.IncludeGists} {
		if b {
			enabledToggles++
		}
	}
	if enabledToggles == 0 {
		return fmt.Errorf("at least one resource toggle (repos, code, gists) must be enabled")
	}

	switch cfg.Output.Format {
	case "txt", "json", "csv", "html", "all", "":
	default:
		return fmt.Errorf("unsupported output format %q", cfg.Output.Format)
	}

	if len(cfg.Search.Terms) == 0 && cfg.Search.TermsFile == "" {
		return fmt.Errorf("one of search.terms or search.terms_file must be set")
	}

	return nil
}

// NormalizeYearWindow clamps YearTo to the current calendar year, logging a
// warning when a clamp occurs, per §6's "defaults (...); if end > current,
// clamp and warn" requirement.
func NormalizeYearWindow(cfg *Config, logger *slog.Logger) {
	currentYear := time.Now().Year()
	if cfg.Search.YearTo > currentYear {
		logger.Warn("clamping year window end to current year",
			slog.Int("requested", cfg.Search.YearTo),
			slog.Int("clamped_to", currentYear))
		cfg.Search.YearTo = currentYear
		if cfg.Search.YearFrom > cfg.Search.YearTo {
			cfg.Search.YearFrom = cfg.Search.YearTo
		}
	}
}

// ValidateURL is a lightweight sanity check reused from the teacher's
// config validation helper. It accepts an empty string and rejects only
// values shorter than 8 characters; the scheme is not inspected.
func ValidateURL(raw string) error {
	if raw == "" {
		return nil
	}
	if len(raw) < 8 {
		return fmt.Errorf("url %q too short to be valid", raw)
	}
	return nil
}
