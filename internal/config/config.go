// Package config defines the frozen configuration value constructed once at
// startup and threaded into every component, mirroring the teacher's
// internal/config package shape.
package config

import "time"

// CredentialsConfig describes where bearer credentials are loaded from.
type CredentialsConfig struct {
	Inline    string // single credential passed directly, if any
	Directory string // directory of credential files
	Threshold int    // minimum-remaining threshold before proactive rotation
}

// SearchConfig drives the recursive time-slicing driver.
type SearchConfig struct {
	Terms            []string
	TermsFile        string
	YearFrom         int
	YearTo           int
	IncludeRepos     bool
	IncludeCode      bool
	IncludeGists     bool
	APIBase          string
	PerPage          int
	MinDelaySeconds  float64
	MaxDelaySeconds  float64
	RequestTimeout   time.Duration
	MaxRetries       int
}

// GistScanConfig drives the best-effort gist HTML scraping collaborator.
type GistScanConfig struct {
	Enabled      bool
	SearchURL    string
	MaxPages     int
	BrowserFallback bool
}

// OutputConfig drives the report writer selection.
type OutputConfig struct {
	BasePath   string
	Format     string // txt|json|csv|html|all
	URLListPath string
	MongoURI   string
	MongoDB    string
}

// LoggingConfig mirrors the teacher's internal/config.LoggingConfig.
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// MetricsConfig mirrors the teacher's internal/config.MetricsConfig.
type MetricsConfig struct {
	Enabled bool
	Addr    string
}

// CheckpointConfig drives scan-state persistence for pause/resume.
type CheckpointConfig struct {
	Path     string
	MongoURI string
	MongoDB  string
	Interval time.Duration
}

// Config is the fully assembled, frozen configuration.
type Config struct {
	Credentials CredentialsConfig
	Search      SearchConfig
	GistScan    GistScanConfig
	Output      OutputConfig
	Logging     LoggingConfig
	Metrics     MetricsConfig
	Checkpoint  CheckpointConfig
}
