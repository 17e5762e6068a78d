package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "DOMAINHAWK"

func setDefaults(v *viper.Viper) {
	v.SetDefault("credentials.threshold", 2)

	v.SetDefault("search.year_from", 2015)
	v.SetDefault("search.year_to", time.Now().Year())
	v.SetDefault("search.include_repos", true)
	v.SetDefault("search.include_code", false)
	v.SetDefault("search.include_gists", false)
	v.SetDefault("search.api_base", "https://api.github.com")
	v.SetDefault("search.per_page", 100)
	v.SetDefault("search.min_delay_seconds", 2.0)
	v.SetDefault("search.max_delay_seconds", 5.5)
	v.SetDefault("search.request_timeout", 15*time.Second)
	v.SetDefault("search.max_retries", 3)

	v.SetDefault("gistscan.enabled", false)
	v.SetDefault("gistscan.search_url", "https://gist.github.com/search")
	v.SetDefault("gistscan.max_pages", 10)
	v.SetDefault("gistscan.browser_fallback", false)

	v.SetDefault("output.base_path", "./domainhawk-output")
	v.SetDefault("output.format", "json")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", ":9090")

	v.SetDefault("checkpoint.path", "./domainhawk-checkpoint.json")
	v.SetDefault("checkpoint.interval", 30*time.Second)
}

// Load reads configuration from (in ascending precedence) defaults, an
// optional config file, environment variables prefixed DOMAINHAWK_, and
// finally any values already bound onto v (typically CLI flags bound by the
// caller before Load runs), matching the teacher's loader precedence order.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("domainhawk")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.domainhawk")
		v.AddConfigPath("/etc/domainhawk")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{
		Credentials: CredentialsConfig{
			Inline:    v.GetString("credentials.inline"),
			Directory: v.GetString("credentials.directory"),
			Threshold: v.GetInt("credentials.threshold"),
		},
		Search: SearchConfig{
			Terms:           v.GetStringSlice("search.terms"),
			TermsFile:       v.GetString("search.terms_file"),
			YearFrom:        v.GetInt("search.year_from"),
			YearTo:          v.GetInt("search.year_to"),
			IncludeRepos:    v.GetBool("search.include_repos"),
			IncludeCode:     v.GetBool("search.include_code"),
			IncludeGists:    v.GetBool("search.include_gists"),
			APIBase:         v.GetString("search.api_base"),
			PerPage:         v.GetInt("search.per_page"),
			MinDelaySeconds: v.GetFloat64("search.min_delay_seconds"),
			MaxDelaySeconds: v.GetFloat64("search.max_delay_seconds"),
			RequestTimeout:  v.GetDuration("search.request_timeout"),
			MaxRetries:      v.GetInt("search.max_retries"),
		},
		GistScan: GistScanConfig{
			Enabled:         v.GetBool("gistscan.enabled"),
			SearchURL:       v.GetString("gistscan.search_url"),
			MaxPages:        v.GetInt("gistscan.max_pages"),
			BrowserFallback: v.GetBool("gistscan.browser_fallback"),
		},
		Output: OutputConfig{
			BasePath:    v.GetString("output.base_path"),
			Format:      v.GetString("output.format"),
			URLListPath: v.GetString("output.url_list_path"),
			MongoURI:    v.GetString("output.mongo_uri"),
			MongoDB:     v.GetString("output.mongo_db"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
			Output: v.GetString("logging.output"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
			Addr:    v.GetString("metrics.addr"),
		},
		Checkpoint: CheckpointConfig{
			Path:     v.GetString("checkpoint.path"),
			MongoURI: v.GetString("checkpoint.mongo_uri"),
			MongoDB:  v.GetString("checkpoint.mongo_db"),
			Interval: v.GetDuration("checkpoint.interval"),
		},
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
