package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	coretls "github.com/sadopc/apiprobe/internal/core/tls"
)

// HistoryIDPlaceholder is substituted with the record id in APIConfig.HistoryIDURL.
const HistoryIDPlaceholder = "{AuditHistoryId}"

// Config holds the application configuration.
type Config struct {
	API       APIConfig       `mapstructure:"api" yaml:"api"`
	Identity  IdentityConfig  `mapstructure:"identity" yaml:"identity"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
	Run       RunConfig       `mapstructure:"run" yaml:"run"`
}

// APIConfig holds endpoint and credential settings.
type APIConfig struct {
	TokenURL        string         `mapstructure:"token_url" yaml:"token_url"`
	AuditURL        string         `mapstructure:"audit_url" yaml:"audit_url"`
	HistoryURL      string         `mapstructure:"history_url" yaml:"history_url"`
	HistoryIDURL    string         `mapstructure:"history_id_url" yaml:"history_id_url"`
	UserURL         string         `mapstructure:"user_url" yaml:"user_url"`
	ProductsURL     string         `mapstructure:"products_url" yaml:"products_url"`
	AdminResetURL   string         `mapstructure:"admin_reset_url" yaml:"admin_reset_url"`
	SubscriptionKey string         `mapstructure:"subscription_key" yaml:"subscription_key"`
	Timeout         time.Duration  `mapstructure:"timeout" yaml:"timeout"`
	ProxyURL        string         `mapstructure:"proxy_url" yaml:"proxy_url"`
	NoProxy         string         `mapstructure:"no_proxy" yaml:"no_proxy"`
	TLS             coretls.Config `mapstructure:"tls" yaml:"tls,omitempty"`
}

// IdentityConfig holds the caller identity headers.
type IdentityConfig struct {
	ObjectID string `mapstructure:"object_id" yaml:"object_id"`
	Cored    string `mapstructure:"cored" yaml:"cored"`
	Type     string `mapstructure:"type" yaml:"type"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// TelemetryConfig controls where run telemetry goes.
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	HistoryDB   string `mapstructure:"history_db" yaml:"history_db"`
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file"`
}

// RunConfig holds suite execution settings.
type RunConfig struct {
	Features    []string `mapstructure:"features" yaml:"features"`
	Tags        string   `mapstructure:"tags" yaml:"tags"`
	Format      string   `mapstructure:"format" yaml:"format"`
	Concurrency int      `mapstructure:"concurrency" yaml:"concurrency"`
	FixturesDir string   `mapstructure:"fixtures_dir" yaml:"fixtures_dir"`
	Strict      bool     `mapstructure:"strict" yaml:"strict"`
	Verbose     bool     `mapstructure:"verbose" yaml:"verbose"`
}

// RunFormats are the accepted run.format values: apiprobe's own reports
// followed by godog's formatters.
var RunFormats = []string{"text", "json", "junit", "pretty", "progress", "cucumber", "events"}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			TokenURL:        "https://MyTest.com/gettoken",
			AuditURL:        "https://MyTest.com/getAuditdata",
			HistoryURL:      "https://MyTest.com/getAuditdata/audit-history",
			HistoryIDURL:    "https://MyTest.com/getAuditdata(" + HistoryIDPlaceholder + ")",
			ProductsURL:     "https://dummyjson.com",
			SubscriptionKey: "testkey0FCB54C0C834488F315E30000",
			Timeout:         30 * time.Second,
		},
		Identity: IdentityConfig{
			ObjectID: "5C8C2E10-FCB5-4C0C-8344-88F315E31206",
			Cored:    "6C8C2E10-FCB5-4C0C-8344-88F315E31206",
			Type:     "TeamTest",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
		},
		Run: RunConfig{
			Features:    []string{"features"},
			Format:      "text",
			Concurrency: 1,
			FixturesDir: "features/testdata",
		},
	}
}

// ResolvedUserURL returns the user profile endpoint. When unset it is derived
// from the audit URL.
func (a APIConfig) ResolvedUserURL() string {
	if a.UserURL != "" {
		return a.UserURL
	}
	return strings.Replace(a.AuditURL, "getAuditdata", "getUserdata", 1)
}

// Rebase points every configured endpoint at base, keeping paths. Used to run
// the suite against a local mock service.
func (a APIConfig) Rebase(base string) APIConfig {
	base = strings.TrimRight(base, "/")
	a.UserURL = a.ResolvedUserURL()
	for _, u := range []*string{
		&a.TokenURL, &a.AuditURL, &a.HistoryURL, &a.HistoryIDURL,
		&a.UserURL, &a.ProductsURL, &a.AdminResetURL,
	} {
		if *u != "" {
			*u = base + pathOf(*u)
		}
	}
	return a
}

// pathOf returns everything after scheme://host, without parsing, so
// placeholders survive.
func pathOf(raw string) string {
	rest := raw
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	if i := strings.IndexAny(rest, "/?"); i >= 0 {
		return rest[i:]
	}
	return ""
}

// Validate checks the configuration for missing or malformed values.
func (c *Config) Validate() error {
	required := map[string]string{
		"api.token_url":      c.API.TokenURL,
		"api.audit_url":      c.API.AuditURL,
		"api.history_url":    c.API.HistoryURL,
		"api.history_id_url": c.API.HistoryIDURL,
		"api.products_url":   c.API.ProductsURL,
	}
	for key, val := range required {
		if val == "" {
			return fmt.Errorf("%s is required", key)
		}
		if err := absoluteURL(strings.Replace(val, HistoryIDPlaceholder, "id", 1)); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	if !strings.Contains(c.API.HistoryIDURL, HistoryIDPlaceholder) {
		return fmt.Errorf("api.history_id_url must contain %s", HistoryIDPlaceholder)
	}
	if c.API.AdminResetURL != "" {
		if err := absoluteURL(c.API.AdminResetURL); err != nil {
			return fmt.Errorf("api.admin_reset_url: %w", err)
		}
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	if err := c.API.TLS.Validate(); err != nil {
		return fmt.Errorf("api.tls: %w", err)
	}
	if !slices.Contains(RunFormats, strings.ToLower(c.Run.Format)) {
		return fmt.Errorf("run.format must be one of %s (got %q)", strings.Join(RunFormats, ", "), c.Run.Format)
	}
	if c.Run.Concurrency < 1 {
		return fmt.Errorf("run.concurrency must be at least 1")
	}
	return nil
}

func absoluteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%q is not an absolute URL", raw)
	}
	return nil
}
