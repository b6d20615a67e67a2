package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// APIPROBE_API_SUBSCRIPTION_KEY.
const EnvPrefix = "APIPROBE"

// Load reads configuration from configPath, or from apiprobe.yaml in the
// working directory or ~/.config/apiprobe when configPath is empty. Values from
// a .env file in the working directory and APIPROBE_* environment variables
// override the file.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("apiprobe")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "apiprobe"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.API.SubscriptionKey = os.ExpandEnv(cfg.API.SubscriptionKey)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("api.token_url", d.API.TokenURL)
	v.SetDefault("api.audit_url", d.API.AuditURL)
	v.SetDefault("api.history_url", d.API.HistoryURL)
	v.SetDefault("api.history_id_url", d.API.HistoryIDURL)
	v.SetDefault("api.user_url", d.API.UserURL)
	v.SetDefault("api.products_url", d.API.ProductsURL)
	v.SetDefault("api.admin_reset_url", d.API.AdminResetURL)
	v.SetDefault("api.subscription_key", d.API.SubscriptionKey)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("api.proxy_url", "")
	v.SetDefault("api.no_proxy", "")
	v.SetDefault("api.tls.cert_file", "")
	v.SetDefault("api.tls.key_file", "")
	v.SetDefault("api.tls.ca_file", "")
	v.SetDefault("api.tls.server_name", "")
	v.SetDefault("api.tls.min_version", "")
	v.SetDefault("api.tls.insecure_skip_verify", false)

	v.SetDefault("identity.object_id", d.Identity.ObjectID)
	v.SetDefault("identity.cored", d.Identity.Cored)
	v.SetDefault("identity.type", d.Identity.Type)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetDefault("telemetry.enabled", d.Telemetry.Enabled)
	v.SetDefault("telemetry.history_db", d.Telemetry.HistoryDB)
	v.SetDefault("telemetry.metrics_file", d.Telemetry.MetricsFile)

	v.SetDefault("run.features", d.Run.Features)
	v.SetDefault("run.tags", d.Run.Tags)
	v.SetDefault("run.format", d.Run.Format)
	v.SetDefault("run.concurrency", d.Run.Concurrency)
	v.SetDefault("run.fixtures_dir", d.Run.FixturesDir)
	v.SetDefault("run.strict", d.Run.Strict)
	v.SetDefault("run.verbose", d.Run.Verbose)
}

func bindEnvVars(v *viper.Viper) error {
	keys := []string{
		"api.token_url",
		"api.audit_url",
		"api.history_url",
		"api.history_id_url",
		"api.user_url",
		"api.products_url",
		"api.admin_reset_url",
		"api.subscription_key",
		"api.timeout",
		"api.proxy_url",
		"api.no_proxy",
		"api.tls.cert_file",
		"api.tls.key_file",
		"api.tls.ca_file",
		"api.tls.server_name",
		"api.tls.min_version",
		"api.tls.insecure_skip_verify",

		"identity.object_id",
		"identity.cored",
		"identity.type",

		"logging.level",
		"logging.format",

		"telemetry.enabled",
		"telemetry.history_db",
		"telemetry.metrics_file",

		"run.features",
		"run.tags",
		"run.format",
		"run.concurrency",
		"run.fixtures_dir",
		"run.strict",
		"run.verbose",
	}
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind env var %q: %w", key, err)
		}
	}
	return nil
}

// DefaultHistoryPath returns ~/.config/apiprobe/history.db.
func DefaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "apiprobe-history.db"
	}
	return filepath.Join(home, ".config", "apiprobe", "history.db")
}
