package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/spotreport/config.yaml",
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8000,
			ShutdownTimeout:   15 * time.Second,
			MaxUploadBytes:    10 << 20,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 30,
			RateLimitWindow:   time.Minute,
		},
		Database: DatabaseConfig{
			Driver:              "postgres",
			Host:                "postgres",
			Port:                5432,
			User:                "postgres",
			Name:                "postgres",
			SSLMode:             "disable",
			SQLitePath:          "spotreport.db",
			MaxOpenConns:        10,
			MaxIdleConns:        5,
			MigrateMaxAttempts:  0,
			MigrateInitialDelay: 500 * time.Millisecond,
			MigrateMaxDelay:     10 * time.Second,
		},
		Classifier: ClassifierConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o",
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// envKeys maps environment variables to config paths. Anything not listed is
// ignored.
var envKeys = map[string]string{
	"server_host":      "server.host",
	"port":             "server.port",
	"shutdown_timeout": "server.shutdown_timeout",
	"max_upload_bytes": "server.max_upload_bytes",
	"cors_origins":     "server.cors_origins",

	"rate_limit_requests": "server.rate_limit_requests",
	"rate_limit_window":   "server.rate_limit_window",

	"database_driver":         "database.driver",
	"database_url":            "database.url",
	"postgres_host":           "database.host",
	"postgres_port":           "database.port",
	"postgres_user":           "database.user",
	"postgres_password":       "database.password",
	"postgres_db":             "database.name",
	"postgres_sslmode":        "database.sslmode",
	"sqlite_path":             "database.sqlite_path",
	"database_max_open_conns": "database.max_open_conns",
	"database_max_idle_conns": "database.max_idle_conns",
	"migrate_max_attempts":    "database.migrate_max_attempts",
	"migrate_initial_delay":   "database.migrate_initial_delay",
	"migrate_max_delay":       "database.migrate_max_delay",

	"openai_api_key":     "classifier.api_key",
	"openai_base_url":    "classifier.base_url",
	"openai_model":       "classifier.model",
	"classifier_timeout": "classifier.timeout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

func envTransform(key string) string {
	return envKeys[strings.ToLower(key)]
}

// Load reads configuration from built-in defaults, an optional YAML file and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := splitListValues(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// listPaths are config paths that environment variables set as
// comma-separated strings.
var listPaths = []string{
	"server.cors_origins",
}

func splitListValues(k *koanf.Koanf) error {
	for _, path := range listPaths {
		val, ok := k.Get(path).(string)
		if !ok || val == "" {
			continue
		}

		parts := strings.Split(val, ",")
		items := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				items = append(items, p)
			}
		}
		if err := k.Set(path, items); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
