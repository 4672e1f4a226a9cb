package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/blackmichael/spotreport/internal/logging"
	"github.com/blackmichael/spotreport/internal/validation"
)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Database   DatabaseConfig   `koanf:"database"`
	Classifier ClassifierConfig `koanf:"classifier"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port" validate:"min=1,max=65535"`

	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`

	// MaxUploadBytes caps the size of an image upload.
	MaxUploadBytes int64 `koanf:"max_upload_bytes" validate:"gt=0"`

	// CORSOrigins lists origins allowed to call the API from a browser.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitRequests per RateLimitWindow per client IP on the routes that
	// call the classifier. Zero disables the limit.
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DatabaseConfig selects and configures the backing store.
type DatabaseConfig struct {
	// Driver is postgres or sqlite.
	Driver string `koanf:"driver" validate:"oneof=postgres sqlite"`

	// URL is a full Postgres connection string. When empty it is assembled
	// from the individual fields below.
	URL      string `koanf:"url"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Name     string `koanf:"name"`
	SSLMode  string `koanf:"sslmode"`

	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `koanf:"sqlite_path"`

	MaxOpenConns int `koanf:"max_open_conns" validate:"gte=0"`
	MaxIdleConns int `koanf:"max_idle_conns" validate:"gte=0"`

	// MigrateMaxAttempts bounds schema creation retries at startup.
	// Zero retries until shutdown.
	MigrateMaxAttempts  int           `koanf:"migrate_max_attempts" validate:"gte=0"`
	MigrateInitialDelay time.Duration `koanf:"migrate_initial_delay" validate:"gt=0"`
	MigrateMaxDelay     time.Duration `koanf:"migrate_max_delay" validate:"gt=0"`
}

// DSN returns the data source name for the configured driver.
func (c DatabaseConfig) DSN() string {
	if c.Driver == "sqlite" {
		return c.SQLitePath
	}
	if c.URL != "" {
		return c.URL
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Name,
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String()
}

// ClassifierConfig configures the vision completion API.
type ClassifierConfig struct {
	APIKey  string        `koanf:"api_key"`
	BaseURL string        `koanf:"base_url" validate:"url"`
	Model   string        `koanf:"model" validate:"notblank"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

// Enabled reports whether an API key was supplied.
func (c ClassifierConfig) Enabled() bool {
	return c.APIKey != ""
}

// LoggingConfig mirrors logging.Config for file/env loading.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Logger converts to the logging package's configuration.
func (c LoggingConfig) Logger() logging.Config {
	return logging.Config{Level: c.Level, Format: c.Format, Caller: c.Caller}
}

// Validate checks field constraints and normalises list values.
func (c *Config) Validate() error {
	origins := c.Server.CORSOrigins[:0]
	for _, o := range c.Server.CORSOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.Server.CORSOrigins = origins

	if err := validation.Struct(c); err != nil {
		return err
	}
	if c.Database.Driver == "sqlite" && c.Database.SQLitePath == "" {
		return fmt.Errorf("database.sqlite_path is required for the sqlite driver")
	}
	if c.Database.Driver == "postgres" && c.Database.URL == "" && c.Database.Host == "" {
		return fmt.Errorf("database.url or database.host is required for the postgres driver")
	}
	return nil
}
