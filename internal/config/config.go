// Package config loads and validates client configuration from env and an
// optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the dashboard client configuration loaded from the
// environment.
type Config struct {
	// APIBaseURL is the platform API root, including the version prefix
	// (e.g. http://localhost:3000/api/v1).
	APIBaseURL string `mapstructure:"API_BASE_URL"`
	// HTTPTimeout is the per-request timeout (e.g. "15s").
	HTTPTimeout string `mapstructure:"HTTP_TIMEOUT"`
	// CredentialsFile is the path of the persisted session pair; empty means
	// ~/.aq54/credentials.json.
	CredentialsFile string `mapstructure:"CREDENTIALS_FILE"`
	// Stations is the comma-separated station catalogue offered for queries.
	Stations string `mapstructure:"STATIONS"`
	// OTLPEndpoint is the OpenTelemetry collector endpoint; empty disables
	// export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext export to an https endpoint.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment via Viper. Missing .env is ignored; env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("API_BASE_URL", "http://localhost:3000/api/v1")
	v.SetDefault("HTTP_TIMEOUT", "15s")
	v.SetDefault("CREDENTIALS_FILE", "")
	v.SetDefault("STATIONS", "SMART188,SMART189")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.APIBaseURL == "" {
		return nil, errors.New("config: API_BASE_URL must be set")
	}
	if u, err := url.Parse(cfg.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("config: API_BASE_URL %q is not a valid URL", cfg.APIBaseURL)
	}
	if _, err := time.ParseDuration(cfg.HTTPTimeout); err != nil {
		return nil, fmt.Errorf("config: HTTP_TIMEOUT %q is not a valid duration", cfg.HTTPTimeout)
	}

	return &cfg, nil
}

// Timeout parses HTTPTimeout as a time.Duration. Returns 15s if unset or
// invalid.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.HTTPTimeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// CredentialsPath resolves the credentials file path, defaulting to
// ~/.aq54/credentials.json when unset.
func (c *Config) CredentialsPath() string {
	if c.CredentialsFile != "" {
		return c.CredentialsFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".aq54", "credentials.json")
	}
	return filepath.Join(home, ".aq54", "credentials.json")
}

// StationList returns station ids from the comma-separated config.
func (c *Config) StationList() []string {
	if c == nil || c.Stations == "" {
		return nil
	}
	parts := strings.Split(c.Stations, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
