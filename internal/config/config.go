// Package config handles loading and validating the etsyctl configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreFile     = "file"
	StorePostgres = "postgres"
)

// Config is the top-level application configuration.
type Config struct {
	Etsy     EtsyConfig     `yaml:"etsy"`
	Callback CallbackConfig `yaml:"callback"`
	Store    StoreConfig    `yaml:"store"`
	Refresh  RefreshConfig  `yaml:"refresh"`
	Server   ServerConfig   `yaml:"server"`
	Notify   NotifyConfig   `yaml:"notify"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// EtsyConfig defines the Etsy app credentials and endpoints.
type EtsyConfig struct {
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	RedirectURI  string        `yaml:"redirect_uri"`
	Scopes       []string      `yaml:"scopes"`
	AuthURL      string        `yaml:"auth_url"`
	TokenURL     string        `yaml:"token_url"`
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
}

// CallbackConfig defines the local listener that receives the OAuth
// redirect during `auth login`.
type CallbackConfig struct {
	Host    string        `yaml:"host"`
	Port    int           `yaml:"port"`
	Path    string        `yaml:"path"`
	Timeout time.Duration `yaml:"timeout"`
}

// StoreConfig selects where tokens are persisted.
type StoreConfig struct {
	Backend  string         `yaml:"backend"` // file, postgres
	File     FileConfig     `yaml:"file"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// FileConfig defines the JSON token file.
type FileConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig defines PostgreSQL connection settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	PoolSize int    `yaml:"pool_size"`
}

// RefreshConfig defines the keep-alive refresher schedule.
type RefreshConfig struct {
	Interval time.Duration `yaml:"interval"`
	Buffer   time.Duration `yaml:"buffer"`
}

// ServerConfig defines the Echo HTTP server used by keepalive.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// NotifyConfig defines where keepalive reports refresh failures. Failures are
// only logged when DiscordWebhookURL is empty.
type NotifyConfig struct {
	DiscordWebhookURL string `yaml:"discord_webhook_url"`
}

// TracingConfig defines the OTLP exporter. Telemetry is off when Endpoint is
// empty.
type TracingConfig struct {
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
	ServiceName string `yaml:"service_name"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse is Load for an in-memory document.
func Parse(data []byte) (*Config, error) {
	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a config with only defaults applied. It is not validated;
// callers fill in the Etsy credentials from flags or the environment.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Validate checks a config built outside Load.
func (c *Config) Validate() error {
	return validate(c)
}

// CallbackURL is the redirect URI implied by the callback listener settings.
func (c *CallbackConfig) CallbackURL() string {
	return fmt.Sprintf("http://%s:%d%s", c.Host, c.Port, c.Path)
}

func applyDefaults(cfg *Config) {
	applyCallbackDefaults(&cfg.Callback)
	applyEtsyDefaults(&cfg.Etsy, &cfg.Callback)
	applyStoreDefaults(&cfg.Store)
	applyRefreshDefaults(&cfg.Refresh)
	applyServerDefaults(&cfg.Server)
	applyTracingDefaults(&cfg.Tracing)
	applyLoggingDefaults(&cfg.Logging)
}

func applyEtsyDefaults(e *EtsyConfig, cb *CallbackConfig) {
	if e.AuthURL == "" {
		e.AuthURL = "https://www.etsy.com/oauth/connect"
	}
	if e.TokenURL == "" {
		e.TokenURL = "https://api.etsy.com/v3/public/oauth/token" //nolint:gosec // not a credential
	}
	if e.BaseURL == "" {
		e.BaseURL = "https://openapi.etsy.com"
	}
	if e.Timeout == 0 {
		e.Timeout = 30 * time.Second
	}
	if len(e.Scopes) == 0 {
		e.Scopes = []string{"listings_r", "shops_r", "transactions_r"}
	}
	if e.RedirectURI == "" {
		e.RedirectURI = cb.CallbackURL()
	}
}

func applyCallbackDefaults(c *CallbackConfig) {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 3003
	}
	if c.Path == "" {
		c.Path = "/oauth/redirect"
	}
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Minute
	}
}

func applyStoreDefaults(s *StoreConfig) {
	if s.Backend == "" {
		s.Backend = StoreFile
	}
	if s.File.Path == "" {
		s.File.Path = defaultTokenPath()
	}
	if s.Postgres.PoolSize == 0 {
		s.Postgres.PoolSize = 4
	}
}

func defaultTokenPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "etsy-tokens.json"
	}
	return filepath.Join(dir, "etsyctl", "tokens.json")
}

func applyRefreshDefaults(r *RefreshConfig) {
	if r.Interval == 0 {
		r.Interval = 15 * time.Minute
	}
	if r.Buffer == 0 {
		r.Buffer = 20 * time.Minute
	}
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyTracingDefaults(t *TracingConfig) {
	if t.ServiceName == "" {
		t.ServiceName = "etsyctl"
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Etsy.ClientID == "" {
		errs = append(errs, errors.New("etsy.client_id is required"))
	}
	if u, err := url.Parse(cfg.Etsy.RedirectURI); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("etsy.redirect_uri must be an absolute URL (got %q)",
			cfg.Etsy.RedirectURI))
	}
	if cfg.Etsy.Timeout < 0 {
		errs = append(errs, errors.New("etsy.timeout must not be negative"))
	}

	if cfg.Callback.Port < 1 || cfg.Callback.Port > 65535 {
		errs = append(errs, fmt.Errorf("callback.port must be between 1 and 65535 (got %d)",
			cfg.Callback.Port))
	}

	switch cfg.Store.Backend {
	case StoreFile:
		if cfg.Store.File.Path == "" {
			errs = append(errs, errors.New("store.file.path is required when backend is file"))
		}
	case StorePostgres:
		if cfg.Store.Postgres.DSN == "" {
			errs = append(
				errs,
				errors.New("store.postgres.dsn is required when backend is postgres"),
			)
		}
	default:
		errs = append(
			errs,
			fmt.Errorf("store.backend must be one of: file, postgres (got %q)", cfg.Store.Backend),
		)
	}

	if cfg.Refresh.Interval < time.Minute {
		errs = append(errs, fmt.Errorf("refresh.interval must be at least 1m (got %s)",
			cfg.Refresh.Interval))
	}
	if cfg.Refresh.Buffer < cfg.Refresh.Interval {
		errs = append(errs, fmt.Errorf(
			"refresh.buffer must be at least refresh.interval (buffer %s, interval %s)",
			cfg.Refresh.Buffer, cfg.Refresh.Interval))
	}

	if hook := cfg.Notify.DiscordWebhookURL; hook != "" {
		if u, err := url.Parse(hook); err != nil || (u.Scheme != "https" && u.Scheme != "http") {
			errs = append(errs, errors.New("notify.discord_webhook_url must be an http(s) URL"))
		}
	}

	switch cfg.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be text or json (got %q)",
			cfg.Logging.Format))
	}

	return errors.Join(errs...)
}
