// Package config provides configuration management for glyph.
// It loads settings from environment variables with the GLYPH_ prefix
// and provides sensible defaults for all configuration options.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Security modes.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// Config holds all configuration settings for the glyph service.
type Config struct {
	Server     ServerConfig
	Storage    StorageConfig
	LLM        LLMConfig
	Security   SecurityConfig
	RateLimit  RateLimitConfig
	Generation GenerationConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `env:"GLYPH_HOST"             envDefault:"127.0.0.1"`
	Port            int           `env:"GLYPH_PORT"             envDefault:"3000"`
	ShutdownTimeout time.Duration `env:"GLYPH_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// StorageConfig contains remote store and snapshot configuration.
type StorageConfig struct {
	// Engine selects the remote store: postgres, sqlite or none.
	Engine string `env:"GLYPH_STORAGE_ENGINE" envDefault:"postgres"`

	// DatabaseURL is the hosted Postgres connection string. Empty means
	// local-file-only mode when Engine is postgres.
	DatabaseURL string `env:"GLYPH_DATABASE_URL"`

	// DatabaseKey is the service credential, applied as the connection password.
	DatabaseKey string `env:"GLYPH_DATABASE_KEY"`

	SQLitePath   string `env:"GLYPH_SQLITE_PATH"   envDefault:"./data/glyph.db"`
	SnapshotPath string `env:"GLYPH_SNAPSHOT_PATH" envDefault:"./data/icons.json"`
}

// LLMConfig contains the upstream model configuration.
type LLMConfig struct {
	AnthropicAPIKey  string        `env:"GLYPH_ANTHROPIC_API_KEY"`
	AnthropicModel   string        `env:"GLYPH_ANTHROPIC_MODEL"    envDefault:"claude-3-5-haiku-latest"`
	AnthropicBaseURL string        `env:"GLYPH_ANTHROPIC_BASE_URL" envDefault:"https://api.anthropic.com"`
	MaxTokens        int           `env:"GLYPH_MAX_TOKENS"         envDefault:"512"`
	Timeout          time.Duration `env:"GLYPH_LLM_TIMEOUT"        envDefault:"60s"`

	BreakerMaxFailures uint32        `env:"GLYPH_BREAKER_MAX_FAILURES" envDefault:"3"`
	BreakerCooldown    time.Duration `env:"GLYPH_BREAKER_COOLDOWN"     envDefault:"30s"`
}

// SecurityConfig contains deployment mode and origin settings.
type SecurityConfig struct {
	// Mode is development or production. Snapshot writes only happen in
	// development.
	Mode string `env:"GLYPH_MODE" envDefault:"development"`

	// FeedOrigins are host patterns accepted on the WebSocket feed besides
	// the request's own host.
	FeedOrigins []string `env:"GLYPH_FEED_ORIGINS" envSeparator:","`
}

// RateLimitConfig controls the per-client token bucket.
type RateLimitConfig struct {
	Enabled           bool    `env:"GLYPH_RATE_LIMIT_ENABLED" envDefault:"true"`
	RequestsPerSecond float64 `env:"GLYPH_RATE_LIMIT_RPS"     envDefault:"5"`
	Burst             int     `env:"GLYPH_RATE_LIMIT_BURST"   envDefault:"10"`
}

// GenerationConfig contains generate-then-persist settings.
type GenerationConfig struct {
	// Persist saves every generated icon to the catalog.
	Persist bool `env:"GLYPH_PERSIST_GENERATED" envDefault:"true"`

	// SeedBatchSize is the number of records per seeder upsert.
	SeedBatchSize int `env:"GLYPH_SEED_BATCH_SIZE" envDefault:"50"`
}

// LoadConfig loads configuration from environment variables with defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}
	cfg.Storage.Engine = strings.ToLower(strings.TrimSpace(cfg.Storage.Engine))
	cfg.Security.Mode = strings.ToLower(strings.TrimSpace(cfg.Security.Mode))
	return &cfg, nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Security.Mode != ModeProduction
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// RemoteConfigured reports whether a remote store will be opened. A postgres
// engine without a database URL runs in local-file-only mode.
func (c *Config) RemoteConfigured() bool {
	switch c.Storage.Engine {
	case "postgres":
		return c.Storage.DatabaseURL != ""
	case "sqlite":
		return c.Storage.SQLitePath != ""
	default:
		return false
	}
}

// PostgresDSN returns DatabaseURL with DatabaseKey applied as the password.
// URL-form connection strings get the key as userinfo password (user
// defaults to postgres); key=value strings get a password parameter.
func (c *Config) PostgresDSN() (string, error) {
	raw := c.Storage.DatabaseURL
	if raw == "" {
		return "", errors.New("config: GLYPH_DATABASE_URL is not set")
	}
	if c.Storage.DatabaseKey == "" {
		return raw, nil
	}

	if !strings.Contains(raw, "://") {
		return fmt.Sprintf("%s password='%s'", raw, escapeDSNValue(c.Storage.DatabaseKey)), nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("config: invalid GLYPH_DATABASE_URL: %w", err)
	}
	user := "postgres"
	if u.User != nil && u.User.Username() != "" {
		user = u.User.Username()
	}
	u.User = url.UserPassword(user, c.Storage.DatabaseKey)
	return u.String(), nil
}

func escapeDSNValue(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, `'`, `\'`)
}

// Validate checks option combinations that env parsing cannot.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("GLYPH_PORT out of range: %d", c.Server.Port))
	}
	switch c.Storage.Engine {
	case "postgres", "sqlite", "none":
	default:
		errs = append(errs, fmt.Errorf("GLYPH_STORAGE_ENGINE must be postgres, sqlite or none, got %q", c.Storage.Engine))
	}
	switch c.Security.Mode {
	case ModeDevelopment, ModeProduction:
	default:
		errs = append(errs, fmt.Errorf("GLYPH_MODE must be development or production, got %q", c.Security.Mode))
	}
	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("GLYPH_MAX_TOKENS must be positive, got %d", c.LLM.MaxTokens))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("GLYPH_RATE_LIMIT_RPS and GLYPH_RATE_LIMIT_BURST must be positive"))
	}
	if c.Generation.SeedBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("GLYPH_SEED_BATCH_SIZE must be positive, got %d", c.Generation.SeedBatchSize))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
