package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// DefaultConfigPath is the optional YAML file read by Load.
const DefaultConfigPath = "config.yaml"

// devJWTSecret signs tokens in local mode when JWT_SECRET is unset.
const devJWTSecret = "ekaya-insights-local-dev-secret"

// Storage drivers.
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config holds all configuration for ekaya-insights.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"0.0.0.0"`
	Port     string `yaml:"port" env:"PORT" env-default:"5000"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// TLS configuration (optional - if both provided, server uses HTTPS)
	TLSCertPath string `yaml:"tls_cert_path" env:"TLS_CERT_PATH" env-default:""`
	TLSKeyPath  string `yaml:"tls_key_path" env:"TLS_KEY_PATH" env-default:""`

	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Upload   UploadConfig   `yaml:"upload"`
	AI       AIConfig       `yaml:"ai"`
	Auth     AuthConfig     `yaml:"auth"`

	// UsingDevSecret is set when local mode fell back to the built-in JWT secret.
	UsingDevSecret bool `yaml:"-"`
}

// StorageConfig selects the dataset and user store.
type StorageConfig struct {
	Driver string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"postgres"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"ekaya"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"ekaya_insights"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// RedisConfig holds Redis configuration. An empty Host disables Redis.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// UploadConfig bounds CSV uploads.
type UploadConfig struct {
	MaxRows  int    `yaml:"max_rows" env:"MAX_ROWS" env-default:"50000"`
	MaxBytes int64  `yaml:"max_bytes" env:"UPLOAD_MAX_BYTES" env-default:"10485760"`
	TempDir  string `yaml:"temp_dir" env:"UPLOAD_TEMP_DIR" env-default:""` // os.TempDir() when empty
}

// AIConfig configures insight generation.
type AIConfig struct {
	// Provider is openai, anthropic, gemini or none. Empty picks openai when
	// OPENAI_API_KEY is set and none otherwise.
	Provider     string        `yaml:"provider" env:"AI_PROVIDER" env-default:""`
	Model        string        `yaml:"model" env:"AI_MODEL" env-default:""`
	BaseURL      string        `yaml:"base_url" env:"AI_BASE_URL" env-default:""`
	Timeout      time.Duration `yaml:"timeout" env:"AI_TIMEOUT" env-default:"30s"`
	Temperature  float64       `yaml:"temperature" env:"AI_TEMPERATURE" env-default:"0.7"`
	RateLimitRPS float64       `yaml:"rate_limit_rps" env:"AI_RATE_LIMIT_RPS" env-default:"2"`
	MaxRetries   int           `yaml:"max_retries" env:"AI_MAX_RETRIES" env-default:"2"`

	OpenAIAPIKey    string `yaml:"-" env:"OPENAI_API_KEY"`    // Secret - not in YAML
	AnthropicAPIKey string `yaml:"-" env:"ANTHROPIC_API_KEY"` // Secret - not in YAML
	GeminiAPIKey    string `yaml:"-" env:"GEMINI_API_KEY"`    // Secret - not in YAML
}

// AuthConfig holds session token settings.
type AuthConfig struct {
	JWTSecret    string        `yaml:"-" env:"JWT_SECRET"` // Secret - not in YAML
	TokenTTL     time.Duration `yaml:"token_ttl" env:"JWT_TTL" env-default:"24h"`
	CookieSecure bool          `yaml:"cookie_secure" env:"COOKIE_SECURE" env-default:"false"`
}

// Load reads .env (if present), then config.yaml (if present) with
// environment variable overrides. The version parameter is injected at build
// time and set on the returned Config.
func Load(version string) (*Config, error) {
	return LoadFrom(DefaultConfigPath, version)
}

// LoadFrom is Load with an explicit YAML path. A missing file is not an error;
// configuration then comes from the environment alone.
func LoadFrom(path, version string) (*Config, error) {
	// Existing environment variables win over .env entries.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("invalid STORAGE_DRIVER %q: must be postgres or memory", c.Storage.Driver)
	}

	if err := c.validateTLS(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	if c.Auth.JWTSecret == "" {
		if c.Env != "local" {
			return fmt.Errorf("JWT_SECRET is required when ENVIRONMENT=%s", c.Env)
		}
		c.Auth.JWTSecret = devJWTSecret
		c.UsingDevSecret = true
	}

	if c.Upload.MaxRows <= 0 {
		return fmt.Errorf("MAX_ROWS must be positive, got %d", c.Upload.MaxRows)
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive, got %d", c.Upload.MaxBytes)
	}
	if c.AI.Timeout <= 0 {
		return fmt.Errorf("AI_TIMEOUT must be positive, got %s", c.AI.Timeout)
	}

	return nil
}

// validateTLS ensures TLS configuration is valid if provided.
// Both cert and key must be provided together, and files must exist.
func (c *Config) validateTLS() error {
	certSet := c.TLSCertPath != ""
	keySet := c.TLSKeyPath != ""

	if certSet != keySet {
		return fmt.Errorf("both tls_cert_path and tls_key_path must be provided together")
	}

	if certSet {
		if _, err := os.Stat(c.TLSCertPath); err != nil {
			return fmt.Errorf("TLS cert file does not exist: %w", err)
		}
		if _, err := os.Stat(c.TLSKeyPath); err != nil {
			return fmt.Errorf("TLS key file does not exist: %w", err)
		}
	}

	return nil
}

// ResolvedProvider returns the AI provider after applying the default.
func (c *AIConfig) ResolvedProvider() string {
	provider := strings.ToLower(strings.TrimSpace(c.Provider))
	if provider != "" {
		return provider
	}
	if c.OpenAIAPIKey != "" || c.BaseURL != "" {
		return "openai"
	}
	return "none"
}

// APIKey returns the secret for the resolved provider.
func (c *AIConfig) APIKey() string {
	switch c.ResolvedProvider() {
	case "anthropic":
		return c.AnthropicAPIKey
	case "gemini":
		return c.GeminiAPIKey
	default:
		return c.OpenAIAPIKey
	}
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		ResolveHostForDocker(c.Host), c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
