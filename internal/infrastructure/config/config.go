package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Logging    LogConfig
	RateLimit  RateLimitConfig
	Sandbox    SandboxConfig
	Storage    StorageConfig
	Playground PlaygroundConfig
	Progress   ProgressConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string   `envconfig:"PORT" default:"8000"`
	Host           string   `envconfig:"HOST" default:"0.0.0.0"`
	AllowedOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// SandboxConfig holds JavaScript evaluation limits. A zero EvalTimeout lets a
// snippet run until it finishes or its request ends.
type SandboxConfig struct {
	PoolSize       int           `envconfig:"PLAYGROUND_POOL_SIZE" default:"4"`
	EvalTimeout    time.Duration `envconfig:"PLAYGROUND_EVAL_TIMEOUT" default:"10s"`
	MaxCallStack   int           `envconfig:"PLAYGROUND_MAX_CALL_STACK" default:"1024"`
	AcquireTimeout time.Duration `envconfig:"PLAYGROUND_ACQUIRE_TIMEOUT" default:"5s"`
}

// StorageConfig selects the snippet store.
type StorageConfig struct {
	Driver     string `envconfig:"STORAGE_DRIVER" default:"memory"`
	Path       string `envconfig:"STORAGE_PATH" default:"./data/snippets"`
	RedisAddr  string `envconfig:"REDIS_ADDR"`
	QuotaBytes int    `envconfig:"STORAGE_QUOTA_BYTES" default:"5242880"`
}

// PlaygroundConfig holds session behavior toggles.
type PlaygroundConfig struct {
	ReloadSavedOnSwitch bool  `envconfig:"PLAYGROUND_RELOAD_SAVED" default:"false"`
	MaxSourceBytes      int64 `envconfig:"PLAYGROUND_MAX_SOURCE_BYTES" default:"262144"`
}

// ProgressConfig points at the dashboard progress API. Empty BaseURL
// disables /progress.
type ProgressConfig struct {
	BaseURL   string        `envconfig:"PROGRESS_API_URL"`
	Timeout   time.Duration `envconfig:"PROGRESS_API_TIMEOUT" default:"10s"`
	RateLimit float64       `envconfig:"PROGRESS_API_RPS" default:"5"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "memory", "file", "sqlite", "redis":
	default:
		return fmt.Errorf("invalid STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "redis" && c.Storage.RedisAddr == "" {
		return fmt.Errorf("STORAGE_DRIVER=redis requires REDIS_ADDR")
	}
	if c.Sandbox.PoolSize < 1 {
		return fmt.Errorf("PLAYGROUND_POOL_SIZE must be positive, got %d", c.Sandbox.PoolSize)
	}
	if c.Sandbox.EvalTimeout < 0 {
		return fmt.Errorf("PLAYGROUND_EVAL_TIMEOUT must not be negative")
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8000",
			Host:           "0.0.0.0",
			AllowedOrigins: []string{"*"},
		},
		Logging: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Sandbox: SandboxConfig{
			PoolSize:       4,
			EvalTimeout:    10 * time.Second,
			MaxCallStack:   1024,
			AcquireTimeout: 5 * time.Second,
		},
		Storage: StorageConfig{
			Driver:     "memory",
			Path:       "./data/snippets",
			QuotaBytes: 5 * 1024 * 1024,
		},
		Playground: PlaygroundConfig{
			MaxSourceBytes: 256 * 1024,
		},
		Progress: ProgressConfig{
			Timeout:   10 * time.Second,
			RateLimit: 5,
		},
	}
}
