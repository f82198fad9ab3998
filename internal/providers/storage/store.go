package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when no value is stored under a key.
	ErrNotFound = errors.New("snippet not found")
	// ErrUnavailable is returned when the storage medium cannot be used.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrQuotaExceeded is returned when a write would exceed the store quota.
	ErrQuotaExceeded = fmt.Errorf("%w: quota exceeded", ErrUnavailable)
)

// KeyPrefix is prepended to a language id to form its storage key.
const KeyPrefix = "playground_"

// Key returns the storage key for languageID.
func Key(languageID string) string {
	return KeyPrefix + languageID
}

// LanguageFromKey is the inverse of Key.
func LanguageFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, KeyPrefix) || len(key) == len(KeyPrefix) {
		return "", false
	}
	return strings.TrimPrefix(key, KeyPrefix), true
}

// Store is a durable string key-value store.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Keys lists stored keys matching a doublestar glob pattern, sorted.
	Keys(ctx context.Context, pattern string) ([]string, error)
	Close() error
}

// Config selects and configures a driver.
type Config struct {
	Driver     string // memory, file, sqlite or redis
	Path       string // directory for file, database path for sqlite
	RedisAddr  string
	QuotaBytes int // memory driver only, zero means unlimited
}

// Open creates the store described by cfg.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(cfg.QuotaBytes), nil
	case "file":
		return NewFile(cfg.Path)
	case "sqlite":
		return NewSQLite(ctx, cfg.Path)
	case "redis":
		return NewRedis(ctx, cfg.RedisAddr)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func validKey(key string) error {
	if key == "" {
		return errors.New("storage key required")
	}
	return nil
}
