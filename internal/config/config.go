// Package config loads server configuration from environment variables,
// with an optional .env file for development.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/davsync/davsync/internal/storage"
)

var (
	ErrInvalidPort     = errors.New("invalid server port")
	ErrConflictingAuth = errors.New("AUTH_PASSWORD and AUTH_PASSWORD_HASH are mutually exclusive")
	ErrPartialAuth     = errors.New("AUTH_USERNAME requires AUTH_PASSWORD or AUTH_PASSWORD_HASH")
)

// Config holds all server settings.
type Config struct {
	Host    string
	Port    int
	DataDir string

	AuthUsername     string
	AuthPassword     string
	AuthPasswordHash string

	StorageStrategy storage.Strategy
	StorageDiskDir  string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Host:             getEnv("SERVER_HOST", "0.0.0.0"),
		DataDir:          getEnv("DATA_DIR", "./data"),
		AuthUsername:     os.Getenv("AUTH_USERNAME"),
		AuthPassword:     os.Getenv("AUTH_PASSWORD"),
		AuthPasswordHash: os.Getenv("AUTH_PASSWORD_HASH"),
	}

	port, err := getEnvInt("SERVER_PORT", 6765)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPort, err)
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPort, port)
	}
	cfg.Port = port

	if cfg.AuthPassword != "" && cfg.AuthPasswordHash != "" {
		return nil, ErrConflictingAuth
	}
	if cfg.AuthUsername != "" && cfg.AuthPassword == "" && cfg.AuthPasswordHash == "" {
		return nil, ErrPartialAuth
	}

	strategy, err := storage.ParseStrategy(os.Getenv("STORAGE_STRATEGY"))
	if err != nil {
		return nil, err
	}
	cfg.StorageStrategy = strategy
	cfg.StorageDiskDir = getEnv("STORAGE_DISK_DIR", filepath.Join(cfg.DataDir, "calendars"))

	return cfg, nil
}

// DatabasePath returns the SQLite file location under the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "davsync.db")
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AuthEnabled reports whether API requests must authenticate.
func (c *Config) AuthEnabled() bool {
	return c.AuthUsername != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}
