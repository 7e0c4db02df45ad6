// Package config provides configuration management for the eventstream
// standalone server. Settings come from environment variables with sensible
// defaults, following 12-factor app principles.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config holds all configuration for the eventstream server.
type Config struct {
	Redis   RedisConfig
	Archive ArchiveConfig
	Retry   RetryConfig
}

// RedisConfig holds the broker connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ArchiveConfig holds the optional dead-letter archive configuration.
// The archive is disabled when Driver is empty.
type ArchiveConfig struct {
	Driver   string // mysql, postgres, sqlite3 ("" = archive disabled)
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// RetryConfig holds handler retry and reconnect tuning.
type RetryConfig struct {
	HandlerBaseDelayMs   int // Base backoff for handler retries
	ReconnectMaxAttempts int // Reconnect attempts before giving up
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Archive: ArchiveConfig{
			Driver:   getEnv("ARCHIVE_DB_DRIVER", ""),
			Host:     getEnv("ARCHIVE_DB_HOST", "localhost"),
			Port:     getEnvInt("ARCHIVE_DB_PORT", 3306),
			User:     getEnv("ARCHIVE_DB_USER", "eventstream"),
			Password: getEnv("ARCHIVE_DB_PASSWORD", ""),
			Database: getEnv("ARCHIVE_DB_NAME", "eventstream"),
		},
		Retry: RetryConfig{
			HandlerBaseDelayMs:   getEnvInt("RETRY_BASE_DELAY_MS", 1000),
			ReconnectMaxAttempts: getEnvInt("RECONNECT_MAX_ATTEMPTS", 5),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.Redis,
		validation.Field(&c.Redis.Addr, validation.Required),
		validation.Field(&c.Redis.DB, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("redis config: %w", err)
	}

	if err := validation.ValidateStruct(&c.Retry,
		validation.Field(&c.Retry.HandlerBaseDelayMs, validation.Min(1)),
		validation.Field(&c.Retry.ReconnectMaxAttempts, validation.Min(1)),
	); err != nil {
		return fmt.Errorf("retry config: %w", err)
	}

	if c.Archive.Driver != "" {
		if err := validation.ValidateStruct(&c.Archive,
			validation.Field(&c.Archive.Driver, validation.In("mysql", "postgres", "sqlite3")),
			validation.Field(&c.Archive.Database, validation.Required),
		); err != nil {
			return fmt.Errorf("archive config: %w", err)
		}
	}

	return nil
}

// ArchiveEnabled reports whether the dead-letter archive is configured.
func (c *Config) ArchiveEnabled() bool {
	return c.Archive.Driver != ""
}

// GetDSN returns the archive database connection string based on driver.
func (c *ArchiveConfig) GetDSN() string {
	switch strings.ToLower(c.Driver) {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			c.User, c.Password, c.Host, c.Port, c.Database)
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			c.Host, c.Port, c.User, c.Password, c.Database)
	case "sqlite3":
		return c.Database // SQLite uses file path as DSN
	default:
		return ""
	}
}

// getEnv retrieves environment variable or returns default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves environment variable as integer or returns default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
