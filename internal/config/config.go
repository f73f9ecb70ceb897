// Package config loads service configuration from environment variables.
// A .env file in the working directory is read first when present, which is
// convenient in development; in production real variables are used.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // ARCHIVE_TIMEZONE must resolve in minimal images

	"github.com/grigden22/temnet-parser/internal/database"
	"github.com/grigden22/temnet-parser/internal/security"
	"github.com/joho/godotenv"
)

// Config carries every configurable value of the service.
type Config struct {
	Server   ServerConfig
	Database database.Config
	Limits   *security.SecurityConfig

	// Location is the zone used for timestamps that carry none.
	Location *time.Location
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port             int
	Env              string // "production" disables template reloading
	CORSAllowOrigins string
}

// Addr returns the listen address, e.g. ":8080".
func (c ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// IsProduction reports whether ENV is "production".
func (c ServerConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load reads .env (if present) and then the environment.
func Load() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
// DATABASE_URL is required; every other variable has a default. Malformed
// values are reported rather than silently replaced.
func FromEnv() (*Config, error) {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	port, err := intEnv("PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("invalid PORT: %d out of range", port)
	}

	maxConns, err := intEnv("DB_MAX_CONNS", 25)
	if err != nil {
		return nil, err
	}
	minConns, err := intEnv("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, err
	}
	if maxConns < 1 || minConns < 0 || minConns > maxConns {
		return nil, fmt.Errorf("invalid pool size: DB_MIN_CONNS=%d DB_MAX_CONNS=%d", minConns, maxConns)
	}

	loc, err := time.LoadLocation(getEnv("ARCHIVE_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid ARCHIVE_TIMEZONE: %w", err)
	}

	limits := security.DefaultSecurityConfig()

	if limits.DefaultPageSize, err = intEnv("PAGE_DEFAULT_SIZE", limits.DefaultPageSize); err != nil {
		return nil, err
	}
	if limits.MaxPageSize, err = intEnv("PAGE_MAX_SIZE", limits.MaxPageSize); err != nil {
		return nil, err
	}
	if limits.DefaultPageSize < 1 || limits.MaxPageSize < limits.DefaultPageSize {
		return nil, fmt.Errorf("invalid page sizes: PAGE_DEFAULT_SIZE=%d PAGE_MAX_SIZE=%d",
			limits.DefaultPageSize, limits.MaxPageSize)
	}

	if limits.MaxQueryLength, err = intEnv("MAX_QUERY_LENGTH", limits.MaxQueryLength); err != nil {
		return nil, err
	}
	if limits.MaxQueryLength < 1 {
		return nil, fmt.Errorf("invalid MAX_QUERY_LENGTH: must be positive")
	}

	if limits.SearchRateLimit, err = intEnv("SEARCH_RATE_LIMIT", limits.SearchRateLimit); err != nil {
		return nil, err
	}
	if limits.SearchRateLimit < 0 {
		return nil, fmt.Errorf("invalid SEARCH_RATE_LIMIT: must not be negative")
	}

	timeout, err := time.ParseDuration(getEnv("QUERY_TIMEOUT", limits.QueryTimeout.String()))
	if err != nil {
		return nil, fmt.Errorf("invalid QUERY_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("invalid QUERY_TIMEOUT: must be positive")
	}
	limits.QueryTimeout = timeout

	return &Config{
		Server: ServerConfig{
			Port:             port,
			Env:              getEnv("ENV", ""),
			CORSAllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
		},
		Database: database.Config{
			URL:      dbURL,
			MaxConns: int32(maxConns),
			MinConns: int32(minConns),
		},
		Limits:   limits,
		Location: loc,
	}, nil
}

// getEnv reads an environment variable, returning fallback when unset or empty.
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
