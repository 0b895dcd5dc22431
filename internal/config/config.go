package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	BindAddress        string
	UnixSocketPath     string
	RequireBearerToken bool
	BearerToken        string
	DatabasePath       string
	PolicyPath         string
	RequestTimeout     time.Duration
	LogLevel           string

	// SystemUserID owns calendars the engine creates on its own, such as
	// the duty-roster calendar.
	SystemUserID string
}

func Load() (Config, error) {
	cfg := Config{
		BindAddress:        getenvDefault("CALD_BIND_ADDRESS", "127.0.0.1:9843"),
		UnixSocketPath:     strings.TrimSpace(os.Getenv("CALD_UNIX_SOCKET")),
		RequireBearerToken: getenvBool("CALD_REQUIRE_TOKEN", true),
		BearerToken:        strings.TrimSpace(os.Getenv("CALD_BEARER_TOKEN")),
		DatabasePath:       getenvDefault("CALD_DB_PATH", "calendard.db"),
		PolicyPath:         strings.TrimSpace(os.Getenv("CALD_POLICY_FILE")),
		RequestTimeout:     getenvDuration("CALD_REQUEST_TIMEOUT", 10*time.Second),
		LogLevel:           getenvDefault("CALD_LOG_LEVEL", "info"),
		SystemUserID:       getenvDefault("CALD_SYSTEM_USER_ID", "system"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.BindAddress == "" && c.UnixSocketPath == "" {
		return errors.New("either bind address or unix socket path must be configured")
	}
	if c.RequireBearerToken && c.BearerToken == "" {
		return errors.New("CALD_BEARER_TOKEN is required when token auth is enabled")
	}
	if c.DatabasePath == "" {
		return errors.New("database path is required")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be > 0")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
