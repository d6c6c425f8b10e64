// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	BackendURL  string
	DBPath      string

	// AuthTimeout bounds credential-service calls; ChatTimeout bounds
	// assistant calls, which are slower because replies are generated.
	AuthTimeout time.Duration
	ChatTimeout time.Duration

	// TokenSkew is the safety margin applied to credential expiry.
	TokenSkew time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "3000"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		BackendURL:  getEnv("BACKEND_URL", "http://localhost:8080"),
		DBPath:      getEnv("DB_PATH", "./data/client.db"),
		AuthTimeout: time.Duration(getEnvInt("AUTH_TIMEOUT_SECONDS", 10)) * time.Second,
		ChatTimeout: time.Duration(getEnvInt("CHAT_TIMEOUT_SECONDS", 30)) * time.Second,
		TokenSkew:   time.Duration(getEnvInt("TOKEN_SKEW_SECONDS", 10)) * time.Second,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL cannot be empty")
	}
	if !strings.HasPrefix(c.BackendURL, "http://") && !strings.HasPrefix(c.BackendURL, "https://") {
		return fmt.Errorf("BACKEND_URL must be an http(s) URL")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.AuthTimeout <= 0 || c.ChatTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.TokenSkew < 0 {
		return fmt.Errorf("TOKEN_SKEW_SECONDS must not be negative")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
