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
	DBPath      string

	// Activity length bounds enforced by the wizard validators.
	MinLength time.Duration
	MaxLength time.Duration

	// SweepCooldown bounds how often the expiry sweep does real work.
	SweepCooldown time.Duration

	// IDLength is the length of generated activity identifiers.
	IDLength int

	// SaveRetries bounds identifier regeneration on collision.
	SaveRetries int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		FrontendURL:   getEnv("FRONTEND_URL", ""),
		DBPath:        getEnv("DB_PATH", "./data/seuranhaku.db"),
		MinLength:     getEnvDuration("MIN_ACTIVITY_LENGTH", 10*time.Minute),
		MaxLength:     getEnvDuration("MAX_ACTIVITY_LENGTH", 12*time.Hour),
		SweepCooldown: getEnvDuration("SWEEP_COOLDOWN", 60*time.Second),
		IDLength:      getEnvInt("ACTIVITY_ID_LENGTH", 8),
		SaveRetries:   getEnvInt("SAVE_RETRIES", 5),
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
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.MinLength <= 0 {
		return fmt.Errorf("MIN_ACTIVITY_LENGTH must be > 0")
	}
	if c.MaxLength <= c.MinLength {
		return fmt.Errorf("MAX_ACTIVITY_LENGTH must be greater than MIN_ACTIVITY_LENGTH")
	}
	if c.SweepCooldown < 0 {
		return fmt.Errorf("SWEEP_COOLDOWN cannot be negative")
	}
	if c.IDLength <= 0 {
		return fmt.Errorf("ACTIVITY_ID_LENGTH must be > 0")
	}
	if c.SaveRetries <= 0 {
		return fmt.Errorf("SAVE_RETRIES must be > 0")
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
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
