package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the ShareGate server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Share    ShareConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// ShareConfig controls share-link issuance. BaseURL is the public origin
// share links are built against (e.g. https://share.example.com).
type ShareConfig struct {
	BaseURL          string
	MaxTTLHours      int
	DecisionCacheTTL time.Duration
	RequestsPerMin   int
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("SHAREGATE_PORT", 8080),
			Env:  envString("SHAREGATE_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Share: ShareConfig{
			BaseURL:          os.Getenv("SHAREGATE_BASE_URL"),
			MaxTTLHours:      envInt("SHAREGATE_MAX_TTL_HOURS", 24*30),
			DecisionCacheTTL: envDuration("SHAREGATE_DECISION_CACHE_TTL", 30*time.Second),
			RequestsPerMin:   envInt("SHAREGATE_REQUESTS_PER_MIN", 60),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Share.BaseURL == "" {
		return fmt.Errorf("SHAREGATE_BASE_URL is required")
	}
	if !strings.HasPrefix(c.Share.BaseURL, "http://") && !strings.HasPrefix(c.Share.BaseURL, "https://") {
		return fmt.Errorf("SHAREGATE_BASE_URL must start with http:// or https://, got %q", c.Share.BaseURL)
	}

	if c.Share.MaxTTLHours < 0 {
		return fmt.Errorf("SHAREGATE_MAX_TTL_HOURS must not be negative, got %d", c.Share.MaxTTLHours)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
