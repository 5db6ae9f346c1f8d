// Package config loads server settings from a YAML file, an optional .env
// file and the environment, in that order of precedence (lowest first).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything the server and CLI need at start up.
type Config struct {
	Addr            string        `yaml:"addr" validate:"required"`
	DataDir         string        `yaml:"data_dir" validate:"required"`
	DatabaseURL     string        `yaml:"database_url" validate:"omitempty,startswith=postgres://|startswith=postgresql://|startswith=sqlite://"`
	StaticDir       string        `yaml:"static_dir"`
	SessionLifetime time.Duration `yaml:"session_lifetime" validate:"gt=0"`
	CookieSecure    bool          `yaml:"cookie_secure"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
	Log             LogConfig     `yaml:"log"`
	RateLimit       RateLimit     `yaml:"rate_limit"`
}

// LogConfig selects the slog level and handler.
type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

// RateLimit bounds anonymous comment submissions per client IP.
type RateLimit struct {
	CommentsPerMinute float64 `yaml:"comments_per_minute" validate:"gt=0"`
	Burst             int     `yaml:"burst" validate:"gt=0"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		Addr:            ":8080",
		DataDir:         "data",
		SessionLifetime: 14 * 24 * time.Hour,
		ShutdownTimeout: 10 * time.Second,
		Log:             LogConfig{Level: "info", Format: "text"},
		RateLimit:       RateLimit{CommentsPerMinute: 6, Burst: 3},
	}
}

// BadgerPath is where the default badger store lives.
func (c *Config) BadgerPath() string {
	return filepath.Join(c.DataDir, "db")
}

// BackupDir is where the backup command writes by default.
func (c *Config) BackupDir() string {
	return filepath.Join(c.DataDir, "backups")
}

// Load builds the config. path may be empty, in which case only defaults,
// .env and the environment apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		c.Addr = ":" + port
	}
	c.Addr = getEnv("BLOG_ADDR", c.Addr)
	c.DataDir = getEnv("BLOG_DATA_DIR", c.DataDir)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.StaticDir = getEnv("BLOG_STATIC_DIR", c.StaticDir)
	c.Log.Level = getEnv("BLOG_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("BLOG_LOG_FORMAT", c.Log.Format)

	if v := os.Getenv("BLOG_SESSION_LIFETIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid BLOG_SESSION_LIFETIME: %w", err)
		}
		c.SessionLifetime = d
	}
	if v := os.Getenv("BLOG_COOKIE_SECURE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid BLOG_COOKIE_SECURE: %w", err)
		}
		c.CookieSecure = b
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
