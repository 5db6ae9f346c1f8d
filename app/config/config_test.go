package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"PORT", "BLOG_ADDR", "BLOG_DATA_DIR", "DATABASE_URL", "BLOG_STATIC_DIR",
		"BLOG_LOG_LEVEL", "BLOG_LOG_FORMAT", "BLOG_SESSION_LIFETIME", "BLOG_COOKIE_SECURE",
	} {
		t.Setenv(key, "")
	}
	// Keep a stray .env in the package directory from leaking in.
	t.Chdir(t.TempDir())
}

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, filepath.Join("data", "db"), cfg.BadgerPath())
	assert.Equal(t, 14*24*time.Hour, cfg.SessionLifetime)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
addr: ":9000"
data_dir: /var/lib/blog
session_lifetime: 2h
log:
  level: debug
  format: json
rate_limit:
  comments_per_minute: 1
  burst: 1
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "/var/lib/blog", cfg.DataDir)
	assert.Equal(t, 2*time.Hour, cfg.SessionLifetime)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 1.0, cfg.RateLimit.CommentsPerMinute)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "addr: \":9000\"\n")
	t.Setenv("BLOG_ADDR", "127.0.0.1:7000")
	t.Setenv("DATABASE_URL", "sqlite://blog.db")
	t.Setenv("BLOG_SESSION_LIFETIME", "30m")
	t.Setenv("BLOG_COOKIE_SECURE", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", cfg.Addr)
	assert.Equal(t, "sqlite://blog.db", cfg.DatabaseURL)
	assert.Equal(t, 30*time.Minute, cfg.SessionLifetime)
	assert.True(t, cfg.CookieSecure)
}

func TestPortFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "5000")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.Addr)
}

func TestDotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides a variable that is already set, even to "".
	require.NoError(t, os.Unsetenv("BLOG_LOG_LEVEL"))
	t.Cleanup(func() { os.Unsetenv("BLOG_LOG_LEVEL") })
	require.NoError(t, os.WriteFile(".env", []byte("BLOG_LOG_LEVEL=warn\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "bad database url", yaml: "database_url: mysql://db\n"},
		{name: "bad log level", yaml: "log:\n  level: chatty\n"},
		{name: "zero burst", yaml: "rate_limit:\n  comments_per_minute: 1\n  burst: 0\n"},
		{name: "broken yaml", yaml: "addr: [\n"},
		{name: "bad lifetime env", env: map[string]string{"BLOG_SESSION_LIFETIME": "forever"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeConfig(t, tt.yaml))
			assert.Error(t, err)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
