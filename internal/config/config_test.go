package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok {
			t.Cleanup(func() { os.Setenv(k, v) })
		}
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t, "PORT", "DATABASE_URL", "SESSION_SECRET", "CORS_ORIGIN", "APP_ENV", "LOG_LEVEL", "LOG_FORMAT", "SESSION_PURGE_SCHEDULE", "DIRECTORY_REQUIRE_SESSION")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "sqlite://./users.db", cfg.DatabaseURL)
	assert.Equal(t, devSessionSecret, cfg.SessionSecret)
	assert.Equal(t, "http://localhost:3000", cfg.CORSOrigin)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "@every 15m", cfg.SessionPurgeSchedule)
	assert.False(t, cfg.DirectoryRequireSession)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/users?sslmode=disable")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("CORS_ORIGIN", "https://app.example.com")
	t.Setenv("APP_ENV", "production")
	t.Setenv("DIRECTORY_REQUIRE_SESSION", "true")
	t.Setenv("SESSION_PURGE_SCHEDULE", "@hourly")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "postgres://u:p@db:5432/users?sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, "s3cret", cfg.SessionSecret)
	assert.Equal(t, "https://app.example.com", cfg.CORSOrigin)
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.DirectoryRequireSession)
	assert.Equal(t, "@hourly", cfg.SessionPurgeSchedule)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("PORT", "eighty")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DIRECTORY_REQUIRE_SESSION", "false")
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}
