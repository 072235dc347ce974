package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const devSessionSecret = "dev-session-secret-change-me"

// Config holds the application configuration.
type Config struct {
	ServerPort    int
	DatabaseURL   string // postgres://... or sqlite://<path>
	SessionSecret string
	CORSOrigin    string // The single frontend origin allowed for HTTP routes
	Environment   string
	LogLevel      string
	LogFormat     string

	// SessionPurgeSchedule is a cron spec for removing expired session rows.
	SessionPurgeSchedule string

	// DirectoryRequireSession gates the /users and /user/{id} routes behind a login.
	DirectoryRequireSession bool
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is read first when present.
func Load() (*Config, error) {
	// Missing .env is fine, real environment wins either way.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil {
		return nil, err
	}

	requireSession, err := strconv.ParseBool(getEnv("DIRECTORY_REQUIRE_SESSION", "false"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:              port,
		DatabaseURL:             getEnv("DATABASE_URL", "sqlite://./users.db"),
		SessionSecret:           getEnv("SESSION_SECRET", ""),
		CORSOrigin:              getEnv("CORS_ORIGIN", "http://localhost:3000"),
		Environment:             getEnv("APP_ENV", "development"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFormat:               getEnv("LOG_FORMAT", "console"),
		SessionPurgeSchedule:    getEnv("SESSION_PURGE_SCHEDULE", "@every 15m"),
		DirectoryRequireSession: requireSession,
	}

	if cfg.SessionSecret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("SESSION_SECRET must be set in production")
		}
		cfg.SessionSecret = devSessionSecret
	}

	return cfg, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
