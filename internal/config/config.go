package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnv      = "development"
	defaultDBPath   = "./dev.db"
	defaultPort     = "8080"
	defaultLogLevel = "info"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env            string
	LogLevel       string
	AdminEmail     string
	AdminPassword  string
	SessionSecret  string
	DBPath         string
	Port           string
	ConfigCacheTTL time.Duration
	MetricsEnabled bool
}

// Load reads environment variables and returns a populated Config.
// Values from a local .env file fill in variables that are not already set.
func Load(envFiles ...string) Config {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// Missing files are fine; production injects real environment variables.
		_ = godotenv.Load(f)
	}

	cfg := Config{
		Env:            getEnv("ENV", defaultEnv),
		LogLevel:       getEnv("LOG_LEVEL", defaultLogLevel),
		AdminEmail:     os.Getenv("ADMIN_EMAIL"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		SessionSecret:  os.Getenv("SESSION_SECRET"),
		DBPath:         getEnv("DB_PATH", defaultDBPath),
		Port:           getEnv("PORT", defaultPort),
		ConfigCacheTTL: getEnvDuration("CONFIG_CACHE_TTL", 0),
		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
	}

	return cfg
}

// IsDev reports whether the application runs in development mode.
func (c Config) IsDev() bool {
	return c.Env == defaultEnv
}

// Warn logs the settings that are missing but not fatal.
func (c Config) Warn(logger *slog.Logger) {
	if c.AdminEmail == "" {
		logger.Warn("ADMIN_EMAIL is not set")
	}
	if c.AdminPassword == "" {
		logger.Warn("ADMIN_PASSWORD is not set")
	}
	if c.SessionSecret == "" {
		logger.Warn("SESSION_SECRET is not set")
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
