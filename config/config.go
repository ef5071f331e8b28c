package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	BaseURL    string

	// Fitbit application credentials
	FitbitClientID     string
	FitbitClientSecret string

	// Pre-shared key protecting the API surface
	APIKey string

	// Storage configuration. StoreBackend selects between the embedded
	// database ("db") and Redis ("redis"). With "db", DBDriver selects
	// sqlite or postgres.
	StoreBackend string
	DBDriver     string
	SQLitePath   string
	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	DBSSLMode    string

	// Redis configuration (store backend and rate limiting)
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// Rate limit for meal logging, requests per hour. 0 disables.
	MealLogRateLimit int

	// Fitbit endpoint overrides, used by tests. Empty means the real
	// Fitbit endpoints.
	FitbitAPIBase  string
	FitbitAuthBase string
}

// LoadConfig creates a new Config instance with values from environment
// variables or Docker secrets
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerPort:         getEnv("SERVER_PORT", "3000"),
		BaseURL:            os.Getenv("BASE_URL"),
		FitbitClientID:     envOrSecret("FITBIT_CLIENT_ID", "fitbit_client_id"),
		FitbitClientSecret: envOrSecret("FITBIT_CLIENT_SECRET", "fitbit_client_secret"),
		APIKey:             envOrSecret("API_KEY", "api_key"),
		StoreBackend:       getEnv("STORE_BACKEND", "db"),
		DBDriver:           getEnv("DB_DRIVER", "sqlite"),
		SQLitePath:         getEnv("SQLITE_PATH", "app.db"),
		DBHost:             os.Getenv("DB_HOST"),
		DBPort:             os.Getenv("DB_PORT"),
		DBUser:             envOrSecret("DB_USER", "db_user"),
		DBPassword:         envOrSecret("DB_PASSWORD", "db_password"),
		DBName:             os.Getenv("DB_NAME"),
		DBSSLMode:          getEnv("DB_SSL_MODE", "disable"),
		RedisHost:          os.Getenv("REDIS_HOST"),
		RedisPort:          getEnv("REDIS_PORT", "6379"),
		RedisPassword:      envOrSecret("REDIS_PASSWORD", "redis_password"),
		RedisURL:           os.Getenv("REDIS_URL"),
		FitbitAPIBase:      os.Getenv("FITBIT_API_BASE"),
		FitbitAuthBase:     os.Getenv("FITBIT_AUTH_BASE"),
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		cfg.RedisDB = n
	}

	if v := os.Getenv("MEAL_LOG_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MEAL_LOG_RATE_LIMIT %q: %w", v, err)
		}
		cfg.MealLogRateLimit = n
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// getEnv returns the environment variable value or a default
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envOrSecret reads a value from the environment, falling back to a Docker
// secret file of the given name
func envOrSecret(envKey, secretName string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return readSecret(secretName)
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
