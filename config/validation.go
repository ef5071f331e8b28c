package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks that required values are present and that the
// storage selection is coherent
func ValidateConfig(cfg *Config) error {
	var errors []string

	required := map[string]string{
		"BASE_URL":             cfg.BaseURL,
		"FITBIT_CLIENT_ID":     cfg.FitbitClientID,
		"FITBIT_CLIENT_SECRET": cfg.FitbitClientSecret,
		"API_KEY":              cfg.APIKey,
	}
	for name, value := range required {
		if value == "" {
			errors = append(errors, fmt.Sprintf("required configuration %s is not set", name))
		}
	}

	switch cfg.StoreBackend {
	case "db":
		switch cfg.DBDriver {
		case "sqlite":
			if cfg.SQLitePath == "" {
				errors = append(errors, "SQLITE_PATH is required with the sqlite driver")
			}
		case "postgres":
			for name, value := range map[string]string{
				"DB_HOST": cfg.DBHost,
				"DB_PORT": cfg.DBPort,
				"DB_USER": cfg.DBUser,
				"DB_NAME": cfg.DBName,
			} {
				if value == "" {
					errors = append(errors, fmt.Sprintf("%s is required with the postgres driver", name))
				}
			}
		default:
			errors = append(errors, fmt.Sprintf("unknown DB_DRIVER %q (want sqlite or postgres)", cfg.DBDriver))
		}
	case "redis":
		if cfg.RedisURL == "" && cfg.RedisHost == "" {
			errors = append(errors, "REDIS_URL or REDIS_HOST is required with the redis store backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("unknown STORE_BACKEND %q (want db or redis)", cfg.StoreBackend))
	}

	if cfg.MealLogRateLimit > 0 && cfg.RedisURL == "" && cfg.RedisHost == "" {
		errors = append(errors, "MEAL_LOG_RATE_LIMIT requires Redis configuration")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}
