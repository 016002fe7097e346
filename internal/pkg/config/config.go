package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/LukasBrandt/ShopCore/internal/pkg/env"
)

// AppConfig holds the process-wide settings resolved once at startup.
// UploadsRoot is intentionally absent: the storage package resolves it
// from the deployment root so the reconcile CLI and the server agree on
// the same directory regardless of working directory.
type AppConfig struct {
	AppHost    string `validate:"required"`
	AppPort    string `validate:"required,numeric"`
	APIBaseURL string `validate:"required,url"`

	DBUser     string `validate:"required"`
	DBPassword string
	DBHost     string `validate:"required"`
	DBPort     string `validate:"required,numeric"`
	DBName     string `validate:"required"`
}

var validate = validator.New()

// Load reads the configuration from the environment and validates it.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		AppHost:    env.GetEnv("APP_HOST", "localhost"),
		AppPort:    env.GetEnv("APP_PORT", "4100"),
		APIBaseURL: env.GetEnv("API_BASE_URL", "http://localhost:4100"),
		DBUser:     env.GetEnv("DB_USER", "shopcore"),
		DBPassword: env.GetEnv("DB_PASSWORD", ""),
		DBHost:     env.GetEnv("DB_HOST", "127.0.0.1"),
		DBPort:     env.GetEnv("DB_PORT", "3306"),
		DBName:     env.GetEnv("DB_NAME", "shopcore_db"),
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
