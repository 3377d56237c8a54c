package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sjperalta/ordino-api/internal/reconciliation"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port        string
	Environment string

	// Database
	DatabaseURL string

	// Redis (optional, idempotency keys)
	RedisURL              string
	IdempotencyTTLMinutes int

	// JWT
	JWTSecret string

	// Storage
	StoragePath string

	// Background Workers
	WorkerCount                int
	IntentSweepIntervalMinutes int
	IntentStaleAfterMinutes    int

	// CORS
	AllowedOrigins []string

	// Sentry
	SentryDSN string

	// Reconciliation
	StatusEpsilon      float64
	OverpaymentEpsilon float64
	CustomsOffices     []string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:                       getEnv("PORT", "8080"),
		Environment:                getEnv("ENVIRONMENT", "development"),
		DatabaseURL:                getEnv("DATABASE_URL", ""),
		RedisURL:                   getEnv("REDIS_URL", ""),
		IdempotencyTTLMinutes:      getEnvAsInt("IDEMPOTENCY_TTL_MINUTES", 24*60),
		JWTSecret:                  getEnv("JWT_SECRET", ""),
		StoragePath:                getEnv("STORAGE_PATH", "./storage"),
		WorkerCount:                getEnvAsInt("WORKER_COUNT", 5),
		IntentSweepIntervalMinutes: getEnvAsInt("INTENT_SWEEP_INTERVAL", 5),
		IntentStaleAfterMinutes:    getEnvAsInt("INTENT_STALE_AFTER", 15),
		AllowedOrigins:             getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
		SentryDSN:                  getEnv("SENTRY_DSN", ""),
		StatusEpsilon:              getEnvAsFloat("STATUS_EPSILON", reconciliation.DefaultStatusEpsilon),
		OverpaymentEpsilon:         getEnvAsFloat("OVERPAYMENT_EPSILON", reconciliation.DefaultOverpaymentEpsilon),
		CustomsOffices:             getEnvAsSlice("CUSTOMS_OFFICES", nil),
	}

	// Validate required configuration
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" && cfg.Environment == "production" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}

	// Set default JWT secret for development
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-change-in-production"
	}

	if cfg.StatusEpsilon < 0 || cfg.OverpaymentEpsilon < 0 {
		return nil, fmt.Errorf("STATUS_EPSILON and OVERPAYMENT_EPSILON must not be negative")
	}

	if cfg.IntentSweepIntervalMinutes <= 0 || cfg.IntentStaleAfterMinutes <= 0 {
		return nil, fmt.Errorf("INTENT_SWEEP_INTERVAL and INTENT_STALE_AFTER must be positive")
	}

	return cfg, nil
}

// Settings builds the reconciliation settings passed to the ledger
func (c *Config) Settings() reconciliation.Settings {
	return reconciliation.Settings{
		StatusEpsilon:      c.StatusEpsilon,
		OverpaymentEpsilon: c.OverpaymentEpsilon,
		CustomsOffices:     c.CustomsOffices,
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as integer
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat reads an environment variable as float
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice reads an environment variable as comma-separated slice
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
