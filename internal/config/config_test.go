package config

import (
	"testing"

	"github.com/sjperalta/ordino-api/internal/reconciliation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/ordino")
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev-secret-change-in-production", cfg.JWTSecret)
	assert.Equal(t, 5, cfg.IntentSweepIntervalMinutes)
	assert.Equal(t, 15, cfg.IntentStaleAfterMinutes)
	assert.Empty(t, cfg.RedisURL)

	settings := cfg.Settings()
	assert.Equal(t, reconciliation.DefaultStatusEpsilon, settings.StatusEpsilon)
	assert.Equal(t, reconciliation.DefaultOverpaymentEpsilon, settings.OverpaymentEpsilon)
	assert.Empty(t, settings.CustomsOffices)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/ordino")
	t.Setenv("STATUS_EPSILON", "0.5")
	t.Setenv("OVERPAYMENT_EPSILON", "0.02")
	t.Setenv("CUSTOMS_OFFICES", "Mersin, Ambarli ,,Izmir")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := Load()
	require.NoError(t, err)

	settings := cfg.Settings()
	assert.Equal(t, 0.5, settings.StatusEpsilon)
	assert.Equal(t, 0.02, settings.OverpaymentEpsilon)
	assert.Equal(t, []string{"Mersin", "Ambarli", "Izmir"}, settings.CustomsOffices)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
}

func TestLoad_Validation(t *testing.T) {
	t.Run("database url required", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("jwt secret required in production", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/ordino")
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("JWT_SECRET", "")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("negative epsilon rejected", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/ordino")
		t.Setenv("STATUS_EPSILON", "-1")
		_, err := Load()
		assert.Error(t, err)
	})
}
