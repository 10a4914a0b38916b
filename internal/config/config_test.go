package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cable-billing/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "APP_PORT", "SECRET_KEY", "DATABASE_URI", "AMQP_URL", "RABBITMQ_URL", "REDIS_ADDR", "REDIS_HOST"} {
		t.Setenv(k, "")
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "sqlite://site.db", cfg.DatabaseURI)
	assert.Equal(t, "a_very_secret_key_that_should_be_changed", cfg.SecretKey)
	assert.Equal(t, 720, cfg.AccessTTLMin)
	assert.Empty(t, cfg.AMQPURL)
	assert.Empty(t, cfg.Redis.Address())
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 6*time.Second, cfg.RateLimit.RefillInterval)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("DATABASE_URI", "mysql://u:p@db:3306/billing")
	t.Setenv("AMQP_URL", "")
	t.Setenv("RABBITMQ_URL", "amqp://guest:guest@mq:5672/")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1m")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "mysql://u:p@db:3306/billing", cfg.DatabaseURI)
	assert.Equal(t, "amqp://guest:guest@mq:5672/", cfg.AMQPURL)
	assert.Equal(t, "cache:6379", cfg.Redis.Address())
	assert.Equal(t, 1, cfg.RateLimit.Capacity)
	assert.Equal(t, 5*time.Minute, cfg.RateLimit.TTL)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("BCRYPT_COST", "twelve")
	_, err := config.Load()
	require.Error(t, err)
}
