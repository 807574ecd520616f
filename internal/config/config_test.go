package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"APP_PORT", "SESSION_IDLE_TTL", "COOKIE_SECURE", "REDIS_DB", "CHECKOUT_VALIDATION"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTTL)
	assert.Equal(t, 24*time.Hour, cfg.SessionAbsoluteTTL)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, "fail_fast", cfg.CheckoutValidation)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9000")
	t.Setenv("SESSION_IDLE_TTL", "5m")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("SEED_CATALOG", "true")
	t.Setenv("CHECKOUT_VALIDATION", "collect_all")

	cfg := Load()

	assert.Equal(t, "9000", cfg.AppPort)
	assert.Equal(t, 5*time.Minute, cfg.SessionIdleTTL)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.SeedCatalog)
	assert.Equal(t, "collect_all", cfg.CheckoutValidation)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("SESSION_ABSOLUTE_TTL", "forever")
	t.Setenv("REDIS_DB", "x")

	cfg := Load()

	assert.Equal(t, 24*time.Hour, cfg.SessionAbsoluteTTL)
	assert.Equal(t, 0, cfg.RedisDB)
}
