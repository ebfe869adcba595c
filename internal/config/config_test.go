package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("SESSION_STORE", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("AUTH_COOKIE_NAME", "")
	t.Setenv("PASSWORD_HASH_ITERATIONS", "")

	cfg := Load()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "taskflow_sid", cfg.AuthCookieName)
	assert.Equal(t, 1, cfg.PasswordHashIterations)
	assert.Equal(t, SessionStoreDatabase, cfg.SessionStore)
	assert.Equal(t, 336, cfg.SessionTTLHours)
	assert.False(t, cfg.IsProduction())
}

func TestLoadSessionStoreRedis(t *testing.T) {
	t.Setenv("SESSION_STORE", "REDIS")
	t.Setenv("REDIS_DB", "3")

	cfg := Load()
	assert.Equal(t, SessionStoreRedis, cfg.SessionStore)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestProductionForcesSecureCookie(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("AUTH_COOKIE_SECURE", "false")

	cfg := Load()
	assert.True(t, cfg.AuthCookieSecure)
}

func TestAnalyticsConfig(t *testing.T) {
	t.Run("defaults without file", func(t *testing.T) {
		t.Chdir(t.TempDir())

		holder, err := NewAnalyticsConfigHolder()
		require.NoError(t, err)
		assert.Equal(t, 7, holder.Get().DefaultWindowDays)
		assert.Equal(t, time.UTC, holder.Get().Location())
	})

	t.Run("nil holder falls back", func(t *testing.T) {
		var holder *AnalyticsConfigHolder
		assert.Equal(t, DefaultAnalyticsConfig(), holder.Get())
	})

	t.Run("invalid timezone rejected", func(t *testing.T) {
		err := validateAnalyticsConfig(AnalyticsConfig{DefaultWindowDays: 7, Timezone: "Mars/Olympus"})
		assert.Error(t, err)
	})

	t.Run("location resolves zone", func(t *testing.T) {
		cfg := AnalyticsConfig{Timezone: "Asia/Jakarta"}
		assert.Equal(t, "Asia/Jakarta", cfg.Location().String())
	})
}
