package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CART_STORAGE", "")
	t.Setenv("CART_IDLE_TIMEOUT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageRedis, cfg.Cart.Storage)
	assert.Equal(t, 24*time.Hour, cfg.Cart.IdleTimeout)
	assert.Equal(t, 24*time.Hour+7*24*time.Hour, cfg.Cart.PersistTTL)
	assert.Equal(t, "@every 15m", cfg.Cart.SweepSchedule)
	assert.Equal(t, "cart_session", cfg.Cart.CookieName)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CART_STORAGE", "Postgres")
	t.Setenv("CART_IDLE_TIMEOUT", "2h")
	t.Setenv("ALLOWED_ORIGINS", "https://a.test, https://b.test,")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("CART_SECURE_COOKIE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoragePostgres, cfg.Cart.Storage)
	assert.Equal(t, 2*time.Hour, cfg.Cart.IdleTimeout)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.True(t, cfg.Cart.SecureCookie)
}

func TestLoad_InvalidStorage(t *testing.T) {
	t.Setenv("CART_STORAGE", "localstorage")

	_, err := Load()
	assert.ErrorContains(t, err, "CART_STORAGE")
}

func TestParseDuration_Fallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("-5s", time.Minute))
	assert.Equal(t, 5*time.Second, parseDuration("5s", time.Minute))
}
