package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, "stockpilot", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 3, cfg.Sync.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Sync.RetryBaseDelay)
	assert.Equal(t, 30*time.Second, cfg.Sync.PushTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Inventory.IdempotencyTTL)
	assert.False(t, cfg.Inventory.MultiWarehouse)
}

func TestValidate(t *testing.T) {
	newValid := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	t.Run("defaults are valid", func(t *testing.T) {
		require.NoError(t, newValid().validate())
	})

	t.Run("rejects idle conns above open conns", func(t *testing.T) {
		cfg := newValid()
		cfg.Database.MaxIdleConns = cfg.Database.MaxOpenConns + 1
		require.Error(t, cfg.validate())
	})

	t.Run("rejects zero max attempts", func(t *testing.T) {
		cfg := newValid()
		cfg.Sync.MaxAttempts = -1
		require.Error(t, cfg.validate())
	})

	t.Run("rejects base delay above max delay", func(t *testing.T) {
		cfg := newValid()
		cfg.Sync.RetryBaseDelay = 2 * time.Minute
		cfg.Sync.RetryMaxDelay = time.Minute
		require.Error(t, cfg.validate())
	})

	t.Run("production requires database password and ssl", func(t *testing.T) {
		cfg := newValid()
		cfg.App.Env = "production"
		require.Error(t, cfg.validate())

		cfg.Database.Password = "secret"
		require.Error(t, cfg.validate(), "sslmode still disabled")

		cfg.Database.SSLMode = "require"
		require.NoError(t, cfg.validate())
	})

	t.Run("production requires credentials for enabled platforms", func(t *testing.T) {
		cfg := newValid()
		cfg.App.Env = "production"
		cfg.Database.Password = "secret"
		cfg.Database.SSLMode = "require"
		cfg.Platforms.Shopify.Enabled = true
		require.Error(t, cfg.validate())

		cfg.Platforms.Shopify.AccessToken = "shpat_xxx"
		require.NoError(t, cfg.validate())
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "app",
		Password: "p@ss/word",
		DBName:   "stock",
		SSLMode:  "require",
	}

	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.internal:5433")
	assert.Contains(t, dsn, "sslmode=require")
	// Password must be escaped, not embedded raw.
	assert.NotContains(t, dsn, "p@ss/word")
}

func TestRedisConfig_RedisAddr(t *testing.T) {
	r := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", r.RedisAddr())
}
