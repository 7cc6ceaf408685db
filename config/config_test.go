package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("PERMISSION_RESTORE_INTERVAL", "")
	t.Setenv("REDIS_ENABLED", "")

	cfg := Load()

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "ECommerce", cfg.Business.DefaultPosName)
	assert.Equal(t, 24*time.Hour, cfg.Business.PermissionRestoreInterval)
	assert.True(t, cfg.Business.PermissionRestoreOnStart)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("PERMISSION_RESTORE_INTERVAL", "1h")
	t.Setenv("PERMISSION_RESTORE_ON_START", "false")
	t.Setenv("PRODUCT_CACHE_TTL", "not-a-duration")
	t.Setenv("REDIS_ENABLED", "false")
	t.Setenv("KAFKA_ENABLED", "0")

	cfg := Load()

	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, time.Hour, cfg.Business.PermissionRestoreInterval)
	assert.False(t, cfg.Business.PermissionRestoreOnStart)
	assert.Equal(t, 10*time.Minute, cfg.Redis.ProductCacheTTL)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Kafka.Enabled)
}

func TestLoadRejectsNonPositiveRestoreInterval(t *testing.T) {
	for _, value := range []string{"0s", "-1h"} {
		t.Setenv("PERMISSION_RESTORE_INTERVAL", value)

		cfg := Load()

		assert.Equal(t, 24*time.Hour, cfg.Business.PermissionRestoreInterval, value)
	}
}
