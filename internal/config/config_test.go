package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hazard-service/internal/store"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"ENVIRONMENT", "PORT", "STORE_DRIVER", "REDIS_DB", "JWT_TTL_HOURS", "RETENTION_MAX_AGE_DAYS", "CORS_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreFile, cfg.StoreDriver)
	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 30*24*time.Hour, cfg.RetentionMaxAge)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("CACHE_TTL_SECONDS", "not-a-number")
	t.Setenv("RETENTION_INTERVAL_MINUTES", "5")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")

	cfg := Load()

	assert.Equal(t, StoreMemory, cfg.StoreDriver)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, 300, cfg.CacheTTL)
	assert.Equal(t, 5*time.Minute, cfg.RetentionInterval)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestValidate(t *testing.T) {
	cfg := &Config{StoreDriver: "mongo"}
	assert.Error(t, cfg.Validate())

	cfg = &Config{StoreDriver: StoreMemory, Environment: "production", JWTSecret: "dev-secret-change-me"}
	assert.Error(t, cfg.Validate())

	cfg.JWTSecret = "real"
	assert.Error(t, cfg.Validate(), "default admin password in production")

	cfg.AdminPassword = "s3cret"
	assert.NoError(t, cfg.Validate())

	cfg.AdminPassword = ""
	cfg.SeedFile = "/etc/hazard/seed.yaml"
	assert.NoError(t, cfg.Validate())

	cfg.AuthRatePerMinute = 10
	assert.Error(t, cfg.Validate())
	cfg.AuthRateBurst = 3
	assert.NoError(t, cfg.Validate())
}

func TestOpenStore(t *testing.T) {
	s, err := OpenStore(&Config{StoreDriver: StoreMemory})
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, s)

	dir := t.TempDir()
	s, err = OpenStore(&Config{StoreDriver: StoreFile, DataDir: dir})
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), store.KeyHazards, []byte(`[]`)))

	_, err = OpenStore(&Config{StoreDriver: "mongo"})
	assert.Error(t, err)
}
