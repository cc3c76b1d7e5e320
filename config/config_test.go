package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ratelimitcore/rlengine/ratelimiter"
)

func TestLoadDefaults(t *testing.T) {
	settings, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", settings.StoreHost)
	assert.Equal(t, 6379, settings.StorePort)
	assert.Equal(t, 0, settings.StoreDBIndex)
	assert.Equal(t, "0.0.0.0", settings.ListenHost)
	assert.Equal(t, 8080, settings.ListenPort)
	assert.Equal(t, ratelimiter.TokenBucket, settings.DefaultAlgorithm)
	assert.Equal(t, "info", settings.LogLevel)
	assert.Equal(t, "localhost:6379", settings.StoreAddr())
	assert.Equal(t, "0.0.0.0:8080", settings.ListenAddr())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("RATELIMITER_STORE_HOST", "redis.internal")
	t.Setenv("RATELIMITER_STORE_PORT", "6380")
	t.Setenv("RATELIMITER_DEFAULT_ALGORITHM", "leaky_bucket")
	t.Setenv("RATELIMITER_LOG_LEVEL", "debug")

	settings, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "redis.internal", settings.StoreHost)
	assert.Equal(t, 6380, settings.StorePort)
	assert.Equal(t, ratelimiter.LeakyBucket, settings.DefaultAlgorithm)
	assert.Equal(t, "debug", settings.LogLevel)
}

func TestLoadRejectsInvalidAlgorithm(t *testing.T) {
	t.Setenv("RATELIMITER_DEFAULT_ALGORITHM", "adaptive")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsInvalidLogLevel(t *testing.T) {
	t.Setenv("RATELIMITER_LOG_LEVEL", "trace")
	_, err := Load()
	assert.Error(t, err)
}

