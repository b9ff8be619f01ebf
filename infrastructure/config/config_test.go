package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "feelings", cfg.DynamoDBTable)
	assert.Equal(t, 50, cfg.GlobalCacheSize)
	assert.Equal(t, 20, cfg.FeedPageSize)
	assert.Equal(t, 3, cfg.QueueMaxAttempts)
	assert.Equal(t, 3*time.Second, cfg.AuthWaitTimeout)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("TABLE_NAME", "feelings-prod")
	t.Setenv("GLOBAL_CACHE_SIZE", "100")
	t.Setenv("AUTH_WAIT_TIMEOUT", "10s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "feelings-prod", cfg.DynamoDBTable)
	assert.Equal(t, 100, cfg.GlobalCacheSize)
	assert.Equal(t, 10*time.Second, cfg.AuthWaitTimeout)
	assert.True(t, cfg.IsProduction())
}

func TestLoadConfig_MalformedIntFallsBackToDefault(t *testing.T) {
	t.Setenv("GLOBAL_CACHE_SIZE", "lots")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.GlobalCacheSize)
}

func TestValidate_RejectsBadValues(t *testing.T) {
	cfg := &Config{DynamoDBTable: "", GlobalCacheSize: 50, QueueMaxAttempts: 3}
	assert.Error(t, cfg.Validate())

	cfg = &Config{DynamoDBTable: "t", GlobalCacheSize: 0, QueueMaxAttempts: 3}
	assert.Error(t, cfg.Validate())

	cfg = &Config{DynamoDBTable: "t", GlobalCacheSize: 50, QueueMaxAttempts: 0}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Environment: "production", DynamoDBTable: "t", GlobalCacheSize: 50, QueueMaxAttempts: 3, RedisURL: ""}
	assert.Error(t, cfg.Validate())
}
