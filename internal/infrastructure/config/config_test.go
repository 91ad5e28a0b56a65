package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultRecipeAPIURL, cfg.RecipeAPI.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.RecipeAPI.Timeout)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, CacheBackendMemory, cfg.Cache.Backend)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowOrigins)
	assert.Equal(t, time.Second, cfg.DedupWindow)
	require.NoError(t, validateConfig(cfg))
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("RECIPE_API_URL", "http://localhost:9000/api")
	t.Setenv("CACHE_ENABLED", "true")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("DEDUP_WINDOW", "250ms")
	t.Setenv("APP_SESSION_MAX_SESSIONS", "7")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9000/api", cfg.RecipeAPI.BaseURL)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, CacheBackendRedis, cfg.Cache.Backend)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 250*time.Millisecond, cfg.DedupWindow)
	assert.Equal(t, 7, cfg.Session.MaxSessions)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "bad base url",
			mutate:  func(c *Config) { c.RecipeAPI.BaseURL = "not a url" },
			wantErr: "invalid recipe api base url",
		},
		{
			name:    "zero port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server port is required",
		},
		{
			name: "unknown cache backend",
			mutate: func(c *Config) {
				c.Cache.Enabled = true
				c.Cache.Backend = "memcached"
			},
			wantErr: "unknown cache backend",
		},
		{
			name: "redis without addr",
			mutate: func(c *Config) {
				c.Cache.Enabled = true
				c.Cache.Backend = CacheBackendRedis
				c.Redis.Addr = ""
			},
			wantErr: "redis addr is required",
		},
		{
			name:    "no sessions",
			mutate:  func(c *Config) { c.Session.MaxSessions = 0 },
			wantErr: "invalid session max sessions",
		},
		{
			name: "rate limit without window",
			mutate: func(c *Config) {
				c.RateLimit.Enabled = true
				c.RateLimit.Window = 0
			},
			wantErr: "invalid rate limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
