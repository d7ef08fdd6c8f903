package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, 100, cfg.Voice.MaxQuantity)
	assert.Equal(t, 10, cfg.Resolver.CandidateLimit)
	assert.Equal(t, 3, cfg.Substitutes.MinTokenLength)
	assert.True(t, cfg.Pricing.CacheResults)

	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9090
database:
  driver: postgres
  postgres:
    dsn: postgres://localhost/freshcart
voice:
  max_quantity: 50
pricing:
  cache_ttl: 5m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/freshcart", cfg.DatabaseDSN())
	assert.Equal(t, 50, cfg.Voice.MaxQuantity)
	assert.Equal(t, 5*time.Minute, cfg.Pricing.CacheTTL)
	assert.False(t, cfg.IsDevelopment())

	// Untouched sections keep their defaults.
	assert.Equal(t, "memory", cfg.Cache.Driver)
	assert.Equal(t, 10, cfg.Resolver.DisplayLimit)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("DATABASE_URL", "sqlite:/tmp/test.db")
	t.Setenv("VOICE_MAX_QUANTITY", "25")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/test.db", cfg.DatabaseDSN())
	assert.Equal(t, 25, cfg.Voice.MaxQuantity)
	assert.Equal(t, "warn", cfg.Observability.LogLevel)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port too low", func(c *Config) { c.Server.Port = 0 }},
		{"unknown database driver", func(c *Config) { c.Database.Driver = "oracle" }},
		{"unknown cache driver", func(c *Config) { c.Cache.Driver = "disk" }},
		{"zero max quantity", func(c *Config) { c.Voice.MaxQuantity = 0 }},
		{"candidate limit too high", func(c *Config) { c.Resolver.CandidateLimit = 500 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}
