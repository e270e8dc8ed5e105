package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "sqlite", cfg.Cache.Backend)
	assert.Equal(t, 720, cfg.Cache.PositiveTTLHours)
	assert.Equal(t, 6, cfg.Cache.NegativeTTLHours)
	assert.InDelta(t, 0.7, cfg.Gate.MinConfidence, 1e-9)
	assert.InDelta(t, 0.7, cfg.Gate.MinEvidenceWeight, 1e-9)
	assert.Equal(t, 1, cfg.Gate.MinSources)
	assert.Equal(t, 4, cfg.Resolver.MaxConcurrentFields)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("VEHICLEFACTS_SERVER_PORT", "9090")
	t.Setenv("VEHICLEFACTS_CACHE_BACKEND", "redis")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Cache.Backend)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "json"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "console"}))
	assert.Error(t, InitLogger(LogConfig{Level: "shouting", Format: "json"}))
}
