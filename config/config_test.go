package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 1000, cfg.Bars)
	assert.Equal(t, 30*time.Millisecond, cfg.PaceDelay)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 5250.0, cfg.StartPrice)
	assert.Equal(t, -500.0, cfg.MaxDailyLoss)
	assert.Equal(t, 5, cfg.MaxConsecutiveLosses)
	assert.Equal(t, "scalper:events", cfg.RedisStream)
	assert.Equal(t, "results.json", cfg.ReportPath)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SCALPER_BARS", "250")
	t.Setenv("SCALPER_SLOW", "true")
	t.Setenv("SCALPER_PACE_DELAY", "5ms")
	t.Setenv("SCALPER_MAX_TRADES", "7")
	t.Setenv("SCALPER_SEED", "7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Bars)
	assert.True(t, cfg.Slow)
	assert.Equal(t, int64(7), cfg.Seed)

	ec := cfg.EngineConfig()
	assert.Equal(t, 250, ec.Bars)
	assert.Equal(t, 5*time.Millisecond, ec.Pace)
	assert.Equal(t, 7, ec.Risk.MaxTrades)
	assert.Equal(t, 0.25, ec.Contract.TickSize)

	p := cfg.SimParams(99)
	assert.Equal(t, int64(99), p.Seed)
	assert.Equal(t, 20, p.TicksPerBar)
}

func TestLoad_BadValue(t *testing.T) {
	t.Setenv("SCALPER_BARS", "lots")
	_, err := Load()
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestEngineConfig_FastModeHasNoPace(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.EngineConfig().Pace)
}

func TestValidate(t *testing.T) {
	base, err := Load()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero bars", func(c *Config) { c.Bars = 0 }},
		{"zero tick", func(c *Config) { c.TickSize = 0 }},
		{"positive daily loss", func(c *Config) { c.MaxDailyLoss = 100 }},
		{"positive trade loss", func(c *Config) { c.MaxPerTradeLoss = 0 }},
		{"no trades", func(c *Config) { c.MaxTrades = 0 }},
		{"no loss streak", func(c *Config) { c.MaxConsecutiveLosses = 0 }},
		{"mean reversion above one", func(c *Config) { c.MeanReversion = 1.5 }},
		{"negative commission", func(c *Config) { c.Commission = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
