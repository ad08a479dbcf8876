package config

import (
	"testing"

	"github.com/creasty/defaults"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := &Config{}
	require.NoError(t, defaults.Set(cfg))
	cfg.TwelveAPIKey = "test-key"
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := validConfig(t)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 4, cfg.RequiredVotes)
	assert.Equal(t, 0.80, cfg.ConfidenceThreshold)
	assert.Equal(t, 0.0006, cfg.ATRFloor)
	assert.Equal(t, 5, cfg.CooldownMinutes)
	assert.Equal(t, 7, cfg.GlobalMinGapMinutes)
	assert.Equal(t, 6, cfg.MaxEmissionsPerHour)
	assert.Equal(t, 3, cfg.LossStreakLimit)
	assert.Equal(t, "confluence", cfg.Strategy)
	assert.Equal(t, "5min", cfg.Interval)
	assert.Len(t, cfg.Watchlist, 5)
	assert.False(t, cfg.HistoryEnabled())
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"requiredVotes above four", func(c *Config) { c.RequiredVotes = 5 }},
		{"requiredVotes zero", func(c *Config) { c.RequiredVotes = 0 }},
		{"negative cooldown", func(c *Config) { c.CooldownMinutes = -1 }},
		{"confidence above one", func(c *Config) { c.ConfidenceThreshold = 1.2 }},
		{"negative atr floor", func(c *Config) { c.ATRFloor = -0.1 }},
		{"unknown strategy", func(c *Config) { c.Strategy = "martingale" }},
		{"unknown mode", func(c *Config) { c.Mode = "everything" }},
		{"empty watchlist", func(c *Config) { c.Watchlist = nil }},
		{"oversized watchlist", func(c *Config) {
			c.Watchlist = []string{"A", "B", "C", "D", "E", "F"}
		}},
		{"zero hourly cap", func(c *Config) { c.MaxEmissionsPerHour = 0 }},
		{"no api keys", func(c *Config) { c.TwelveAPIKey = "" }},
		{"fetch timeout exceeds interval", func(c *Config) {
			c.FetchTimeoutSeconds = 400
			c.ScanIntervalSeconds = 300
		}},
		{"blank instrument", func(c *Config) { c.Watchlist = []string{" "} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadRejectsMalformedEnv(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"non-numeric cooldown", "COOLDOWN_MINUTES", "five"},
		{"non-numeric threshold", "CONFIDENCE_THRESHOLD", "eighty%"},
		{"non-numeric atr floor", "ATR_FLOOR", "low"},
		{"non-boolean economy", "ECONOMY", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TWELVE_API_KEY", "test-key")
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}

	t.Run("well-formed values are applied", func(t *testing.T) {
		t.Setenv("TWELVE_API_KEY", "test-key")
		t.Setenv("COOLDOWN_MINUTES", "9")
		t.Setenv("ECONOMY", "true")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 9, cfg.CooldownMinutes)
		assert.True(t, cfg.Economy)
	})
}

func TestSplitList(t *testing.T) {
	assert.Equal(t,
		[]string{"EURUSD-OTC", "GBPUSD-OTC"},
		splitList("eurusd-otc, gbpusd-otc"))
	assert.Equal(t,
		[]string{"EURUSD-OTC", "GBPUSD-OTC"},
		splitList("EURUSD-OTC GBPUSD-OTC"))
}

func TestDurationHelpers(t *testing.T) {
	cfg := validConfig(t)
	assert.Equal(t, "5m0s", cfg.Cooldown().String())
	assert.Equal(t, "7m0s", cfg.GlobalMinGap().String())
	assert.Equal(t, "5m0s", cfg.ScanInterval().String())
	assert.Equal(t, "12s", cfg.FetchTimeout().String())
}
