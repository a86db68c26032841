package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverrides_Search(t *testing.T) {
	t.Run("PRIMESUM_WORKERS sets worker count", func(t *testing.T) {
		t.Setenv("PRIMESUM_WORKERS", "12")

		cfg := DefaultConfig()
		require.NoError(t, cfg.applyEnvOverrides())
		assert.Equal(t, 12, cfg.Search.Workers)
	})

	t.Run("PRIMESUM_WORKERS rejects garbage", func(t *testing.T) {
		t.Setenv("PRIMESUM_WORKERS", "many")

		cfg := DefaultConfig()
		assert.Error(t, cfg.applyEnvOverrides())
	})

	t.Run("PRIMESUM_RANGE_END accepts digit separators", func(t *testing.T) {
		t.Setenv("PRIMESUM_RANGE_END", "10_000_000_000")

		cfg := DefaultConfig()
		require.NoError(t, cfg.applyEnvOverrides())
		assert.Equal(t, int64(10_000_000_000), cfg.Search.PrimeRangeEnd)
	})

	t.Run("PRIMESUM_POLICY overrides file value", func(t *testing.T) {
		t.Setenv("PRIMESUM_POLICY", "collect-all")

		cfg := &Config{Search: SearchConfig{Policy: "first-wins"}}
		require.NoError(t, cfg.applyEnvOverrides())
		assert.Equal(t, "collect-all", cfg.Search.Policy)
	})

	t.Run("Unset variables leave config alone", func(t *testing.T) {
		t.Setenv("PRIMESUM_WORKERS", "")
		t.Setenv("PRIMESUM_POLICY", "")
		t.Setenv("PRIMESUM_RANGE_END", "")
		t.Setenv("PRIMESUM_LOG_LEVEL", "")

		cfg := DefaultConfig()
		want := *DefaultConfig()
		require.NoError(t, cfg.applyEnvOverrides())
		assert.Equal(t, want, *cfg)
	})
}

func TestEnvOverrides_Logging(t *testing.T) {
	t.Setenv("PRIMESUM_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.applyEnvOverrides())
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("PRIMESUM_WORKERS", "2")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Search.Workers)
}
