package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"primesum/internal/driver"
	"primesum/internal/registry"
)

// =============================================================================
// UNIFIED CONFIG TESTS
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, []int64{7, 13, 31, 61, 211, 421}, cfg.Search.Bases)
	assert.Equal(t, int64(1_000_000_000), cfg.Search.PrimeRangeEnd)
	assert.Equal(t, "first-wins", cfg.Search.Policy)
	assert.Equal(t, runtime.NumCPU(), cfg.Search.Workers)
	assert.Equal(t, "text", cfg.Report.Format)
	require.NoError(t, cfg.Validate())
}

func TestConfig_SaveLoad(t *testing.T) {
	t.Setenv("PRIMESUM_WORKERS", "")
	t.Setenv("PRIMESUM_POLICY", "")

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "primesum.yaml")

	cfg := DefaultConfig()
	cfg.Search.Bases = []int64{10}
	cfg.Search.Policy = "collect-all"
	cfg.Search.Workers = 3
	cfg.Metrics.Addr = ":9109"

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []int64{10}, loaded.Search.Bases)
	assert.Equal(t, "collect-all", loaded.Search.Policy)
	assert.Equal(t, 3, loaded.Search.Workers)
	assert.Equal(t, ":9109", loaded.Metrics.Addr)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Search.Bases, cfg.Search.Bases)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("search: [unclosed"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoadBaseRangeReplacesDefaultBases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.yaml")
	content := `search:
  prime_range_end: 5000
  base_range:
    from: 20
    to: 25
  policy: lowest
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Nil(t, cfg.Search.Bases)

	opts, err := cfg.Search.Options()
	require.NoError(t, err)
	assert.Equal(t, []int64{20, 21, 22, 23, 24, 25}, opts.Bases)
	assert.Equal(t, registry.Lowest, opts.Policy)
	assert.Equal(t, int64(5000), opts.PrimeRangeEnd)
	assert.Equal(t, int64(1), opts.PrimeRangeStart)
}

func TestLoadBasesAndRangeCombine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mixed.yaml")
	content := `search:
  bases: [7, 421]
  base_range: {from: 2, to: 3}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	bases, err := cfg.Search.ResolvedBases()
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 421, 2, 3}, bases)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Report.Format = "xml"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Logging.Level = "verbose"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Logging.Format = "logfmt"
	assert.Error(t, cfg.Validate())
}

func TestPresets(t *testing.T) {
	base7, err := Preset(PresetBase7)
	require.NoError(t, err)
	assert.Equal(t, int64(10_000_000_000), base7.PrimeRangeEnd)
	assert.Equal(t, "collect-all", base7.Policy)

	sweep, err := Preset("SWEEP")
	require.NoError(t, err)
	opts, err := sweep.Options()
	require.NoError(t, err)
	assert.Len(t, opts.Bases, 3001)
	assert.Equal(t, int64(2000), opts.Bases[0])
	assert.Equal(t, int64(5000), opts.Bases[3000])
	assert.Equal(t, registry.FirstWins, opts.Policy)

	special, err := Preset(PresetSpecial)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 13, 31, 61, 211, 421}, special.Bases)

	_, err = Preset("base8")
	assert.Error(t, err)
}

func TestSearchOptionsInvalid(t *testing.T) {
	tests := map[string]SearchConfig{
		"inverted base range": {PrimeRangeStart: 1, PrimeRangeEnd: 10, BaseRange: &BaseRange{From: 9, To: 3}, Workers: 1, Policy: "first-wins"},
		"huge base range":     {PrimeRangeStart: 1, PrimeRangeEnd: 10, BaseRange: &BaseRange{From: 2, To: 2 + MaxSweepBases}, Workers: 1, Policy: "first-wins"},
		"unknown policy":      {PrimeRangeStart: 1, PrimeRangeEnd: 10, Bases: []int64{7}, Workers: 1, Policy: "product-of-primes"},
		"base one":            {PrimeRangeStart: 1, PrimeRangeEnd: 10, Bases: []int64{1}, Workers: 1, Policy: "first-wins"},
		"no bases":            {PrimeRangeStart: 1, PrimeRangeEnd: 10, Workers: 1, Policy: "first-wins"},
		"no workers":          {PrimeRangeStart: 1, PrimeRangeEnd: 10, Bases: []int64{7}, Policy: "first-wins"},
	}
	for name, sc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := sc.Options()
			assert.ErrorIs(t, err, driver.ErrInvalidConfiguration)
		})
	}
}

func TestLoggingCategories(t *testing.T) {
	lc := LoggingConfig{}
	assert.True(t, lc.IsCategoryEnabled("search"))

	lc.Categories = map[string]bool{"search": false, "driver": true}
	assert.False(t, lc.IsCategoryEnabled("search"))
	assert.True(t, lc.IsCategoryEnabled("driver"))
	assert.True(t, lc.IsCategoryEnabled("report"))
}
