package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all primesum configuration.
type Config struct {
	// Search parameters handed to the driver
	Search SearchConfig `yaml:"search"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Per-base result output
	Report ReportConfig `yaml:"report"`

	// Prometheus endpoint
	Metrics MetricsConfig `yaml:"metrics"`
}

// ReportConfig selects how per-base records are printed.
type ReportConfig struct {
	Format string `yaml:"format"` // text, json
}

// MetricsConfig configures the optional /metrics listener.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the listener
}

// DefaultConfig returns the default configuration: the curated special-base
// run over the first billion integers.
func DefaultConfig() *Config {
	search, _ := Preset(PresetSpecial)
	return &Config{
		Search: search,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Report: ReportConfig{
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := decode(data, cfg); err != nil {
				return nil, err
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode overlays the YAML document onto cfg. A file that declares only a
// base_range replaces the default base list instead of appending to it.
func decode(data []byte, cfg *Config) error {
	var probe struct {
		Search struct {
			Bases     []int64    `yaml:"bases"`
			BaseRange *BaseRange `yaml:"base_range"`
		} `yaml:"search"`
	}
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if probe.Search.BaseRange != nil && probe.Search.Bases == nil {
		cfg.Search.Bases = nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("PRIMESUM_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PRIMESUM_WORKERS: %w", err)
		}
		c.Search.Workers = n
	}
	if v := os.Getenv("PRIMESUM_RANGE_END"); v != "" {
		n, err := strconv.ParseInt(strings.ReplaceAll(v, "_", ""), 10, 64)
		if err != nil {
			return fmt.Errorf("PRIMESUM_RANGE_END: %w", err)
		}
		c.Search.PrimeRangeEnd = n
	}
	if v := os.Getenv("PRIMESUM_POLICY"); v != "" {
		c.Search.Policy = v
	}
	if v := os.Getenv("PRIMESUM_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// ValidReportFormats lists the accepted report.format values.
var ValidReportFormats = []string{"text", "json"}

// Validate validates the ambient sections. Search parameters are validated
// by the driver when the run is built.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return err
	}

	validFormat := false
	for _, f := range ValidReportFormats {
		if c.Report.Format == f {
			validFormat = true
			break
		}
	}
	if !validFormat {
		return fmt.Errorf("invalid report format: %s (valid: %v)", c.Report.Format, ValidReportFormats)
	}
	return nil
}
