package config

import (
	"fmt"
	"runtime"
	"strings"

	"primesum/internal/driver"
	"primesum/internal/registry"
)

// Preset names for the canned runs.
const (
	PresetBase7   = "base7"
	PresetSweep   = "sweep"
	PresetSpecial = "special"
)

// MaxSweepBases caps how many bases a base_range may expand to.
const MaxSweepBases = 1 << 20

// SearchConfig configures which integers and bases are searched.
type SearchConfig struct {
	PrimeRangeStart int64 `yaml:"prime_range_start"`
	PrimeRangeEnd   int64 `yaml:"prime_range_end"`

	// Explicit bases, searched in order.
	Bases []int64 `yaml:"bases,omitempty"`

	// Inclusive base sweep appended after Bases.
	BaseRange *BaseRange `yaml:"base_range,omitempty"`

	// Workers per base; defaults to the number of CPUs.
	Workers int `yaml:"workers"`

	// first-wins, collect-all, lowest
	Policy string `yaml:"policy"`
}

// BaseRange is an inclusive sweep of consecutive bases.
type BaseRange struct {
	From int64 `yaml:"from"`
	To   int64 `yaml:"to"`
}

// Preset returns the search parameters of a canned run.
func Preset(name string) (SearchConfig, error) {
	workers := runtime.NumCPU()
	switch strings.ToLower(name) {
	case PresetBase7:
		// Every violation in base 7 up to ten billion.
		return SearchConfig{
			PrimeRangeStart: 1,
			PrimeRangeEnd:   10_000_000_000,
			Bases:           []int64{7},
			Workers:         workers,
			Policy:          registry.CollectAll.String(),
		}, nil
	case PresetSweep:
		return SearchConfig{
			PrimeRangeStart: 1,
			PrimeRangeEnd:   1_000_000_000,
			BaseRange:       &BaseRange{From: 2000, To: 5000},
			Workers:         workers,
			Policy:          registry.FirstWins.String(),
		}, nil
	case PresetSpecial:
		return SearchConfig{
			PrimeRangeStart: 1,
			PrimeRangeEnd:   1_000_000_000,
			Bases:           []int64{7, 13, 31, 61, 211, 421},
			Workers:         workers,
			Policy:          registry.FirstWins.String(),
		}, nil
	default:
		return SearchConfig{}, fmt.Errorf("unknown preset %q (valid: %s, %s, %s)",
			name, PresetBase7, PresetSweep, PresetSpecial)
	}
}

// ResolvedBases returns Bases followed by the expansion of BaseRange.
func (s SearchConfig) ResolvedBases() ([]int64, error) {
	bases := append([]int64(nil), s.Bases...)
	if s.BaseRange == nil {
		return bases, nil
	}

	r := s.BaseRange
	if r.To < r.From {
		return nil, fmt.Errorf("%w: base_range to (%d) precedes from (%d)",
			driver.ErrInvalidConfiguration, r.To, r.From)
	}
	if r.To-r.From >= MaxSweepBases {
		return nil, fmt.Errorf("%w: base_range spans more than %d bases",
			driver.ErrInvalidConfiguration, MaxSweepBases)
	}
	for b := r.From; b <= r.To; b++ {
		bases = append(bases, b)
	}
	return bases, nil
}

// Options converts the section into validated driver options.
func (s SearchConfig) Options() (driver.Options, error) {
	bases, err := s.ResolvedBases()
	if err != nil {
		return driver.Options{}, err
	}
	policy, err := registry.ParsePolicy(s.Policy)
	if err != nil {
		return driver.Options{}, fmt.Errorf("%w: %v", driver.ErrInvalidConfiguration, err)
	}

	opts := driver.Options{
		PrimeRangeStart: s.PrimeRangeStart,
		PrimeRangeEnd:   s.PrimeRangeEnd,
		Bases:           bases,
		Workers:         s.Workers,
		Policy:          policy,
	}
	if err := opts.Validate(); err != nil {
		return driver.Options{}, err
	}
	return opts, nil
}
