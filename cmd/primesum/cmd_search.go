package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"primesum/internal/config"
	"primesum/internal/driver"
	"primesum/internal/logging"
	"primesum/internal/metrics"
	"primesum/internal/report"
)

// searchFlags are the overrides shared by run and the preset commands.
type searchFlags struct {
	start           int64
	end             int64
	bases           []int64
	baseRange       string
	workers         int
	policy          string
	failOnViolation bool
}

func (f *searchFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.Int64Var(&f.start, "start", 1, "first integer of the prime range (>= 1)")
	fl.Int64Var(&f.end, "end", 0, "last integer of the prime range")
	fl.Int64SliceVar(&f.bases, "bases", nil, "comma-separated bases to test, in order")
	fl.StringVar(&f.baseRange, "base-range", "", "inclusive base sweep FROM:TO, appended after --bases")
	fl.IntVarP(&f.workers, "workers", "w", 0, "workers per base (default: number of CPUs)")
	fl.StringVar(&f.policy, "policy", "", "violation policy: first-wins, collect-all or lowest")
	fl.BoolVar(&f.failOnViolation, "fail-on-violation", false, "exit non-zero when any base has a violation")
}

// apply overlays the flags the user actually set onto sc.
func (f *searchFlags) apply(cmd *cobra.Command, sc *config.SearchConfig) error {
	changed := cmd.Flags().Changed
	if changed("start") {
		sc.PrimeRangeStart = f.start
	}
	if changed("end") {
		sc.PrimeRangeEnd = f.end
	}
	if changed("bases") || changed("base-range") {
		sc.Bases = f.bases
		sc.BaseRange = nil
	}
	if changed("base-range") {
		br, err := parseBaseRange(f.baseRange)
		if err != nil {
			return err
		}
		sc.BaseRange = br
	}
	if changed("workers") {
		sc.Workers = f.workers
	}
	if changed("policy") {
		sc.Policy = f.policy
	}
	return nil
}

func parseBaseRange(s string) (*config.BaseRange, error) {
	from, to, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("%w: --base-range must look like FROM:TO, got %q", driver.ErrInvalidConfiguration, s)
	}
	lo, err := strconv.ParseInt(strings.TrimSpace(from), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: --base-range from: %v", driver.ErrInvalidConfiguration, err)
	}
	hi, err := strconv.ParseInt(strings.TrimSpace(to), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: --base-range to: %v", driver.ErrInvalidConfiguration, err)
	}
	return &config.BaseRange{From: lo, To: hi}, nil
}

func (a *app) newRunCmd() *cobra.Command {
	f := &searchFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the conjecture test with parameters from config and flags",
		Long: `Runs the conjecture test using the search section of the config file,
with any range, base, worker or policy flags layered on top.

Example:
  primesum run --end 1000000 --bases 7,13 --policy collect-all
  primesum run --end 100000000 --base-range 2:200`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := a.cfg.Search
			if err := f.apply(cmd, &sc); err != nil {
				return err
			}
			return a.search(cmd, sc, f.failOnViolation)
		},
	}
	f.register(cmd)
	return cmd
}

func (a *app) newPresetCmd(name, short string) *cobra.Command {
	f := &searchFlags{}
	cmd := &cobra.Command{
		Use:   name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := config.Preset(name)
			if err != nil {
				return err
			}
			if a.cfg.Search.Workers > 0 {
				sc.Workers = a.cfg.Search.Workers
			}
			if err := f.apply(cmd, &sc); err != nil {
				return err
			}
			return a.search(cmd, sc, f.failOnViolation)
		},
	}
	f.register(cmd)
	return cmd
}

// search validates sc, runs the driver and reports through the configured
// collaborators. Invalid options fail before any worker starts.
func (a *app) search(cmd *cobra.Command, sc config.SearchConfig, failOnViolation bool) error {
	opts, err := sc.Options()
	if err != nil {
		return err
	}
	a.loggers.Get(logging.CategoryBoot).Debug("resolved search options", logFields(opts)...)

	var m *metrics.Metrics
	if a.cfg.Metrics.Addr != "" {
		m = metrics.New()
		stop, err := serveMetrics(a.cfg.Metrics.Addr, m, a.loggers.Get(logging.CategoryMetrics))
		if err != nil {
			return err
		}
		defer stop()
	}

	reporter := a.reporter(cmd.OutOrStdout())
	d, err := driver.New(opts, reporter, a.loggers.Get(logging.CategoryDriver), m)
	if err != nil {
		return err
	}

	summary, err := d.Run(cmd.Context())
	if err != nil {
		return err
	}
	if failOnViolation && summary.BasesWithViolations > 0 {
		return fmt.Errorf("conjecture violated in %d of %d bases", summary.BasesWithViolations, summary.BasesTested)
	}
	return nil
}

func (a *app) reporter(out io.Writer) driver.Reporter {
	var primary driver.Reporter
	if a.cfg.Report.Format == "json" {
		primary = report.NewJSONLines(out)
	} else {
		primary = report.NewConsole(out)
	}
	if !a.verbose && a.cfg.Logging.File == "" {
		return primary
	}
	return report.Multi{primary, report.NewLog(a.loggers.Get(logging.CategoryReport))}
}

func logFields(opts driver.Options) []zap.Field {
	return []zap.Field{
		zap.Int64("start", opts.PrimeRangeStart),
		zap.Int64("end", opts.PrimeRangeEnd),
		zap.Int("bases", len(opts.Bases)),
		zap.Int("workers", opts.Workers),
		zap.Stringer("policy", opts.Policy),
	}
}
