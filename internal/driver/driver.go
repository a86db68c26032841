// Package driver runs the conjecture test over an ordered list of bases and
// hands one record per base to a reporting collaborator.
//
// Bases are searched one after another; each base search already occupies
// every worker. Reporting is best-effort: a failing reporter is logged and
// the run carries on.
package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"primesum/internal/metrics"
	"primesum/internal/partition"
	"primesum/internal/registry"
	"primesum/internal/search"
)

// OutcomeKind distinguishes a clean base from one with counterexamples.
type OutcomeKind string

const (
	NoViolation OutcomeKind = "no_violation"
	Violations  OutcomeKind = "violations"
)

// Outcome is the per-base verdict.
type Outcome struct {
	Kind       OutcomeKind          `json:"kind"`
	Violations []registry.Violation `json:"violations,omitempty"`
}

// Record is what the driver emits for each base.
type Record struct {
	RunID          string              `json:"run_id"`
	Base           int64               `json:"base"`
	RangeTested    partition.WorkRange `json:"range_tested"`
	ElapsedSeconds float64             `json:"elapsed_seconds"`
	Outcome        Outcome             `json:"outcome"`
	Policy         registry.Policy     `json:"policy"`
	Workers        int                 `json:"workers"`
	Candidates     int64               `json:"candidates"`
	Primes         int64               `json:"primes"`
}

// Summary aggregates a whole run.
type Summary struct {
	RunID               string
	Bases               []int64
	Range               partition.WorkRange
	Policy              registry.Policy
	BasesTested         int
	BasesWithViolations int
	TotalViolations     int
	Elapsed             time.Duration
	Records             []Record
	// Completed is false when the run stopped between bases because the
	// context was cancelled.
	Completed bool
}

// Reporter receives one record per finished base.
type Reporter interface {
	Report(rec Record) error
}

// StartReporter is implemented by reporters that announce a run.
type StartReporter interface {
	Start(s Summary) error
}

// SummaryReporter is implemented by reporters that want the final summary.
type SummaryReporter interface {
	Summary(s Summary) error
}

// Driver iterates the coordinator over the configured bases.
type Driver struct {
	opts     Options
	coord    *search.Coordinator
	reporter Reporter
	logger   *zap.Logger
	runID    string
}

// New validates opts and prepares a run. Nothing is spawned until Run.
// reporter, logger and m may be nil.
func New(opts Options, reporter Reporter, logger *zap.Logger, m *metrics.Metrics) (*Driver, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))

	return &Driver{
		opts: opts,
		coord: search.New(opts.Workers, opts.Policy,
			search.WithLogger(logger.Named("search")),
			search.WithMetrics(m)),
		reporter: reporter,
		logger:   logger,
		runID:    runID,
	}, nil
}

// RunID identifies this run in logs and records.
func (d *Driver) RunID() string {
	return d.runID
}

// Run searches every base in order. ctx is consulted only between bases; a
// base search that has started always runs to completion.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	rng := d.opts.EffectiveRange()
	summary := Summary{
		RunID:  d.runID,
		Bases:  d.opts.Bases,
		Range:  rng,
		Policy: d.opts.Policy,
	}

	d.logger.Info("starting conjecture test",
		zap.Int64("range_start", rng.Start),
		zap.Int64("range_end", rng.End),
		zap.Int("bases", len(d.opts.Bases)),
		zap.Int("workers", d.opts.Workers),
		zap.Stringer("policy", d.opts.Policy))

	if sr, ok := d.reporter.(StartReporter); ok {
		d.safeCall("start", func() error { return sr.Start(summary) })
	}

	started := time.Now()
	for _, base := range d.opts.Bases {
		if err := ctx.Err(); err != nil {
			summary.Elapsed = time.Since(started)
			d.logger.Warn("run cancelled between bases",
				zap.Int("bases_tested", summary.BasesTested), zap.Error(err))
			return summary, fmt.Errorf("run cancelled after %d of %d bases: %w",
				summary.BasesTested, len(d.opts.Bases), err)
		}

		res, err := d.coord.Search(base, rng)
		if err != nil {
			summary.Elapsed = time.Since(started)
			return summary, err
		}

		rec := d.record(res)
		summary.Records = append(summary.Records, rec)
		summary.BasesTested++
		if res.HasViolation() {
			summary.BasesWithViolations++
			summary.TotalViolations += len(res.Violations)
		}

		d.logger.Info("base search complete",
			zap.Int64("base", base),
			zap.Duration("elapsed", res.Elapsed),
			zap.Int64("primes", res.Primes),
			zap.Int("violations", len(res.Violations)))

		d.report(rec)
	}
	summary.Elapsed = time.Since(started)
	summary.Completed = true

	d.logger.Info("conjecture test complete",
		zap.Duration("elapsed", summary.Elapsed),
		zap.Int("bases_with_violations", summary.BasesWithViolations))

	if sr, ok := d.reporter.(SummaryReporter); ok {
		d.safeCall("summary", func() error { return sr.Summary(summary) })
	}
	return summary, nil
}

func (d *Driver) record(res search.Result) Record {
	rec := Record{
		RunID:          d.runID,
		Base:           res.Base,
		RangeTested:    res.Range,
		ElapsedSeconds: res.Elapsed.Seconds(),
		Outcome:        Outcome{Kind: NoViolation},
		Policy:         res.Policy,
		Workers:        res.Workers,
		Candidates:     res.Candidates,
		Primes:         res.Primes,
	}
	if res.HasViolation() {
		rec.Outcome = Outcome{Kind: Violations, Violations: res.Violations}
	}
	return rec
}

// report hands rec to the reporter.
func (d *Driver) report(rec Record) {
	if d.reporter == nil {
		return
	}
	d.safeCall("report", func() error { return d.reporter.Report(rec) },
		zap.Int64("base", rec.Base))
}

// safeCall runs one reporter hook. An error or panic is logged and never
// stops the search.
func (d *Driver) safeCall(hook string, fn func() error, fields ...zap.Field) {
	fields = append(fields, zap.String("hook", hook))
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("reporter panicked", append(fields, zap.Any("panic", r))...)
		}
	}()
	if err := fn(); err != nil {
		d.logger.Warn("reporter failed", append(fields, zap.Error(err))...)
	}
}
