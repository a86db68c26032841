// Package search runs the parallel scan of one base: partition the range,
// fan workers out over the pieces, join them, and read the registry.
package search

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"primesum/internal/classify"
	"primesum/internal/metrics"
	"primesum/internal/partition"
	"primesum/internal/registry"
)

// Phase is the coordinator's position in a single base search.
type Phase int32

const (
	Idle Phase = iota
	Partitioning
	Running
	Joined
	Reported
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Partitioning:
		return "partitioning"
	case Running:
		return "running"
	case Joined:
		return "joined"
	case Reported:
		return "reported"
	default:
		return fmt.Sprintf("phase(%d)", int32(p))
	}
}

// Result is the outcome of searching one base.
type Result struct {
	Base   int64
	Range  partition.WorkRange
	Policy registry.Policy

	// Workers is the number of goroutines actually spawned; empty
	// partitions are not counted.
	Workers    int
	Candidates int64
	Primes     int64

	// Violations are sorted by prime. Empty means the conjecture held over
	// every candidate the workers reached.
	Violations []registry.Violation
	Elapsed    time.Duration
}

// HasViolation reports whether any violation was retained.
func (r Result) HasViolation() bool {
	return len(r.Violations) > 0
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithPhaseObserver registers a callback invoked on every phase change,
// from the goroutine calling Search.
func WithPhaseObserver(fn func(base int64, p Phase)) Option {
	return func(c *Coordinator) { c.observe = fn }
}

// Coordinator searches one base at a time. It is reusable across bases; each
// Search builds a fresh registry and a fresh set of workers. Concurrent calls
// to Search are serialized.
type Coordinator struct {
	workers int
	policy  registry.Policy
	logger  *zap.Logger
	metrics *metrics.Metrics
	observe func(base int64, p Phase)

	flushEvery int64

	mu    sync.Mutex
	phase atomic.Int32
}

// New returns a coordinator that fans out over at most workers goroutines.
func New(workers int, policy registry.Policy, opts ...Option) *Coordinator {
	c := &Coordinator{
		workers:    workers,
		policy:     policy,
		logger:     zap.NewNop(),
		flushEvery: defaultFlushEvery,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Phase returns the current phase.
func (c *Coordinator) Phase() Phase {
	return Phase(c.phase.Load())
}

func (c *Coordinator) enter(base int64, p Phase) {
	c.phase.Store(int32(p))
	c.logger.Debug("phase", zap.Int64("base", base), zap.Stringer("phase", p))
	if c.observe != nil {
		c.observe(base, p)
	}
}

// defaultFlushEvery is how many candidates a worker scans between metric
// updates.
const defaultFlushEvery = 1 << 20

type workerStats struct {
	candidates int64
	primes     int64
}

// Search scans every integer in r for primes whose digit sum in base breaks
// the conjecture. It returns only after every spawned worker has exited.
// An empty r yields a result with no workers and no violations.
func (c *Coordinator) Search(base int64, r partition.WorkRange) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if base < 2 {
		return Result{}, fmt.Errorf("search base %d: %w", base, classify.ErrInvalidBase)
	}

	c.enter(base, Idle)
	reg := registry.New(c.policy)
	result := Result{Base: base, Range: r, Policy: c.policy}

	c.enter(base, Partitioning)
	var ranges []partition.WorkRange
	if !r.Empty() {
		// Slots past the range size could only ever be empty.
		slots := c.workers
		if int64(slots) > r.Size() {
			slots = int(r.Size())
		}
		split, err := partition.Split(r, slots)
		if err != nil {
			c.enter(base, Idle)
			return Result{}, fmt.Errorf("partition base %d: %w", base, err)
		}
		ranges = partition.NonEmpty(split)
	}

	c.enter(base, Running)
	started := time.Now()

	var g errgroup.Group
	stats := make([]workerStats, len(ranges))
	for i, wr := range ranges {
		i, wr := i, wr
		g.Go(func() error {
			c.metrics.WorkerStarted()
			defer c.metrics.WorkerDone()

			s, err := c.scan(base, wr, reg)
			stats[i] = s
			return err
		})
	}
	err := g.Wait()
	c.enter(base, Joined)
	if err != nil {
		c.enter(base, Idle)
		return Result{}, fmt.Errorf("search base %d: %w", base, err)
	}

	result.Elapsed = time.Since(started)
	result.Workers = len(ranges)
	for _, s := range stats {
		result.Candidates += s.candidates
		result.Primes += s.primes
	}
	result.Violations = reg.Violations()
	slices.SortFunc(result.Violations, func(a, b registry.Violation) int {
		return cmp.Compare(a.Prime, b.Prime)
	})
	c.metrics.ObserveViolations(c.policy.String(), len(result.Violations))
	c.metrics.ObserveBase(result.Elapsed, result.HasViolation())

	c.enter(base, Reported)
	return result, nil
}

// scan walks wr in increasing order. The stop poll at the top of each
// iteration is best-effort: a worker may test a few candidates after another
// worker has already recorded the authoritative violation.
func (c *Coordinator) scan(base int64, wr partition.WorkRange, reg registry.Registry) (workerStats, error) {
	var s, flushed workerStats
	flush := func() {
		c.metrics.ObserveWorker(s.candidates-flushed.candidates, s.primes-flushed.primes)
		flushed = s
	}
	defer flush()
	stopOnViolation := reg.Policy().StopsOnViolation()

	for p := wr.Start; p <= wr.End; p++ {
		if reg.ShouldStop(p) {
			break
		}
		s.candidates++
		if s.candidates%c.flushEvery == 0 {
			flush()
		}
		if !classify.IsPrime(p) {
			continue
		}
		s.primes++

		sum, err := classify.DigitSum(p, base)
		if err != nil {
			return s, err
		}
		if classify.Holds(sum) {
			continue
		}

		v := registry.Violation{Prime: p, Base: base, DigitSum: sum}
		if reg.Record(v) {
			c.logger.Warn("violation found",
				zap.Int64("base", base),
				zap.Int64("prime", p),
				zap.Int64("digit_sum", sum),
				zap.Stringer("policy", reg.Policy()))
		}
		if stopOnViolation {
			break
		}
	}
	return s, nil
}
