package search

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"primesum/internal/classify"
	"primesum/internal/metrics"
	"primesum/internal/partition"
	"primesum/internal/registry"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// base2Violations are the primes <= 1000 whose binary digit sum is 8.
var base2Violations = []int64{383, 479, 503, 509, 751, 863, 887, 983}

func TestSearchBase7NoViolation(t *testing.T) {
	c := New(4, registry.FirstWins)
	res, err := c.Search(7, partition.WorkRange{Start: 2, End: 100})
	require.NoError(t, err)

	assert.False(t, res.HasViolation())
	assert.Empty(t, res.Violations)
	assert.Equal(t, int64(99), res.Candidates)
	assert.Equal(t, int64(25), res.Primes)
	assert.Equal(t, 4, res.Workers)
	assert.Equal(t, Reported, c.Phase())
}

func TestSearchBase2SmallRangeHolds(t *testing.T) {
	c := New(3, registry.CollectAll)
	res, err := c.Search(2, partition.WorkRange{Start: 2, End: 50})
	require.NoError(t, err)
	assert.False(t, res.HasViolation())

	sum, err := classify.DigitSum(7, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), sum)
	assert.Equal(t, classify.Prime, classify.Classify(sum))
}

func TestSearchCollectAllFindsEveryViolation(t *testing.T) {
	for _, workers := range []int{1, 2, 5, 16} {
		c := New(workers, registry.CollectAll)
		res, err := c.Search(2, partition.WorkRange{Start: 2, End: 1000})
		require.NoError(t, err)

		require.Len(t, res.Violations, len(base2Violations), "workers=%d", workers)
		for i, v := range res.Violations {
			assert.Equal(t, base2Violations[i], v.Prime)
			assert.Equal(t, int64(8), v.DigitSum)
			assert.Equal(t, int64(2), v.Base)
		}
		// No early exit: every candidate was examined.
		assert.Equal(t, int64(999), res.Candidates)
	}
}

func TestSearchFirstWinsRetainsOne(t *testing.T) {
	for round := 0; round < 10; round++ {
		c := New(8, registry.FirstWins)
		res, err := c.Search(2, partition.WorkRange{Start: 2, End: 1000})
		require.NoError(t, err)

		require.Len(t, res.Violations, 1)
		assert.Contains(t, base2Violations, res.Violations[0].Prime)
	}
}

func TestSearchFirstWinsSingleWorkerStopsEarly(t *testing.T) {
	c := New(1, registry.FirstWins)
	res, err := c.Search(10, partition.WorkRange{Start: 2, End: 100_000})
	require.NoError(t, err)

	require.Len(t, res.Violations, 1)
	assert.Equal(t, registry.Violation{Prime: 17, Base: 10, DigitSum: 8}, res.Violations[0])
	// 2..17 inclusive, then the worker quits.
	assert.Equal(t, int64(16), res.Candidates)
}

func TestSearchLowestIsDeterministic(t *testing.T) {
	for _, workers := range []int{1, 3, 7, 32} {
		c := New(workers, registry.Lowest)
		res, err := c.Search(2, partition.WorkRange{Start: 2, End: 1000})
		require.NoError(t, err)

		require.Len(t, res.Violations, 1, "workers=%d", workers)
		assert.Equal(t, int64(383), res.Violations[0].Prime)
	}
}

func TestSearchEmptyRange(t *testing.T) {
	c := New(4, registry.FirstWins)
	res, err := c.Search(7, partition.WorkRange{Start: 2, End: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Workers)
	assert.Zero(t, res.Candidates)
	assert.False(t, res.HasViolation())
}

func TestSearchSkipsEmptyPartitions(t *testing.T) {
	c := New(16, registry.CollectAll)
	res, err := c.Search(7, partition.WorkRange{Start: 2, End: 5})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Workers)
	assert.Equal(t, int64(4), res.Candidates)
	assert.Equal(t, int64(3), res.Primes)
}

func TestSearchMoreWorkersThanCandidates(t *testing.T) {
	c := New(1<<40, registry.FirstWins)
	res, err := c.Search(7, partition.WorkRange{Start: 2, End: 100})
	require.NoError(t, err)
	assert.Equal(t, 99, res.Workers)
	assert.Equal(t, int64(99), res.Candidates)
	assert.Equal(t, int64(25), res.Primes)

	_, err = c.Search(7, partition.WorkRange{Start: 2, End: 1 << 41})
	assert.ErrorIs(t, err, partition.ErrTooManyWorkers)
	assert.Equal(t, Idle, c.Phase())
}

func TestSearchInvalidBase(t *testing.T) {
	c := New(2, registry.FirstWins)
	_, err := c.Search(1, partition.WorkRange{Start: 2, End: 10})
	assert.ErrorIs(t, err, classify.ErrInvalidBase)
}

func TestSearchInvalidWorkers(t *testing.T) {
	c := New(0, registry.FirstWins)
	_, err := c.Search(7, partition.WorkRange{Start: 2, End: 10})
	assert.ErrorIs(t, err, partition.ErrNoWorkers)
	assert.Equal(t, Idle, c.Phase())
}

func TestSearchPhaseOrder(t *testing.T) {
	var phases []Phase
	c := New(2, registry.FirstWins, WithPhaseObserver(func(base int64, p Phase) {
		assert.Equal(t, int64(13), base)
		phases = append(phases, p)
	}))

	_, err := c.Search(13, partition.WorkRange{Start: 2, End: 500})
	require.NoError(t, err)
	assert.Equal(t, []Phase{Idle, Partitioning, Running, Joined, Reported}, phases)

	// Reusable for the next base.
	phases = nil
	_, err = c.Search(13, partition.WorkRange{Start: 2, End: 50})
	require.NoError(t, err)
	assert.Equal(t, []Phase{Idle, Partitioning, Running, Joined, Reported}, phases)
}

func TestSearchLogsRetainedViolations(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	c := New(4, registry.CollectAll, WithLogger(zap.New(core)))

	_, err := c.Search(10, partition.WorkRange{Start: 2, End: 100})
	require.NoError(t, err)

	entries := logs.FilterMessage("violation found").All()
	require.Len(t, entries, 5)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(10), fields["base"])
	assert.Equal(t, "collect-all", fields["policy"])
}

func TestSearchMetrics(t *testing.T) {
	m := metrics.New()
	c := New(4, registry.CollectAll, WithMetrics(m))

	_, err := c.Search(2, partition.WorkRange{Start: 2, End: 1000})
	require.NoError(t, err)

	assert.Equal(t, 999.0, testutil.ToFloat64(m.CandidatesExamined))
	assert.Equal(t, 168.0, testutil.ToFloat64(m.PrimesFound))
	assert.Equal(t, 8.0, testutil.ToFloat64(m.ViolationsRecorded.WithLabelValues("collect-all")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BasesSearched.WithLabelValues("violated")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveWorkers))
}

// peekingRegistry samples a metric as the scan reaches one candidate.
type peekingRegistry struct {
	registry.Registry
	at   int64
	read func() float64
	seen float64
}

func (p *peekingRegistry) ShouldStop(candidate int64) bool {
	if candidate == p.at {
		p.seen = p.read()
	}
	return p.Registry.ShouldStop(candidate)
}

func TestScanFlushesMetricsWhileRunning(t *testing.T) {
	m := metrics.New()
	c := New(1, registry.CollectAll, WithMetrics(m))
	c.flushEvery = 10

	reg := &peekingRegistry{
		Registry: registry.New(registry.CollectAll),
		at:       27,
		read:     func() float64 { return testutil.ToFloat64(m.CandidatesExamined) },
	}
	s, err := c.scan(7, partition.WorkRange{Start: 2, End: 100}, reg)
	require.NoError(t, err)

	// 25 candidates (2..26) scanned before 27: two full batches flushed.
	assert.Equal(t, 20.0, reg.seen)
	assert.Equal(t, int64(99), s.candidates)
	assert.Equal(t, 99.0, testutil.ToFloat64(m.CandidatesExamined))
	assert.Equal(t, 25.0, testutil.ToFloat64(m.PrimesFound))
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "phase(42)", Phase(42).String())
}
