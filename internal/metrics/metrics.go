// Package metrics exposes search progress as Prometheus collectors on a
// private registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for a search run.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	CandidatesExamined prometheus.Counter
	PrimesFound        prometheus.Counter
	ViolationsRecorded *prometheus.CounterVec
	BasesSearched      *prometheus.CounterVec
	BaseDuration       prometheus.Histogram
	ActiveWorkers      prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on a private registry so
// repeated runs in one process never collide.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		CandidatesExamined: factory.NewCounter(prometheus.CounterOpts{
			Name: "primesum_candidates_examined_total",
			Help: "Integers checked for primality across all workers",
		}),
		PrimesFound: factory.NewCounter(prometheus.CounterOpts{
			Name: "primesum_primes_found_total",
			Help: "Primes whose digit sum was classified",
		}),
		ViolationsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "primesum_violations_recorded_total",
			Help: "Violations retained by the registry, by policy",
		}, []string{"policy"}),
		BasesSearched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "primesum_bases_searched_total",
			Help: "Completed base searches, by outcome",
		}, []string{"outcome"}),
		BaseDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "primesum_base_search_duration_seconds",
			Help:    "Wall-clock duration of a single base search",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 12), // 1ms to ~70min
		}),
		ActiveWorkers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "primesum_active_workers",
			Help: "Workers currently scanning a range",
		}),
		gatherer: reg,
	}
}

// Handler serves the collectors in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.gatherer
}

// ObserveWorker adds a batch of candidates and primes from one worker.
// Workers report in batches while scanning, so the totals move during a base.
func (m *Metrics) ObserveWorker(candidates, primes int64) {
	if m == nil {
		return
	}
	m.CandidatesExamined.Add(float64(candidates))
	m.PrimesFound.Add(float64(primes))
}

// WorkerStarted and WorkerDone track the active worker gauge.
func (m *Metrics) WorkerStarted() {
	if m == nil {
		return
	}
	m.ActiveWorkers.Inc()
}

func (m *Metrics) WorkerDone() {
	if m == nil {
		return
	}
	m.ActiveWorkers.Dec()
}

// ObserveViolations counts retained violations under the given policy label.
func (m *Metrics) ObserveViolations(policy string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ViolationsRecorded.WithLabelValues(policy).Add(float64(n))
}

// ObserveBase records one finished base search.
func (m *Metrics) ObserveBase(elapsed time.Duration, violated bool) {
	if m == nil {
		return
	}
	outcome := "holds"
	if violated {
		outcome = "violated"
	}
	m.BasesSearched.WithLabelValues(outcome).Inc()
	m.BaseDuration.Observe(elapsed.Seconds())
}
