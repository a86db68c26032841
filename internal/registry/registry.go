// Package registry records conjecture violations found by concurrent workers
// during the search of a single base.
//
// A Registry instance belongs to exactly one base search. Writers take a
// single mutex for an O(1) record-or-discard step; the early-exit poll reads
// an atomic so the hot loop never contends on the lock.
package registry

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
)

// Policy selects how a registry treats successive violations.
type Policy int

const (
	// FirstWins keeps the first violation to acquire the lock and signals
	// every worker to stop.
	FirstWins Policy = iota
	// CollectAll keeps every violation and never signals a stop.
	CollectAll
	// Lowest keeps the numerically smallest violating prime. Workers stop once
	// their candidate exceeds the best violation recorded so far.
	Lowest
)

// Policies lists every policy in declaration order.
var Policies = []Policy{FirstWins, CollectAll, Lowest}

func (p Policy) String() string {
	switch p {
	case FirstWins:
		return "first-wins"
	case CollectAll:
		return "collect-all"
	case Lowest:
		return "lowest"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// StopsOnViolation reports whether a worker should quit its own range after
// recording a violation.
func (p Policy) StopsOnViolation() bool {
	return p != CollectAll
}

// ParsePolicy maps a policy name to its value. Matching ignores case and
// accepts underscores in place of dashes.
func ParsePolicy(s string) (Policy, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for _, p := range Policies {
		if p.String() == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown violation policy %q (valid: first-wins, collect-all, lowest)", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(text []byte) error {
	parsed, err := ParsePolicy(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Violation is a counterexample: a prime whose digit sum in Base is neither
// 1, prime, nor semiprime.
type Violation struct {
	Prime    int64 `json:"prime"`
	Base     int64 `json:"base"`
	DigitSum int64 `json:"digit_sum"`
}

func (v Violation) String() string {
	return fmt.Sprintf("S_%d(%d) = %d", v.Base, v.Prime, v.DigitSum)
}

// Registry is the shared sink workers report violations to.
type Registry interface {
	// Record offers a violation and reports whether it was retained.
	Record(v Violation) bool
	// ShouldStop reports whether a worker about to test candidate can quit.
	ShouldStop(candidate int64) bool
	// Violations returns a copy of the retained violations.
	Violations() []Violation
	// Len returns the number of retained violations.
	Len() int
	Policy() Policy
}

// New returns an empty registry for the given policy.
func New(p Policy) Registry {
	switch p {
	case CollectAll:
		return &collectAll{}
	case Lowest:
		r := &lowest{}
		r.min.Store(math.MaxInt64)
		return r
	default:
		return &firstWins{}
	}
}

type firstWins struct {
	mu      sync.Mutex
	winner  *Violation
	stopped atomic.Bool
}

func (r *firstWins) Record(v Violation) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.winner != nil {
		return false
	}
	r.winner = &v
	r.stopped.Store(true)
	return true
}

func (r *firstWins) ShouldStop(int64) bool {
	return r.stopped.Load()
}

func (r *firstWins) Violations() []Violation {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.winner == nil {
		return nil
	}
	return []Violation{*r.winner}
}

func (r *firstWins) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.winner == nil {
		return 0
	}
	return 1
}

func (r *firstWins) Policy() Policy { return FirstWins }

type collectAll struct {
	mu   sync.Mutex
	seen []Violation
}

func (r *collectAll) Record(v Violation) bool {
	r.mu.Lock()
	r.seen = append(r.seen, v)
	r.mu.Unlock()
	return true
}

func (r *collectAll) ShouldStop(int64) bool { return false }

func (r *collectAll) Violations() []Violation {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.seen) == 0 {
		return nil
	}
	out := make([]Violation, len(r.seen))
	copy(out, r.seen)
	return out
}

func (r *collectAll) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

func (r *collectAll) Policy() Policy { return CollectAll }

type lowest struct {
	mu   sync.Mutex
	best *Violation
	// min mirrors best.Prime for lock-free polling; MaxInt64 when unset.
	min atomic.Int64
}

func (r *lowest) Record(v Violation) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.best != nil && r.best.Prime <= v.Prime {
		return false
	}
	r.best = &v
	r.min.Store(v.Prime)
	return true
}

func (r *lowest) ShouldStop(candidate int64) bool {
	return candidate > r.min.Load()
}

func (r *lowest) Violations() []Violation {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.best == nil {
		return nil
	}
	return []Violation{*r.best}
}

func (r *lowest) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.best == nil {
		return 0
	}
	return 1
}

func (r *lowest) Policy() Policy { return Lowest }
