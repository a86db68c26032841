// Package partition splits a closed integer interval into contiguous, disjoint
// work ranges, one per worker.
package partition

import (
	"errors"
	"fmt"
)

var (
	// ErrNoWorkers is returned when fewer than one worker is requested.
	ErrNoWorkers = errors.New("worker count must be >= 1")
	// ErrInvertedRange is returned when End < Start.
	ErrInvertedRange = errors.New("range end precedes start")
	// ErrTooManyWorkers is returned when more than MaxWorkers are requested.
	ErrTooManyWorkers = errors.New("worker count exceeds limit")
)

// MaxWorkers bounds the number of ranges Split will produce.
const MaxWorkers = 1 << 16

// WorkRange is the closed interval [Start, End]. It is empty when End < Start.
type WorkRange struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Empty reports whether the range holds no integers.
func (r WorkRange) Empty() bool {
	return r.End < r.Start
}

// Size returns the number of integers in the range.
func (r WorkRange) Size() int64 {
	if r.Empty() {
		return 0
	}
	return r.End - r.Start + 1
}

// Contains reports whether n falls inside the range.
func (r WorkRange) Contains(n int64) bool {
	return n >= r.Start && n <= r.End
}

func (r WorkRange) String() string {
	return fmt.Sprintf("[%d, %d]", r.Start, r.End)
}

// Split divides r into exactly workers ranges. The step is the floor of
// size/workers, bumped by one when there is a remainder, so the leading ranges
// carry the slack and trailing ranges may come out empty. Callers skip empty
// ranges rather than handing them to a worker.
//
// r.End + step must fit in an int64.
func Split(r WorkRange, workers int) ([]WorkRange, error) {
	if workers < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrNoWorkers, workers)
	}
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: got %d, max %d", ErrTooManyWorkers, workers, MaxWorkers)
	}
	if r.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrInvertedRange, r)
	}

	size := r.Size()
	n := int64(workers)
	step := size / n
	if size%n != 0 {
		step++
	}

	ranges := make([]WorkRange, 0, workers)
	for i := int64(0); i < n; i++ {
		start := r.Start + i*step
		if start > r.End {
			// Keep the slot so len(ranges) == workers, but make it empty.
			ranges = append(ranges, WorkRange{Start: r.End + 1, End: r.End})
			continue
		}
		end := start + step - 1
		if i == n-1 || end > r.End {
			end = r.End
		}
		ranges = append(ranges, WorkRange{Start: start, End: end})
	}
	return ranges, nil
}

// NonEmpty filters out empty ranges, preserving order.
func NonEmpty(ranges []WorkRange) []WorkRange {
	out := make([]WorkRange, 0, len(ranges))
	for _, r := range ranges {
		if !r.Empty() {
			out = append(out, r)
		}
	}
	return out
}
