// Package classify holds the pure number-theoretic predicates used by the search:
// primality, base-b digit sums and the strict two-factor semiprime test.
// Every function here is total over its valid domain and free of shared state.
package classify

import (
	"errors"
	"fmt"
)

// ErrInvalidBase is returned when a numeral base is below 2.
var ErrInvalidBase = errors.New("invalid base")

// Classification is the conjecture bucket a digit sum falls into.
type Classification int

const (
	Unity Classification = iota
	Prime
	Semiprime
	Violation
)

func (c Classification) String() string {
	switch c {
	case Unity:
		return "unity"
	case Prime:
		return "prime"
	case Semiprime:
		return "semiprime"
	case Violation:
		return "violation"
	default:
		return fmt.Sprintf("classification(%d)", int(c))
	}
}

// IsPrime reports whether n is prime using 6k±1 trial division.
// The loop bound is i <= n/i so the square of the divisor is never formed.
func IsPrime(n int64) bool {
	if n <= 1 {
		return false
	}
	if n <= 3 {
		return true
	}
	if n%2 == 0 || n%3 == 0 {
		return false
	}
	for i := int64(5); i <= n/i; i += 6 {
		if n%i == 0 || n%(i+2) == 0 {
			return false
		}
	}
	return true
}

// DigitSum returns the sum of the digits of n written in the given base.
// n is expected to be non-negative; DigitSum(0, b) is 0.
func DigitSum(n, base int64) (int64, error) {
	if base < 2 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidBase, base)
	}
	var sum int64
	for n > 0 {
		sum += n % base
		n /= base
	}
	return sum, nil
}

// Digits returns the base-b digits of n, least significant first.
// Zero is represented as a single 0 digit.
func Digits(n, base int64) ([]int64, error) {
	if base < 2 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBase, base)
	}
	if n == 0 {
		return []int64{0}, nil
	}
	var digits []int64
	for n > 0 {
		digits = append(digits, n%base)
		n /= base
	}
	return digits, nil
}

// IsSemiprime reports whether n has exactly two prime factors counted with
// multiplicity. Factoring stops as soon as a third factor shows up.
func IsSemiprime(n int64) bool {
	if n < 4 {
		return false
	}

	count := 0
	for n%2 == 0 {
		count++
		if count > 2 {
			return false
		}
		n /= 2
	}
	for i := int64(3); i <= n/i; i += 2 {
		for n%i == 0 {
			count++
			if count > 2 {
				return false
			}
			n /= i
		}
	}
	// Whatever survives trial division is itself prime.
	if n > 1 {
		count++
	}
	return count == 2
}

// Classify buckets a digit sum. Prime takes precedence over Semiprime.
func Classify(sum int64) Classification {
	switch {
	case sum == 1:
		return Unity
	case IsPrime(sum):
		return Prime
	case IsSemiprime(sum):
		return Semiprime
	default:
		return Violation
	}
}

// Holds reports whether the conjecture holds for the given digit sum.
func Holds(sum int64) bool {
	return Classify(sum) != Violation
}
