package primes

import (
	"errors"
	"fmt"
)

// BoundFunc returns an integer guaranteed to be at least as large as the
// nth prime, limiting the range FindNthPrime scans.
type BoundFunc func(n uint64) uint64

var (
	// ErrInvalidN is returned when the requested rank is zero.
	ErrInvalidN = errors.New("n must be positive")
	// ErrBoundExhausted is returned when a scan reaches its bound
	// without finding n primes, meaning the bound function violated its
	// guarantee for this rank. The finder never widens the bound and
	// retries; the caller may supply a larger BoundFunc.
	ErrBoundExhausted = errors.New("bound exhausted before nth prime")
)

// FindNthPrime returns the nth prime (1-indexed) by scanning candidates
// from 2 up to a bound in increasing order and asking detector for a
// verdict on each; the first candidate to bring the prime count to n is
// the answer. A nil bound selects NthPrimeBound. The bound is computed
// exactly once per call and the scan is purely sequential with no state
// kept between calls.
//
// A probabilistic detector can rarely misclassify a composite as prime
// and shift the returned value; callers needing certainty should use an
// exact detector.
func FindNthPrime(n uint64, detector Detector, bound BoundFunc) (uint64, error) {
	l := logger.V(1).WithValues("n", n)
	l.Info("FindNthPrime: enter")
	if n == 0 {
		return 0, ErrInvalidN
	}
	if n == 1 {
		// The scan below is safe for n == 1 too; answering directly
		// just skips a detector call for the smallest prime.
		l.Info("FindNthPrime: exit", "result", 2)
		return 2, nil
	}
	if bound == nil {
		bound = NthPrimeBound
	}
	b := bound(n)
	var count uint64
	for m := uint64(2); m <= b; m++ {
		if !detector.IsPrime(m) {
			continue
		}
		count++
		if count == n {
			l.Info("FindNthPrime: exit", "result", m)
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: found %d of %d primes in [2, %d]", ErrBoundExhausted, count, n, b)
}
