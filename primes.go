// Package primes computes the nth prime number by pairing a pluggable
// primality detector with an upper bound estimator that brackets the
// search space.
//
// Three interchangeable detectors are provided: Wilson's theorem (exact,
// O(k) modular multiplications), trial division (exact, O(sqrt k)), and
// Miller-Rabin (probabilistic, O(log k) modular exponentiations per
// witness round). FindNthPrime depends only on the Detector interface
// and treats every implementation as an opaque strategy.
package primes

import (
	"github.com/go-logr/logr"
)

// Detector classifies a non-negative integer as prime or not prime.
// Implementations are stateless between calls and keep no record of
// previous verdicts.
type Detector interface {
	IsPrime(k uint64) bool
}

// DetectorFunc adapts a plain function to the Detector interface.
type DetectorFunc func(uint64) bool

// IsPrime calls f(k).
func (f DetectorFunc) IsPrime(k uint64) bool {
	return f(k)
}

var (
	// Logger to use in this package; default is a no-op logger.
	logger = logr.Discard()

	// Wilson is a Detector backed by WilsonIsPrime.
	Wilson Detector = DetectorFunc(WilsonIsPrime)
	// TrialDivision is a Detector backed by TrialDivisionIsPrime.
	TrialDivision Detector = DetectorFunc(TrialDivisionIsPrime)
)

// Change the logger instance used by this package.
func SetLogger(l logr.Logger) {
	logger = l
}
