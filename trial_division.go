package primes

import (
	"math"
)

// TrialDivisionIsPrime reports whether k is prime by testing odd
// divisors in [3, sqrt(k)]. Exact, deterministic, O(sqrt k) arithmetic
// operations; the appropriate detector at moderate scale when
// probabilistic risk is unacceptable.
func TrialDivisionIsPrime(k uint64) bool {
	l := logger.V(1).WithValues("k", k)
	l.Info("TrialDivisionIsPrime: enter")
	if k < 2 {
		l.Info("TrialDivisionIsPrime: exit", "result", false)
		return false
	}
	if k == 2 || k == 3 {
		l.Info("TrialDivisionIsPrime: exit", "result", true)
		return true
	}
	if k%2 == 0 {
		l.Info("TrialDivisionIsPrime: exit", "result", false)
		return false
	}
	r := uint64(math.Sqrt(float64(k)))
	for i := uint64(3); i <= r; i += 2 {
		if k%i == 0 {
			l.Info("TrialDivisionIsPrime: exit", "result", false)
			return false
		}
	}
	l.Info("TrialDivisionIsPrime: exit", "result", true)
	return true
}
