package primes

import (
	"math"
)

// The first five primes, indexed by rank-1. The asymptotic bound needs
// ln ln n > 0 to be meaningful, so these ranks are answered exactly.
var smallPrimeBounds = [...]uint64{2, 3, 5, 7, 11}

// NthPrimeBound returns an integer B guaranteed to be at least as large
// as the nth prime (1-indexed). For n >= 6 this is the Dusart form
// ceil(n * (ln n + ln ln n)); for n in [1,5] it is the nth prime itself.
//
// Behavior for n == 0 is unspecified; FindNthPrime rejects a zero rank
// before this function is consulted.
func NthPrimeBound(n uint64) uint64 {
	if n <= uint64(len(smallPrimeBounds)) {
		return smallPrimeBounds[n-1]
	}
	fn := float64(n)
	return uint64(math.Ceil(fn * (math.Log(fn) + math.Log(math.Log(fn)))))
}
