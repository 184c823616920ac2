package primes

import (
	"math/big"
)

// WilsonIsPrime reports whether k is prime using Wilson's theorem:
// (k-1)! == -1 (mod k) iff k is prime. The factorial residue is built
// incrementally so the full factorial is never materialized; math/big
// keeps the running product correct for moduli wider than 32 bits. A
// zero residue before the product completes proves a non-trivial factor
// of k has been absorbed, so the loop exits early with a composite
// verdict.
//
// Exact and deterministic, but O(k) modular multiplications; this is the
// reference detector, not one for production-scale k.
func WilsonIsPrime(k uint64) bool {
	l := logger.V(1).WithValues("k", k)
	l.Info("WilsonIsPrime: enter")
	if k < 2 {
		l.Info("WilsonIsPrime: exit", "result", false)
		return false
	}
	if k == 2 {
		// The multiplicative form degenerates at 2: 1! == 1 == -1 (mod 2).
		l.Info("WilsonIsPrime: exit", "result", true)
		return true
	}
	m := new(big.Int).SetUint64(k)
	res := big.NewInt(1)
	factor := new(big.Int)
	for i := uint64(2); i < k; i++ {
		factor.SetUint64(i)
		res.Mul(res, factor)
		res.Mod(res, m)
		if res.Sign() == 0 {
			l.Info("WilsonIsPrime: exit", "result", false)
			return false
		}
	}
	// res holds (k-1)! mod k; equal to k-1 means congruent to -1.
	result := res.Cmp(new(big.Int).SetUint64(k-1)) == 0
	l.Info("WilsonIsPrime: exit", "result", result)
	return result
}
