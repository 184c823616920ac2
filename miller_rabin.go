package primes

import (
	"math/big"
	"math/rand"
	"sync"
	"time"
)

// DefaultMillerRabinRounds is the witness count used when no explicit
// round count is configured. A composite survives all rounds with
// probability at most 4^-rounds, so the default gives a false-prime
// probability of roughly 1.5e-5 per call.
const DefaultMillerRabinRounds = 8

// Small primes used to shortcut the witness loop for candidates with a
// small factor.
var smallPrimes = [...]uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29}

var (
	bigOne = big.NewInt(1)
	bigTwo = big.NewInt(2)
)

// MillerRabin is a probabilistic Detector. A true prime is always
// reported prime; a composite may be misreported as prime with the
// bounded one-sided error described on DefaultMillerRabinRounds.
type MillerRabin struct {
	rounds int
	// Guards rng; *rand.Rand is not safe for concurrent use and a
	// detector instance may be shared between goroutines.
	mu  sync.Mutex
	rng *rand.Rand
}

// Defines the function signature for MillerRabin options.
type MillerRabinOption func(*MillerRabin)

// NewMillerRabin creates a detector with the default round count and a
// time-seeded randomness source, then applies any options.
func NewMillerRabin(options ...MillerRabinOption) *MillerRabin {
	mr := &MillerRabin{
		rounds: DefaultMillerRabinRounds,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, option := range options {
		option(mr)
	}
	return mr
}

// WithRounds sets the number of witness rounds; values below one are
// ignored.
func WithRounds(rounds int) MillerRabinOption {
	return func(mr *MillerRabin) {
		if rounds > 0 {
			mr.rounds = rounds
		}
	}
}

// WithRand sets the randomness source used to draw witnesses, so tests
// can substitute a seeded generator for reproducible witness sequences.
func WithRand(rng *rand.Rand) MillerRabinOption {
	return func(mr *MillerRabin) {
		if rng != nil {
			mr.rng = rng
		}
	}
}

// MillerRabinIsPrime reports whether k is probably prime after rounds
// witness rounds, using a throwaway time-seeded detector. Rounds below
// one fall back to the default.
func MillerRabinIsPrime(k uint64, rounds int) bool {
	return NewMillerRabin(WithRounds(rounds)).IsPrime(k)
}

// IsPrime reports whether k is prime. Composites with a factor in
// smallPrimes are rejected without consuming entropy; all other
// candidates face the witness loop, which draws one random base in
// [2, k-2] per round.
func (mr *MillerRabin) IsPrime(k uint64) bool {
	l := logger.V(1).WithValues("k", k, "rounds", mr.rounds)
	l.Info("MillerRabin.IsPrime: enter")
	if k < 2 {
		l.Info("MillerRabin.IsPrime: exit", "result", false)
		return false
	}
	for _, p := range smallPrimes {
		if k%p == 0 {
			result := k == p
			l.Info("MillerRabin.IsPrime: exit", "result", result)
			return result
		}
	}

	// Decompose k-1 as d * 2^s with d odd.
	d := k - 1
	s := 0
	for d%2 == 0 {
		d /= 2
		s++
	}

	n := new(big.Int).SetUint64(k)
	nMinusOne := new(big.Int).SetUint64(k - 1)
	oddPart := new(big.Int).SetUint64(d)
	// Candidates surviving the small-prime screen are >= 31, so the
	// witness interval [2, k-2] is never empty.
	span := new(big.Int).SetUint64(k - 3)
	witness := new(big.Int)
	x := new(big.Int)
	for round := 0; round < mr.rounds; round++ {
		mr.mu.Lock()
		witness.Rand(mr.rng, span)
		mr.mu.Unlock()
		witness.Add(witness, bigTwo)
		x.Exp(witness, oddPart, n)
		if x.Cmp(bigOne) == 0 || x.Cmp(nMinusOne) == 0 {
			// Inconclusive witness; k survives this round.
			continue
		}
		composite := true
		for i := 0; i < s-1; i++ {
			x.Mul(x, x)
			x.Mod(x, n)
			if x.Cmp(nMinusOne) == 0 {
				composite = false
				break
			}
		}
		if composite {
			l.Info("MillerRabin.IsPrime: exit", "result", false)
			return false
		}
	}
	l.Info("MillerRabin.IsPrime: exit", "result", true)
	return true
}
