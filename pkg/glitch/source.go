package glitch

import "math/rand/v2"

// Source is the random source the transforms draw from.
//
// *rand.Rand from math/rand/v2 satisfies it. A Source is consumed by one
// call at a time; give concurrent calls their own Source.
type Source interface {
	// Shuffle pseudo-randomizes the order of n elements via swap.
	Shuffle(n int, swap func(i, j int))

	// IntN returns a uniform integer in [0, n). It panics if n <= 0.
	IntN(n int) int
}

// NewSource returns a PCG-backed source seeded from seed.
// Equal seeds yield equal draw sequences.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}

// intRange draws uniformly from [low, high). Callers guarantee low < high.
func intRange(rng Source, low, high int) int {
	return low + rng.IntN(high-low)
}
