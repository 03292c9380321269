package weft

import "math/rand/v2"

// ValueGenerator is the single source of nondeterminism exploration
// strategies may consume. It is deterministic given its seed: the same
// seed drives the same sequence of draws. Strategies must never consume
// system randomness, wall-clock time, or goroutine identity when making
// scheduling decisions; that would break the reproducibility contract
// ("identical (strategy, seed, trace-prefix) implies identical
// schedule").
type ValueGenerator struct {
	seed uint64
	rng  *rand.Rand
}

// NewValueGenerator constructs a generator seeded deterministically from
// seed.
func NewValueGenerator(seed uint64) *ValueGenerator {
	return &ValueGenerator{
		seed: seed,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15)),
	}
}

// Seed returns the seed this generator was constructed with. TestingEngine
// mutates the seed at iteration boundaries (base_seed + iteration) by
// constructing a fresh ValueGenerator rather than reseeding in place, so
// Seed is always the value an iteration started with.
func (g *ValueGenerator) Seed() uint64 { return g.seed }

// NextInt returns a uniformly distributed value in [0, bound). Bound of 0
// always returns 0.
func (g *ValueGenerator) NextInt(bound uint32) uint32 {
	if bound == 0 {
		return 0
	}
	return uint32(g.rng.IntN(int(bound)))
}

// NextBool returns a uniformly distributed boolean.
func (g *ValueGenerator) NextBool() bool {
	return g.rng.IntN(2) == 1
}

// NextFloat64 returns a uniformly distributed value in [0, 1). Used by
// StrategyProbabilistic's biased coin.
func (g *ValueGenerator) NextFloat64() float64 {
	return g.rng.Float64()
}
