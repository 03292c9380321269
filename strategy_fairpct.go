package weft

// FairPCTStrategy composes PCTStrategy (unfair) with RandomStrategy,
// switching to the random strategy once the step count exceeds
// fairActivationBound. Random scheduling is weakly fair over a long
// enough run (every enabled operation keeps a nonzero chance of being
// picked), which is what liveness checking needs; plain PCT can starve an
// operation indefinitely once priorities settle.
type FairPCTStrategy struct {
	stepBudget
	pct                 *PCTStrategy
	random              *RandomStrategy
	fairActivationBound uint64
}

// NewFairPCTStrategy constructs a FairPCTStrategy. Once step count exceeds
// fairActivationBound within an iteration, scheduling decisions switch from
// PCT to random for the remainder of that iteration.
func NewFairPCTStrategy(seed uint64, k, n int, maxSteps, fairActivationBound uint64) *FairPCTStrategy {
	return &FairPCTStrategy{
		stepBudget:          stepBudget{maxSteps: maxSteps, fair: true},
		pct:                 NewPCTStrategy(seed, k, n, maxSteps),
		random:              NewRandomStrategy(seed+1, maxSteps),
		fairActivationBound: fairActivationBound,
	}
}

func (s *FairPCTStrategy) InitializeNextIteration(iteration int, trace *ExecutionTrace) bool {
	s.steps = 0
	s.pct.InitializeNextIteration(iteration, trace)
	s.random.InitializeNextIteration(iteration, trace)
	return true
}

func (s *FairPCTStrategy) active() ExplorationStrategy {
	if s.steps > s.fairActivationBound {
		return s.random
	}
	return s.pct
}

func (s *FairPCTStrategy) NextOperation(enabled []OpID, current OpID, isYielding bool) (OpID, bool) {
	s.tick()
	return s.active().NextOperation(enabled, current, isYielding)
}

func (s *FairPCTStrategy) NextBool() bool { return s.active().NextBool() }

func (s *FairPCTStrategy) NextInt(bound uint32) uint32 { return s.active().NextInt(bound) }

func (s *FairPCTStrategy) Description() string { return "fairpct" }
