package weft

// RandomStrategy picks uniformly among enabled operations and resolves
// bool/int draws uniformly as well. It provides no fairness guarantee.
type RandomStrategy struct {
	stepBudget
	baseSeed uint64
	gen      *ValueGenerator
}

// NewRandomStrategy constructs a RandomStrategy seeded from seed, bounded
// by maxSteps.
func NewRandomStrategy(seed uint64, maxSteps uint64) *RandomStrategy {
	return &RandomStrategy{
		stepBudget: stepBudget{maxSteps: maxSteps, fair: false},
		baseSeed:   seed,
		gen:        NewValueGenerator(seed),
	}
}

// InitializeNextIteration reseeds iteration i at baseSeed+i, the seed
// mutation rule the reproducibility contract names.
func (s *RandomStrategy) InitializeNextIteration(iteration int, _ *ExecutionTrace) bool {
	s.gen = NewValueGenerator(s.baseSeed + uint64(iteration))
	s.steps = 0
	return true
}

func (s *RandomStrategy) NextOperation(enabled []OpID, _ OpID, _ bool) (OpID, bool) {
	s.tick()
	if len(enabled) == 0 {
		return 0, false
	}
	idx := s.gen.NextInt(uint32(len(enabled)))
	return enabled[idx], true
}

func (s *RandomStrategy) NextBool() bool { return s.gen.NextBool() }

func (s *RandomStrategy) NextInt(bound uint32) uint32 { return s.gen.NextInt(bound) }

func (s *RandomStrategy) Description() string { return "random" }
