package weft

// ProbabilisticStrategy flips a biased coin (probability p of "switch") at
// each scheduling point: with probability p it picks a new operation
// uniformly among the enabled set (excluding current, if possible);
// otherwise it continues with current, if current is still enabled.
type ProbabilisticStrategy struct {
	stepBudget
	baseSeed uint64
	gen      *ValueGenerator
	p        float64
}

// NewProbabilisticStrategy constructs a ProbabilisticStrategy with switch
// probability p, seeded from seed, bounded by maxSteps.
func NewProbabilisticStrategy(seed uint64, p float64, maxSteps uint64) *ProbabilisticStrategy {
	return &ProbabilisticStrategy{
		stepBudget: stepBudget{maxSteps: maxSteps, fair: false},
		baseSeed:   seed,
		gen:        NewValueGenerator(seed),
		p:          p,
	}
}

func (s *ProbabilisticStrategy) InitializeNextIteration(iteration int, _ *ExecutionTrace) bool {
	s.gen = NewValueGenerator(s.baseSeed + uint64(iteration))
	s.steps = 0
	return true
}

func (s *ProbabilisticStrategy) NextOperation(enabled []OpID, current OpID, _ bool) (OpID, bool) {
	s.tick()
	if len(enabled) == 0 {
		return 0, false
	}
	switchNow := s.gen.NextFloat64() < s.p
	if !switchNow && containsOpID(enabled, current) {
		return current, true
	}
	candidates := enabled
	if len(enabled) > 1 {
		filtered := make([]OpID, 0, len(enabled)-1)
		for _, id := range enabled {
			if id != current {
				filtered = append(filtered, id)
			}
		}
		if len(filtered) > 0 {
			candidates = filtered
		}
	}
	idx := s.gen.NextInt(uint32(len(candidates)))
	return candidates[idx], true
}

func (s *ProbabilisticStrategy) NextBool() bool { return s.gen.NextBool() }

func (s *ProbabilisticStrategy) NextInt(bound uint32) uint32 { return s.gen.NextInt(bound) }

func (s *ProbabilisticStrategy) Description() string { return "probabilistic" }
