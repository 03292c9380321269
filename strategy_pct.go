package weft

// PCTStrategy is priority-change-point testing: every
// operation gets a random initial priority; at each of k-1 change points
// (drawn uniformly over [0, n) at iteration start), the currently running
// operation is demoted to the lowest priority among active operations. The
// next operation is always the highest-priority enabled one, ties broken
// by the lower opId.
type PCTStrategy struct {
	stepBudget
	baseSeed uint64
	gen      *ValueGenerator

	k, n int

	changePoints map[uint64]struct{}
	priorities   map[OpID]int
	nextRank     int
}

// NewPCTStrategy constructs a PCTStrategy with k-1 change points drawn
// uniformly over [0, n), seeded from seed, bounded by maxSteps.
func NewPCTStrategy(seed uint64, k, n int, maxSteps uint64) *PCTStrategy {
	s := &PCTStrategy{
		stepBudget: stepBudget{maxSteps: maxSteps, fair: false},
		baseSeed:   seed,
		gen:        NewValueGenerator(seed),
		k:          k,
		n:          n,
	}
	s.drawChangePoints()
	return s
}

func (s *PCTStrategy) drawChangePoints() {
	s.changePoints = make(map[uint64]struct{}, s.k)
	bound := s.n
	if bound < 1 {
		bound = 1
	}
	for i := 0; i < s.k-1; i++ {
		s.changePoints[uint64(s.gen.NextInt(uint32(bound)))] = struct{}{}
	}
	s.priorities = make(map[OpID]int)
	s.nextRank = 0
}

func (s *PCTStrategy) InitializeNextIteration(iteration int, _ *ExecutionTrace) bool {
	s.gen = NewValueGenerator(s.baseSeed + uint64(iteration))
	s.steps = 0
	s.drawChangePoints()
	return true
}

// priorityOf returns op's assigned priority, assigning a fresh random rank
// (lower is higher priority) the first time op is observed.
func (s *PCTStrategy) priorityOf(op OpID) int {
	if p, ok := s.priorities[op]; ok {
		return p
	}
	// A random initial priority: draw a rank in a generously wide range so
	// ties between operations registered in the same step are unlikely,
	// while still letting opId break any that occur.
	p := s.gen.NextInt(1 << 20)
	s.priorities[op] = int(p)
	return int(p)
}

func (s *PCTStrategy) demote(op OpID, enabled []OpID) {
	max := -1
	for _, id := range enabled {
		if p := s.priorityOf(id); p > max {
			max = p
		}
	}
	s.priorities[op] = max + 1
}

func (s *PCTStrategy) NextOperation(enabled []OpID, current OpID, _ bool) (OpID, bool) {
	step := s.steps
	s.tick()
	if len(enabled) == 0 {
		return 0, false
	}

	for _, id := range enabled {
		s.priorityOf(id)
	}

	if _, isChangePoint := s.changePoints[step]; isChangePoint && containsOpID(enabled, current) {
		s.demote(current, enabled)
	}

	best := enabled[0]
	for _, id := range enabled[1:] {
		bp, ip := s.priorityOf(best), s.priorityOf(id)
		switch {
		case ip < bp:
			best = id
		case ip == bp && id < best:
			best = id
		}
	}
	return best, true
}

func (s *PCTStrategy) NextBool() bool { return s.gen.NextBool() }

func (s *PCTStrategy) NextInt(bound uint32) uint32 { return s.gen.NextInt(bound) }

func (s *PCTStrategy) Description() string { return "pct" }
