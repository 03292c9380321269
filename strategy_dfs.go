package weft

import "sort"

// dfsFrame records one scheduling decision in the exploration stack: how
// many alternatives were available, and which one is currently selected.
type dfsFrame struct {
	numChoices int
	chosen     int
}

// DFSBoundedStrategy performs exhaustive depth-first exploration of
// schedules, bounded to the first bound decision points of each iteration;
// decisions beyond the bound fall back to always picking the first
// alternative. Each call to InitializeNextIteration backtracks the
// decision stack to the next untried alternative, the same way a classic
// bounded depth-first search advances from one leaf to the next: it
// deterministically replays every previously-made choice up to the
// backtrack point, then explores a fresh alternative from there.
//
// Unlike RandomStrategy and PCTStrategy, this strategy shares one decision
// stack across the whole run rather than reseeding per iteration:
// InitializeNextIteration returns false once the stack is empty after a
// backtrack, meaning every schedule reachable within bound has been tried.
type DFSBoundedStrategy struct {
	stepBudget
	stack []dfsFrame
	depth int
	bound int
	spent bool
}

// NewDFSBoundedStrategy constructs a DFSBoundedStrategy exploring up to
// bound decision points per iteration before acting greedily.
func NewDFSBoundedStrategy(bound int, maxSteps uint64) *DFSBoundedStrategy {
	return &DFSBoundedStrategy{
		stepBudget: stepBudget{maxSteps: maxSteps, fair: false},
		bound:      bound,
	}
}

func (s *DFSBoundedStrategy) InitializeNextIteration(iteration int, _ *ExecutionTrace) bool {
	s.steps = 0
	s.depth = 0
	if iteration == 0 {
		return true
	}
	for len(s.stack) > 0 {
		last := len(s.stack) - 1
		s.stack[last].chosen++
		if s.stack[last].chosen < s.stack[last].numChoices {
			return true
		}
		s.stack = s.stack[:last]
	}
	s.spent = true
	return false
}

// chooseNext resolves one decision among numChoices alternatives, either
// replaying a previously recorded choice or branching a new frame at
// index 0.
func (s *DFSBoundedStrategy) chooseNext(numChoices int) int {
	if numChoices <= 0 {
		return -1
	}
	if s.depth < len(s.stack) {
		f := s.stack[s.depth]
		idx := f.chosen
		if idx >= numChoices {
			idx = numChoices - 1
		}
		s.depth++
		return idx
	}
	if s.bound > 0 && len(s.stack) >= s.bound {
		s.depth++
		return 0
	}
	s.stack = append(s.stack, dfsFrame{numChoices: numChoices, chosen: 0})
	s.depth++
	return 0
}

func (s *DFSBoundedStrategy) NextOperation(enabled []OpID, _ OpID, _ bool) (OpID, bool) {
	s.tick()
	if len(enabled) == 0 {
		return 0, false
	}
	sorted := append([]OpID(nil), enabled...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := s.chooseNext(len(sorted))
	return sorted[idx], true
}

func (s *DFSBoundedStrategy) NextBool() bool {
	return s.chooseNext(2) == 1
}

func (s *DFSBoundedStrategy) NextInt(bound uint32) uint32 {
	if bound == 0 {
		return 0
	}
	return uint32(s.chooseNext(int(bound)))
}

func (s *DFSBoundedStrategy) Description() string { return "dfs-bounded" }

// Exhausted reports whether every schedule reachable within bound has
// already been explored (InitializeNextIteration has returned false).
func (s *DFSBoundedStrategy) Exhausted() bool { return s.spent }
