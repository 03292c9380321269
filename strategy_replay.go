package weft

import "fmt"

// ReplayStrategy deterministically replays a previously recorded
// ExecutionTrace instead of making scheduling decisions itself. Any
// divergence between what the program under test requests and what the
// trace recorded is reported as OutcomeTraceReplayFailure rather than
// silently falling back to some other choice; a replay that can silently
// diverge is not a replay.
type ReplayStrategy struct {
	stepBudget
	trace *ExecutionTrace
	pos   int

	// Divergence, once set, is surfaced by the OperationScheduler as the
	// iteration's Outcome; further calls after a divergence just return zero values so
	// the operation under replay can unwind without panicking.
	Divergence error
}

// NewReplayStrategy constructs a ReplayStrategy that replays trace exactly
// once; Engine should configure MaxIterations to 1 when using it.
func NewReplayStrategy(trace *ExecutionTrace) *ReplayStrategy {
	return &ReplayStrategy{
		stepBudget: stepBudget{maxSteps: ^uint64(0), fair: false},
		trace:      trace,
	}
}

func (s *ReplayStrategy) InitializeNextIteration(iteration int, _ *ExecutionTrace) bool {
	if iteration > 0 {
		return false
	}
	s.pos = 0
	s.steps = 0
	s.Divergence = nil
	return true
}

func (s *ReplayStrategy) next(kind DecisionKind) (Decision, bool) {
	if s.Divergence != nil {
		return Decision{}, false
	}
	// Fingerprint entries are bookkeeping, not decisions; a replayed run
	// recomputes its own fingerprints, so recorded ones are skipped.
	for s.pos < len(s.trace.Decisions) && s.trace.Decisions[s.pos].Kind == DecisionHash {
		s.pos++
	}
	if s.pos >= len(s.trace.Decisions) {
		s.Divergence = fmt.Errorf("%w: trace exhausted at decision %d, expected kind %v", ErrTraceReplayFailure, s.pos, kind)
		return Decision{}, false
	}
	d := s.trace.Decisions[s.pos]
	if d.Kind != kind {
		s.Divergence = fmt.Errorf("%w: at decision %d expected kind %v, trace has %v", ErrTraceReplayFailure, s.pos, kind, d.Kind)
		return Decision{}, false
	}
	s.pos++
	return d, true
}

func (s *ReplayStrategy) NextOperation(enabled []OpID, _ OpID, _ bool) (OpID, bool) {
	s.tick()
	d, ok := s.next(DecisionScheduleOp)
	if !ok {
		return 0, false
	}
	if !containsOpID(enabled, d.OpID) {
		s.Divergence = fmt.Errorf("%w: at decision %d, op %d is not enabled (enabled=%v)", ErrTraceReplayFailure, s.pos-1, d.OpID, enabled)
		return 0, false
	}
	return d.OpID, true
}

func (s *ReplayStrategy) NextBool() bool {
	d, ok := s.next(DecisionBool)
	if !ok {
		return false
	}
	return d.BoolValue
}

func (s *ReplayStrategy) NextInt(bound uint32) uint32 {
	d, ok := s.next(DecisionInt)
	if !ok {
		return 0
	}
	if d.IntBound != bound {
		s.Divergence = fmt.Errorf("%w: at decision %d expected bound %d, trace has %d", ErrTraceReplayFailure, s.pos-1, bound, d.IntBound)
		return 0
	}
	return d.IntValue
}

func (s *ReplayStrategy) Description() string { return "replay" }

// Done reports whether every decision in the trace has been consumed
// without divergence.
func (s *ReplayStrategy) Done() bool {
	return s.Divergence == nil && s.pos >= len(s.trace.Decisions)
}
