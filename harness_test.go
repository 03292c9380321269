package weft

import (
	"context"
	"io"
	"log/slog"
)

// discardLogger keeps scheduler/engine logging out of test output.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// rrStrategy round-robins over the enabled set: after current, the next
// higher enabled id runs, wrapping to the lowest. Deterministic and weakly
// fair, which makes handoff-order assertions in unit tests exact; the
// production strategies live in strategy_*.go and get their own tests.
type rrStrategy struct {
	stepBudget
}

func newRRStrategy() *rrStrategy {
	return &rrStrategy{stepBudget: stepBudget{maxSteps: 1 << 20, fair: true}}
}

func (s *rrStrategy) InitializeNextIteration(int, *ExecutionTrace) bool {
	s.steps = 0
	return true
}

func (s *rrStrategy) NextOperation(enabled []OpID, current OpID, _ bool) (OpID, bool) {
	s.tick()
	if len(enabled) == 0 {
		return 0, false
	}
	for _, id := range enabled {
		if id > current {
			return id, true
		}
	}
	return enabled[0], true
}

func (s *rrStrategy) NextBool() bool { return false }

func (s *rrStrategy) NextInt(uint32) uint32 { return 0 }

func (s *rrStrategy) Description() string { return "round-robin" }

func newTestScheduler(strategy ExplorationStrategy) *OperationScheduler {
	cfg := defaultConfiguration()
	cfg.Logger = discardLogger()
	trace := NewExecutionTrace(strategy.Description(), 0)
	return NewOperationScheduler(cfg, strategy, trace)
}

// runControlled drives entry as one iteration under the deterministic
// round-robin strategy and returns its outcome.
func runControlled(entry func(ctx context.Context)) Outcome {
	return newTestScheduler(newRRStrategy()).Run("test", entry)
}
