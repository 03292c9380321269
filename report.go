package weft

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TestReport is the result of one Engine.Run: how much was explored, what
// bug (if any) was found first, and the trace that reproduces it.
type TestReport struct {
	TestName string
	Strategy string
	Seed     uint64

	// Iterations is how many iterations actually ran (the strategy may
	// exhaust, or a bug may stop exploration, before MaxIterations).
	Iterations int

	// BugsFound counts bug outcomes; >1 only in exhaustive mode.
	BugsFound int

	// FirstBug is the first bug outcome observed, nil if none.
	FirstBug          *Outcome
	FirstBugIteration int

	// BugTrace is the trace of the first buggy iteration; replaying it
	// with Engine.Replay reproduces FirstBug.
	BugTrace *ExecutionTrace

	// MaxStepsHits counts iterations terminated at the step bound: a
	// hint that the bounds may be too tight, not a bug.
	MaxStepsHits int

	Elapsed time.Duration
}

// FoundBug reports whether exploration surfaced at least one bug.
func (r *TestReport) FoundBug() bool { return r.FirstBug != nil }

// ExitCode maps the report to the engine's process exit convention:
// 0 = no bug, 1 = bug found.
func (r *TestReport) ExitCode() int {
	if r.FoundBug() {
		return 1
	}
	return 0
}

// ExitCodeForError maps an Engine.Run error to the process exit
// convention: 0 = nil, 3 = non-rewritten input, 4 = configuration error,
// 2 = any other (internal) error.
func ExitCodeForError(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrNotRewritten):
		return 3
	case errors.Is(err, ErrInvalidConfig):
		return 4
	default:
		return 2
	}
}

// TraceJSON renders the bug trace in the persistable JSON form, suitable
// for a later Engine.Replay in another process. It returns nil when no bug
// was found.
func (r *TestReport) TraceJSON() ([]byte, error) {
	if r.BugTrace == nil {
		return nil, nil
	}
	return SerializeTrace(r.BugTrace)
}

// ReadableTrace renders a human-formatted account of the first buggy
// iteration: the outcome, then every scheduling decision in order. It is
// the plain-text companion to TraceJSON.
func (r *TestReport) ReadableTrace() string {
	var b strings.Builder
	fmt.Fprintf(&b, "test %q: ", r.TestName)
	if r.FirstBug == nil {
		fmt.Fprintf(&b, "no bug found in %d iteration(s) (strategy %s, seed %d)\n",
			r.Iterations, r.Strategy, r.Seed)
		return b.String()
	}
	fmt.Fprintf(&b, "%s found in iteration %d (strategy %s, seed %d)\n",
		r.FirstBug.Kind, r.FirstBugIteration, r.Strategy, r.BugTrace.Seed)
	if r.FirstBug.Message != "" {
		fmt.Fprintf(&b, "  %s\n", r.FirstBug.Message)
	}
	for _, op := range r.FirstBug.BlockedOperations {
		fmt.Fprintf(&b, "  blocked: op %d %q (%s): %s", op.OpID, op.Name, op.Status, op.Reason)
		if len(op.Holds) > 0 {
			fmt.Fprintf(&b, "; holds %v", op.Holds)
		}
		fmt.Fprintln(&b)
	}
	if r.FirstBug.Monitor != "" {
		fmt.Fprintf(&b, "  monitor %q in hot state %q\n", r.FirstBug.Monitor, r.FirstBug.HotState)
	}
	fmt.Fprintf(&b, "schedule (%d decisions):\n", r.BugTrace.Len())
	for i, d := range r.BugTrace.Decisions {
		switch d.Kind {
		case DecisionScheduleOp:
			fmt.Fprintf(&b, "  %4d: run op %d\n", i, d.OpID)
		case DecisionBool:
			fmt.Fprintf(&b, "  %4d: bool -> %v\n", i, d.BoolValue)
		case DecisionInt:
			fmt.Fprintf(&b, "  %4d: int(%d) -> %d\n", i, d.IntBound, d.IntValue)
		case DecisionHash:
			fmt.Fprintf(&b, "  %4d: state fingerprint %#x\n", i, d.Hash)
		}
	}
	return b.String()
}
