package weft

import (
	"context"
	"fmt"
)

// ChooseBool resolves one nondeterministic boolean in the program under
// test. The active strategy decides the value; it is recorded in the
// iteration's trace so a replay resolves it identically.
func ChooseBool(ctx context.Context) bool {
	self, sched := mustOperationFrom(ctx)
	return sched.NextBool(self)
}

// ChooseInt resolves one nondeterministic integer in [0, bound).
func ChooseInt(ctx context.Context, bound uint32) uint32 {
	self, sched := mustOperationFrom(ctx)
	return sched.NextInt(self, bound)
}

// Yield voluntarily hands the turn back to the scheduler, letting the
// strategy interleave another enabled operation here.
func Yield(ctx context.Context) {
	self, sched := mustOperationFrom(ctx)
	sched.YieldNext(self)
}

// Assert fails the iteration with an AssertionFailure outcome when cond is
// false, unwinding the calling operation. A failed Assert is a bug: the
// engine stops exploring (unless running exhaustively) and reports the
// iteration's trace for replay.
func Assert(ctx context.Context, cond bool, format string, args ...any) {
	if cond {
		return
	}
	_, sched := mustOperationFrom(ctx)
	msg := fmt.Sprintf(format, args...)
	sched.Lock()
	sched.setOutcomeLocked(Outcome{
		Kind:    OutcomeAssertionFailure,
		Message: msg,
	})
	sched.Unlock()
	sched.abortAll()
	panic(assertionHalt{message: msg})
}
