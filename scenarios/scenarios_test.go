// Package scenarios exercises the engine end-to-end on the classic
// concurrency-bug shapes: lock-order deadlock, liveness starvation, lost
// updates, condition-variable broadcast, deferred mailbox events, and
// cancellation racing task completion. Each test is a complete user-style
// test program handed to the engine, with its correctness conditions
// expressed as in-program assertions.
package scenarios

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ashwinrajeev/weft"
)

type event struct {
	kind string
	n    int
}

func (e event) EventKind() string { return e.kind }

func quiet() weft.Option {
	return weft.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// TestTwoLockDeadlock: operations A and B take two locks in opposite
// orders; some interleaving wedges both. The engine must classify it as a
// deadlock and the persisted trace must reproduce it under replay.
func TestTwoLockDeadlock(t *testing.T) {
	tc := weft.TestCase{
		Name: "two-lock-deadlock",
		Entry: func(ctx context.Context) {
			l1 := weft.NewLock(ctx)
			l2 := weft.NewLock(ctx)
			a := weft.Spawn[int](ctx, "a", func(ctx context.Context) (int, error) {
				l1.Acquire(ctx)
				weft.Yield(ctx)
				l2.Acquire(ctx)
				l2.Release(ctx)
				l1.Release(ctx)
				return 0, nil
			})
			b := weft.Spawn[int](ctx, "b", func(ctx context.Context) (int, error) {
				l2.Acquire(ctx)
				weft.Yield(ctx)
				l1.Acquire(ctx)
				l1.Release(ctx)
				l2.Release(ctx)
				return 0, nil
			})
			_ = weft.WhenAll(ctx, a, b)
		},
		RewrittenVersion: 1,
	}

	e, err := weft.NewEngine(quiet(), weft.WithMaxIterations(500), weft.WithSeed(1))
	require.NoError(t, err)
	report, err := e.Run(context.Background(), tc)
	require.NoError(t, err)
	require.True(t, report.FoundBug())
	require.Equal(t, weft.OutcomeDeadlock, report.FirstBug.Kind)
	require.NotEmpty(t, report.FirstBug.BlockedOperations)

	data, err := report.TraceJSON()
	require.NoError(t, err)
	trace, err := weft.DeserializeTrace(data)
	require.NoError(t, err)
	replayed, err := e.Replay(context.Background(), tc, trace)
	require.NoError(t, err)
	require.True(t, replayed.FoundBug())
	require.Equal(t, weft.OutcomeDeadlock, replayed.FirstBug.Kind)
}

// producerConsumer builds the liveness scenario: a monitor starts Hot in
// "WaitingForWork" and only an observed delivery moves it Cold. The
// producer burns busyYields turns before delivering.
func producerConsumer(busyYields int) weft.TestCase {
	return weft.TestCase{
		Name: "producer-consumer",
		Entry: func(ctx context.Context) {
			served := &weft.MonitorState{Name: "Served"}
			waiting := &weft.MonitorState{Name: "WaitingForWork", Hot: true}
			waiting.Handlers = map[string]weft.MonitorEventHandler{
				"work": func(ctx context.Context, m *weft.Monitor) error {
					m.GotoState(served)
					return nil
				},
			}
			progress := weft.NewMonitor(ctx, "progress", waiting)

			consumer := weft.NewActor(ctx, "consumer", func(ctx context.Context, a *weft.Actor, ev weft.Event) error {
				_ = progress.Observe(ctx, ev.EventKind())
				return weft.ErrStopActor
			})
			producer := weft.Spawn[int](ctx, "producer", func(ctx context.Context) (int, error) {
				for i := 0; i < busyYields; i++ {
					weft.Yield(ctx)
				}
				consumer.Send(ctx, event{kind: "work"})
				return 0, nil
			})
			_ = weft.WhenAll(ctx, producer, consumer.Task())
		},
		RewrittenVersion: 1,
	}
}

// TestProducerConsumerLiveness_ViolationWhenStarved: the producer cannot
// deliver within the fair step budget, so the monitor is still Hot at the
// bound.
func TestProducerConsumerLiveness_ViolationWhenStarved(t *testing.T) {
	e, err := weft.NewEngine(quiet(),
		weft.WithStrategy(weft.StrategyFairPCT),
		weft.WithMaxIterations(1),
		weft.WithMaxSteps(200, 50),
		weft.WithSeed(1),
	)
	require.NoError(t, err)
	report, err := e.Run(context.Background(), producerConsumer(400))
	require.NoError(t, err)
	require.True(t, report.FoundBug())
	require.Equal(t, weft.OutcomeLivenessViolation, report.FirstBug.Kind)
	require.Equal(t, "progress", report.FirstBug.Monitor)
	require.Equal(t, "WaitingForWork", report.FirstBug.HotState)
}

// TestProducerConsumerLiveness_OKWithBudget: with a fair strategy and a
// budget the producer fits into, every iteration ends Cold.
func TestProducerConsumerLiveness_OKWithBudget(t *testing.T) {
	e, err := weft.NewEngine(quiet(),
		weft.WithStrategy(weft.StrategyFairPCT),
		weft.WithMaxIterations(20),
		weft.WithSeed(1),
	)
	require.NoError(t, err)
	report, err := e.Run(context.Background(), producerConsumer(5))
	require.NoError(t, err)
	require.False(t, report.FoundBug(), "got %+v", report.FirstBug)
}

// TestSharedCounterRace: two unsynchronized read-modify-write operations;
// the engine must find the interleaving that loses an update.
func TestSharedCounterRace(t *testing.T) {
	tc := weft.TestCase{
		Name: "shared-counter",
		Entry: func(ctx context.Context) {
			counter := 0
			inc := func(ctx context.Context) (int, error) {
				v := counter
				weft.Yield(ctx)
				counter = v + 1
				return 0, nil
			}
			a := weft.Spawn[int](ctx, "inc-a", inc)
			b := weft.Spawn[int](ctx, "inc-b", inc)
			_ = weft.WhenAll(ctx, a, b)
			weft.Assert(ctx, counter == 2, "lost update: counter == %d", counter)
		},
		RewrittenVersion: 1,
	}
	e, err := weft.NewEngine(quiet(), weft.WithMaxIterations(500), weft.WithSeed(1))
	require.NoError(t, err)
	report, err := e.Run(context.Background(), tc)
	require.NoError(t, err)
	require.True(t, report.FoundBug())
	require.Equal(t, weft.OutcomeAssertionFailure, report.FirstBug.Kind)
}

// TestPulseAllSemantics: three waiters on a monitor lock, one PulseAll;
// every waiter must resume exactly once, in whatever order the strategy
// picks. The in-program assertions must hold on every explored schedule.
func TestPulseAllSemantics(t *testing.T) {
	tc := weft.TestCase{
		Name: "pulse-all",
		Entry: func(ctx context.Context) {
			ml := weft.NewMonitorLock(ctx)
			resumes := [3]int{}
			waiting := 0
			tasks := make([]weft.Awaitable, 0, 3)
			for i := 0; i < 3; i++ {
				n := i
				tasks = append(tasks, weft.Spawn[int](ctx, "waiter", func(ctx context.Context) (int, error) {
					ml.Acquire(ctx)
					waiting++
					ml.Wait(ctx)
					resumes[n]++
					ml.Release(ctx)
					return 0, nil
				}))
			}
			for waiting < 3 {
				weft.Yield(ctx)
			}
			ml.Acquire(ctx)
			ml.PulseAll(ctx)
			ml.Release(ctx)
			_ = weft.WhenAll(ctx, tasks...)
			for n, count := range resumes {
				weft.Assert(ctx, count == 1, "waiter %d resumed %d times", n, count)
			}
		},
		RewrittenVersion: 1,
	}
	e, err := weft.NewEngine(quiet(), weft.WithMaxIterations(100), weft.WithSeed(7))
	require.NoError(t, err)
	report, err := e.Run(context.Background(), tc)
	require.NoError(t, err)
	require.False(t, report.FoundBug(), "got %+v", report.FirstBug)
}

// TestDeferredEventOrdering: state S1 defers type A; the mailbox receives
// A then B; the handler must process B first and pick A up on entering S2.
func TestDeferredEventOrdering(t *testing.T) {
	tc := weft.TestCase{
		Name: "deferred-events",
		Entry: func(ctx context.Context) {
			var handled []string
			s2 := &weft.State{Name: "s2"}
			s2.Handlers = map[string]weft.StateHandler{
				"a": func(ctx context.Context, sm *weft.StateMachine, ev weft.Event) error {
					handled = append(handled, "a")
					return sm.Halt()
				},
			}
			s1 := &weft.State{
				Name:     "s1",
				Deferred: []string{"a"},
				Handlers: map[string]weft.StateHandler{
					"b": func(ctx context.Context, sm *weft.StateMachine, ev weft.Event) error {
						handled = append(handled, "b")
						return sm.GotoState(ctx, s2)
					},
				},
			}
			sm, err := weft.NewStateMachine(ctx, "machine", s1)
			if err != nil {
				weft.Assert(ctx, false, "NewStateMachine: %v", err)
			}
			sm.Send(ctx, event{kind: "a"})
			sm.Send(ctx, event{kind: "b"})
			_, smErr := sm.Task().Result(ctx)
			weft.Assert(ctx, smErr == nil, "state machine faulted: %v", smErr)
			weft.Assert(ctx, len(handled) == 2 && handled[0] == "b" && handled[1] == "a",
				"handled order %v, want [b a]", handled)
		},
		RewrittenVersion: 1,
	}
	e, err := weft.NewEngine(quiet(), weft.WithMaxIterations(50), weft.WithSeed(2))
	require.NoError(t, err)
	report, err := e.Run(context.Background(), tc)
	require.NoError(t, err)
	require.False(t, report.FoundBug(), "got %+v", report.FirstBug)
}

// TestCancellationDuringWhenAll: t2 observes cancellation and resolves
// Canceled; the awaiter wakes with that result and no operation is left
// blocked at iteration end (the iteration reports no deadlock on any
// explored schedule).
func TestCancellationDuringWhenAll(t *testing.T) {
	tc := weft.TestCase{
		Name: "cancel-when-all",
		Entry: func(ctx context.Context) {
			token := weft.NewCancellationToken(ctx)
			t1 := weft.Spawn[int](ctx, "t1", func(ctx context.Context) (int, error) {
				weft.Yield(ctx)
				return 1, nil
			})
			t2 := weft.Spawn[int](ctx, "t2", func(ctx context.Context) (int, error) {
				for !token.IsCanceled() {
					weft.Yield(ctx)
				}
				return 0, context.Canceled
			})
			token.Cancel(ctx)
			err := weft.WhenAll(ctx, t1, t2)
			weft.Assert(ctx, weft.IsCanceledError(err), "WhenAll returned %v, want cancellation", err)
			weft.Assert(ctx, t2.State() == weft.TaskCanceled, "t2 state %v, want Canceled", t2.State())
			weft.Assert(ctx, t1.State() == weft.TaskRanToCompletion, "t1 state %v", t1.State())
		},
		RewrittenVersion: 1,
	}
	e, err := weft.NewEngine(quiet(), weft.WithMaxIterations(100), weft.WithSeed(5))
	require.NoError(t, err)
	report, err := e.Run(context.Background(), tc)
	require.NoError(t, err)
	require.False(t, report.FoundBug(), "got %+v", report.FirstBug)
}
