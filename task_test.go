package weft

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestControlledTask_ResultPropagatesValue(t *testing.T) {
	var got int
	var gotErr error
	outcome := runControlled(func(ctx context.Context) {
		task := Spawn[int](ctx, "answer", func(ctx context.Context) (int, error) {
			return 42, nil
		})
		got, gotErr = task.Result(ctx)
	})
	require.Equal(t, OutcomeOK, outcome.Kind)
	require.NoError(t, gotErr)
	require.Equal(t, 42, got)
}

func TestControlledTask_ResultPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	var gotErr error
	var state TaskState
	outcome := runControlled(func(ctx context.Context) {
		task := Spawn[int](ctx, "failing", func(ctx context.Context) (int, error) {
			return 0, boom
		})
		_, gotErr = task.Result(ctx)
		state = task.State()
	})
	require.Equal(t, OutcomeOK, outcome.Kind)
	require.ErrorIs(t, gotErr, boom)
	require.Equal(t, TaskFaulted, state)
}

func TestControlledTask_AwaitAfterTerminalReturnsImmediately(t *testing.T) {
	var first, second int
	outcome := runControlled(func(ctx context.Context) {
		task := Spawn[int](ctx, "answer", func(ctx context.Context) (int, error) {
			return 7, nil
		})
		first, _ = task.Result(ctx)
		second, _ = task.Result(ctx)
	})
	require.Equal(t, OutcomeOK, outcome.Kind)
	require.Equal(t, 7, first)
	require.Equal(t, 7, second)
}

func TestWhenAll_ReturnsFirstErrorInTaskOrder(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	var gotErr error
	outcome := runControlled(func(ctx context.Context) {
		a := Spawn[int](ctx, "a", func(ctx context.Context) (int, error) { return 0, errA })
		b := Spawn[int](ctx, "b", func(ctx context.Context) (int, error) { return 0, errB })
		gotErr = WhenAll(ctx, a, b)
	})
	require.Equal(t, OutcomeOK, outcome.Kind)
	require.ErrorIs(t, gotErr, errA)
}

func TestWhenAll_EmptyIsNoop(t *testing.T) {
	var gotErr error
	outcome := runControlled(func(ctx context.Context) {
		gotErr = WhenAll(ctx)
	})
	require.Equal(t, OutcomeOK, outcome.Kind)
	require.NoError(t, gotErr)
}

func TestWhenAny_ReturnsACompletedTask(t *testing.T) {
	var winnerID TaskID
	var slowDone bool
	outcome := runControlled(func(ctx context.Context) {
		quick := Spawn[int](ctx, "quick", func(ctx context.Context) (int, error) {
			return 1, nil
		})
		slow := Spawn[int](ctx, "slow", func(ctx context.Context) (int, error) {
			for i := 0; i < 20; i++ {
				Yield(ctx)
			}
			slowDone = true
			return 2, nil
		})
		winner, err := WhenAny(ctx, quick, slow)
		if err == nil {
			winnerID = winner.(*ControlledTask[int]).ID()
		}
		_ = WhenAll(ctx, quick, slow)
	})
	require.Equal(t, OutcomeOK, outcome.Kind)
	require.NotZero(t, winnerID)
	require.True(t, slowDone, "iteration must drain the slow task too")
}

func TestDelayTask_CompletesAfterYields(t *testing.T) {
	var done bool
	outcome := runControlled(func(ctx context.Context) {
		d := DelayTask(ctx, 5)
		_, err := d.Result(ctx)
		done = err == nil
	})
	require.Equal(t, OutcomeOK, outcome.Kind)
	require.True(t, done)
}

func TestTask_PanicSurfacesToAwaiter(t *testing.T) {
	var gotErr error
	outcome := runControlled(func(ctx context.Context) {
		task := Spawn[int](ctx, "bomb", func(ctx context.Context) (int, error) {
			panic("kaboom")
		})
		_, gotErr = task.Result(ctx)
	})
	// The panic is captured at the operation's top frame and aborts the
	// iteration; the awaiter never observes a woken Result.
	require.Equal(t, OutcomeUnhandledException, outcome.Kind)
	require.Contains(t, outcome.Message, "kaboom")
	_ = gotErr
}

func TestCancellationToken_CancelResolvesTaskCanceled(t *testing.T) {
	var waitErr error
	var canceledSeen bool
	var state TaskState
	outcome := runControlled(func(ctx context.Context) {
		token := NewCancellationToken(ctx)
		worker := Spawn[int](ctx, "worker", func(ctx context.Context) (int, error) {
			for !token.IsCanceled() {
				Yield(ctx)
			}
			canceledSeen = true
			return 0, context.Canceled
		})
		token.Cancel(ctx)
		waitErr = WhenAll(ctx, worker)
		state = worker.State()
	})
	require.Equal(t, OutcomeOK, outcome.Kind)
	require.True(t, canceledSeen)
	require.ErrorIs(t, waitErr, context.Canceled)
	require.True(t, IsCanceledError(waitErr))
	require.Equal(t, TaskCanceled, state, "a canceled task must be terminal Canceled, not Faulted")
}

func TestControlledTask_WrappedCancellationIsStillCanceled(t *testing.T) {
	var state TaskState
	outcome := runControlled(func(ctx context.Context) {
		task := Spawn[int](ctx, "canceled", func(ctx context.Context) (int, error) {
			return 0, fmt.Errorf("worker stopped: %w", context.Canceled)
		})
		_, _ = task.Result(ctx)
		state = task.State()
	})
	require.Equal(t, OutcomeOK, outcome.Kind)
	require.Equal(t, TaskCanceled, state)
}

func TestMustOperationFrom_PanicsOutsideControlledCode(t *testing.T) {
	require.Panics(t, func() {
		mustOperationFrom(context.Background())
	})
}
