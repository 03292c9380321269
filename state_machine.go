package weft

import (
	"context"
	"fmt"
)

// StateHandler processes one event while a State (or an ancestor it was
// pushed under) is active.
type StateHandler func(ctx context.Context, sm *StateMachine, ev Event) error

// State is one node of a StateMachine's hierarchy. OnEntry
// runs when the state becomes current via GotoState or is pushed via
// Push; OnExit runs when it stops being current via GotoState or Pop.
// Deferred lists event kinds the mailbox holds in place while this state is
// innermost; Ignored lists kinds it silently discards.
type State struct {
	Name     string
	OnEntry  func(ctx context.Context, sm *StateMachine) error
	OnExit   func(ctx context.Context, sm *StateMachine) error
	Handlers map[string]StateHandler
	Deferred []string
	Ignored  []string
}

// StateMachine layers named, hierarchical states over an Actor's mailbox
// dispatch: an event is offered to the innermost pushed state first, then
// each ancestor in turn, matching how Push nests a temporary state
// without losing the enclosing state's handlers. An event no state in the
// stack declares a handler for faults the machine with ErrUnhandledEvent.
// Each transition installs the innermost state's Deferred/Ignored sets on
// the mailbox, so an event deferred by one state becomes eligible the
// moment a transition leaves that state.
type StateMachine struct {
	actor *Actor
	stack []*State
}

// NewStateMachine spawns a StateMachine actor starting in start; start's
// OnEntry runs in the caller's operation before the machine handles its
// first event.
func NewStateMachine(ctx context.Context, name string, start *State) (*StateMachine, error) {
	_, sched := mustOperationFrom(ctx)
	sm := &StateMachine{stack: []*State{start}}
	sm.actor = NewActor(ctx, name, func(ctx context.Context, _ *Actor, ev Event) error {
		return sm.dispatch(ctx, ev)
	})
	sched.Lock()
	sm.actor.mailbox.setPolicyLocked(start.Deferred, start.Ignored)
	sched.Unlock()
	if start.OnEntry != nil {
		if err := start.OnEntry(ctx, sm); err != nil {
			return nil, err
		}
	}
	return sm, nil
}

func (sm *StateMachine) dispatch(ctx context.Context, ev Event) error {
	for i := len(sm.stack) - 1; i >= 0; i-- {
		s := sm.stack[i]
		if h, ok := s.Handlers[ev.EventKind()]; ok {
			return h(ctx, sm, ev)
		}
	}
	return fmt.Errorf("%w: %q in state %q", ErrUnhandledEvent, ev.EventKind(), sm.Current().Name)
}

// Current returns the innermost active state.
func (sm *StateMachine) Current() *State { return sm.stack[len(sm.stack)-1] }

// Send delivers ev to the machine's mailbox without blocking.
func (sm *StateMachine) Send(ctx context.Context, ev Event) EnqueueStatus {
	return sm.actor.Send(ctx, ev)
}

// Raise schedules ev to be handled before any queued event, as soon as the
// current handler returns. Call only from within a handler.
func (sm *StateMachine) Raise(ctx context.Context, ev Event) {
	sm.actor.Raise(ctx, ev)
}

// Receive blocks the current handler until an event matching predicate
// arrives, bypassing the dispatch loop. Call only from within a handler.
func (sm *StateMachine) Receive(ctx context.Context, predicate func(Event) bool) Event {
	return sm.actor.Receive(ctx, predicate)
}

// Halt is returned from a handler to terminate the machine cleanly,
// dropping everything still in its mailbox.
func (sm *StateMachine) Halt() error { return ErrStopActor }

// Task returns the underlying ControlledTask backing the machine's actor.
func (sm *StateMachine) Task() *ControlledTask[struct{}] { return sm.actor.Task() }

// applyPolicy installs the innermost state's deferred/ignored sets on the
// mailbox.
func (sm *StateMachine) applyPolicy(ctx context.Context) {
	_, sched := mustOperationFrom(ctx)
	cur := sm.Current()
	sched.Lock()
	sm.actor.mailbox.setPolicyLocked(cur.Deferred, cur.Ignored)
	sched.Unlock()
}

// GotoState replaces the entire state stack with next: the current
// innermost state's OnExit runs, then next's OnEntry. Unlike Push, this
// discards any pushed ancestors.
func (sm *StateMachine) GotoState(ctx context.Context, next *State) error {
	if cur := sm.Current(); cur.OnExit != nil {
		if err := cur.OnExit(ctx, sm); err != nil {
			return err
		}
	}
	sm.stack = []*State{next}
	sm.applyPolicy(ctx)
	if next.OnEntry != nil {
		return next.OnEntry(ctx, sm)
	}
	return nil
}

// Push nests next under the current state: next's handlers take priority,
// but an event it doesn't declare falls through to the state(s) beneath
// it, which remain active until Pop.
func (sm *StateMachine) Push(ctx context.Context, next *State) error {
	sm.stack = append(sm.stack, next)
	sm.applyPolicy(ctx)
	if next.OnEntry != nil {
		return next.OnEntry(ctx, sm)
	}
	return nil
}

// Pop removes the innermost pushed state, running its OnExit, and reveals
// the state beneath it. Popping the last remaining state is a no-op.
func (sm *StateMachine) Pop(ctx context.Context) error {
	if len(sm.stack) <= 1 {
		return nil
	}
	top := sm.stack[len(sm.stack)-1]
	sm.stack = sm.stack[:len(sm.stack)-1]
	sm.applyPolicy(ctx)
	if top.OnExit != nil {
		return top.OnExit(ctx, sm)
	}
	return nil
}
