package weft

import (
	"context"
	"errors"
)

// ErrStopActor is returned by an ActorHandler to end the actor's dispatch
// loop cleanly, halting its mailbox; any other non-nil error instead faults
// the actor's underlying task.
var ErrStopActor = errors.New(Namespace + ": actor requested stop")

// ActorHandler processes one event delivered to an Actor.
type ActorHandler func(ctx context.Context, a *Actor, ev Event) error

// Actor is a controlled unit of mailbox-driven concurrency: its own
// Operation runs a loop that takes one eligible event at a
// time from its mailbox and dispatches it to handler, so at most one event
// is ever processed concurrently, the same single-operation-at-a-time
// guarantee the scheduler gives every other controlled construct. Halting
// (via ErrStopActor) drops every event still queued.
type Actor struct {
	name    string
	mailbox *EventQueue
	task    *ControlledTask[struct{}]
}

// NewActor spawns an Actor as a child of the calling operation. The actor
// runs until handler returns ErrStopActor (clean stop) or any other error
// (which faults its task, surfaced by awaiting it).
func NewActor(ctx context.Context, name string, handler ActorHandler) *Actor {
	_, sched := mustOperationFrom(ctx)
	a := &Actor{name: name, mailbox: newEventQueue(sched)}
	a.task = Spawn[struct{}](ctx, name, func(ctx context.Context) (struct{}, error) {
		defer a.mailbox.halt()
		for {
			ev := a.mailbox.next(ctx)
			if err := handler(ctx, a, ev); err != nil {
				if errors.Is(err, ErrStopActor) {
					return struct{}{}, nil
				}
				return struct{}{}, err
			}
		}
	})
	return a
}

// Send delivers ev to the actor's mailbox without blocking, reporting what
// became of it (consumed by a pending receive, queued, or dropped by a
// halted actor).
func (a *Actor) Send(ctx context.Context, ev Event) EnqueueStatus {
	return a.mailbox.Enqueue(ctx, ev)
}

// Receive blocks the actor's current handler until an event matching
// predicate arrives, bypassing the dispatch loop. Call only from within a
// handler.
func (a *Actor) Receive(ctx context.Context, predicate func(Event) bool) Event {
	return a.mailbox.Receive(ctx, predicate)
}

// Raise schedules ev to be handled before any queued event, as soon as the
// current handler returns. Call only from within a handler.
func (a *Actor) Raise(ctx context.Context, ev Event) {
	a.mailbox.Raise(ctx, ev)
}

// Name returns the actor's stable display name.
func (a *Actor) Name() string { return a.name }

// Task returns the underlying ControlledTask, so callers can WhenAll/WhenAny
// on actor termination alongside other tasks.
func (a *Actor) Task() *ControlledTask[struct{}] { return a.task }
