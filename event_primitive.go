package weft

import "context"

// ManualResetEvent is a controlled signal: Wait blocks while
// unsignaled; Set wakes every waiter and stays signaled until Reset.
// Resource.hasOwner is repurposed here as the signaled boolean.
type ManualResetEvent struct {
	sched *OperationScheduler
	id    ResourceID
}

// NewManualResetEvent allocates a ManualResetEvent in the given initial
// signaled state.
func NewManualResetEvent(ctx context.Context, initiallySignaled bool) *ManualResetEvent {
	_, sched := mustOperationFrom(ctx)
	id := sched.NewResource(ResourceKindManualResetEvent, 0)
	if initiallySignaled {
		sched.Lock()
		sched.resourceLocked(id).hasOwner = true
		sched.Unlock()
	}
	return &ManualResetEvent{sched: sched, id: id}
}

// IsSet reports whether the event is currently signaled.
func (e *ManualResetEvent) IsSet(ctx context.Context) bool {
	self, sched := mustOperationFrom(ctx)
	sched.Lock()
	signaled := sched.resourceLocked(e.id).hasOwner
	sched.Unlock()
	sched.ScheduleNext(self)
	return signaled
}

// Wait blocks the calling operation until the event is signaled.
func (e *ManualResetEvent) Wait(ctx context.Context) {
	self, sched := mustOperationFrom(ctx)
	sched.Lock()
	r := sched.resourceLocked(e.id)
	if r.hasOwner {
		sched.Unlock()
		sched.ScheduleNext(self)
		return
	}
	r.enqueue(self)
	sched.Unlock()
	sched.BlockOn(self, StatusBlockedOnResource)
}

// Set signals the event, waking every operation currently blocked in Wait.
// It remains signaled for later Waiters until Reset.
func (e *ManualResetEvent) Set(ctx context.Context) {
	self, sched := mustOperationFrom(ctx)
	sched.Lock()
	r := sched.resourceLocked(e.id)
	r.hasOwner = true
	for _, id := range r.dequeueN(len(r.fifo)) {
		sched.unblockLocked(id)
	}
	sched.Unlock()
	sched.ScheduleNext(self)
}

// Reset clears the signaled state; future Waiters block again.
func (e *ManualResetEvent) Reset(ctx context.Context) {
	self, sched := mustOperationFrom(ctx)
	sched.Lock()
	sched.resourceLocked(e.id).hasOwner = false
	sched.Unlock()
	sched.ScheduleNext(self)
}
