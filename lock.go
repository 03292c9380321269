package weft

import "context"

// Lock is a controlled mutual-exclusion primitive: at most one
// operation holds it at a time, and contenders queue FIFO. Every call is a
// scheduling point, including an uncontested Acquire, so the engine can
// still explore interleavings around it.
type Lock struct {
	sched *OperationScheduler
	id    ResourceID
}

// NewLock allocates a Lock, initially unheld.
func NewLock(ctx context.Context) *Lock {
	_, sched := mustOperationFrom(ctx)
	return &Lock{sched: sched, id: sched.NewResource(ResourceKindLock, 0)}
}

// Acquire blocks the calling operation until it owns the lock.
func (l *Lock) Acquire(ctx context.Context) {
	self, sched := mustOperationFrom(ctx)
	sched.Lock()
	r := sched.resourceLocked(l.id)
	if !r.hasOwner {
		r.hasOwner = true
		r.owner = self
		sched.addHoldLocked(self, l.id)
		sched.Unlock()
		sched.ScheduleNext(self)
		return
	}
	r.enqueue(self)
	sched.Unlock()
	sched.BlockOn(self, StatusBlockedOnResource)
}

// TryAcquire attempts to acquire the lock without blocking, returning
// whether it succeeded. It is still a scheduling point.
func (l *Lock) TryAcquire(ctx context.Context) bool {
	self, sched := mustOperationFrom(ctx)
	sched.Lock()
	r := sched.resourceLocked(l.id)
	ok := !r.hasOwner
	if ok {
		r.hasOwner = true
		r.owner = self
		sched.addHoldLocked(self, l.id)
	}
	sched.Unlock()
	sched.ScheduleNext(self)
	return ok
}

// Release gives up ownership, handing it to the next FIFO waiter (if any).
// Calling Release without owning the lock panics, matching sync.Mutex.
func (l *Lock) Release(ctx context.Context) {
	self, sched := mustOperationFrom(ctx)
	sched.Lock()
	r := sched.resourceLocked(l.id)
	if !r.hasOwner || r.owner != self {
		sched.Unlock()
		panic(Namespace + ": Release called by an operation that does not own the lock")
	}
	sched.removeHoldLocked(self, l.id)
	next := r.dequeueN(1)
	if len(next) == 0 {
		r.hasOwner = false
	} else {
		r.owner = next[0]
		sched.addHoldLocked(next[0], l.id)
		sched.unblockLocked(next[0])
	}
	sched.Unlock()
	sched.ScheduleNext(self)
}
