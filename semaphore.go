package weft

import "context"

// Semaphore is a controlled counting semaphore: Acquire blocks
// while no permits remain, Release returns one permit to the longest
// waiting operation first.
type Semaphore struct {
	sched *OperationScheduler
	id    ResourceID
}

// NewSemaphore allocates a Semaphore with the given number of initial
// permits.
func NewSemaphore(ctx context.Context, permits int) *Semaphore {
	_, sched := mustOperationFrom(ctx)
	return &Semaphore{sched: sched, id: sched.NewResource(ResourceKindSemaphore, permits)}
}

// Acquire blocks the calling operation until a permit is available.
func (s *Semaphore) Acquire(ctx context.Context) {
	self, sched := mustOperationFrom(ctx)
	sched.Lock()
	r := sched.resourceLocked(s.id)
	if r.count > 0 {
		r.count--
		sched.Unlock()
		sched.ScheduleNext(self)
		return
	}
	r.enqueue(self)
	sched.Unlock()
	sched.BlockOn(self, StatusBlockedOnResource)
}

// TryAcquire attempts to take a permit without blocking.
func (s *Semaphore) TryAcquire(ctx context.Context) bool {
	self, sched := mustOperationFrom(ctx)
	sched.Lock()
	r := sched.resourceLocked(s.id)
	ok := r.count > 0
	if ok {
		r.count--
	}
	sched.Unlock()
	sched.ScheduleNext(self)
	return ok
}

// Release returns one permit, waking the longest-waiting blocked operation
// (if any) rather than incrementing the count under it.
func (s *Semaphore) Release(ctx context.Context) {
	self, sched := mustOperationFrom(ctx)
	sched.Lock()
	r := sched.resourceLocked(s.id)
	next := r.dequeueN(1)
	if len(next) == 0 {
		r.count++
	} else {
		sched.unblockLocked(next[0])
	}
	sched.Unlock()
	sched.ScheduleNext(self)
}
