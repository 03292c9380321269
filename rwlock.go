package weft

import "context"

// ReaderWriterLock is a controlled reader-writer lock: any
// number of readers may hold it concurrently, but a writer requires
// exclusive ownership. Resource.count tracks the active reader count;
// hasOwner/owner track an exclusive writer. waitKind records, for each
// queued operation, whether it is waiting to read or to write, since a
// waiter is granted the resource directly at wake time rather than
// re-attempting acquisition itself.
type ReaderWriterLock struct {
	sched    *OperationScheduler
	id       ResourceID
	waitKind map[OpID]bool // true = waiting to write
}

// NewReaderWriterLock allocates a ReaderWriterLock, initially unheld.
func NewReaderWriterLock(ctx context.Context) *ReaderWriterLock {
	_, sched := mustOperationFrom(ctx)
	return &ReaderWriterLock{
		sched:    sched,
		id:       sched.NewResource(ResourceKindReaderWriterLock, 0),
		waitKind: make(map[OpID]bool),
	}
}

// AcquireRead blocks while a writer holds (or is queued ahead), then joins
// as a reader.
func (l *ReaderWriterLock) AcquireRead(ctx context.Context) {
	self, sched := mustOperationFrom(ctx)
	sched.Lock()
	r := sched.resourceLocked(l.id)
	if !r.hasOwner && len(r.fifo) == 0 {
		r.count++
		sched.Unlock()
		sched.ScheduleNext(self)
		return
	}
	r.enqueue(self)
	l.waitKind[self] = false
	sched.Unlock()
	sched.BlockOn(self, StatusBlockedOnResource)
}

// ReleaseRead gives up one reader slot and, once the last active reader is
// gone, admits whatever is next in FIFO order.
func (l *ReaderWriterLock) ReleaseRead(ctx context.Context) {
	self, sched := mustOperationFrom(ctx)
	sched.Lock()
	r := sched.resourceLocked(l.id)
	if r.count > 0 {
		r.count--
	}
	if r.count == 0 {
		l.admitLocked(sched, r)
	}
	sched.Unlock()
	sched.ScheduleNext(self)
}

// AcquireWrite blocks until no readers or writer hold the lock and no
// earlier waiter is queued, then takes exclusive ownership.
func (l *ReaderWriterLock) AcquireWrite(ctx context.Context) {
	self, sched := mustOperationFrom(ctx)
	sched.Lock()
	r := sched.resourceLocked(l.id)
	if !r.hasOwner && r.count == 0 && len(r.fifo) == 0 {
		r.hasOwner = true
		r.owner = self
		sched.addHoldLocked(self, l.id)
		sched.Unlock()
		sched.ScheduleNext(self)
		return
	}
	r.enqueue(self)
	l.waitKind[self] = true
	sched.Unlock()
	sched.BlockOn(self, StatusBlockedOnResource)
}

// ReleaseWrite gives up exclusive ownership and admits the next waiter(s).
func (l *ReaderWriterLock) ReleaseWrite(ctx context.Context) {
	self, sched := mustOperationFrom(ctx)
	sched.Lock()
	r := sched.resourceLocked(l.id)
	if !r.hasOwner || r.owner != self {
		sched.Unlock()
		panic(Namespace + ": ReleaseWrite called by an operation that does not hold the write lock")
	}
	r.hasOwner = false
	sched.removeHoldLocked(self, l.id)
	l.admitLocked(sched, r)
	sched.Unlock()
	sched.ScheduleNext(self)
}

// admitLocked grants the resource to whatever is next in FIFO order: a
// single writer, or a leading run of readers. As with the other
// primitives' hand-offs, the grant (count++ / hasOwner+owner) is applied
// here, at wake time, since the woken operation returns directly from its
// blocked Acquire call without re-checking resource state.
func (l *ReaderWriterLock) admitLocked(sched *OperationScheduler, r *Resource) {
	for len(r.fifo) > 0 {
		front := r.fifo[0]
		if l.waitKind[front] {
			if r.count > 0 || r.hasOwner {
				return
			}
			r.dequeueN(1)
			delete(l.waitKind, front)
			r.hasOwner = true
			r.owner = front
			sched.addHoldLocked(front, l.id)
			sched.unblockLocked(front)
			return
		}
		if r.hasOwner {
			return
		}
		r.dequeueN(1)
		delete(l.waitKind, front)
		r.count++
		sched.unblockLocked(front)
	}
}
