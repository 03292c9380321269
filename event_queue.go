package weft

import "context"

// Event is anything an Actor or StateMachine can be sent. EventKind names
// its dispatch key; StateMachine handlers and defer/ignore sets are
// registered against it.
type Event interface {
	EventKind() string
}

// EnqueueStatus reports what Enqueue did with an event.
type EnqueueStatus int

const (
	// EnqueueReceived: a parked Receive matched and consumed the event
	// directly; it was never queued.
	EnqueueReceived EnqueueStatus = iota
	// EnqueueHandlerRunning: the event was queued; the mailbox's dispatch
	// loop was already awake and will get to it.
	EnqueueHandlerRunning
	// EnqueueHandlerNotRunning: the dispatch loop was idle-blocked waiting
	// for work and this enqueue woke it.
	EnqueueHandlerNotRunning
	// EnqueueDropped: the mailbox is halted; the event was discarded.
	EnqueueDropped
)

// DequeueStatus reports what Dequeue found.
type DequeueStatus int

const (
	// DequeueSuccess: the first non-ignored, non-deferred event was
	// removed and returned.
	DequeueSuccess DequeueStatus = iota
	// DequeueRaised: a raised event took priority over the queue.
	DequeueRaised
	// DequeueUnavailable: nothing is queued (after discarding ignored
	// events).
	DequeueUnavailable
	// DequeueOnlyDeferred: events are queued but the current deferred set
	// covers all of them.
	DequeueOnlyDeferred
)

// receiver is one operation parked waiting for an event: either an explicit
// Receive (loop=false) or the mailbox's own dispatch loop blocked with
// nothing eligible (loop=true).
type receiver struct {
	op        OpID
	predicate func(Event) bool
	loop      bool
}

// EventQueue is a controlled actor mailbox: FIFO among
// non-deferred events, a deferred set that parks events in place until the
// owning state stops deferring them, an ignored set whose events are
// silently discarded, and a one-slot raised-event buffer that takes
// priority over the queue on the next dequeue. Enqueue never blocks the
// sender; a parked Receive has precedence over queuing at the moment of
// enqueue. Predicates are always evaluated against the concrete candidate
// event at the moment of a potential match, never captured or cached, so
// a predicate over mutable state observes that state as of the scheduling
// point where the match is attempted.
type EventQueue struct {
	sched     *OperationScheduler
	items     []Event
	receivers []receiver
	delivered map[OpID]Event

	raised    Event
	hasRaised bool

	deferred map[string]struct{}
	ignored  map[string]struct{}

	halted bool
}

func newEventQueue(sched *OperationScheduler) *EventQueue {
	return &EventQueue{
		sched:     sched,
		delivered: make(map[OpID]Event),
		deferred:  make(map[string]struct{}),
		ignored:   make(map[string]struct{}),
	}
}

// NewEventQueue allocates a mailbox owned by the calling operation's
// scheduler.
func NewEventQueue(ctx context.Context) *EventQueue {
	_, sched := mustOperationFrom(ctx)
	return newEventQueue(sched)
}

// Enqueue delivers ev: straight to the oldest parked receiver whose
// predicate currently accepts it, or onto the mailbox for a later dequeue.
// The returned status tells the sender whether a receiver consumed it,
// whether the dispatch loop needed waking, or whether a halted mailbox
// dropped it.
func (q *EventQueue) Enqueue(ctx context.Context, ev Event) EnqueueStatus {
	self, sched := mustOperationFrom(ctx)
	sched.Lock()
	if q.halted {
		sched.Unlock()
		sched.ScheduleNext(self)
		return EnqueueDropped
	}
	for i, r := range q.receivers {
		if r.predicate == nil || r.predicate(ev) {
			q.receivers = append(q.receivers[:i], q.receivers[i+1:]...)
			q.delivered[r.op] = ev
			sched.unblockLocked(r.op)
			status := EnqueueReceived
			if r.loop {
				status = EnqueueHandlerNotRunning
			}
			sched.Unlock()
			sched.ScheduleNext(self)
			return status
		}
	}
	q.items = append(q.items, ev)
	sched.Unlock()
	sched.ScheduleNext(self)
	return EnqueueHandlerRunning
}

// dequeueLocked applies the dequeue policy: raised first, then the first
// non-ignored, non-deferred event; ignored events are discarded in passing,
// deferred events stay in place. Caller must hold the scheduler lock.
func (q *EventQueue) dequeueLocked() (Event, DequeueStatus) {
	if q.hasRaised {
		ev := q.raised
		q.raised, q.hasRaised = nil, false
		return ev, DequeueRaised
	}
	sawDeferred := false
	for i := 0; i < len(q.items); {
		kind := q.items[i].EventKind()
		if _, ig := q.ignored[kind]; ig {
			q.items = append(q.items[:i], q.items[i+1:]...)
			continue
		}
		if _, df := q.deferred[kind]; df {
			sawDeferred = true
			i++
			continue
		}
		ev := q.items[i]
		q.items = append(q.items[:i], q.items[i+1:]...)
		return ev, DequeueSuccess
	}
	if sawDeferred {
		return nil, DequeueOnlyDeferred
	}
	return nil, DequeueUnavailable
}

// Dequeue removes and returns the next eligible event without blocking.
// It is a scheduling point regardless of what it finds.
func (q *EventQueue) Dequeue(ctx context.Context) (Event, DequeueStatus) {
	self, sched := mustOperationFrom(ctx)
	sched.Lock()
	ev, status := q.dequeueLocked()
	sched.Unlock()
	sched.ScheduleNext(self)
	return ev, status
}

// next blocks the dispatch loop until an eligible event is available: a
// raised event, a queued non-deferred one, or a future enqueue the loop's
// not-deferred predicate accepts. Events that are ignored at wake time are
// discarded and the loop re-parks.
func (q *EventQueue) next(ctx context.Context) Event {
	self, sched := mustOperationFrom(ctx)
	for {
		sched.Lock()
		ev, status := q.dequeueLocked()
		if status == DequeueSuccess || status == DequeueRaised {
			sched.Unlock()
			sched.ScheduleNext(self)
			return ev
		}
		q.receivers = append(q.receivers, receiver{
			op:   self,
			loop: true,
			predicate: func(ev Event) bool {
				_, df := q.deferred[ev.EventKind()]
				return !df
			},
		})
		sched.Unlock()
		sched.BlockOn(self, StatusBlockedOnReceive)

		sched.Lock()
		ev, ok := q.delivered[self]
		delete(q.delivered, self)
		sched.Unlock()
		if !ok {
			continue
		}
		if _, ig := q.ignored[ev.EventKind()]; ig {
			continue
		}
		return ev
	}
}

// Receive blocks the calling operation until an event matching predicate
// (nil matches anything) is available, dequeuing and returning it. A parked
// Receive consumes a matching enqueue before it ever reaches the queue;
// earlier-queued events the predicate rejects are left in place, so a later
// Receive with a broader predicate can still observe them. The deferred and
// ignored sets do not apply to an explicit Receive; they belong to the
// dispatch loop's policy, not to a targeted wait.
func (q *EventQueue) Receive(ctx context.Context, predicate func(Event) bool) Event {
	self, sched := mustOperationFrom(ctx)
	sched.Lock()
	for i, ev := range q.items {
		if predicate == nil || predicate(ev) {
			q.items = append(q.items[:i], q.items[i+1:]...)
			sched.Unlock()
			sched.ScheduleNext(self)
			return ev
		}
	}
	q.receivers = append(q.receivers, receiver{op: self, predicate: predicate})
	sched.Unlock()
	sched.BlockOn(self, StatusBlockedOnReceive)

	sched.Lock()
	ev := q.delivered[self]
	delete(q.delivered, self)
	sched.Unlock()
	return ev
}

// ReceiveKind is Receive narrowed to a set of event kinds, optionally
// further filtered by predicate.
func (q *EventQueue) ReceiveKind(ctx context.Context, predicate func(Event) bool, kinds ...string) Event {
	want := make(map[string]struct{}, len(kinds))
	for _, k := range kinds {
		want[k] = struct{}{}
	}
	return q.Receive(ctx, func(ev Event) bool {
		if _, ok := want[ev.EventKind()]; !ok {
			return false
		}
		return predicate == nil || predicate(ev)
	})
}

// Raise fills the one-slot raised-event buffer, consumed with priority on
// the next dequeue. Raising over an unconsumed raised event replaces it.
func (q *EventQueue) Raise(ctx context.Context, ev Event) {
	_, sched := mustOperationFrom(ctx)
	sched.Lock()
	q.raised, q.hasRaised = ev, true
	sched.Unlock()
}

// setPolicyLocked replaces the deferred/ignored sets; called by
// StateMachine on every state transition. Caller must hold the scheduler
// lock.
func (q *EventQueue) setPolicyLocked(deferred, ignored []string) {
	q.deferred = make(map[string]struct{}, len(deferred))
	for _, k := range deferred {
		q.deferred[k] = struct{}{}
	}
	q.ignored = make(map[string]struct{}, len(ignored))
	for _, k := range ignored {
		q.ignored[k] = struct{}{}
	}
}

// halt marks the mailbox dead and drops everything still queued; later
// Enqueue calls return EnqueueDropped.
func (q *EventQueue) halt() {
	q.sched.Lock()
	q.halted = true
	q.items = nil
	q.raised, q.hasRaised = nil, false
	q.sched.Unlock()
}

// Len reports how many events are currently queued (deferred included).
func (q *EventQueue) Len() int {
	q.sched.Lock()
	defer q.sched.Unlock()
	return len(q.items)
}
