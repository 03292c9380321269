package weft

import "context"

// MonitorEventHandler reacts to one event observed by a Monitor.
type MonitorEventHandler func(ctx context.Context, m *Monitor) error

// MonitorState is one node of a Monitor's hot/cold automaton.
// Hot marks a state the liveness checker requires eventual escape from: if
// the monitor is still in a Hot state when an iteration's step bound is
// reached (or when nothing is left enabled), that is a liveness violation.
type MonitorState struct {
	Name     string
	Hot      bool
	Handlers map[string]MonitorEventHandler
}

// Monitor is a passive specification automaton, distinct from
// the MonitorLock sync primitive: test code calls Observe to tell it about
// events; it never runs its own Operation or blocks anything. Liveness
// checking inspects every registered Monitor's current state at the
// scheduling points where it would otherwise declare the iteration clean.
type Monitor struct {
	name    string
	sched   *OperationScheduler
	current *MonitorState
}

// NewMonitor registers a Monitor starting in start, added to the
// scheduler's liveness-checked set.
func NewMonitor(ctx context.Context, name string, start *MonitorState) *Monitor {
	_, sched := mustOperationFrom(ctx)
	m := &Monitor{name: name, sched: sched, current: start}
	sched.RegisterMonitor(m)
	return m
}

// Observe dispatches ev's kind to the current state's handler, if any;
// states that don't declare a handler for a given event simply ignore it,
// unlike StateMachine, since a liveness monitor typically only cares about
// a subset of a system's events.
func (m *Monitor) Observe(ctx context.Context, kind string) error {
	self, sched := mustOperationFrom(ctx)
	sched.Lock()
	h, ok := m.current.Handlers[kind]
	sched.Unlock()
	var err error
	if ok {
		err = h(ctx, m)
	}
	sched.ScheduleNext(self)
	return err
}

// GotoState transitions the monitor to next.
func (m *Monitor) GotoState(next *MonitorState) {
	m.sched.Lock()
	m.current = next
	m.sched.Unlock()
}

// CurrentState returns the monitor's current state.
func (m *Monitor) CurrentState() *MonitorState {
	m.sched.Lock()
	defer m.sched.Unlock()
	return m.current
}

// currentLocked returns the current state without acquiring the scheduler
// mutex; callers (OperationScheduler.anyHotMonitorLocked) must already
// hold it.
func (m *Monitor) currentLocked() *MonitorState { return m.current }
