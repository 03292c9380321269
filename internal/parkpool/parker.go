package parkpool

// Parker is a single-slot park/wake handle. Exactly one goroutine parks on
// it at a time; exactly one Wake call (per park) is expected to unpark it.
// It doubles as the abortable variant used once an iteration has decided its
// outcome and every still-parked operation goroutine must unwind.
type Parker struct {
	ch chan struct{}
}

// NewParker constructs a ready-to-use Parker.
func NewParker() *Parker {
	return &Parker{ch: make(chan struct{}, 1)}
}

// Reset drains any pending wake so a reused Parker starts idle.
func (p *Parker) Reset() {
	select {
	case <-p.ch:
	default:
	}
}

// Wake unblocks a goroutine parked on this handle. Non-blocking: a Wake with
// no parked waiter is remembered for the next Park call.
func (p *Parker) Wake() {
	select {
	case p.ch <- struct{}{}:
	default:
	}
}

// Park blocks until Wake is called or abort is closed. It reports whether it
// returned because of an explicit Wake (true) or because abort fired (false).
func (p *Parker) Park(abort <-chan struct{}) bool {
	select {
	case <-p.ch:
		return true
	case <-abort:
		return false
	}
}
