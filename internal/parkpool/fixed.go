package parkpool

import "sync"

// fixedPool caps the number of distinct T values ever constructed at
// capacity. Unlike the dynamic pool, a handle is never shared: once every
// constructed value is checked out, Get blocks until one is Put back.
type fixedPool[T any] struct {
	free  chan T
	newFn func() T

	mu      sync.Mutex
	created uint
}

// NewFixed returns a Pool that constructs at most capacity values over its
// lifetime via newFn. A Get beyond capacity waits for a retired value, so
// callers must size capacity to their peak number of simultaneously live
// handles.
func NewFixed[T any](capacity uint, newFn func() T) Pool[T] {
	return &fixedPool[T]{
		free:  make(chan T, capacity),
		newFn: newFn,
	}
}

func (p *fixedPool[T]) Get() T {
	select {
	case el := <-p.free:
		return el
	default:
	}

	p.mu.Lock()
	if p.created < uint(cap(p.free)) {
		p.created++
		p.mu.Unlock()
		return p.newFn()
	}
	p.mu.Unlock()

	return <-p.free
}

func (p *fixedPool[T]) Put(el T) {
	select {
	case p.free <- el:
	default:
	}
}
