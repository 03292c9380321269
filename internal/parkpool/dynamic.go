package parkpool

import "sync"

// dynamicPool is a dynamically-sized pool of T values. It is a thin wrapper
// around sync.Pool, grown or shrunk by the garbage collector as needed.
type dynamicPool[T any] struct {
	pool sync.Pool
}

// NewDynamic returns a dynamically-sized Pool. newFn constructs a fresh T
// when the pool has nothing to reuse.
func NewDynamic[T any](newFn func() T) Pool[T] {
	return &dynamicPool[T]{pool: sync.Pool{New: func() interface{} { return newFn() }}}
}

func (p *dynamicPool[T]) Get() T {
	return p.pool.Get().(T)
}

func (p *dynamicPool[T]) Put(v T) {
	p.pool.Put(v)
}
