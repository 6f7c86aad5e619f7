package memory

import (
	"fmt"
	"sync"
)

// Pool is a typed object pool.
// Objects handed back through PutAny go through reset first.
type Pool[T any] struct {
	p     *sync.Pool
	reset func(*T)
}

// NewPool builds a pool. reset may be nil.
func NewPool[T any](ctor func() *T, reset func(*T)) *Pool[T] {
	return &Pool[T]{
		p: &sync.Pool{
			New: func() any { return ctor() },
		},
		reset: reset,
	}
}

func (p *Pool[T]) Get() *T {
	return p.p.Get().(*T)
}

func (p *Pool[T]) Put(v *T) {
	if p.reset != nil {
		p.reset(v)
	}
	p.p.Put(v)
}

// PutAny allows Pool[T] to satisfy ReclaimablePool.
func (p *Pool[T]) PutAny(v any) {
	obj, ok := v.(*T)
	if !ok {
		panic(fmt.Sprintf("memory.Pool[%T]: PutAny received %T", *new(T), v))
	}
	p.Put(obj)
}
