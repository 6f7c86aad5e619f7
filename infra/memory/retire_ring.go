package memory

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

type retired struct {
	v     any
	epoch uint64
}

// RetireRing is a lock-free SPSC ring buffer of retired objects in the
// order they were retired. The writer enqueues, the reclaimer peeks and
// dequeues.
type RetireRing struct {
	head  atomic.Uint64
	_pad1 [56]byte
	tail  atomic.Uint64
	_pad2 [56]byte
	buf   []retired
	mask  uint64
}

func NewRetireRing(size uint64) (*RetireRing, error) {
	if size == 0 || size&(size-1) != 0 {
		return nil, errors.Newf("retire ring size %d is not a power of two", size)
	}
	return &RetireRing{
		buf:  make([]retired, size),
		mask: size - 1,
	}, nil
}

func (r *RetireRing) Enqueue(v any, epoch uint64) bool {
	h := r.head.Load()
	if h-r.tail.Load() == uint64(len(r.buf)) {
		return false
	}
	r.buf[h&r.mask] = retired{v: v, epoch: epoch}
	r.head.Store(h + 1)
	return true
}

// Peek returns the oldest entry without removing it.
func (r *RetireRing) Peek() (any, uint64, bool) {
	t := r.tail.Load()
	if t == r.head.Load() {
		return nil, 0, false
	}
	e := r.buf[t&r.mask]
	return e.v, e.epoch, true
}

func (r *RetireRing) Dequeue() any {
	t := r.tail.Load()
	if t == r.head.Load() {
		return nil
	}
	v := r.buf[t&r.mask].v
	r.buf[t&r.mask] = retired{}
	r.tail.Store(t + 1)
	return v
}

// Len is the number of queued entries.
func (r *RetireRing) Len() int {
	return int(r.head.Load() - r.tail.Load())
}

// Cap is the ring's capacity.
func (r *RetireRing) Cap() int {
	return len(r.buf)
}
