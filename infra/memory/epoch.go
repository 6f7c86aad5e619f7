package memory

import (
	"sync"
	"sync/atomic"
)

const inactive = ^uint64(0)

// Domain is one reclamation domain: a global epoch and the readers that
// can pin it.
type Domain struct {
	global atomic.Uint64

	mu      sync.Mutex
	readers []*ReaderEpoch
}

func NewDomain() *Domain {
	d := &Domain{}
	d.global.Store(1)
	return d
}

// Current returns the global epoch.
func (d *Domain) Current() uint64 {
	return d.global.Load()
}

// Register adds an inactive reader to the domain.
func (d *Domain) Register() *ReaderEpoch {
	r := &ReaderEpoch{d: d}
	r.epoch.Store(inactive)

	d.mu.Lock()
	d.readers = append(d.readers, r)
	d.mu.Unlock()
	return r
}

// ReaderEpoch marks when a reader entered a read section.
type ReaderEpoch struct {
	d     *Domain
	epoch atomic.Uint64
}

// Enter publishes the current epoch. It retries until the published value
// is still current, so any later AdvanceAndReclaim either sees this reader
// or advanced before it entered.
func (r *ReaderEpoch) Enter() {
	for {
		e := r.d.global.Load()
		r.epoch.Store(e)
		if r.d.global.Load() == e {
			return
		}
	}
}

func (r *ReaderEpoch) Exit() {
	r.epoch.Store(inactive)
}

// Value is the epoch the reader entered at, or ^uint64(0) when it is
// outside a read section.
func (r *ReaderEpoch) Value() uint64 {
	return r.epoch.Load()
}

// Active reports whether the reader is inside a read section.
func (r *ReaderEpoch) Active() bool {
	return r.Value() != inactive
}

// ReclaimablePool takes back objects the domain has proven unreachable.
type ReclaimablePool interface {
	PutAny(any)
}

// ReclaimFunc adapts a function to ReclaimablePool.
type ReclaimFunc func(any)

func (f ReclaimFunc) PutAny(v any) { f(v) }

// Retire stamps v with the current epoch and queues it on ring. It reports
// false when the ring is full, in which case v must not be recycled.
func (d *Domain) Retire(ring *RetireRing, v any) bool {
	return ring.Enqueue(v, d.global.Load())
}

// AdvanceAndReclaim bumps the global epoch and hands every retired object
// older than all active readers to pool. It returns how many were reclaimed.
//
// Only objects stamped before the epoch this call advanced from are
// eligible, so an object retired while the pass runs is never freed by it.
func (d *Domain) AdvanceAndReclaim(ring *RetireRing, pool ReclaimablePool) int {
	g := d.global.Add(1)
	limit := min(d.oldestReader(), g-1)

	n := 0
	for {
		v, stamp, ok := ring.Peek()
		if !ok {
			return n
		}
		// FIFO: anything behind a pinned entry is pinned too.
		if stamp >= limit {
			return n
		}
		ring.Dequeue()
		pool.PutAny(v)
		n++
	}
}

func (d *Domain) oldestReader() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	oldest := inactive
	for _, r := range d.readers {
		if v := r.Value(); v < oldest {
			oldest = v
		}
	}
	return oldest
}
