// Package sequence hands out the monotonic ids that order commands in the
// WAL and key fills in the outbox.
package sequence

import "sync/atomic"

// Sequencer generates strictly monotonic sequence IDs.
type Sequencer struct {
	last atomic.Uint64
}

// New creates a sequencer whose first Next returns start+1.
func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.last.Store(start)
	return s
}

// Next returns the next sequence ID.
func (s *Sequencer) Next() uint64 {
	return s.last.Add(1)
}

// Current returns the last issued sequence.
func (s *Sequencer) Current() uint64 {
	return s.last.Load()
}

// Observe moves the sequencer forward to v if it is behind. Replay calls it
// for every record it applies so that Next never reissues a persisted id.
func (s *Sequencer) Observe(v uint64) {
	for {
		cur := s.last.Load()
		if v <= cur || s.last.CompareAndSwap(cur, v) {
			return
		}
	}
}

// Reset sets the sequencer to a specific value.
// Only used when rebuilding from a snapshot.
func (s *Sequencer) Reset(v uint64) {
	s.last.Store(v)
}
