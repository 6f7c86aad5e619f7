package snapshot

import "lltree/infra/memory"

// Reader is a thin adapter over memory.ReaderEpoch that marks when a
// snapshot begins and ends.
type Reader struct {
	epoch *memory.ReaderEpoch
}

func NewReader(d *memory.Domain) *Reader {
	return &Reader{epoch: d.Register()}
}

// Begin marks the start of a consistent snapshot.
func (r *Reader) Begin() {
	r.epoch.Enter()
}

// End marks the end of a snapshot.
func (r *Reader) End() {
	r.epoch.Exit()
}

// Epoch exposes the underlying epoch for reclaimers.
func (r *Reader) Epoch() *memory.ReaderEpoch {
	return r.epoch
}
