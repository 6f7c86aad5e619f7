package service

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"lltree/snapshot"
)

// TakeSnapshot captures the book, writes it with w and then drops the WAL
// segments and acknowledged fills the snapshot makes redundant. It returns
// the sequence the snapshot covers.
func (s *OrderService) TakeSnapshot(w *snapshot.Writer) (uint64, error) {
	s.reader.Begin()
	s.mu.Lock()
	snap := snapshot.Capture(s.book, s.seqGen.Current(), s.fillSeq.Current())
	s.mu.Unlock()
	s.reader.End()

	if err := w.Write(snap); err != nil {
		return 0, err
	}
	s.metrics.IncSnapshots()

	if s.entryWAL != nil {
		s.mu.Lock()
		_, err := s.entryWAL.TruncateBefore(snap.Seq)
		s.mu.Unlock()
		if err != nil {
			return snap.Seq, errors.Wrap(err, "truncate entry wal")
		}
	}
	if s.outbox != nil {
		if _, err := s.outbox.TruncateAckedUpTo(snap.FillSeq); err != nil {
			return snap.Seq, errors.Wrap(err, "truncate outbox")
		}
	}

	s.log.Info("snapshot written", "seq", snap.Seq, "orders", len(snap.Orders), "path", w.Path())
	return snap.Seq, nil
}

// RunSnapshots takes a snapshot every interval until ctx is done.
func (s *OrderService) RunSnapshots(ctx context.Context, w *snapshot.Writer, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if _, err := s.TakeSnapshot(w); err != nil {
				s.log.Warn("snapshot failed", "err", err)
			}
		}
	}
}

// RunReclaimer advances the epoch every interval until ctx is done.
func (s *OrderService) RunReclaimer(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if n := s.AdvanceEpoch(); n > 0 {
				s.log.Debug("reclaimed", "count", n)
			}
		}
	}
}
