package service

import (
	"github.com/cockroachdb/errors"

	"lltree/domain/orderbook"
	"lltree/infra/codec"
	entrywal "lltree/infra/wal/entry"
	"lltree/snapshot"
)

// RecoverStats describes what Recover rebuilt.
type RecoverStats struct {
	SnapshotSeq uint64
	Restored    int
	Replayed    int
	Rejected    int
	LastSeq     uint64
}

/*
Recover rebuilds in-memory state from the snapshot at snapshotPath (if any)
and the entry WAL records after it. Fills regenerated by replay carry the
ids they were first stored under, so the outbox ignores the ones it
already has.

IMPORTANT: this MUST run before accepting traffic.
*/
func (s *OrderService) Recover(snapshotPath string) (RecoverStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer.Enter()
	defer s.writer.Exit()

	var st RecoverStats
	if snapshotPath != "" {
		snap, err := snapshot.Load(snapshotPath, s.book, s.alloc.NewOrder)
		if err != nil {
			return st, errors.Wrap(err, "recover: load snapshot")
		}
		st.SnapshotSeq = snap.Seq
		st.Restored = len(snap.Orders)
		s.seqGen.Reset(snap.Seq)
		s.fillSeq.Reset(snap.FillSeq)
	}

	if s.entryWAL != nil {
		last, err := entrywal.Replay(s.entryWAL.Dir(), func(rec *entrywal.Record) error {
			if rec.Seq <= st.SnapshotSeq {
				return nil
			}
			s.seqGen.Observe(rec.Seq)
			applied, err := s.replayRecord(rec)
			if err != nil {
				return errors.Wrapf(err, "replay seq %d", rec.Seq)
			}
			if applied {
				st.Replayed++
			} else {
				st.Rejected++
			}
			return nil
		})
		if err != nil {
			return st, errors.Wrap(err, "recover: replay wal")
		}
		s.seqGen.Observe(last)
	}

	if s.outbox != nil {
		lastFill, err := s.outbox.LastID()
		if err != nil {
			return st, errors.Wrap(err, "recover: outbox")
		}
		s.fillSeq.Observe(lastFill)
	}

	st.LastSeq = s.seqGen.Current()
	s.afterCommand()
	s.log.Info("recovery completed",
		"snapshot_seq", st.SnapshotSeq, "restored", st.Restored,
		"replayed", st.Replayed, "rejected", st.Rejected, "last_seq", st.LastSeq)
	return st, nil
}

// replayRecord applies one logged command. Commands the book refused when
// they were first applied are refused again and reported as not applied.
func (s *OrderService) replayRecord(rec *entrywal.Record) (bool, error) {
	switch rec.Type {
	case entrywal.RecordPlace:
		var cmd codec.Place
		if err := cmd.Unmarshal(rec.Data); err != nil {
			return false, err
		}
		_, err := s.applyPlace(rec.Seq, cmd, rec.Time)
		if isDomainError(err) {
			return false, nil
		}
		return err == nil, err

	case entrywal.RecordCancel:
		var cmd codec.Cancel
		if err := cmd.Unmarshal(rec.Data); err != nil {
			return false, err
		}
		_, err := s.applyCancel(cmd.OrderID)
		if isDomainError(err) {
			return false, nil
		}
		return err == nil, err

	default:
		return false, errors.Newf("unknown record type %d", rec.Type)
	}
}

func isDomainError(err error) bool {
	return errors.IsAny(err,
		orderbook.ErrInvalidQuantity,
		orderbook.ErrInvalidPrice,
		orderbook.ErrDuplicateOrder,
		orderbook.ErrUnknownOrder,
		orderbook.ErrPostOnlyWouldCross,
	)
}
