package exit

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
)

// ErrNotFound is returned for ids that are not in the outbox.
var ErrNotFound = errors.New("outbox: not found")

const keyPrefix = "fill/"

// Outbox stores fill events keyed by fill id.
type Outbox struct {
	db        *pebble.DB
	writeOpts *pebble.WriteOptions
	log       *slog.Logger
	now       func() time.Time
}

type Options struct {
	Logger *slog.Logger
	// Sync makes every write durable before it returns.
	Sync bool
}

func Open(dir string, opts Options) (*Outbox, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "outbox: open %s", dir)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	o := &Outbox{db: db, log: opts.Logger.With("component", "outbox"), now: time.Now}
	o.writeOpts = pebble.NoSync
	if opts.Sync {
		o.writeOpts = pebble.Sync
	}
	return o, nil
}

func (o *Outbox) Close() error {
	return errors.Wrap(o.db.Close(), "outbox: close")
}

// Entry is a fill waiting to be written.
type Entry struct {
	ID      uint64
	Payload []byte
}

// PutNew stores entries as NEW in one batch. Entries whose id is already
// present are left untouched, so re-adding fills during replay is safe.
func (o *Outbox) PutNew(entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	b := o.db.NewBatch()
	defer b.Close()

	for _, e := range entries {
		exists, err := o.has(e.ID)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		rec := &Record{ID: e.ID, State: StateNew, Payload: e.Payload}
		if err := b.Set(keyFor(e.ID), encodeRecord(rec), nil); err != nil {
			return errors.Wrapf(err, "outbox: stage %d", e.ID)
		}
	}
	if b.Empty() {
		return nil
	}
	return errors.Wrap(b.Commit(o.writeOpts), "outbox: commit")
}

func (o *Outbox) has(id uint64) (bool, error) {
	_, closer, err := o.db.Get(keyFor(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "outbox: get %d", id)
	}
	_ = closer.Close()
	return true, nil
}

// Get returns the current record for a fill.
func (o *Outbox) Get(id uint64) (*Record, error) {
	val, closer, err := o.db.Get(keyFor(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "fill %d", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "outbox: get %d", id)
	}
	defer closer.Close()
	return decodeRecord(id, val)
}

func (o *Outbox) update(id uint64, fn func(*Record)) error {
	rec, err := o.Get(id)
	if err != nil {
		return err
	}
	fn(rec)
	rec.LastAttempt = o.now().UnixNano()
	return errors.Wrapf(o.db.Set(keyFor(id), encodeRecord(rec), o.writeOpts), "outbox: update %d", id)
}

// MarkSent records a publish attempt.
func (o *Outbox) MarkSent(id uint64) error {
	return o.update(id, func(r *Record) { r.State = StateSent })
}

// MarkAcked records a confirmed publish.
func (o *Outbox) MarkAcked(id uint64) error {
	return o.update(id, func(r *Record) { r.State = StateAcked })
}

// MarkRetry counts a failed publish. After maxRetries failures the record
// is parked as FAILED and no longer scanned as pending.
func (o *Outbox) MarkRetry(id uint64, maxRetries uint32) error {
	return o.update(id, func(r *Record) {
		r.Retries++
		r.State = StateNew
		if maxRetries > 0 && r.Retries >= maxRetries {
			r.State = StateFailed
			o.log.Warn("fill parked after retries", "fill_id", id, "retries", r.Retries)
		}
	})
}

// Requeue moves a FAILED record back to NEW with its retry count cleared.
func (o *Outbox) Requeue(id uint64) error {
	return o.update(id, func(r *Record) {
		r.State = StateNew
		r.Retries = 0
	})
}

// ScanPending visits NEW and SENT records in id order, at most limit of
// them when limit > 0. SENT records are included because a crash between
// send and ack leaves them there.
func (o *Outbox) ScanPending(limit int, fn func(*Record) error) error {
	n := 0
	return o.scan(func(rec *Record) (bool, error) {
		if !rec.Pending() {
			return true, nil
		}
		n++
		if err := fn(rec); err != nil {
			return false, err
		}
		return limit <= 0 || n < limit, nil
	})
}

// ScanByState visits every record in the given state.
func (o *Outbox) ScanByState(state State, fn func(*Record) error) error {
	return o.scan(func(rec *Record) (bool, error) {
		if rec.State != state {
			return true, nil
		}
		return true, fn(rec)
	})
}

func (o *Outbox) scan(fn func(*Record) (bool, error)) error {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return errors.Wrap(err, "outbox: scan")
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		id, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		rec, err := decodeRecord(id, iter.Value())
		if err != nil {
			return err
		}
		more, err := fn(rec)
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	return errors.Wrap(iter.Error(), "outbox: scan")
}

// LastID returns the largest fill id in the outbox, or 0 when it is empty.
func (o *Outbox) LastID() (uint64, error) {
	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "~"),
	})
	if err != nil {
		return 0, errors.Wrap(err, "outbox: last id")
	}
	defer iter.Close()

	if !iter.Last() {
		return 0, errors.Wrap(iter.Error(), "outbox: last id")
	}
	return parseKey(iter.Key())
}

// TruncateAckedUpTo deletes ACKED records with id <= upTo. It returns how
// many were deleted.
func (o *Outbox) TruncateAckedUpTo(upTo uint64) (int, error) {
	b := o.db.NewBatch()
	defer b.Close()

	n := 0
	err := o.scan(func(rec *Record) (bool, error) {
		if rec.ID > upTo {
			return false, nil
		}
		if rec.State != StateAcked {
			return true, nil
		}
		n++
		return true, b.Delete(keyFor(rec.ID), nil)
	})
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	if err := b.Commit(o.writeOpts); err != nil {
		return 0, errors.Wrap(err, "outbox: truncate")
	}
	o.log.Debug("truncated acked fills", "count", n, "through_id", upTo)
	return n, nil
}

// -------------------- Helpers --------------------

func keyFor(id uint64) []byte {
	return []byte(fmt.Sprintf(keyPrefix+"%020d", id))
}

func parseKey(b []byte) (uint64, error) {
	s := string(b)
	if len(s) <= len(keyPrefix) {
		return 0, errors.Newf("outbox: bad key %q", s)
	}
	id, err := strconv.ParseUint(s[len(keyPrefix):], 10, 64)
	return id, errors.Wrapf(err, "outbox: bad key %q", s)
}
