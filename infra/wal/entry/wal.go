package entry

import (
	"encoding/binary"
	"log/slog"
	"os"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	headerSize = 1 + 8 + 8 + 4
	crcSize    = 4
	maxPayload = 64 << 20
)

type Config struct {
	Dir             string
	SegmentSize     int64
	SegmentDuration time.Duration
	// SyncEachAppend fsyncs after every record.
	SyncEachAppend bool
	Logger         *slog.Logger
}

// WAL appends framed records to numbered segment files. It is not safe for
// concurrent use; the order service serializes appends.
type WAL struct {
	dir        string
	segSize    int64
	segDur     time.Duration
	syncEach   bool
	current    *segment
	lastRotate time.Time
	log        *slog.Logger
}

// Open continues the highest numbered segment in cfg.Dir, creating the
// directory and a first segment when there is none.
func Open(cfg Config) (*WAL, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "wal: create dir")
	}
	if cfg.SegmentSize <= 0 {
		cfg.SegmentSize = 2 << 20
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	segs, err := listSegments(cfg.Dir)
	if err != nil {
		return nil, err
	}
	index := 0
	if len(segs) > 0 {
		index = segs[len(segs)-1].index
	}

	seg, err := openSegment(cfg.Dir, index)
	if err != nil {
		return nil, err
	}

	return &WAL{
		dir:        cfg.Dir,
		segSize:    cfg.SegmentSize,
		segDur:     cfg.SegmentDuration,
		syncEach:   cfg.SyncEachAppend,
		current:    seg,
		lastRotate: time.Now(),
		log:        cfg.Logger.With("component", "wal"),
	}, nil
}

func encodeFrame(r *Record) []byte {
	payloadLen := uint32(len(r.Data))

	// [type:1][seq:8][time:8][len:4][payload][crc:4]
	buf := make([]byte, headerSize+int(payloadLen)+crcSize)
	buf[0] = byte(r.Type)
	binary.BigEndian.PutUint64(buf[1:9], r.Seq)
	binary.BigEndian.PutUint64(buf[9:17], uint64(r.Time))
	binary.BigEndian.PutUint32(buf[17:21], payloadLen)
	copy(buf[headerSize:], r.Data)

	crc := CRC32(buf[:headerSize+payloadLen])
	binary.BigEndian.PutUint32(buf[headerSize+payloadLen:], crc)
	return buf
}

func (w *WAL) Append(r *Record) error {
	if err := w.current.append(encodeFrame(r)); err != nil {
		return errors.Wrapf(err, "wal: append seq %d", r.Seq)
	}
	if w.syncEach {
		if err := w.current.sync(); err != nil {
			return errors.Wrap(err, "wal: sync")
		}
	}
	if w.shouldRotate() {
		return w.rotate()
	}
	return nil
}

func (w *WAL) shouldRotate() bool {
	if w.current.offset >= w.segSize {
		return true
	}
	return w.segDur > 0 && w.current.offset > 0 && time.Since(w.lastRotate) >= w.segDur
}

func (w *WAL) rotate() error {
	if err := w.current.sync(); err != nil {
		return errors.Wrap(err, "wal: sync before rotate")
	}
	_ = w.current.close()

	seg, err := openSegment(w.dir, w.current.index+1)
	if err != nil {
		return err
	}
	w.log.Debug("rotated segment", "index", seg.index)
	w.current = seg
	w.lastRotate = time.Now()
	return nil
}

// Sync flushes the current segment to stable storage.
func (w *WAL) Sync() error {
	return errors.Wrap(w.current.sync(), "wal: sync")
}

func (w *WAL) Close() error {
	if err := w.current.sync(); err != nil {
		_ = w.current.close()
		return errors.Wrap(err, "wal: sync on close")
	}
	return errors.Wrap(w.current.close(), "wal: close")
}

// Dir is the directory the WAL writes to.
func (w *WAL) Dir() string {
	return w.dir
}

// TruncateBefore removes every closed segment whose records all have a
// sequence at or below seq. The segment being appended to is kept.
func (w *WAL) TruncateBefore(seq uint64) (int, error) {
	segs, err := listSegments(w.dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, s := range segs {
		if s.index >= w.current.index {
			break
		}
		maxSeq, err := maxSeqInSegment(s.path)
		if err != nil {
			w.log.Warn("skip unreadable segment", "path", s.path, "err", err)
			continue
		}
		if maxSeq > seq {
			// Later segments only hold larger sequences.
			break
		}
		if err := os.Remove(s.path); err != nil {
			return removed, errors.Wrapf(err, "wal: remove %s", s.path)
		}
		removed++
	}
	if removed > 0 {
		w.log.Info("truncated segments", "count", removed, "through_seq", seq)
	}
	return removed, nil
}
