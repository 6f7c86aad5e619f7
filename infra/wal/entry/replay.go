package entry

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

var (
	// ErrCorrupt is returned when a complete frame fails its checksum.
	ErrCorrupt = errors.New("wal: corrupt record")
	// ErrOutOfOrder is returned when sequences do not strictly increase.
	ErrOutOfOrder = errors.New("wal: non-monotonic sequence")
)

type ReplayHandler func(*Record) error

// Replay feeds every record in dir to fn in sequence order and returns the
// last sequence seen. A partial frame at the end of the newest segment is a
// torn write and ends the replay cleanly; anywhere else it is corruption.
func Replay(dir string, fn ReplayHandler) (lastSeq uint64, err error) {
	segs, err := listSegments(dir)
	if err != nil {
		return 0, err
	}

	for i, s := range segs {
		last := i == len(segs)-1
		lastSeq, err = replaySegment(s.path, last, lastSeq, fn)
		if err != nil {
			return lastSeq, err
		}
	}
	return lastSeq, nil
}

func replaySegment(path string, last bool, lastSeq uint64, fn ReplayHandler) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return lastSeq, errors.Wrapf(err, "wal: open %s", path)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		rec, err := readRecord(r)
		switch {
		case err == io.EOF:
			return lastSeq, nil
		case err == io.ErrUnexpectedEOF && last:
			return lastSeq, nil
		case err == io.ErrUnexpectedEOF:
			return lastSeq, errors.Wrapf(ErrCorrupt, "truncated frame in %s", path)
		case err != nil:
			return lastSeq, errors.Wrapf(err, "wal: read %s after seq %d", path, lastSeq)
		}

		if rec.Seq <= lastSeq {
			return lastSeq, errors.Wrapf(ErrOutOfOrder, "seq %d after %d", rec.Seq, lastSeq)
		}
		lastSeq = rec.Seq

		if err := fn(rec); err != nil {
			return lastSeq, err
		}
	}
}

func readRecord(r io.Reader) (*Record, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, err
	}

	t := RecordType(header[0])
	seq := binary.BigEndian.Uint64(header[1:9])
	ts := binary.BigEndian.Uint64(header[9:17])
	l := binary.BigEndian.Uint32(header[17:21])
	if l > maxPayload {
		return nil, errors.Wrapf(ErrCorrupt, "payload length %d at seq %d", l, seq)
	}

	data := make([]byte, int(l)+crcSize)
	if _, err := io.ReadFull(r, data); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	payload := data[:l]
	crc := binary.BigEndian.Uint32(data[l:])

	if !CRC32Valid(append(header, payload...), crc) {
		return nil, errors.Wrapf(ErrCorrupt, "crc mismatch at seq %d", seq)
	}

	return &Record{
		Type: t,
		Seq:  seq,
		Time: int64(ts),
		Data: payload,
	}, nil
}
