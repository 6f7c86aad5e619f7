package snapshot

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"os"

	"github.com/cockroachdb/errors"

	"lltree/domain/orderbook"
	"lltree/infra/codec"
)

// ErrCorrupt is returned for a snapshot file that fails validation.
var ErrCorrupt = errors.New("snapshot: corrupt file")

// Read decodes the snapshot at path. A missing file is not an error and
// yields ok == false.
func Read(path string) (s codec.Snapshot, ok bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return codec.Snapshot{}, false, nil
	}
	if err != nil {
		return codec.Snapshot{}, false, errors.Wrap(err, "snapshot: read")
	}
	if len(data) < 8 || !bytes.Equal(data[:4], magic[:]) {
		return codec.Snapshot{}, false, errors.Wrapf(ErrCorrupt, "%s: bad header", path)
	}
	payload := data[8:]
	if crc32.ChecksumIEEE(payload) != binary.BigEndian.Uint32(data[4:8]) {
		return codec.Snapshot{}, false, errors.Wrapf(ErrCorrupt, "%s: checksum mismatch", path)
	}
	if err := s.Unmarshal(payload); err != nil {
		return codec.Snapshot{}, false, errors.Mark(err, ErrCorrupt)
	}
	return s, true, nil
}

// Load restores the snapshot at path into book, which should be empty.
// newOrder supplies the memory for each order. It returns the decoded
// snapshot so the caller can resume its sequences from it.
func Load(
	path string,
	book *orderbook.OrderBook,
	newOrder func() *orderbook.Order,
) (codec.Snapshot, error) {
	s, ok, err := Read(path)
	if err != nil || !ok {
		return s, err
	}

	for _, e := range s.Orders {
		o := newOrder()
		*o = orderbook.Order{
			ID:     e.ID,
			Side:   orderbook.Side(e.Side),
			Type:   orderbook.OrderType(e.Type),
			Price:  e.Price,
			Qty:    e.Qty,
			Filled: e.Filled,
			SeqID:  e.SeqID,
		}
		if err := book.Restore(o); err != nil {
			return s, errors.Wrapf(err, "snapshot: restore order %d", e.ID)
		}
	}
	return s, nil
}
