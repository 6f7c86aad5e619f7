package snapshot

import (
	"encoding/binary"
	"hash/crc32"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"lltree/infra/codec"
)

type Writer struct {
	Dir string
}

// Path is where Write puts the snapshot.
func (w *Writer) Path() string {
	return filepath.Join(w.Dir, fileName)
}

// Write replaces the snapshot file atomically. The file is
// [magic:4][crc32:4][payload] with payload in codec wire format.
func (w *Writer) Write(s codec.Snapshot) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return errors.Wrap(err, "snapshot: create dir")
	}

	payload := s.Marshal()
	buf := make([]byte, 8+len(payload))
	copy(buf[:4], magic[:])
	binary.BigEndian.PutUint32(buf[4:8], crc32.ChecksumIEEE(payload))
	copy(buf[8:], payload)

	tmp, err := os.CreateTemp(w.Dir, fileName+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "snapshot: create temp")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "snapshot: write")
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "snapshot: sync")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "snapshot: close")
	}
	return errors.Wrap(os.Rename(tmp.Name(), w.Path()), "snapshot: rename")
}
