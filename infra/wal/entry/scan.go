package entry

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/cockroachdb/errors"
)

// maxSeqInSegment reads only the frame headers of a segment and returns the
// largest sequence in it.
func maxSeqInSegment(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	defer f.Close()

	var maxSeq uint64
	header := make([]byte, headerSize)
	for {
		if _, err := io.ReadFull(f, header); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return maxSeq, nil
			}
			return maxSeq, errors.WithStack(err)
		}

		maxSeq = max(maxSeq, binary.BigEndian.Uint64(header[1:9]))

		payloadLen := binary.BigEndian.Uint32(header[17:21])
		if _, err := f.Seek(int64(payloadLen)+crcSize, io.SeekCurrent); err != nil {
			return maxSeq, errors.WithStack(err)
		}
	}
}
