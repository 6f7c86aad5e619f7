// Package entry is the command WAL: every place and cancel is framed,
// checksummed and appended here before it touches the book. Replaying the
// segments in order rebuilds the book exactly.
package entry

import "time"

type RecordType uint8

const (
	RecordPlace RecordType = iota + 1
	RecordCancel
)

func (t RecordType) String() string {
	switch t {
	case RecordPlace:
		return "place"
	case RecordCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

type Record struct {
	Type RecordType
	Seq  uint64
	Time int64
	Data []byte
}

func NewRecord(t RecordType, seq uint64, data []byte) *Record {
	return &Record{
		Type: t,
		Seq:  seq,
		Time: time.Now().UnixNano(),
		Data: data,
	}
}
