// Package exit is the fill outbox: executions produced by the book are
// stored in pebble before they are published, and move through
// NEW -> SENT -> ACKED as the broadcaster delivers them.
package exit

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Record is one outbox entry.
type Record struct {
	ID          uint64
	State       State
	Retries     uint32
	LastAttempt int64
	Payload     []byte
}

// Pending reports whether the record still has to be published.
func (r *Record) Pending() bool {
	return r.State == StateNew || r.State == StateSent
}

const recordHeader = 1 + 4 + 8

// binary encoding: [state:1][retries:4][lastAttempt:8][payload]
func encodeRecord(r *Record) []byte {
	buf := make([]byte, recordHeader+len(r.Payload))
	buf[0] = byte(r.State)
	binary.BigEndian.PutUint32(buf[1:5], r.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(r.LastAttempt))
	copy(buf[recordHeader:], r.Payload)
	return buf
}

// decodeRecord copies b; pebble reuses the buffers it hands out.
func decodeRecord(id uint64, b []byte) (*Record, error) {
	if len(b) < recordHeader {
		return nil, errors.Newf("outbox: record %d too short (%d bytes)", id, len(b))
	}
	return &Record{
		ID:          id,
		State:       State(b[0]),
		Retries:     binary.BigEndian.Uint32(b[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(b[5:13])),
		Payload:     append([]byte(nil), b[recordHeader:]...),
	}, nil
}
