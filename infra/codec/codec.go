// Package codec encodes WAL commands, outbox fills and snapshot entries in
// protobuf wire format. The messages are small and fixed, so they are
// written field by field with protowire instead of generated types:
//
//	message Place      { uint64 order_id = 1; uint32 side = 2; uint32 type = 3; sint64 price = 4; sint64 qty = 5; }
//	message Cancel     { uint64 order_id = 1; }
//	message Fill       { uint64 id = 1; uint64 seq = 2; uint64 taker_id = 3; uint64 maker_id = 4;
//	                     uint32 taker_side = 5; sint64 price = 6; sint64 qty = 7; int64 time = 8; }
//	message OrderEntry { uint64 id = 1; uint64 seq = 2; uint32 side = 3; uint32 type = 4;
//	                     sint64 price = 5; sint64 qty = 6; sint64 filled = 7; }
//	message Snapshot   { uint64 seq = 1; uint64 fill_seq = 2; int64 created = 3; repeated OrderEntry orders = 4; }
//
// Unknown fields are skipped so that older readers accept newer payloads.
package codec

import (
	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// ErrMalformed is returned for payloads that are not valid wire format.
var ErrMalformed = errors.New("codec: malformed payload")

func appendUvarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendSint(b []byte, num protowire.Number, v int64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(v))
}

func appendInt(b []byte, num protowire.Number, v int64) []byte {
	return appendUvarint(b, num, uint64(v))
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

// field is one decoded field. Exactly one of varint and bytes is set by
// walk according to the wire type.
type field struct {
	num    protowire.Number
	varint uint64
	bytes  []byte
}

func (f field) sint() int64  { return protowire.DecodeZigZag(f.varint) }
func (f field) small() uint8 { return uint8(f.varint) }
func (f field) int() int64   { return int64(f.varint) }

func walk(b []byte, fn func(field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return errors.Mark(protowire.ParseError(n), ErrMalformed)
		}
		b = b[n:]

		var f field
		f.num = num
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return errors.Mark(protowire.ParseError(n), ErrMalformed)
			}
			b = b[n:]
			continue
		}
		if n < 0 {
			return errors.Mark(protowire.ParseError(n), ErrMalformed)
		}
		b = b[n:]
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}
