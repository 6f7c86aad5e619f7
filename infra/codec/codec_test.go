package codec

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func TestPlaceRoundTrip(t *testing.T) {
	in := Place{OrderID: 42, Side: 1, Type: 4, Price: 10_050, Qty: 7}
	var out Place
	require.NoError(t, out.Unmarshal(in.Marshal()))
	assert.Equal(t, in, out)
}

func TestNegativeValuesUseZigZag(t *testing.T) {
	in := Fill{ID: 1, Price: -3, Qty: -1}
	b := in.Marshal()

	// Field 6 holds zigzag(-3) = 5 in a single byte.
	assert.Contains(t, string(b), string([]byte{6<<3 | byte(protowire.VarintType), 5}))

	var out Fill
	require.NoError(t, out.Unmarshal(b))
	assert.Equal(t, in, out)
}

func TestZeroFieldsAreOmitted(t *testing.T) {
	assert.Empty(t, Cancel{}.Marshal())
	assert.Empty(t, Place{}.Marshal())
}

func TestSnapshotKeepsOrderSequence(t *testing.T) {
	in := Snapshot{
		Seq:     99,
		FillSeq: 12,
		Created: 1_700_000_000,
		Orders: []OrderEntry{
			{ID: 3, SeqID: 3, Side: 0, Price: 101, Qty: 5, Filled: 2},
			{ID: 1, SeqID: 1, Side: 0, Price: 100, Qty: 1},
			{ID: 2, SeqID: 2, Side: 1, Type: 4, Price: 102, Qty: 9},
		},
	}
	var out Snapshot
	require.NoError(t, out.Unmarshal(in.Marshal()))
	assert.Equal(t, in, out)
}

func TestUnknownFieldsAreSkipped(t *testing.T) {
	b := Cancel{OrderID: 5}.Marshal()
	b = protowire.AppendTag(b, 9, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, 0xdeadbeef)
	b = protowire.AppendTag(b, 10, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("future"))

	var c Cancel
	require.NoError(t, c.Unmarshal(b))
	assert.Equal(t, uint64(5), c.OrderID)
}

func TestTruncatedPayload(t *testing.T) {
	b := Place{OrderID: 1 << 40, Price: 5}.Marshal()
	var p Place
	err := p.Unmarshal(b[:3])
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
}
