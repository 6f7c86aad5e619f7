package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lltree/domain/orderbook"
	"lltree/infra/memory"
)

func newOrder() *orderbook.Order { return &orderbook.Order{} }

func seedBook(t *testing.T) *orderbook.OrderBook {
	t.Helper()
	b := orderbook.NewOrderBook(nil)
	orders := []*orderbook.Order{
		{ID: 1, Side: orderbook.Bid, Type: orderbook.Limit, Price: 99, Qty: 5},
		{ID: 2, Side: orderbook.Bid, Type: orderbook.Limit, Price: 100, Qty: 3},
		{ID: 3, Side: orderbook.Bid, Type: orderbook.Limit, Price: 100, Qty: 4},
		{ID: 4, Side: orderbook.Ask, Type: orderbook.PostOnly, Price: 105, Qty: 6},
		{ID: 5, Side: orderbook.Ask, Type: orderbook.Limit, Price: 103, Qty: 2},
		{ID: 6, Side: orderbook.Ask, Type: orderbook.IOC, Price: 100, Qty: 1},
	}
	for i, o := range orders {
		o.SeqID = uint64(i + 1)
		_, err := b.Place(o)
		require.NoError(t, err)
	}
	return b
}

func TestCaptureOrder(t *testing.T) {
	s := Capture(seedBook(t), 6, 1)

	var ids []uint64
	for _, e := range s.Orders {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []uint64{2, 3, 1, 5, 4}, ids)
	assert.Equal(t, int64(1), s.Orders[0].Filled, "IOC took one unit from the head of 100")
	assert.Equal(t, uint64(6), s.Seq)
	assert.Equal(t, uint64(1), s.FillSeq)
}

func TestWriteLoadRoundTrip(t *testing.T) {
	src := seedBook(t)
	w := &Writer{Dir: filepath.Join(t.TempDir(), "snap")}
	require.NoError(t, w.Write(Capture(src, 6, 1)))

	dst := orderbook.NewOrderBook(nil)
	s, err := Load(w.Path(), dst, newOrder)
	require.NoError(t, err)
	require.NoError(t, dst.Verify())
	assert.Equal(t, uint64(6), s.Seq)

	assert.Equal(t, src.Depth(orderbook.Bid, 0), dst.Depth(orderbook.Bid, 0))
	assert.Equal(t, src.Depth(orderbook.Ask, 0), dst.Depth(orderbook.Ask, 0))
	assert.Equal(t, src.Resting(), dst.Resting())

	o, ok := dst.Order(2)
	require.True(t, ok)
	assert.Equal(t, int64(1), o.Filled)
	assert.Equal(t, uint64(2), dst.BestBid().Head().ID)

	// Overwriting leaves exactly one snapshot file behind.
	require.NoError(t, w.Write(Capture(dst, 7, 1)))
	entries, err := os.ReadDir(w.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLoadMissingIsEmpty(t *testing.T) {
	b := orderbook.NewOrderBook(nil)
	s, err := Load(filepath.Join(t.TempDir(), "nope.bin"), b, newOrder)
	require.NoError(t, err)
	assert.Zero(t, s.Seq)
	assert.Zero(t, b.Resting())
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	w := &Writer{Dir: t.TempDir()}
	require.NoError(t, w.Write(Capture(seedBook(t), 6, 0)))

	data, err := os.ReadFile(w.Path())
	require.NoError(t, err)
	data[len(data)-1] ^= 0x01
	require.NoError(t, os.WriteFile(w.Path(), data, 0o644))

	_, err = Load(w.Path(), orderbook.NewOrderBook(nil), newOrder)
	assert.True(t, errors.Is(err, ErrCorrupt))

	require.NoError(t, os.WriteFile(w.Path(), []byte("nope"), 0o644))
	_, _, err = Read(w.Path())
	assert.True(t, errors.Is(err, ErrCorrupt))
}

func TestReaderPinsEpoch(t *testing.T) {
	d := memory.NewDomain()
	r := NewReader(d)
	assert.False(t, r.Epoch().Active())

	r.Begin()
	assert.Equal(t, d.Current(), r.Epoch().Value())
	r.End()
	assert.False(t, r.Epoch().Active())
}
