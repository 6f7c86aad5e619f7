package snapshot

import (
	"time"

	"lltree/domain/orderbook"
	"lltree/infra/codec"
)

const fileName = "snapshot.bin"

var magic = [4]byte{'L', 'L', 'T', 'S'}

// Capture copies the resting orders of book, bids then asks, each side
// best level first and in queue order inside a level.
func Capture(book *orderbook.OrderBook, seq, fillSeq uint64) codec.Snapshot {
	s := codec.Snapshot{
		Seq:     seq,
		FillSeq: fillSeq,
		Created: time.Now().UnixNano(),
		Orders:  make([]codec.OrderEntry, 0, book.Resting()),
	}
	add := func(lvl *orderbook.PriceLevel) {
		for o := lvl.Head(); o != nil; o = o.Next() {
			if o.Status != orderbook.Active {
				continue
			}
			s.Orders = append(s.Orders, codec.OrderEntry{
				ID:     o.ID,
				SeqID:  o.SeqID,
				Side:   uint8(o.Side),
				Type:   uint8(o.Type),
				Price:  o.Price,
				Qty:    o.Qty,
				Filled: o.Filled,
			})
		}
	}
	book.BidsWalk(add)
	book.AsksWalk(add)
	return s
}
