package orderbook

import (
	"sync/atomic"

	"github.com/cockroachdb/errors"
)

// OrderBook is single-writer and deterministic.
type OrderBook struct {
	bids *ladder
	asks *ladder

	alloc  Allocator
	orders map[uint64]*Order

	LastSeq atomic.Uint64
}

func NewOrderBook(alloc Allocator) *OrderBook {
	if alloc == nil {
		alloc = HeapAllocator{}
	}
	return &OrderBook{
		bids:   newLadder(Bid),
		asks:   newLadder(Ask),
		alloc:  alloc,
		orders: make(map[uint64]*Order),
	}
}

func (b *OrderBook) side(s Side) *ladder {
	if s == Ask {
		return b.asks
	}
	return b.bids
}

// Place runs o against the opposite side and rests whatever a Limit or
// PostOnly order has left. It returns the executions in the order they
// happened. An order that ends up not resting is handed to the Allocator
// before Place returns; the caller may read it until it next advances the
// reclamation epoch.
func (b *OrderBook) Place(o *Order) ([]Fill, error) {
	if o.Qty <= 0 {
		return nil, ErrInvalidQuantity
	}
	if o.Type != Market && o.Price <= 0 {
		return nil, ErrInvalidPrice
	}
	if o.Type.rests() {
		if _, ok := b.orders[o.ID]; ok {
			return nil, errors.Wrapf(ErrDuplicateOrder, "order %d", o.ID)
		}
	}

	b.LastSeq.Store(o.SeqID)
	o.Status = Active
	o.Filled = 0

	opposite := b.side(o.Side.Opposite())

	switch o.Type {
	case PostOnly:
		if best := opposite.best(); best != nil && opposite.crosses(best, o.Price) {
			o.Status = Rejected
			b.alloc.RetireOrder(o)
			return nil, ErrPostOnlyWouldCross
		}
	case FOK:
		if b.liquidity(opposite, o) < o.Qty {
			o.Status = Rejected
			b.alloc.RetireOrder(o)
			return nil, nil
		}
	}

	fills := b.match(opposite, o)

	switch {
	case o.Remaining() == 0:
		o.Status = Filled
		b.alloc.RetireOrder(o)
	case o.Type.rests():
		if err := b.rest(o); err != nil {
			return fills, err
		}
	default:
		// IOC, FOK and Market remainders are dropped.
		o.Status = Cancelled
		b.alloc.RetireOrder(o)
	}
	return fills, nil
}

// Cancel removes a resting order. An emptied price level is unlinked from
// its ladder and retired together with the order.
func (b *OrderBook) Cancel(id uint64) (*Order, error) {
	o, ok := b.orders[id]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownOrder, "order %d", id)
	}
	delete(b.orders, id)

	lvl := o.level
	lvl.Unlink(o)
	if lvl.Empty() {
		if !b.side(o.Side).remove(lvl) {
			return nil, errors.AssertionFailedf("level %d missing from the %s ladder", lvl.Price, o.Side)
		}
		b.alloc.RetireLevel(lvl)
	}

	o.Status = Cancelled
	b.alloc.RetireOrder(o)
	return o, nil
}

// Order returns the resting order with the given id.
func (b *OrderBook) Order(id uint64) (*Order, bool) {
	o, ok := b.orders[id]
	return o, ok
}

// Levels is the number of price levels on side s.
func (b *OrderBook) Levels(s Side) int {
	return b.side(s).Len()
}

// Resting is the number of orders in the book.
func (b *OrderBook) Resting() int {
	return len(b.orders)
}

// Restore puts a resting order back without matching it, keeping its
// filled quantity and sequence. Orders restored at one price queue in the
// order they are restored.
func (b *OrderBook) Restore(o *Order) error {
	if o.Remaining() <= 0 {
		return errors.Wrapf(ErrInvalidQuantity, "restore order %d", o.ID)
	}
	if _, ok := b.orders[o.ID]; ok {
		return errors.Wrapf(ErrDuplicateOrder, "restore order %d", o.ID)
	}
	o.Status = Active
	if o.SeqID > b.LastSeq.Load() {
		b.LastSeq.Store(o.SeqID)
	}
	return b.rest(o)
}

func (b *OrderBook) rest(o *Order) error {
	l := b.side(o.Side)
	lvl := l.find(o.Price)
	if lvl == nil {
		lvl = b.alloc.NewLevel(o.Price)
		if err := l.insert(lvl); err != nil {
			return errors.Wrapf(err, "insert %s level %d", o.Side, o.Price)
		}
	}
	lvl.Enqueue(o)
	b.orders[o.ID] = o
	return nil
}

// ---- traversal helpers ----

// BidsWalk visits bid levels from the highest price down.
func (b *OrderBook) BidsWalk(fn func(*PriceLevel)) {
	b.bids.walk(func(lvl *PriceLevel) bool {
		fn(lvl)
		return true
	})
}

// AsksWalk visits ask levels from the lowest price up.
func (b *OrderBook) AsksWalk(fn func(*PriceLevel)) {
	b.asks.walk(func(lvl *PriceLevel) bool {
		fn(lvl)
		return true
	})
}

// BestBid returns the highest bid level, or nil.
func (b *OrderBook) BestBid() *PriceLevel { return b.bids.best() }

// BestAsk returns the lowest ask level, or nil.
func (b *OrderBook) BestAsk() *PriceLevel { return b.asks.best() }

// LevelView is a copy of a price level's aggregate state.
type LevelView struct {
	Price  int64
	Qty    int64
	Orders int
}

// Depth returns up to n levels of side s, best first. n <= 0 means all.
func (b *OrderBook) Depth(s Side, n int) []LevelView {
	out := make([]LevelView, 0, max(n, 0))
	b.side(s).walk(func(lvl *PriceLevel) bool {
		out = append(out, LevelView{Price: lvl.Price, Qty: lvl.TotalQty, Orders: lvl.OrderCount})
		return n <= 0 || len(out) < n
	})
	return out
}

// Verify checks both ladders' tree invariants.
func (b *OrderBook) Verify() error {
	if err := b.bids.verify(); err != nil {
		return errors.Wrap(err, "bids")
	}
	if err := b.asks.verify(); err != nil {
		return errors.Wrap(err, "asks")
	}
	return nil
}

// ---- matching ----

func (b *OrderBook) match(opposite *ladder, o *Order) []Fill {
	var fills []Fill
	for o.Remaining() > 0 {
		best := opposite.best()
		if best == nil {
			break
		}
		if o.Type != Market && !opposite.crosses(best, o.Price) {
			break
		}

		head := best.Head()
		trade := min(o.Remaining(), head.Remaining())

		o.Filled += trade
		best.fill(trade)
		fills = append(fills, Fill{
			TakerID:   o.ID,
			MakerID:   head.ID,
			TakerSide: o.Side,
			Price:     best.Price,
			Qty:       trade,
			SeqID:     o.SeqID,
		})

		if head.Remaining() == 0 {
			best.PopHead()
			head.Status = Filled
			delete(b.orders, head.ID)
			b.alloc.RetireOrder(head)
		}
		if best.Empty() {
			opposite.popBest()
			b.alloc.RetireLevel(best)
		}
	}
	return fills
}

// liquidity sums the quantity o could execute against right now, stopping
// as soon as it covers o.
func (b *OrderBook) liquidity(opposite *ladder, o *Order) int64 {
	var avail int64
	opposite.walk(func(lvl *PriceLevel) bool {
		if o.Type != Market && !opposite.crosses(lvl, o.Price) {
			return false
		}
		avail += lvl.TotalQty
		return avail < o.Qty
	})
	return avail
}

// Reset empties the book without retiring anything. It is used before
// rebuilding state from a snapshot.
func (b *OrderBook) Reset() {
	b.bids.clear()
	b.asks.clear()
	clear(b.orders)
	b.LastSeq.Store(0)
}
