package orderbook

import (
	"fmt"

	"lltree/domain/llrb"
)

// PriceLevel is a FIFO queue at a single price. It embeds the tree linkage
// of the ladder it belongs to.
type PriceLevel struct {
	Price int64

	head *Order
	tail *Order

	TotalQty   int64
	OrderCount int

	link llrb.Node[PriceLevel]
}

func (p *PriceLevel) Enqueue(o *Order) {
	o.level = p
	o.next = nil
	if p.head == nil {
		o.prev = nil
		p.head = o
		p.tail = o
	} else {
		p.tail.next = o
		o.prev = p.tail
		p.tail = o
	}
	p.TotalQty += o.Remaining()
	p.OrderCount++
}

// Unlink removes o from anywhere in the queue.
func (p *PriceLevel) Unlink(o *Order) {
	if o.prev != nil {
		o.prev.next = o.next
	} else {
		p.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		p.tail = o.prev
	}
	o.next = nil
	o.prev = nil
	o.level = nil

	p.TotalQty -= o.Remaining()
	p.OrderCount--
}

func (p *PriceLevel) PopHead() *Order {
	o := p.head
	if o == nil {
		return nil
	}
	p.Unlink(o)
	return o
}

// fill records qty executed against the head order.
func (p *PriceLevel) fill(qty int64) {
	p.head.Filled += qty
	p.TotalQty -= qty
}

func (p *PriceLevel) Empty() bool {
	return p.head == nil
}

// Read-only helper
func (p *PriceLevel) Head() *Order {
	return p.head
}

// Reset clears p for reuse from a pool.
func (p *PriceLevel) Reset(price int64) {
	*p = PriceLevel{Price: price}
}

func (p *PriceLevel) String() string {
	return fmt.Sprintf("level{price=%d qty=%d orders=%d}", p.Price, p.TotalQty, p.OrderCount)
}
