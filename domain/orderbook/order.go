package orderbook

import "github.com/cockroachdb/errors"

type Side int
type OrderType int
type Status int

const (
	Bid Side = iota
	Ask
)

const (
	Limit OrderType = iota
	Market
	IOC
	FOK
	PostOnly
)

const (
	Active Status = iota
	Filled
	Cancelled
	Rejected
)

func (s Side) String() string {
	if s == Ask {
		return "ask"
	}
	return "bid"
}

func (s Side) Opposite() Side {
	if s == Ask {
		return Bid
	}
	return Ask
}

func (t OrderType) String() string {
	switch t {
	case Limit:
		return "limit"
	case Market:
		return "market"
	case IOC:
		return "ioc"
	case FOK:
		return "fok"
	case PostOnly:
		return "post_only"
	default:
		return "unknown"
	}
}

// rests reports whether an unfilled remainder stays in the book.
func (t OrderType) rests() bool {
	return t == Limit || t == PostOnly
}

func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case Filled:
		return "filled"
	case Cancelled:
		return "cancelled"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Order is a pure domain entity. While resting it is linked into the FIFO of
// its price level.
type Order struct {
	ID     uint64
	Price  int64
	Qty    int64
	Filled int64
	SeqID  uint64

	Side   Side
	Type   OrderType
	Status Status

	level *PriceLevel
	next  *Order
	prev  *Order
}

func (o *Order) Remaining() int64 {
	return o.Qty - o.Filled
}

// Next returns the order queued behind o at the same price.
func (o *Order) Next() *Order {
	return o.next
}

// Resting reports whether o is currently queued in the book.
func (o *Order) Resting() bool {
	return o.level != nil
}

// Fill is one execution between an incoming order and a resting one.
type Fill struct {
	TakerID   uint64
	MakerID   uint64
	TakerSide Side
	Price     int64
	Qty       int64
	SeqID     uint64
}

// ParseSide accepts the names String returns.
func ParseSide(s string) (Side, error) {
	switch s {
	case "bid", "buy":
		return Bid, nil
	case "ask", "sell":
		return Ask, nil
	}
	return 0, errors.Newf("unknown side %q", s)
}

// ParseOrderType accepts the names String returns.
func ParseOrderType(s string) (OrderType, error) {
	for t := Limit; t <= PostOnly; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, errors.Newf("unknown order type %q", s)
}
