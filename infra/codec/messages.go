package codec

import "github.com/cockroachdb/errors"

// Place is the payload of a place-order command.
type Place struct {
	OrderID uint64
	Side    uint8
	Type    uint8
	Price   int64
	Qty     int64
}

func (p Place) Marshal() []byte {
	var b []byte
	b = appendUvarint(b, 1, p.OrderID)
	b = appendUvarint(b, 2, uint64(p.Side))
	b = appendUvarint(b, 3, uint64(p.Type))
	b = appendSint(b, 4, p.Price)
	b = appendSint(b, 5, p.Qty)
	return b
}

func (p *Place) Unmarshal(b []byte) error {
	*p = Place{}
	return errors.Wrap(walk(b, func(f field) error {
		switch f.num {
		case 1:
			p.OrderID = f.varint
		case 2:
			p.Side = f.small()
		case 3:
			p.Type = f.small()
		case 4:
			p.Price = f.sint()
		case 5:
			p.Qty = f.sint()
		}
		return nil
	}), "decode place")
}

// Cancel is the payload of a cancel-order command.
type Cancel struct {
	OrderID uint64
}

func (c Cancel) Marshal() []byte {
	return appendUvarint(nil, 1, c.OrderID)
}

func (c *Cancel) Unmarshal(b []byte) error {
	*c = Cancel{}
	return errors.Wrap(walk(b, func(f field) error {
		if f.num == 1 {
			c.OrderID = f.varint
		}
		return nil
	}), "decode cancel")
}

// Fill is one execution as stored in the outbox.
type Fill struct {
	ID        uint64
	Seq       uint64
	TakerID   uint64
	MakerID   uint64
	TakerSide uint8
	Price     int64
	Qty       int64
	Time      int64
}

func (x Fill) Marshal() []byte {
	var b []byte
	b = appendUvarint(b, 1, x.ID)
	b = appendUvarint(b, 2, x.Seq)
	b = appendUvarint(b, 3, x.TakerID)
	b = appendUvarint(b, 4, x.MakerID)
	b = appendUvarint(b, 5, uint64(x.TakerSide))
	b = appendSint(b, 6, x.Price)
	b = appendSint(b, 7, x.Qty)
	b = appendInt(b, 8, x.Time)
	return b
}

func (x *Fill) Unmarshal(b []byte) error {
	*x = Fill{}
	return errors.Wrap(walk(b, func(f field) error {
		switch f.num {
		case 1:
			x.ID = f.varint
		case 2:
			x.Seq = f.varint
		case 3:
			x.TakerID = f.varint
		case 4:
			x.MakerID = f.varint
		case 5:
			x.TakerSide = f.small()
		case 6:
			x.Price = f.sint()
		case 7:
			x.Qty = f.sint()
		case 8:
			x.Time = f.int()
		}
		return nil
	}), "decode fill")
}

// OrderEntry is a resting order inside a snapshot.
type OrderEntry struct {
	ID     uint64
	SeqID  uint64
	Side   uint8
	Type   uint8
	Price  int64
	Qty    int64
	Filled int64
}

func (e OrderEntry) Marshal() []byte {
	var b []byte
	b = appendUvarint(b, 1, e.ID)
	b = appendUvarint(b, 2, e.SeqID)
	b = appendUvarint(b, 3, uint64(e.Side))
	b = appendUvarint(b, 4, uint64(e.Type))
	b = appendSint(b, 5, e.Price)
	b = appendSint(b, 6, e.Qty)
	b = appendSint(b, 7, e.Filled)
	return b
}

func (e *OrderEntry) Unmarshal(b []byte) error {
	*e = OrderEntry{}
	return walk(b, func(f field) error {
		switch f.num {
		case 1:
			e.ID = f.varint
		case 2:
			e.SeqID = f.varint
		case 3:
			e.Side = f.small()
		case 4:
			e.Type = f.small()
		case 5:
			e.Price = f.sint()
		case 6:
			e.Qty = f.sint()
		case 7:
			e.Filled = f.sint()
		}
		return nil
	})
}

// Snapshot is the full resting state of a book at command Seq. Orders are
// listed best level first and in queue order within a level.
type Snapshot struct {
	Seq     uint64
	FillSeq uint64
	Created int64
	Orders  []OrderEntry
}

func (s Snapshot) Marshal() []byte {
	var b []byte
	b = appendUvarint(b, 1, s.Seq)
	b = appendUvarint(b, 2, s.FillSeq)
	b = appendInt(b, 3, s.Created)
	for _, e := range s.Orders {
		b = appendMessage(b, 4, e.Marshal())
	}
	return b
}

func (s *Snapshot) Unmarshal(b []byte) error {
	*s = Snapshot{}
	return errors.Wrap(walk(b, func(f field) error {
		switch f.num {
		case 1:
			s.Seq = f.varint
		case 2:
			s.FillSeq = f.varint
		case 3:
			s.Created = f.int()
		case 4:
			var e OrderEntry
			if err := e.Unmarshal(f.bytes); err != nil {
				return errors.Wrapf(err, "order %d", len(s.Orders))
			}
			s.Orders = append(s.Orders, e)
		}
		return nil
	}), "decode snapshot")
}
