package orderbook

import (
	"cmp"

	"lltree/domain/llrb"
)

// ascending orders ask levels: lowest price first.
type ascending struct{}

func (ascending) Compare(a, b *PriceLevel) int              { return cmp.Compare(a.Price, b.Price) }
func (ascending) Node(p *PriceLevel) *llrb.Node[PriceLevel] { return &p.link }

// descending orders bid levels: highest price first.
type descending struct{}

func (descending) Compare(a, b *PriceLevel) int              { return cmp.Compare(b.Price, a.Price) }
func (descending) Node(p *PriceLevel) *llrb.Node[PriceLevel] { return &p.link }

// ladder is one side of the book. It holds the tree root the llrb
// operations hand back and counts the levels linked under it.
type ladder struct {
	side  Side
	order llrb.Entree[PriceLevel]
	root  *PriceLevel
	size  int
}

func newLadder(side Side) *ladder {
	l := &ladder{side: side, order: ascending{}}
	if side == Bid {
		l.order = descending{}
	}
	return l
}

func (l *ladder) Len() int { return l.size }

// find returns the level at price, or nil.
func (l *ladder) find(price int64) *PriceLevel {
	return llrb.Search(l.order, l.root, func(n *PriceLevel) int {
		if l.side == Bid {
			return cmp.Compare(n.Price, price)
		}
		return cmp.Compare(price, n.Price)
	})
}

func (l *ladder) insert(lvl *PriceLevel) error {
	root, err := llrb.Insert(l.order, l.root, lvl)
	if err != nil {
		return err
	}
	l.root = root
	l.size++
	return nil
}

// remove unlinks lvl and reports whether it was in the ladder.
func (l *ladder) remove(lvl *PriceLevel) bool {
	root, removed := llrb.Remove(l.order, l.root, lvl)
	l.root = root
	if removed == nil {
		return false
	}
	l.size--
	return true
}

// best returns the level with the most aggressive price.
func (l *ladder) best() *PriceLevel {
	return llrb.Min(l.order, l.root)
}

// popBest unlinks and returns the best level.
func (l *ladder) popBest() *PriceLevel {
	lvl, root := llrb.RemoveMin(l.order, l.root)
	l.root = root
	if lvl != nil {
		l.size--
	}
	return lvl
}

// walk visits levels from best to worst until fn returns false.
func (l *ladder) walk(fn func(*PriceLevel) bool) {
	llrb.Ascend(l.order, l.root, fn)
}

// crosses reports whether an incoming order on the opposite side at price
// can trade against lvl.
func (l *ladder) crosses(lvl *PriceLevel, price int64) bool {
	if l.side == Ask {
		return lvl.Price <= price
	}
	return lvl.Price >= price
}

func (l *ladder) verify() error {
	return llrb.Verify(l.order, l.root)
}

func (l *ladder) clear() {
	l.root = nil
	l.size = 0
}
