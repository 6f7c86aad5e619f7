package llrb

// dir says which child a descent took.
type dir uint8

const (
	left dir = iota
	right
)

// pathInline covers every tree of up to 2^32 values; an LLRB holding n
// values is at most 2*log2(n+1) deep. Taller descents spill to the heap.
const pathInline = 64

type step[T any] struct {
	node *T
	dir  dir
}

// path is the LIFO of nodes visited on the way down, popped on the way
// back up to relink and repair each ancestor.
type path[T any] struct {
	steps  []step[T]
	inline [pathInline]step[T]
}

func (p *path[T]) reset() {
	p.steps = p.inline[:0]
}

func (p *path[T]) push(n *T, d dir) {
	p.steps = append(p.steps, step[T]{node: n, dir: d})
}

func (p *path[T]) pop() (*T, dir, bool) {
	i := len(p.steps) - 1
	if i < 0 {
		return nil, left, false
	}
	s := p.steps[i]
	p.steps[i] = step[T]{}
	p.steps = p.steps[:i]
	return s.node, s.dir, true
}

func (p *path[T]) len() int {
	return len(p.steps)
}
