package llrb

// tree bundles an Entree with the local restructuring primitives. Every
// primitive takes the root of a subtree and returns the root that replaces
// it; relinking that root into its parent is the caller's job.
type tree[T any] struct {
	e Entree[T]
}

func (t tree[T]) node(x *T) *Node[T] { return t.e.Node(x) }

func (t tree[T]) isRed(x *T) bool {
	return x != nil && t.e.Node(x).red
}

func (t tree[T]) left(x *T) *T {
	if x == nil {
		return nil
	}
	return t.e.Node(x).left
}

func (t tree[T]) right(x *T) *T {
	if x == nil {
		return nil
	}
	return t.e.Node(x).right
}

// rotateLeft turns the red right link of h into a left link. The new root
// takes h's color and h becomes red.
func (t tree[T]) rotateLeft(h *T) *T {
	hn := t.node(h)
	x := hn.right
	xn := t.node(x)
	hn.right = xn.left
	xn.left = h
	xn.red = hn.red
	hn.red = true
	return x
}

// rotateRight is the mirror of rotateLeft.
func (t tree[T]) rotateRight(h *T) *T {
	hn := t.node(h)
	x := hn.left
	xn := t.node(x)
	hn.left = xn.right
	xn.right = h
	xn.red = hn.red
	hn.red = true
	return x
}

// flip toggles h and both of its children. Both children must exist.
func (t tree[T]) flip(h *T) {
	hn := t.node(h)
	hn.red = !hn.red
	ln, rn := t.node(hn.left), t.node(hn.right)
	ln.red = !ln.red
	rn.red = !rn.red
}

// split breaks a black node with two red children into a red node with two
// black children. Black-height is unchanged; the red moves up one level.
func (t tree[T]) split(h *T) {
	hn := t.node(h)
	hn.red = true
	t.node(hn.left).red = false
	t.node(hn.right).red = false
}

// clean restores the local invariants of h once both of its children are
// valid subtrees again.
func (t tree[T]) clean(h *T) *T {
	if t.isRed(t.right(h)) && !t.isRed(t.left(h)) {
		h = t.rotateLeft(h)
	}
	if t.isRed(t.left(h)) && t.isRed(t.left(t.left(h))) {
		h = t.rotateRight(h)
	}
	if t.isRed(t.left(h)) && t.isRed(t.right(h)) {
		t.flip(h)
	}
	return h
}

// moveRedLeft is applied on the way down when h is red and both h.left and
// h.left.left are black: it borrows from the right sibling, or merges with
// it, so that h.left or one of its children ends up red.
func (t tree[T]) moveRedLeft(h *T) *T {
	t.flip(h)
	hn := t.node(h)
	if t.isRed(t.left(hn.right)) {
		hn.right = t.rotateRight(hn.right)
		h = t.rotateLeft(h)
		t.flip(h)
	}
	return h
}

// moveRedRight is the mirror of moveRedLeft for descents to the right.
func (t tree[T]) moveRedRight(h *T) *T {
	t.flip(h)
	if t.isRed(t.left(t.left(h))) {
		h = t.rotateRight(h)
		t.flip(h)
	}
	return h
}
