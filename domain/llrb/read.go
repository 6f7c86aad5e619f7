package llrb

// Find returns the member of the tree that compares equal to v, or nil.
func Find[T any](e Entree[T], root, v *T) *T {
	return Search(e, root, func(n *T) int { return e.Compare(v, n) })
}

// Search descends using cmp, which reports how the wanted key orders
// relative to n: negative to go left, positive to go right, zero on a hit.
// It lets callers look up by key without building a probe value.
func Search[T any](e Entree[T], root *T, cmp func(n *T) int) *T {
	for n := root; n != nil; {
		switch c := cmp(n); {
		case c < 0:
			n = e.Node(n).left
		case c > 0:
			n = e.Node(n).right
		default:
			return n
		}
	}
	return nil
}

// Min returns the smallest member, or nil for an empty tree.
func Min[T any](e Entree[T], root *T) *T {
	if root == nil {
		return nil
	}
	n := root
	for l := e.Node(n).left; l != nil; l = e.Node(n).left {
		n = l
	}
	return n
}

// Max returns the largest member, or nil for an empty tree.
func Max[T any](e Entree[T], root *T) *T {
	if root == nil {
		return nil
	}
	n := root
	for r := e.Node(n).right; r != nil; r = e.Node(n).right {
		n = r
	}
	return n
}

// Ascend calls fn on every member in increasing order until fn returns
// false.
func Ascend[T any](e Entree[T], root *T, fn func(*T) bool) {
	walk(e, root, left, fn)
}

// Descend calls fn on every member in decreasing order until fn returns
// false.
func Descend[T any](e Entree[T], root *T, fn func(*T) bool) {
	walk(e, root, right, fn)
}

// walk is an in-order traversal that starts on the first side. The tree
// must not be modified from fn.
func walk[T any](e Entree[T], root *T, first dir, fn func(*T) bool) {
	child := func(n *T, d dir) *T {
		if d == left {
			return e.Node(n).left
		}
		return e.Node(n).right
	}
	second := right
	if first == right {
		second = left
	}

	var p path[T]
	p.reset()
	n := root
	for {
		for ; n != nil; n = child(n, first) {
			p.push(n, first)
		}
		top, _, ok := p.pop()
		if !ok {
			return
		}
		if !fn(top) {
			return
		}
		n = child(top, second)
	}
}

// Len counts the members of the tree. It is O(n).
func Len[T any](e Entree[T], root *T) int {
	count := 0
	Ascend(e, root, func(*T) bool {
		count++
		return true
	})
	return count
}

// Height returns the number of nodes on the longest root-to-leaf path.
func Height[T any](e Entree[T], root *T) int {
	if root == nil {
		return 0
	}
	n := e.Node(root)
	return 1 + max(Height(e, n.left), Height(e, n.right))
}
