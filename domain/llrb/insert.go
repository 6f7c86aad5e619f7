package llrb

// Insert links v into the tree rooted at root and returns the new root.
// v must not be a member of any tree; its Node is overwritten.
//
// If the tree already holds a value equal to v, Insert returns root and
// ErrDuplicateKey without modifying anything.
func Insert[T any](e Entree[T], root, v *T) (*T, error) {
	t := tree[T]{e: e}

	var p path[T]
	p.reset()
	for cur := root; cur != nil; {
		switch c := e.Compare(cur, v); {
		case c == 0:
			return root, ErrDuplicateKey
		case c < 0:
			p.push(cur, right)
			cur = t.node(cur).right
		default:
			p.push(cur, left)
			cur = t.node(cur).left
		}
	}

	*e.Node(v) = Node[T]{red: true}

	// next is the subtree that replaces the popped node's child on the
	// recorded side. A black next means the height did not change and no
	// link above it moved, so the walk can stop early.
	next := v
	for {
		cur, d, ok := p.pop()
		if !ok {
			t.node(next).red = false
			return next, nil
		}
		cn := t.node(cur)

		if d == right {
			cn.right = next
			if !t.isRed(next) {
				return root, nil
			}
			if t.isRed(cn.left) {
				// The split hands a red link to cur's parent, which may be
				// red too, so the walk continues.
				t.split(cur)
				next = cur
			} else {
				next = t.rotateLeft(cur)
			}
			continue
		}

		cn.left = next
		if !t.isRed(next) {
			return root, nil
		}
		switch {
		case cn.red:
			// Two reds in a row; the grandparent rotates them.
			next = cur
		case t.isRed(t.node(next).left):
			// cur comes back red from the rotation and the split pushes the
			// red onto the new subtree root; it must keep travelling up.
			next = t.rotateRight(cur)
			t.split(next)
		default:
			return root, nil
		}
	}
}
