package llrb

// RemoveMin unlinks the smallest value of the tree rooted at root. It
// returns that value (nil for an empty tree) and the new root.
func RemoveMin[T any](e Entree[T], root *T) (least, newRoot *T) {
	if root == nil {
		return nil, nil
	}
	t := tree[T]{e: e}
	rn := t.node(root)
	if !t.isRed(rn.left) && !t.isRed(rn.right) {
		rn.red = true
	}
	least, newRoot = t.removeMin(root)
	if newRoot != nil {
		t.node(newRoot).red = false
	}
	return least, newRoot
}

// removeMin unlinks the smallest value below h. Either h or h.left must be
// red on entry; the descent keeps that true one level further down each
// step so the leaf it finally drops is always red.
func (t tree[T]) removeMin(h *T) (least, newRoot *T) {
	var p path[T]
	p.reset()
	for t.node(h).left != nil {
		if l := t.node(h).left; !t.isRed(l) && !t.isRed(t.left(l)) {
			h = t.moveRedLeft(h)
		}
		p.push(h, left)
		h = t.node(h).left
	}
	least = h

	var next *T
	for {
		cur, _, ok := p.pop()
		if !ok {
			break
		}
		t.node(cur).left = next
		next = t.clean(cur)
	}
	t.node(least).unlink()
	return least, next
}

// Remove unlinks the value equal to v from the tree rooted at root. It
// returns the new root and the value that was unlinked, which is nil when
// no value in the tree equals v; the tree is then left as it was.
func Remove[T any](e Entree[T], root, v *T) (newRoot, removed *T) {
	if Find(e, root, v) == nil {
		return root, nil
	}
	t := tree[T]{e: e}
	rn := t.node(root)
	if !t.isRed(rn.left) && !t.isRed(rn.right) {
		rn.red = true
	}

	var p path[T]
	p.reset()
	var next *T
	h := root
	for {
		if e.Compare(v, h) < 0 {
			if l := t.node(h).left; !t.isRed(l) && !t.isRed(t.left(l)) {
				h = t.moveRedLeft(h)
			}
			p.push(h, left)
			h = t.node(h).left
			continue
		}

		if t.isRed(t.node(h).left) {
			h = t.rotateRight(h)
		}
		if e.Compare(v, h) == 0 && t.node(h).right == nil {
			removed = h
			break
		}
		if r := t.node(h).right; !t.isRed(r) && !t.isRed(t.left(r)) {
			h = t.moveRedRight(h)
		}
		if e.Compare(v, h) == 0 {
			removed = h
			hn := t.node(h)
			least, rest := t.removeMin(hn.right)
			mn := t.node(least)
			mn.left = hn.left
			mn.right = rest
			mn.red = hn.red
			next = t.clean(least)
			break
		}
		p.push(h, right)
		h = t.node(h).right
	}

	for {
		cur, d, ok := p.pop()
		if !ok {
			break
		}
		if d == left {
			t.node(cur).left = next
		} else {
			t.node(cur).right = next
		}
		next = t.clean(cur)
	}
	if next != nil {
		t.node(next).red = false
	}
	t.node(removed).unlink()
	return next, removed
}
