package llrb

import "github.com/cockroachdb/errors"

// Verify checks the ordering and red-black invariants of the tree rooted at
// root and returns an error wrapping ErrInvariantViolated for the first
// violation found. It visits every node and is meant for tests and debug
// self-checks, not for hot paths.
func Verify[T any](e Entree[T], root *T) error {
	t := tree[T]{e: e}
	if t.isRed(root) {
		return errors.Wrap(ErrInvariantViolated, "root is red")
	}
	_, err := t.verify(root, nil, nil)
	return err
}

// verify returns the black-height of the subtree at h. lo and hi are the
// nearest ancestors h must sort after and before.
func (t tree[T]) verify(h, lo, hi *T) (int, error) {
	if h == nil {
		return 1, nil
	}
	if lo != nil && t.e.Compare(lo, h) >= 0 {
		return 0, errors.Wrap(ErrInvariantViolated, "node sorts before its left-bound ancestor")
	}
	if hi != nil && t.e.Compare(h, hi) >= 0 {
		return 0, errors.Wrap(ErrInvariantViolated, "node sorts after its right-bound ancestor")
	}

	hn := t.node(h)
	if hn.red && (t.isRed(hn.left) || t.isRed(hn.right)) {
		return 0, errors.Wrap(ErrInvariantViolated, "red node has a red child")
	}
	if t.isRed(hn.right) && !t.isRed(hn.left) {
		return 0, errors.Wrap(ErrInvariantViolated, "red right child under a black left child")
	}

	lh, err := t.verify(hn.left, lo, h)
	if err != nil {
		return 0, err
	}
	rh, err := t.verify(hn.right, h, hi)
	if err != nil {
		return 0, err
	}
	if lh != rh {
		return 0, errors.Wrapf(ErrInvariantViolated, "black-height %d on the left, %d on the right", lh, rh)
	}
	if !hn.red {
		lh++
	}
	return lh, nil
}
