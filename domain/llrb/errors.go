package llrb

import "github.com/cockroachdb/errors"

var (
	// ErrDuplicateKey is returned by Insert when the tree already holds a
	// value that compares equal to the one being inserted. The tree is left
	// untouched.
	ErrDuplicateKey = errors.New("llrb: duplicate key")

	// ErrInvariantViolated is wrapped by every error Verify returns.
	ErrInvariantViolated = errors.New("llrb: invariant violated")
)
