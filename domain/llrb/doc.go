// Package llrb implements an intrusive left-leaning red-black tree.
//
// The tree has no container object and never allocates: callers embed a
// Node in their own values and hand an Entree to every operation, which
// tells the tree how to order two values and where the Node lives inside
// each one. A tree is identified by its root value; Insert, Remove and
// RemoveMin return the (possibly new) root, which the caller must keep.
//
// Mutations descend once, recording the visited nodes on a path stack, and
// then repair the red-black invariants bottom-up while popping it. Nothing
// recurses and nothing is freed; once a value has been removed its Node is
// cleared and the value may be reused or reinserted.
//
// The package performs no locking. A tree must only be touched by one
// goroutine at a time.
package llrb
