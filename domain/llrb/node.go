package llrb

// Node is the linkage a value of type T embeds to become a tree member.
// The zero Node is an unlinked black node.
type Node[T any] struct {
	left  *T
	right *T
	red   bool
}

// Left returns the left child, or nil when there is none.
func (n *Node[T]) Left() *T { return n.left }

// Right returns the right child, or nil when there is none.
func (n *Node[T]) Right() *T { return n.right }

// IsRed reports the color of the link from the parent to this node.
func (n *Node[T]) IsRed() bool { return n.red }

func (n *Node[T]) unlink() {
	*n = Node[T]{}
}

// Entree connects an owner type to the tree machinery.
//
// Compare must be a strict total order that never changes while a value is
// in a tree: negative when a sorts before b, zero when they are the same key,
// positive otherwise. Node returns the Node embedded in v and must always
// return the same pointer for the same value.
type Entree[T any] interface {
	Compare(a, b *T) int
	Node(v *T) *Node[T]
}

// EntreeFunc builds an Entree from two functions.
type EntreeFunc[T any] struct {
	CompareFunc func(a, b *T) int
	NodeFunc    func(v *T) *Node[T]
}

func (f EntreeFunc[T]) Compare(a, b *T) int { return f.CompareFunc(a, b) }

func (f EntreeFunc[T]) Node(v *T) *Node[T] { return f.NodeFunc(v) }
