/*
	Package hypertree holds the adaptive tree structures of a hypertree grid
	and the decoder that builds them from a parsed descriptor.

	Trees are arena-allocated: nodes live in a flat growable slice and refer
	to their children by integer index.  A subdivided node's children are
	appended as one contiguous block, so child lookup is index arithmetic and
	there is no shared cursor state or ownership cycle.
*/
package hypertree

import "fmt"

// NoIndex marks an absent child block or leaf id on a Node.
const NoIndex = int32(-1)

// Node is one cell of a hypertree.  A node is either internal, with
// ChildBase pointing at its block of children, or a leaf with an id into the
// grid's per-leaf arrays.
type Node struct {
	// ChildBase is the arena index of the first of the node's BlockSize
	// children, or NoIndex for a leaf.
	ChildBase int32

	// LeafID is the id of this leaf among the tree's leaves in visitation
	// order, or NoIndex for an internal node.
	LeafID int32
}

// Tree is one arena-allocated hypertree rooted at a cell of the grid lattice.
type Tree struct {
	blockSize int
	nodes     []Node
	numLeaves int
}

// NewTree returns a tree holding a single undecided root node.
func NewTree(blockSize int) *Tree {
	return &Tree{
		blockSize: blockSize,
		nodes:     []Node{{ChildBase: NoIndex, LeafID: NoIndex}},
	}
}

// Root returns the arena index of the root node, always 0.
func (t *Tree) Root() int {
	return 0
}

// NumNodes returns the total number of nodes in the tree.
func (t *Tree) NumNodes() int {
	return len(t.nodes)
}

// NumLeaves returns the number of nodes finalized as leaves so far.
func (t *Tree) NumLeaves() int {
	return t.numLeaves
}

// BlockSize returns the number of children per subdivided node.
func (t *Tree) BlockSize() int {
	return t.blockSize
}

// Node returns the node at arena index n.
func (t *Tree) Node(n int) Node {
	return t.nodes[n]
}

// IsLeaf returns true if node n has not been subdivided.
func (t *Tree) IsLeaf(n int) bool {
	return t.nodes[n].ChildBase == NoIndex
}

// Child returns the arena index of the given child slot of internal node n.
func (t *Tree) Child(n, slot int) int {
	base := t.nodes[n].ChildBase
	if base == NoIndex {
		panic(fmt.Sprintf("hypertree: Child(%d, %d) called on leaf node", n, slot))
	}
	if slot < 0 || slot >= t.blockSize {
		panic(fmt.Sprintf("hypertree: child slot %d out of range for block size %d", slot, t.blockSize))
	}
	return int(base) + slot
}

// Subdivide turns undecided node n into an internal node, appending its block
// of children to the arena, and returns the arena index of the first child.
func (t *Tree) Subdivide(n int) int {
	if t.nodes[n].ChildBase != NoIndex || t.nodes[n].LeafID != NoIndex {
		panic(fmt.Sprintf("hypertree: Subdivide(%d) called on already decided node", n))
	}
	childBase := len(t.nodes)
	for i := 0; i < t.blockSize; i++ {
		t.nodes = append(t.nodes, Node{ChildBase: NoIndex, LeafID: NoIndex})
	}
	t.nodes[n].ChildBase = int32(childBase)
	return childBase
}

// RebuildTree reassembles a tree from a serialized arena.  Unlike the decode
// path, the input comes from external data, so structural problems are
// reported as errors rather than panics.
func RebuildTree(blockSize int, nodes []Node) (*Tree, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("tree arena is empty")
	}
	numLeaves := 0
	for i, n := range nodes {
		switch {
		case n.ChildBase != NoIndex && n.LeafID != NoIndex:
			return nil, fmt.Errorf("node %d is both internal and leaf", i)
		case n.ChildBase != NoIndex:
			if int(n.ChildBase)+blockSize > len(nodes) {
				return nil, fmt.Errorf("node %d child block [%d,%d) exceeds arena of %d nodes",
					i, n.ChildBase, int(n.ChildBase)+blockSize, len(nodes))
			}
		case n.LeafID != NoIndex:
			numLeaves++
		default:
			return nil, fmt.Errorf("node %d is undecided", i)
		}
	}
	return &Tree{blockSize: blockSize, nodes: nodes, numLeaves: numLeaves}, nil
}

// Nodes returns the tree's arena.  The slice is shared, not copied.
func (t *Tree) Nodes() []Node {
	return t.nodes
}

// SetLeaf finalizes undecided node n as the tree's next leaf and returns its
// per-tree leaf id.
func (t *Tree) SetLeaf(n int) int {
	if t.nodes[n].ChildBase != NoIndex || t.nodes[n].LeafID != NoIndex {
		panic(fmt.Sprintf("hypertree: SetLeaf(%d) called on already decided node", n))
	}
	id := t.numLeaves
	t.nodes[n].LeafID = int32(id)
	t.numLeaves++
	return id
}
