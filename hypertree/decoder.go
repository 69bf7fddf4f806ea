/*
	This file holds the decoder that turns a parsed LevelTable into the
	explicit forest of trees plus per-leaf attributes.

	The walk is depth first.  At each node the current level's descriptor is
	indexed to decide between subdivision and termination: at level 0 the
	index is the tree index across the whole lattice, while deeper down a
	refined node's children occupy a contiguous block of blockSize slots whose
	offset is the rank of that node among all nodes refined at the parent's
	level, in visitation order.  The level counters that produce those ranks
	are shared across the whole forest, so the baseline decode is inherently
	sequential in lattice order (x fastest, then y, then z).

	Indexing past the end of a level descriptor means the table's invariants
	were bypassed; that is a contract breach and panics rather than returning
	an error.
*/

package hypertree

import (
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/janelia-flyem/htg/grammar"
	"github.com/janelia-flyem/htg/htg"
)

// decoder bundles the state threaded through one decode walk.
type decoder struct {
	table     *grammar.LevelTable
	grid      *Grid
	topo      htg.Topology
	blockSize int
	maxLevel  int
}

// Decode walks every root tree of the lattice in order and returns the
// decoded grid without its coordinate arrays, which the caller supplies.
// The table's counters are mutated in place; call table.Reset() before
// decoding the same table again.  maxLevel must already be clamped to the
// table's depth, as grammar.Parse does.
func Decode(table *grammar.LevelTable, topo htg.Topology, maxLevel int) *Grid {
	blockSize := topo.BlockSize()
	grid := &Grid{
		Topology:  topo,
		BlockSize: blockSize,
		Trees:     make([]*Tree, 0, topo.NumTrees()),
	}
	if table.UseMask {
		grid.Material = &BitArray{}
	}

	d := &decoder{table: table, grid: grid, topo: topo, blockSize: blockSize, maxLevel: maxLevel}

	for k := 0; k < topo.GridSize[2]; k++ {
		for j := 0; j < topo.GridSize[1]; j++ {
			for i := 0; i < topo.GridSize[0]; i++ {
				treeIdx := topo.TreeIndex(i, j, k)
				tree := NewTree(blockSize)
				d.visit(tree, tree.Root(), 0, treeIdx, 0, [3]int{}, len(grid.Scalars), 0)
				grid.Trees = append(grid.Trees, tree)
			}
		}
	}
	return grid
}

// visit decides the fate of one node: subdivide it and recurse into its block
// of children, or finalize it as a leaf and record its attributes.  parentPos
// is the rank of the node's parent among the nodes refined at the parent's
// level; idx is the node's per-axis cell position within its tree at its
// level.
func (d *decoder) visit(t *Tree, node, level, treeIdx, childIdx int, idx [3]int, leafIDOffset, parentPos int) {
	// Calculate pointer into level descriptor string.
	pointer := treeIdx
	if level > 0 {
		pointer = childIdx + parentPos*d.blockSize
	}
	entry := &d.table.Levels[level]

	// Determine whether to subdivide, honoring the maximum level restriction.
	subdivide := entry.Descriptor[pointer] == 'R' && level+1 < d.maxLevel

	if subdivide {
		childBase := t.Subdivide(node)

		// Child extents are BranchFactor on the active axes and 1 elsewhere.
		xDim, yDim, zDim := 1, 1, 1
		switch d.topo.Dimension {
		case 3:
			zDim = d.topo.BranchFactor
			fallthrough
		case 2:
			yDim = d.topo.BranchFactor
			fallthrough
		case 1:
			xDim = d.topo.BranchFactor
		}

		// All children share the rank the parent holds right now; the counter
		// only advances once the whole block has been visited.
		rank := entry.Counter

		newChildIdx := 0
		for z := 0; z < zDim; z++ {
			for y := 0; y < yDim; y++ {
				for x := 0; x < xDim; x++ {
					newIdx := [3]int{idx[0]*xDim + x, idx[1]*yDim + y, idx[2]*zDim + z}
					d.visit(t, childBase+newChildIdx, level+1, treeIdx, newChildIdx, newIdx, leafIDOffset, rank)
					newChildIdx++
				}
			}
		}

		entry.Counter++
		return
	}

	// Leaf cell: global id is this tree's offset plus the per-tree leaf id.
	id := leafIDOffset + t.SetLeaf(node)

	if d.table.UseMask {
		d.grid.Material.Set(id, entry.Mask[pointer] == '0')
	}

	// Cell value is depth level.
	d.grid.Scalars = append(d.grid.Scalars, float64(level))
	if len(d.grid.Scalars) != id+1 {
		panic(fmt.Sprintf("hypertree: leaf id %d out of sync with scalar array length %d",
			id, len(d.grid.Scalars)))
	}
}

// Partition splits a validated level table into one independent table per
// tree, so trees can be decoded concurrently.  Per-tree segments of each
// level are contiguous and ordered by tree because the sequential decode
// finishes each tree before starting the next, so rank accounting can be
// replayed from 'R' counts alone.
func Partition(table *grammar.LevelTable, topo htg.Topology) []*grammar.LevelTable {
	nTrees := topo.NumTrees()
	blockSize := topo.BlockSize()

	parts := make([]*grammar.LevelTable, nTrees)
	for t := 0; t < nTrees; t++ {
		parts[t] = &grammar.LevelTable{
			UseMask: table.UseMask,
			Levels:  make([]grammar.Level, len(table.Levels)),
		}
	}

	// widths[t] is the number of cells tree t owns at the current level:
	// one root cell at level 0, then blockSize per refined cell above.
	widths := make([]int, nTrees)
	for t := range widths {
		widths[t] = 1
	}

	for level := range table.Levels {
		desc := table.Levels[level].Descriptor
		mask := table.Levels[level].Mask
		offset := 0
		for t := 0; t < nTrees; t++ {
			end := offset + widths[t]
			if end > len(desc) {
				panic(fmt.Sprintf("hypertree: level %d descriptor exhausted partitioning tree %d", level, t))
			}
			seg := desc[offset:end]
			parts[t].Levels[level].Descriptor = seg
			if table.UseMask {
				parts[t].Levels[level].Mask = mask[offset:end]
			}
			widths[t] = strings.Count(seg, "R") * blockSize
			offset = end
		}
		if offset != len(desc) {
			panic(fmt.Sprintf("hypertree: level %d descriptor has %d cells unclaimed by any tree",
				level, len(desc)-offset))
		}
	}
	return parts
}

// DecodeParallel decodes the forest with one goroutine per tree after
// statically partitioning the level table.  Output is identical to Decode on
// the same table.  The shared table is not mutated; each tree gets private
// counters.  A contract breach inside a tree decode is returned as an error
// instead of panicking across goroutines.
func DecodeParallel(table *grammar.LevelTable, topo htg.Topology, maxLevel int) (*Grid, error) {
	parts := Partition(table, topo)
	nTrees := topo.NumTrees()
	blockSize := topo.BlockSize()

	trees := make([]*Tree, nTrees)
	scalars := make([][]float64, nTrees)
	var masks []*BitArray
	if table.UseMask {
		masks = make([]*BitArray, nTrees)
	}

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for t := 0; t < nTrees; t++ {
		t := t
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("decoding tree %d: %v", t, r)
				}
			}()
			sub := &Grid{Topology: topo, BlockSize: blockSize}
			if table.UseMask {
				sub.Material = &BitArray{}
			}
			d := &decoder{table: parts[t], grid: sub, topo: topo, blockSize: blockSize, maxLevel: maxLevel}
			tree := NewTree(blockSize)
			d.visit(tree, tree.Root(), 0, 0, 0, [3]int{}, 0, 0)
			trees[t] = tree
			scalars[t] = sub.Scalars
			if masks != nil {
				masks[t] = sub.Material
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Stitch per-tree results back together in lattice order.
	grid := &Grid{Topology: topo, BlockSize: blockSize, Trees: trees}
	if table.UseMask {
		grid.Material = &BitArray{}
	}
	for t := 0; t < nTrees; t++ {
		base := len(grid.Scalars)
		grid.Scalars = append(grid.Scalars, scalars[t]...)
		if masks != nil {
			for i := range scalars[t] {
				grid.Material.Set(base+i, masks[t].GetBit(i))
			}
		}
	}
	return grid, nil
}
