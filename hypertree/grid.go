package hypertree

import (
	"github.com/janelia-flyem/htg/htg"
)

// Grid is a fully decoded hypertree grid: the lattice of trees plus the
// per-leaf attribute arrays.  It is the externally visible artifact of a
// build and outlives the LevelTable it was decoded from.
type Grid struct {
	// Topology is the lattice and refinement scheme the grid was built with.
	Topology htg.Topology

	// BlockSize is BranchFactor^Dimension, fixed at decode time.
	BlockSize int

	// XCoordinates, YCoordinates and ZCoordinates bound the root cells along
	// each axis, so each has length GridSize[axis]+1.
	XCoordinates []float64
	YCoordinates []float64
	ZCoordinates []float64

	// Trees holds one decoded tree per root cell, in tree-index order
	// (x varying fastest).
	Trees []*Tree

	// Scalars holds, per global leaf id, the depth at which that leaf
	// terminated.
	Scalars []float64

	// Material marks blanked (empty) leaves by global leaf id.  It is nil
	// when material masking is disabled.
	Material *BitArray
}

// NumTrees returns the number of root trees in the grid.
func (g *Grid) NumTrees() int {
	return len(g.Trees)
}

// NumLeaves returns the total leaf count across all trees.
func (g *Grid) NumLeaves() int {
	return len(g.Scalars)
}

// NumNodes returns the total node count, internal nodes included.
func (g *Grid) NumNodes() int {
	n := 0
	for _, t := range g.Trees {
		n += t.NumNodes()
	}
	return n
}

// Tree returns the tree rooted at lattice coordinate (i, j, k).
func (g *Grid) Tree(i, j, k int) *Tree {
	return g.Trees[g.Topology.TreeIndex(i, j, k)]
}

// MaskEnabled returns true if the grid carries material blanking data.
func (g *Grid) MaskEnabled() bool {
	return g.Material != nil
}

// MemoryUsed returns an estimate of the grid's in-memory footprint in bytes,
// for reporting purposes.
func (g *Grid) MemoryUsed() uint64 {
	var n uint64
	n += 8 * uint64(len(g.XCoordinates)+len(g.YCoordinates)+len(g.ZCoordinates))
	n += 8 * uint64(len(g.Scalars))
	for _, t := range g.Trees {
		n += 8 * uint64(t.NumNodes())
	}
	if g.Material != nil {
		n += 8 * uint64(len(g.Material.words))
	}
	return n
}
