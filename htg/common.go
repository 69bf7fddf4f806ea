/*
	Package htg provides types, constants and functions that have no other dependencies
	and can be used by all packages within the hypertree grid toolkit.
*/
package htg

import "fmt"

// Notes:
//   A hypertree grid is a regular lattice of root cells, each the root of an
//   adaptively refined tree.  Refinement is isotropic: every subdivided node
//   splits into branchFactor children along each active axis, so a node has
//   branchFactor^dimension children in total (the "block size").

// Topology describes the root lattice of a hypertree grid and the refinement
// scheme shared by all of its trees.
type Topology struct {
	// Dimension is the number of refined axes (1, 2, or 3).  Axes beyond
	// Dimension are inactive: their extent stays 1 during subdivision.
	Dimension int

	// BranchFactor is the number of children per refined axis, at least 2.
	BranchFactor int

	// GridSize is the number of root trees along x, y, z.  Each must be >= 1.
	GridSize [3]int
}

// BlockSize returns the number of children of a subdivided node,
// BranchFactor^Dimension.  It must be recomputed from the current topology
// before any decode since Dimension and BranchFactor are settable properties.
func (t Topology) BlockSize() int {
	blockSize := t.BranchFactor
	for i := 1; i < t.Dimension; i++ {
		blockSize *= t.BranchFactor
	}
	return blockSize
}

// NumTrees returns the total number of root trees in the lattice.
func (t Topology) NumTrees() int {
	return t.GridSize[0] * t.GridSize[1] * t.GridSize[2]
}

// Validate returns an error unless the topology describes a usable lattice.
func (t Topology) Validate() error {
	if t.Dimension < 1 || t.Dimension > 3 {
		return fmt.Errorf("dimension must be 1, 2, or 3, got %d", t.Dimension)
	}
	if t.BranchFactor < 2 {
		return fmt.Errorf("branch factor must be at least 2, got %d", t.BranchFactor)
	}
	for i := 0; i < 3; i++ {
		if t.GridSize[i] < 1 {
			return fmt.Errorf("grid size along axis %d must be at least 1, got %d", i, t.GridSize[i])
		}
	}
	return nil
}

// TreeIndex returns the flat index of the root tree at lattice coordinate
// (i, j, k), with i varying fastest.
func (t Topology) TreeIndex(i, j, k int) int {
	return (k*t.GridSize[1]+j)*t.GridSize[0] + i
}

func (t Topology) String() string {
	return fmt.Sprintf("%d x %d x %d lattice of %dD trees with branch factor %d",
		t.GridSize[0], t.GridSize[1], t.GridSize[2], t.Dimension, t.BranchFactor)
}
