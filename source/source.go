/*
	Package source builds hypertree grids from string descriptors.

	A Source bundles the grid topology, geometry scaling, and descriptor
	strings behind a settable property surface, then Build runs the grammar
	parser and tree decoder and attaches the uniform coordinate arrays.  A
	build either yields a complete grid or fails during parsing; there is no
	partial result.
*/
package source

import (
	"github.com/dustin/go-humanize"

	"github.com/janelia-flyem/htg/grammar"
	"github.com/janelia-flyem/htg/htg"
	"github.com/janelia-flyem/htg/hypertree"
)

// Source generates a hypertree grid from a level-ordered string descriptor
// and an optional material mask.
type Source struct {
	topo         htg.Topology
	gridScale    [3]float64
	maxLevel     int
	descriptor   string
	materialMask string
	useMask      bool
	parallel     bool
}

// New returns a Source with default properties: a single 3D tree of branch
// factor 2, unit scale, maximum level 1, and a trivial one-leaf descriptor.
func New() *Source {
	return &Source{
		topo: htg.Topology{
			Dimension:    3,
			BranchFactor: 2,
			GridSize:     [3]int{1, 1, 1},
		},
		gridScale:    [3]float64{1, 1, 1},
		maxLevel:     1,
		descriptor:   ".",
		materialMask: "0",
	}
}

// SetDescriptor sets the refinement descriptor string.
func (s *Source) SetDescriptor(descriptor string) {
	s.descriptor = descriptor
}

// Descriptor returns the refinement descriptor string.
func (s *Source) Descriptor() string {
	return s.descriptor
}

// SetMaterialMask sets the material mask string.  It is only consulted when
// mask usage is enabled.
func (s *Source) SetMaterialMask(mask string) {
	s.materialMask = mask
}

// MaterialMask returns the material mask string.
func (s *Source) MaterialMask() string {
	return s.materialMask
}

// SetUseMaterialMask enables or disables material mask processing.
func (s *Source) SetUseMaterialMask(use bool) {
	s.useMask = use
}

// UseMaterialMask returns whether material mask processing is enabled.
func (s *Source) UseMaterialMask() bool {
	return s.useMask
}

// SetDimension sets the number of refined axes (1, 2, or 3).
func (s *Source) SetDimension(dimension int) {
	s.topo.Dimension = dimension
}

// Dimension returns the number of refined axes.
func (s *Source) Dimension() int {
	return s.topo.Dimension
}

// SetBranchFactor sets the subdivision factor per refined axis.
func (s *Source) SetBranchFactor(factor int) {
	s.topo.BranchFactor = factor
}

// BranchFactor returns the subdivision factor per refined axis.
func (s *Source) BranchFactor() int {
	return s.topo.BranchFactor
}

// SetGridSize sets the number of root trees along each axis.
func (s *Source) SetGridSize(nx, ny, nz int) {
	s.topo.GridSize = [3]int{nx, ny, nz}
}

// GridSize returns the number of root trees along each axis.
func (s *Source) GridSize() [3]int {
	return s.topo.GridSize
}

// SetGridScale sets the world-space extent of a root cell along each axis.
func (s *Source) SetGridScale(sx, sy, sz float64) {
	s.gridScale = [3]float64{sx, sy, sz}
}

// GridScale returns the world-space extent of a root cell along each axis.
func (s *Source) GridScale() [3]float64 {
	return s.gridScale
}

// SetMaximumLevel sets the requested bound on tree depth.  Values below 1
// are raised to 1.  The effective bound may be lower if the descriptor
// encodes fewer levels.
func (s *Source) SetMaximumLevel(levels int) {
	if levels < 1 {
		levels = 1
	}
	s.maxLevel = levels
}

// MaximumLevel returns the requested bound on tree depth.
func (s *Source) MaximumLevel() int {
	return s.maxLevel
}

// SetParallel selects concurrent per-tree decoding for Build.  The result is
// identical to the sequential decode.
func (s *Source) SetParallel(parallel bool) {
	s.parallel = parallel
}

// Topology returns the current lattice topology.
func (s *Source) Topology() htg.Topology {
	return s.topo
}

// Build parses the descriptor and decodes the full forest, returning the
// finished grid.  Any parse or validation failure aborts the build with no
// partial grid.
func (s *Source) Build() (*hypertree.Grid, error) {
	timedLog := htg.NewTimeLog()

	if err := s.topo.Validate(); err != nil {
		return nil, err
	}

	table, maxLevel, err := grammar.Parse(s.descriptor, s.materialMask, s.useMask, s.topo, s.maxLevel)
	if err != nil {
		return nil, err
	}
	if maxLevel < s.maxLevel {
		htg.Debugf("Descriptor encodes %d levels; clamping requested maximum level %d\n",
			maxLevel, s.maxLevel)
	}

	var grid *hypertree.Grid
	if s.parallel {
		grid, err = hypertree.DecodeParallel(table, s.topo, maxLevel)
		if err != nil {
			return nil, err
		}
	} else {
		grid = hypertree.Decode(table, s.topo, maxLevel)
	}

	grid.XCoordinates = coordinates(s.topo.GridSize[0], s.gridScale[0])
	grid.YCoordinates = coordinates(s.topo.GridSize[1], s.gridScale[1])
	grid.ZCoordinates = coordinates(s.topo.GridSize[2], s.gridScale[2])

	timedLog.Infof("Built hypertree grid (%s): %s trees, %s leaves, %s",
		s.topo, humanize.Comma(int64(grid.NumTrees())),
		humanize.Comma(int64(grid.NumLeaves())), humanize.Bytes(grid.MemoryUsed()))
	return grid, nil
}

// coordinates returns the n+1 uniformly spaced root cell boundaries along an
// axis with the given per-cell scale.
func coordinates(n int, scale float64) []float64 {
	coords := make([]float64, n+1)
	for i := range coords {
		coords[i] = scale * float64(i)
	}
	return coords
}
