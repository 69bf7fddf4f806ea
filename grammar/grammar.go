/*
	Package grammar parses the level-ordered string descriptors that encode the
	refinement of a hypertree grid.

	A descriptor is a flat string over the alphabet {'R', '.', ' ', '|'}:
	'R' subdivides a cell, '.' terminates it as a leaf, spaces are ignorable
	separators, and '|' closes the current depth level.  The first level
	describes every root cell of the lattice in tree-index order; each later
	level describes the children of the previous level's refined cells, in the
	order those cells were refined, blockSize children at a time.

	An optional material mask string over {'0', '1', ' ', '|'} runs in strict
	lockstep with the descriptor, marking which described cells are empty.
*/
package grammar

import (
	"strings"

	"github.com/janelia-flyem/htg/htg"
)

// Level holds the descriptor and material mask text for one tree depth with
// all separators stripped, plus a running counter of the cells subdivided at
// this depth so far during a decode.  The counter is the rank source that
// locates a refined cell's children in the next level's descriptor.
type Level struct {
	Descriptor string
	Mask       string
	Counter    int
}

// LevelTable is the parsed form of a descriptor: one Level per tree depth.
// The counters are mutated in place while a forest is decoded, so a table is
// good for one sequential decode between calls to Reset.
type LevelTable struct {
	Levels  []Level
	UseMask bool
}

// Depth returns the number of levels the descriptor encodes.
func (t *LevelTable) Depth() int {
	return len(t.Levels)
}

// Reset zeroes every level counter so the table can be decoded again.
func (t *LevelTable) Reset() {
	for i := range t.Levels {
		t.Levels[i].Counter = 0
	}
}

// Parse scans a descriptor (and its material mask when useMask is set) into a
// LevelTable, validating the grammar's cardinality and consistency rules
// against the given topology.  maxLevel is the caller's requested recursion
// bound; the returned value is maxLevel clamped down to the number of parsed
// levels, since a grid cannot exceed the depth its descriptor encodes.
func Parse(descriptor, materialMask string, useMask bool, topo htg.Topology, maxLevel int) (*LevelTable, int, error) {
	// Verify that grid and material specifications are consistent.
	if useMask && len(materialMask) != len(descriptor) {
		return nil, 0, MaskLengthError{DescriptorLen: len(descriptor), MaskLen: len(materialMask)}
	}

	blockSize := topo.BlockSize()
	nTotal := topo.NumTrees()

	var levelDesc, levelMask strings.Builder
	nRefined := 0
	nLeaves := 0
	nNextLevel := nTotal
	rootLevel := true
	table := &LevelTable{UseMask: useMask}

	for pos := 0; pos < len(descriptor); pos++ {
		c := descriptor[pos]
		var m byte
		if useMask {
			m = materialMask[pos]
		}

		switch c {
		case ' ':
			// Space is allowed as separator; the mask must agree.
			if useMask && m != ' ' {
				return nil, 0, MaskAlignmentError{Position: pos, DescriptorChar: c, MaskChar: m}
			}

		case '|':
			// A level is complete.
			if useMask && m != '|' {
				return nil, 0, MaskAlignmentError{Position: pos, DescriptorChar: c, MaskChar: m}
			}

			if rootLevel {
				rootLevel = false

				// The root level must describe one cell per tree in the lattice.
				if nRefined+nLeaves != nTotal {
					return nil, 0, RootCountError{Descriptor: descriptor, Actual: nRefined + nLeaves, Expected: nTotal}
				}
			} else if levelDesc.Len() != nNextLevel {
				return nil, 0, CardinalityError{LevelDescriptor: levelDesc.String(), Actual: levelDesc.Len(), Expected: nNextLevel}
			}

			table.Levels = append(table.Levels, Level{Descriptor: levelDesc.String(), Mask: levelMask.String()})

			// Predict next level descriptor cardinality.
			nNextLevel = nRefined * blockSize

			levelDesc.Reset()
			levelMask.Reset()
			nRefined = 0
			nLeaves = 0

		case 'R':
			// A refined branch must contain material.
			if useMask && m == '0' {
				return nil, 0, MaterialError{Position: pos}
			}
			nRefined++
			levelDesc.WriteByte(c)
			if useMask {
				levelMask.WriteByte(m)
			}

		case '.':
			nLeaves++
			levelDesc.WriteByte(c)
			if useMask {
				levelMask.WriteByte(m)
			}

		default:
			return nil, 0, CharacterError{Char: c, Source: descriptor}
		}
	}

	// Verify and append the last level: no trailing '|' is required, so the
	// final buffer is validated the same way an internal level boundary is.
	if levelDesc.Len() != nNextLevel {
		return nil, 0, CardinalityError{LevelDescriptor: levelDesc.String(), Actual: levelDesc.Len(), Expected: nNextLevel}
	}
	table.Levels = append(table.Levels, Level{Descriptor: levelDesc.String(), Mask: levelMask.String()})

	// Clamp the requested depth if fewer levels are described.
	if table.Depth() < maxLevel {
		maxLevel = table.Depth()
	}

	return table, maxLevel, nil
}
