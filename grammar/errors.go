/*
	This file holds the error types reported when a descriptor string or its
	material mask fails validation.  All of them abort a build; none are
	retried.  Each carries enough context to produce a precise diagnostic.
*/

package grammar

import "fmt"

// MaskLengthError is returned when material masking is enabled but the mask
// string is not the same length as the descriptor.  This is checked before
// any scanning begins.
type MaskLengthError struct {
	DescriptorLen int
	MaskLen       int
}

func (e MaskLengthError) Error() string {
	return fmt.Sprintf("material mask is used but has length %d != %d which is the length of the grid descriptor",
		e.MaskLen, e.DescriptorLen)
}

// MaskAlignmentError is returned when a separator in the descriptor does not
// line up with the same separator in the material mask.
type MaskAlignmentError struct {
	Position       int
	DescriptorChar byte
	MaskChar       byte
}

func (e MaskAlignmentError) Error() string {
	return fmt.Sprintf("separator %q at position %d does not match material mask character %q",
		e.DescriptorChar, e.Position, e.MaskChar)
}

// RootCountError is returned when the root level of the descriptor does not
// describe exactly one cell per tree in the lattice.
type RootCountError struct {
	Descriptor string
	Actual     int
	Expected   int
}

func (e RootCountError) Error() string {
	return fmt.Sprintf("string %s describes %d root cells != %d",
		e.Descriptor, e.Actual, e.Expected)
}

// CardinalityError is returned when a level descriptor's length differs from
// the cardinality predicted by the previous level's refined-node count.
type CardinalityError struct {
	LevelDescriptor string
	Actual          int
	Expected        int
}

func (e CardinalityError) Error() string {
	return fmt.Sprintf("string level descriptor %s has cardinality %d which is not expected value of %d",
		e.LevelDescriptor, e.Actual, e.Expected)
}

// MaterialError is returned when a refined cell aligns with an empty material
// mask entry: a refined branch must contain material.
type MaterialError struct {
	Position int
}

func (e MaterialError) Error() string {
	return fmt.Sprintf("a refined branch must contain material (descriptor position %d)", e.Position)
}

// CharacterError is returned when the descriptor contains a character outside
// the grammar alphabet.
type CharacterError struct {
	Char   byte
	Source string
}

func (e CharacterError) Error() string {
	return fmt.Sprintf("unrecognized character: %q in string %s", e.Char, e.Source)
}
