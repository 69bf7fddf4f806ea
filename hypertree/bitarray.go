package hypertree

import "math/bits"

// BitArray is a growable bit vector used to mark blanked (empty material)
// leaves by leaf id.
type BitArray struct {
	words []uint64
	n     int
}

// Set sets or clears the bit at position i, growing the array as needed.
func (a *BitArray) Set(i int, on bool) {
	if i < 0 {
		return
	}
	word := i >> 6
	for word >= len(a.words) {
		a.words = append(a.words, 0)
	}
	if on {
		a.words[word] |= 1 << (i & 63)
	} else {
		a.words[word] &^= 1 << (i & 63)
	}
	if i >= a.n {
		a.n = i + 1
	}
}

// GetBit returns true if bit at position i is set.
func (a *BitArray) GetBit(i int) bool {
	if i < 0 || i >= a.n {
		return false
	}
	return (a.words[i>>6] & (1 << (i & 63))) != 0
}

// CountOn returns the number of set bits.
func (a *BitArray) CountOn() int {
	count := 0
	for _, w := range a.words {
		count += bits.OnesCount64(w)
	}
	return count
}

// Len returns one past the highest position ever set.
func (a *BitArray) Len() int {
	return a.n
}
