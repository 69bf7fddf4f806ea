package hypertree

import "testing"

func TestTreeSubdivide(t *testing.T) {
	tree := NewTree(4)
	if tree.NumNodes() != 1 {
		t.Fatalf("New tree should hold only the root, got %d nodes", tree.NumNodes())
	}
	if !tree.IsLeaf(tree.Root()) {
		t.Error("Undecided root should report as leaf")
	}

	base := tree.Subdivide(tree.Root())
	if base != 1 {
		t.Errorf("Expected first child at arena index 1, got %d", base)
	}
	if tree.NumNodes() != 5 {
		t.Errorf("Expected 5 nodes after subdividing root, got %d", tree.NumNodes())
	}
	if tree.IsLeaf(tree.Root()) {
		t.Error("Subdivided root should not report as leaf")
	}
	for slot := 0; slot < 4; slot++ {
		if got := tree.Child(tree.Root(), slot); got != 1+slot {
			t.Errorf("Child slot %d: expected arena index %d, got %d", slot, 1+slot, got)
		}
	}
}

func TestTreeSetLeaf(t *testing.T) {
	tree := NewTree(4)
	base := tree.Subdivide(tree.Root())
	for slot := 0; slot < 4; slot++ {
		id := tree.SetLeaf(base + slot)
		if id != slot {
			t.Errorf("Expected leaf id %d, got %d", slot, id)
		}
	}
	if tree.NumLeaves() != 4 {
		t.Errorf("Expected 4 leaves, got %d", tree.NumLeaves())
	}
}

func TestTreeDoubleDecisionPanics(t *testing.T) {
	tree := NewTree(4)
	tree.SetLeaf(tree.Root())

	defer func() {
		if recover() == nil {
			t.Error("Expected panic when subdividing a finalized leaf")
		}
	}()
	tree.Subdivide(tree.Root())
}

func TestBitArray(t *testing.T) {
	var a BitArray
	a.Set(0, true)
	a.Set(70, true)
	a.Set(71, false)
	if !a.GetBit(0) || !a.GetBit(70) {
		t.Error("Expected bits 0 and 70 set")
	}
	if a.GetBit(1) || a.GetBit(71) || a.GetBit(500) {
		t.Error("Unset positions should read false")
	}
	if a.CountOn() != 2 {
		t.Errorf("Expected 2 bits on, got %d", a.CountOn())
	}
	if a.Len() != 72 {
		t.Errorf("Expected length 72, got %d", a.Len())
	}

	a.Set(70, false)
	if a.GetBit(70) {
		t.Error("Bit 70 should clear")
	}
	if a.CountOn() != 1 {
		t.Errorf("Expected 1 bit on after clearing, got %d", a.CountOn())
	}
}
