package grammar

import (
	"errors"
	"testing"

	"github.com/janelia-flyem/htg/htg"
)

func topo2D() htg.Topology {
	return htg.Topology{Dimension: 2, BranchFactor: 2, GridSize: [3]int{1, 1, 1}}
}

func TestParseThreeLevels(t *testing.T) {
	table, maxLevel, err := Parse("R|R...|....", "", false, topo2D(), 3)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if maxLevel != 3 {
		t.Errorf("Expected max level 3, got %d", maxLevel)
	}
	if table.Depth() != 3 {
		t.Fatalf("Expected 3 levels, got %d", table.Depth())
	}
	want := []string{"R", "R...", "...."}
	for i, desc := range want {
		if table.Levels[i].Descriptor != desc {
			t.Errorf("Level %d: expected descriptor %q, got %q", i, desc, table.Levels[i].Descriptor)
		}
		if table.Levels[i].Counter != 0 {
			t.Errorf("Level %d: counter should start at 0, got %d", i, table.Levels[i].Counter)
		}
	}
}

func TestParseStripsSeparators(t *testing.T) {
	table, _, err := Parse(" R | R. .. | .. .. ", "", false, topo2D(), 10)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if table.Depth() != 3 {
		t.Fatalf("Expected 3 levels, got %d", table.Depth())
	}
	if table.Levels[1].Descriptor != "R..." {
		t.Errorf("Expected spaces stripped from level 1, got %q", table.Levels[1].Descriptor)
	}
}

func TestParseClampsMaxLevel(t *testing.T) {
	_, maxLevel, err := Parse("R|R...|....", "", false, topo2D(), 7)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if maxLevel != 3 {
		t.Errorf("Expected max level clamped from 7 to 3, got %d", maxLevel)
	}
}

func TestParseWithMask(t *testing.T) {
	table, _, err := Parse("R|R...|....", "1|1001|0110", true, topo2D(), 3)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !table.UseMask {
		t.Error("Expected UseMask to be set")
	}
	want := []string{"1", "1001", "0110"}
	for i, mask := range want {
		if table.Levels[i].Mask != mask {
			t.Errorf("Level %d: expected mask %q, got %q", i, mask, table.Levels[i].Mask)
		}
	}
}

func TestParseRootCountMismatch(t *testing.T) {
	topo := htg.Topology{Dimension: 2, BranchFactor: 2, GridSize: [3]int{2, 1, 1}}
	_, _, err := Parse("R|....", "", false, topo, 2)
	var rce RootCountError
	if !errors.As(err, &rce) {
		t.Fatalf("Expected RootCountError, got %v", err)
	}
	if rce.Actual != 1 || rce.Expected != 2 {
		t.Errorf("Expected actual=1 expected=2, got actual=%d expected=%d", rce.Actual, rce.Expected)
	}
}

func TestParseCardinalityMismatch(t *testing.T) {
	// Level 1 should have 1 * blockSize = 4 cells but has 3.
	_, _, err := Parse("R|R..|....", "", false, topo2D(), 3)
	var ce CardinalityError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected CardinalityError, got %v", err)
	}
	if ce.Actual != 3 || ce.Expected != 4 {
		t.Errorf("Expected actual=3 expected=4, got actual=%d expected=%d", ce.Actual, ce.Expected)
	}
	if ce.LevelDescriptor != "R.." {
		t.Errorf("Expected offending level descriptor cited, got %q", ce.LevelDescriptor)
	}
}

func TestParseLastLevelCardinalityMismatch(t *testing.T) {
	// The trailing level is validated without requiring a closing '|'.
	_, _, err := Parse("R|R...|...", "", false, topo2D(), 3)
	var ce CardinalityError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected CardinalityError for last level, got %v", err)
	}
	if ce.Actual != 3 || ce.Expected != 4 {
		t.Errorf("Expected actual=3 expected=4, got actual=%d expected=%d", ce.Actual, ce.Expected)
	}
}

func TestParseMaskLengthMismatch(t *testing.T) {
	_, _, err := Parse("R|....", "1|..", true, topo2D(), 2)
	var mle MaskLengthError
	if !errors.As(err, &mle) {
		t.Fatalf("Expected MaskLengthError, got %v", err)
	}
	if mle.DescriptorLen != 6 || mle.MaskLen != 4 {
		t.Errorf("Expected lengths 6 and 4, got %d and %d", mle.DescriptorLen, mle.MaskLen)
	}
}

func TestParseMaskSeparatorMisalignment(t *testing.T) {
	// '|' in the descriptor aligned with '1' in the mask.
	_, _, err := Parse("R|....", "111111", true, topo2D(), 2)
	var mae MaskAlignmentError
	if !errors.As(err, &mae) {
		t.Fatalf("Expected MaskAlignmentError, got %v", err)
	}
	if mae.Position != 1 || mae.DescriptorChar != '|' {
		t.Errorf("Expected misalignment at position 1 on '|', got position %d on %q",
			mae.Position, mae.DescriptorChar)
	}

	// Space in the descriptor aligned with a non-space in the mask.
	_, _, err = Parse("R |....", "11|....", true, topo2D(), 2)
	if !errors.As(err, &mae) {
		t.Fatalf("Expected MaskAlignmentError for space misalignment, got %v", err)
	}
}

func TestParseRefinedWithoutMaterial(t *testing.T) {
	_, _, err := Parse("R|....", "0|1111", true, topo2D(), 2)
	var me MaterialError
	if !errors.As(err, &me) {
		t.Fatalf("Expected MaterialError, got %v", err)
	}
	if me.Position != 0 {
		t.Errorf("Expected offending position 0, got %d", me.Position)
	}
}

func TestParseUnrecognizedCharacter(t *testing.T) {
	_, _, err := Parse("R|..x.", "", false, topo2D(), 2)
	var che CharacterError
	if !errors.As(err, &che) {
		t.Fatalf("Expected CharacterError, got %v", err)
	}
	if che.Char != 'x' {
		t.Errorf("Expected offending character 'x', got %q", che.Char)
	}
}

func TestLevelTableReset(t *testing.T) {
	table, _, err := Parse("R|R...|....", "", false, topo2D(), 3)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	table.Levels[0].Counter = 1
	table.Levels[1].Counter = 1
	table.Reset()
	for i := range table.Levels {
		if table.Levels[i].Counter != 0 {
			t.Errorf("Level %d: counter not reset, got %d", i, table.Levels[i].Counter)
		}
	}
}
