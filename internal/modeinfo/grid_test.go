package modeinfo

import (
	"testing"
)

func TestForFrameGeometry(t *testing.T) {
	tests := []struct {
		w, h             int
		rows, cols       int
		sbRows, sbCols   int
		lastNvb, lastNhb int
	}{
		{64, 64, 8, 8, 1, 1, 8, 8},
		{65, 64, 8, 9, 1, 2, 8, 1},
		{100, 70, 9, 13, 2, 2, 1, 5},
		{8, 8, 1, 1, 1, 1, 1, 1},
		{1, 1, 1, 1, 1, 1, 1, 1},
	}
	for _, tt := range tests {
		g := ForFrame(tt.w, tt.h)
		if g.Rows != tt.rows || g.Cols != tt.cols {
			t.Errorf("ForFrame(%d,%d) = %dx%d units, want %dx%d", tt.w, tt.h, g.Rows, g.Cols, tt.rows, tt.cols)
		}
		if g.SuperblockRows() != tt.sbRows || g.SuperblockCols() != tt.sbCols {
			t.Errorf("ForFrame(%d,%d) superblocks = %dx%d, want %dx%d", tt.w, tt.h,
				g.SuperblockRows(), g.SuperblockCols(), tt.sbRows, tt.sbCols)
		}
		nvb, nhb := g.SuperblockSize(tt.sbRows-1, tt.sbCols-1)
		if nvb != tt.lastNvb || nhb != tt.lastNhb {
			t.Errorf("ForFrame(%d,%d) last superblock = %dx%d, want %dx%d", tt.w, tt.h, nvb, nhb, tt.lastNvb, tt.lastNhb)
		}
		if err := g.Validate(); err != nil {
			t.Errorf("Validate: %v", err)
		}
	}
}

func TestValidateMismatch(t *testing.T) {
	g := &Grid{Rows: 2, Cols: 2, Records: make([]Record, 3)}
	if g.Validate() == nil {
		t.Error("expected error for short record slice")
	}
	if (&Grid{}).Validate() == nil {
		t.Error("expected error for empty grid")
	}
}

func TestDeringList(t *testing.T) {
	g := NewGrid(10, 10)
	for i := range g.Records {
		g.Records[i].Skip = true
	}
	g.At(0, 0).Skip = false
	g.At(3, 5).Skip = false
	g.At(7, 7).Skip = false
	g.At(8, 8).Skip = false // second superblock row and column

	got := g.DeringList(0, 0, nil)
	want := []BlockPos{{0, 0}, {3, 5}, {7, 7}}
	if len(got) != len(want) {
		t.Fatalf("DeringList(0,0) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("DeringList(0,0)[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if l := g.DeringList(0, 1, nil); len(l) != 0 {
		t.Errorf("DeringList(0,1) = %v, want empty", l)
	}
	if l := g.DeringList(1, 1, nil); len(l) != 1 || l[0] != (BlockPos{0, 0}) {
		t.Errorf("DeringList(1,1) = %v, want [{0 0}]", l)
	}
	if !g.AllSkip(0, 1) || g.AllSkip(0, 0) || g.AllSkip(1, 1) {
		t.Error("AllSkip disagrees with DeringList")
	}
}

func TestDeringListBound(t *testing.T) {
	g := NewGrid(16, 16)
	l := g.DeringList(1, 1, make([]BlockPos, 0, MaxDeringBlocks))
	if len(l) != MaxDeringBlocks {
		t.Fatalf("len = %d, want %d", len(l), MaxDeringBlocks)
	}
	seen := make(map[BlockPos]bool)
	for _, p := range l {
		if seen[p] {
			t.Fatalf("duplicate position %v", p)
		}
		seen[p] = true
	}
}

func TestSetSkipRoundsOut(t *testing.T) {
	g := NewGrid(4, 4)
	g.SetSkip(9, 9, 2, 8, true) // touches units (1,1) and (2,1)
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			want := c == 1 && (r == 1 || r == 2)
			if g.At(r, c).Skip != want {
				t.Errorf("unit (%d,%d) skip = %v, want %v", r, c, g.At(r, c).Skip, want)
			}
		}
	}
}

func TestSetStrengthTouchesSuperblockRecords(t *testing.T) {
	g := NewGrid(12, 20)
	g.SetStrength(3)
	for sbr := 0; sbr < g.SuperblockRows(); sbr++ {
		for sbc := 0; sbc < g.SuperblockCols(); sbc++ {
			if g.Superblock(sbr, sbc).Strength != 3 {
				t.Errorf("superblock (%d,%d) strength = %d", sbr, sbc, g.Superblock(sbr, sbc).Strength)
			}
		}
	}
	if g.At(1, 1).Strength != 0 {
		t.Error("non top-left unit should be untouched")
	}
}

func TestCloneIsDeep(t *testing.T) {
	g := NewGrid(2, 2)
	c := g.Clone()
	c.At(0, 0).Strength = 9
	if g.At(0, 0).Strength != 0 {
		t.Error("Clone shares storage")
	}
}
