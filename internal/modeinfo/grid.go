// Package modeinfo holds the block-mode grid produced by the coding-mode
// decision process: one record per 8x8 luma mode unit carrying the skip
// flag, the tile/frame boundary bits and the filter strength index.
package modeinfo

import "fmt"

// Grid geometry.
const (
	MISizeLog2 = 3 // mode unit is 8x8 luma samples
	MISize     = 1 << MISizeLog2

	SBSizeMILog2 = 3 // superblock is 8x8 mode units
	SBSizeMI     = 1 << SBSizeMILog2
	SBSizeLog2   = MISizeLog2 + SBSizeMILog2
	SBSize       = 1 << SBSizeLog2 // 64 luma samples
)

// Boundary marks which edges of a mode unit lie on a tile or frame edge.
type Boundary uint8

const (
	BoundaryAbove Boundary = 1 << iota
	BoundaryLeft
	BoundaryBelow
	BoundaryRight
)

func (b Boundary) String() string {
	s := ""
	for _, e := range []struct {
		bit  Boundary
		name string
	}{{BoundaryAbove, "above"}, {BoundaryLeft, "left"}, {BoundaryBelow, "below"}, {BoundaryRight, "right"}} {
		if b&e.bit == 0 {
			continue
		}
		if s != "" {
			s += "|"
		}
		s += e.name
	}
	if s == "" {
		return "none"
	}
	return s
}

// Record is the per-mode-unit metadata consumed by the loop filter.
type Record struct {
	Skip     bool     // reconstruction equals prediction, filtering is a no-op
	Boundary Boundary // true tile/frame edges of this unit
	Strength uint8    // index into the strength table
}

// Grid is a row-major array of Records.
type Grid struct {
	Rows, Cols int
	Records    []Record
}

// NewGrid returns a grid of rows x cols non-skip records with strength 0.
func NewGrid(rows, cols int) *Grid {
	return &Grid{
		Rows:    rows,
		Cols:    cols,
		Records: make([]Record, rows*cols),
	}
}

// ForFrame returns a grid covering a width x height luma frame.
func ForFrame(width, height int) *Grid {
	return NewGrid((height+MISize-1)>>MISizeLog2, (width+MISize-1)>>MISizeLog2)
}

// Validate checks that the record slice matches the declared size.
func (g *Grid) Validate() error {
	if g.Rows <= 0 || g.Cols <= 0 {
		return fmt.Errorf("modeinfo: empty grid %dx%d", g.Rows, g.Cols)
	}
	if len(g.Records) != g.Rows*g.Cols {
		return fmt.Errorf("modeinfo: %d records for a %dx%d grid", len(g.Records), g.Rows, g.Cols)
	}
	return nil
}

// At returns the record of mode unit (row, col).
func (g *Grid) At(row, col int) *Record {
	return &g.Records[row*g.Cols+col]
}

// SuperblockRows returns the number of superblock rows covering the grid.
func (g *Grid) SuperblockRows() int { return (g.Rows + SBSizeMI - 1) >> SBSizeMILog2 }

// SuperblockCols returns the number of superblock columns covering the grid.
func (g *Grid) SuperblockCols() int { return (g.Cols + SBSizeMI - 1) >> SBSizeMILog2 }

// SuperblockSize returns the number of mode-unit rows and columns of
// superblock (sbr, sbc); only the last row and column can be partial.
func (g *Grid) SuperblockSize(sbr, sbc int) (nvb, nhb int) {
	nvb = min(SBSizeMI, g.Rows-sbr*SBSizeMI)
	nhb = min(SBSizeMI, g.Cols-sbc*SBSizeMI)
	return nvb, nhb
}

// Superblock returns the record that carries the strength of superblock
// (sbr, sbc): its top-left mode unit.
func (g *Grid) Superblock(sbr, sbc int) *Record {
	return g.At(sbr*SBSizeMI, sbc*SBSizeMI)
}

// SuperblockBoundary returns the tile/frame edges of superblock (sbr, sbc).
// Above and left come from its top-left unit, below and right from its
// bottom-right unit.
func (g *Grid) SuperblockBoundary(sbr, sbc int) Boundary {
	nvb, nhb := g.SuperblockSize(sbr, sbc)
	tl := g.At(sbr*SBSizeMI, sbc*SBSizeMI).Boundary
	br := g.At(sbr*SBSizeMI+nvb-1, sbc*SBSizeMI+nhb-1).Boundary
	return tl&(BoundaryAbove|BoundaryLeft) | br&(BoundaryBelow|BoundaryRight)
}

// AllSkip reports whether every unit of superblock (sbr, sbc) is skipped.
func (g *Grid) AllSkip(sbr, sbc int) bool {
	nvb, nhb := g.SuperblockSize(sbr, sbc)
	for r := 0; r < nvb; r++ {
		row := g.Records[(sbr*SBSizeMI+r)*g.Cols+sbc*SBSizeMI:]
		for c := 0; c < nhb; c++ {
			if !row[c].Skip {
				return false
			}
		}
	}
	return true
}

// SetSkip sets the skip flag of every unit in the luma rectangle
// [x, x+w) x [y, y+h), rounded out to whole units.
func (g *Grid) SetSkip(x, y, w, h int, skip bool) {
	r0, c0 := y>>MISizeLog2, x>>MISizeLog2
	r1 := min(g.Rows, (y+h+MISize-1)>>MISizeLog2)
	c1 := min(g.Cols, (x+w+MISize-1)>>MISizeLog2)
	for r := max(r0, 0); r < r1; r++ {
		for c := max(c0, 0); c < c1; c++ {
			g.At(r, c).Skip = skip
		}
	}
}

// SetStrength assigns idx to every superblock.
func (g *Grid) SetStrength(idx uint8) {
	for sbr := 0; sbr < g.SuperblockRows(); sbr++ {
		for sbc := 0; sbc < g.SuperblockCols(); sbc++ {
			g.Superblock(sbr, sbc).Strength = idx
		}
	}
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	c := &Grid{Rows: g.Rows, Cols: g.Cols, Records: make([]Record, len(g.Records))}
	copy(c.Records, g.Records)
	return c
}
