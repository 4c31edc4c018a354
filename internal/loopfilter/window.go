package loopfilter

import (
	"github.com/deepteams/cdef/internal/dsp"
	"github.com/deepteams/cdef/internal/modeinfo"
	"github.com/deepteams/cdef/internal/surface"
)

// winIndex returns the window offset of block-relative sample (y, x).
// Valid for -dsp.FiltBorder <= y, x < size+dsp.FiltBorder.
func winIndex(y, x int) int {
	return (y+dsp.FiltBorder)*dsp.WindowStride + x + dsp.FiltBorder
}

func tileIndex(y, x int) int { return y*tileStride + x }

// sbGeom is the position of a superblock in the mode grid.
type sbGeom struct {
	sbr, sbc int
	nvb, nhb int

	lastRow, lastCol bool
	boundary         modeinfo.Boundary
}

// planeGeom is a superblock projected onto one plane.
type planeGeom struct {
	log2   int
	x0, y0 int // plane position of the superblock
	bw, bh int // plane samples covered by its mode units
}

func (sb sbGeom) plane(bs dsp.BlockSize) planeGeom {
	log2 := bs.Log2()
	return planeGeom{
		log2: log2,
		x0:   (sb.sbc << modeinfo.SBSizeMILog2) << log2,
		y0:   (sb.sbr << modeinfo.SBSizeMILog2) << log2,
		bw:   sb.nhb << log2,
		bh:   sb.nvb << log2,
	}
}

// extent returns how many rows and columns of the plane, counted from the
// superblock origin, feed the window: the superblock plus the border taken
// from the not yet filtered superblocks below and to the right.
func (pg planeGeom) extent(sb sbGeom) (rend, cend int) {
	rend, cend = pg.bh, pg.bw
	if !sb.lastRow {
		rend += dsp.FiltBorder
	}
	if !sb.lastCol {
		cend += dsp.FiltBorder
	}
	return rend, cend
}

// copyToWindow copies an h x w area of v at (x, y) into the window at
// block-relative (wy, wx).
func copyToWindow[P surface.Pixel](w []uint16, wy, wx int, v surface.View[P], x, y, width, height int) {
	for r := 0; r < height; r++ {
		src := v.Span(x, y+r, width)
		dst := w[winIndex(wy+r, wx) : winIndex(wy+r, wx)+width]
		for c, p := range src {
			dst[c] = uint16(p)
		}
	}
}

// fillRect sets an h x w block-relative window area to v.
func fillRect(w []uint16, y, x, height, width int, v uint16) {
	for r := 0; r < height; r++ {
		fillUint16(w[winIndex(y+r, x):winIndex(y+r, x)+width], v)
	}
}

// assembleWindow loads the unfiltered samples around superblock sb of plane
// pli into the window. Borders the frame does not have, and borders next to
// superblocks that were passed through, hold dsp.VeryLarge.
func (f *frameFilter[P]) assembleWindow(pli int, sb sbGeom, pg planeGeom, prev []bool, deringLeft bool) {
	w := f.s.window
	fb := dsp.FiltBorder
	fillUint16(w, dsp.VeryLarge)

	rend, cend := pg.extent(sb)
	copyToWindow(w, 0, 0, f.planes[pli].View, pg.x0, pg.y0, cend, rend)

	if sb.sbr > 0 {
		lines, _ := f.s.lines(pli)
		stride := f.s.lineStride
		top := func(x, width int) {
			for r := 0; r < fb; r++ {
				copy(w[winIndex(r-fb, x):winIndex(r-fb, x)+width], lines[r*stride+pg.x0+x:])
			}
		}
		if prev[sb.sbc+1] {
			top(0, pg.bw)
		}
		if sb.sbc > 0 && prev[sb.sbc] {
			top(-fb, fb)
		}
		if !sb.lastCol && prev[sb.sbc+2] {
			top(pg.bw, fb)
		}
	}
	if deringLeft {
		col := f.s.colBuf[pli]
		for r := 0; r < rend+fb; r++ {
			copy(w[winIndex(r-fb, -fb):winIndex(r-fb, 0)], col[r*fb:(r+1)*fb])
		}
	}
}

// saveCaches keeps the unfiltered samples the next superblocks need: the
// rightmost columns for the superblock on the right and the bottom rows for
// the superblock row below.
func (f *frameFilter[P]) saveCaches(pli int, sb sbGeom, pg planeGeom) {
	w := f.s.window
	fb := dsp.FiltBorder
	rend, _ := pg.extent(sb)

	col := f.s.colBuf[pli]
	for r := 0; r < rend+fb; r++ {
		copy(col[r*fb:(r+1)*fb], w[winIndex(r-fb, pg.bw-fb):winIndex(r-fb, pg.bw)])
	}
	if sb.lastRow {
		return
	}
	_, lines := f.s.lines(pli)
	stride := f.s.lineStride
	for r := 0; r < fb; r++ {
		copy(lines[r*stride+pg.x0:r*stride+pg.x0+pg.bw], w[winIndex(pg.bh-fb+r, 0):])
	}
}

// applyTileEdges replaces the borders on tile and frame edges with
// dsp.VeryLarge so no filter reads across them.
func (f *frameFilter[P]) applyTileEdges(sb sbGeom, pg planeGeom) {
	w := f.s.window
	fb := dsp.FiltBorder
	full := pg.bw + 2*fb
	if sb.boundary&modeinfo.BoundaryAbove != 0 {
		fillRect(w, -fb, -fb, fb, full, dsp.VeryLarge)
	}
	if sb.boundary&modeinfo.BoundaryBelow != 0 {
		fillRect(w, pg.bh, -fb, fb, full, dsp.VeryLarge)
	}
	if sb.boundary&modeinfo.BoundaryLeft != 0 {
		fillRect(w, -fb, -fb, pg.bh+2*fb, fb, dsp.VeryLarge)
	}
	if sb.boundary&modeinfo.BoundaryRight != 0 {
		fillRect(w, -fb, pg.bw, pg.bh+2*fb, fb, dsp.VeryLarge)
	}
}
