package loopfilter

import (
	"fmt"
	"log/slog"

	"github.com/deepteams/cdef/internal/dsp"
	"github.com/deepteams/cdef/internal/logx"
	"github.com/deepteams/cdef/internal/modeinfo"
	"github.com/deepteams/cdef/internal/surface"
)

// SearchConfig parameterizes the encoder strength search.
type SearchConfig struct {
	BitDepth   int
	BaseQIndex int

	Kernels *dsp.Kernels
	Logger  *slog.Logger
}

// SearchResult reports the outcome of a strength search.
type SearchResult struct {
	// BaseLevel is the frame baseline the refinement candidates scale.
	BaseLevel int

	// Indices holds the chosen refinement index of every superblock in
	// raster order; superblocks without filterable blocks hold 0.
	Indices []uint8

	// BaseSSE is the luma distortion of the unfiltered blocks, BestSSE the
	// distortion after deringing with the chosen candidates. Both cover the
	// non-skipped blocks only.
	BaseSSE uint64
	BestSSE uint64
}

// SearchStrengths picks, for every superblock, the deringing refinement
// candidate whose output is closest to source and stores its index in the
// superblock's strength field. Only luma is searched and the low-pass
// filter is left off. recon is not modified.
func SearchStrengths[P surface.Pixel](recon, source surface.View[P], grid *modeinfo.Grid, cfg SearchConfig) (SearchResult, error) {
	if err := validateFrame([]Plane[P]{{View: recon}}, grid, cfg.BitDepth); err != nil {
		return SearchResult{}, err
	}
	if err := source.Validate(); err != nil {
		return SearchResult{}, fmt.Errorf("%w: source: %v", ErrInvalidFrame, err)
	}
	if source.Width < recon.Width || source.Height < recon.Height {
		return SearchResult{}, fmt.Errorf("%w: source is %dx%d, reconstruction %dx%d",
			ErrInvalidFrame, source.Width, source.Height, recon.Width, recon.Height)
	}

	k := cfg.Kernels
	if k == nil {
		k = dsp.Select(false)
	}
	nvsb, nhsb := grid.SuperblockRows(), grid.SuperblockCols()
	s, err := acquireScratch(1, nhsb, grid.Cols<<modeinfo.MISizeLog2, true)
	if err != nil {
		return SearchResult{}, err
	}
	defer s.release()

	ss := &strengthSearch[P]{
		recon:      recon,
		source:     source,
		grid:       grid,
		k:          k,
		s:          s,
		coeffShift: cfg.BitDepth - 8,
		width:      grid.Cols << modeinfo.MISizeLog2,
		height:     grid.Rows << modeinfo.MISizeLog2,
	}
	res := SearchResult{
		BaseLevel: BaselineLevel(cfg.BaseQIndex),
		Indices:   make([]uint8, nvsb*nhsb),
	}
	for gi := range ss.levels {
		ss.levels[gi] = LevelFromIndex(res.BaseLevel, gi)
	}

	searched := 0
	for sbr := 0; sbr < nvsb; sbr++ {
		for sbc := 0; sbc < nhsb; sbc++ {
			if grid.AllSkip(sbr, sbc) {
				continue
			}
			s.dlist = grid.DeringList(sbr, sbc, s.dlist[:0])
			gi, base, best := ss.superblock(sbr, sbc)
			grid.Superblock(sbr, sbc).Strength = uint8(gi)
			res.Indices[sbr*nhsb+sbc] = uint8(gi)
			res.BaseSSE += base
			res.BestSSE += best
			searched++
		}
	}
	logx.Or(cfg.Logger).Debug("cdef: strengths searched",
		"kernels", k.Name,
		"base_level", res.BaseLevel,
		"superblocks", searched,
		"base_sse", res.BaseSSE,
		"best_sse", res.BestSSE)
	return res, nil
}

type strengthSearch[P surface.Pixel] struct {
	recon, source surface.View[P]
	grid          *modeinfo.Grid
	k             *dsp.Kernels
	s             *scratch

	levels        [RefinementLevels]int
	coeffShift    int
	width, height int // luma area covered by the grid
}

// superblock evaluates every refinement candidate on superblock (sbr, sbc)
// and returns the winner with the unfiltered and the winning distortion.
// Ties keep the lower index.
func (ss *strengthSearch[P]) superblock(sbr, sbc int) (bestIdx int, baseSSE, bestSSE uint64) {
	nvb, nhb := ss.grid.SuperblockSize(sbr, sbc)
	sb := sbGeom{
		sbr: sbr, sbc: sbc,
		nvb: nvb, nhb: nhb,
		boundary: ss.grid.SuperblockBoundary(sbr, sbc),
	}
	pg := sb.plane(dsp.Block8x8)
	ss.loadWindow(sb, pg)
	ss.loadReference(pg)

	w, tile, ref := ss.s.window, ss.s.tile, ss.s.ref
	const size = modeinfo.MISize
	for _, p := range ss.s.dlist {
		by, bx := int(p.By), int(p.Bx)
		y, x := by<<modeinfo.MISizeLog2, bx<<modeinfo.MISizeLog2
		ss.s.dirs[by][bx], ss.s.vars[by][bx] = ss.k.FindDirection(w, winIndex(y, x), dsp.WindowStride, ss.coeffShift)
		baseSSE += ss.k.SSE(w, winIndex(y, x), dsp.WindowStride, ref, tileIndex(y, x), tileStride, size, size)
	}

	bestSSE = ^uint64(0)
	for gi, level := range ss.levels {
		threshold := level << ss.coeffShift
		var sse uint64
		for _, p := range ss.s.dlist {
			by, bx := int(p.By), int(p.Bx)
			y, x := by<<modeinfo.MISizeLog2, bx<<modeinfo.MISizeLog2
			t := dsp.AdjustThreshold(threshold, ss.s.vars[by][bx])
			ss.k.Dering(dsp.Block8x8, tile, tileIndex(y, x), tileStride, w, winIndex(y, x), t, ss.s.dirs[by][bx])
			sse += ss.k.SSE(tile, tileIndex(y, x), tileStride, ref, tileIndex(y, x), tileStride, size, size)
		}
		if sse < bestSSE {
			bestIdx, bestSSE = gi, sse
		}
	}
	return bestIdx, baseSSE, bestSSE
}

// loadWindow copies the reconstruction around the superblock into the
// window. Samples outside the grid area or across a tile edge read as
// dsp.VeryLarge.
func (ss *strengthSearch[P]) loadWindow(sb sbGeom, pg planeGeom) {
	w := ss.s.window
	fb := dsp.FiltBorder
	fillUint16(w, dsp.VeryLarge)

	y0, y1 := -fb, pg.bh+fb
	x0, x1 := -fb, pg.bw+fb
	if sb.boundary&modeinfo.BoundaryAbove != 0 {
		y0 = 0
	}
	if sb.boundary&modeinfo.BoundaryBelow != 0 {
		y1 = pg.bh
	}
	if sb.boundary&modeinfo.BoundaryLeft != 0 {
		x0 = 0
	}
	if sb.boundary&modeinfo.BoundaryRight != 0 {
		x1 = pg.bw
	}
	y0, y1 = max(y0, -pg.y0), min(y1, ss.height-pg.y0)
	x0, x1 = max(x0, -pg.x0), min(x1, ss.width-pg.x0)
	copyToWindow(w, y0, x0, ss.recon, pg.x0+x0, pg.y0+y0, x1-x0, y1-y0)
}

// loadReference copies the source samples of the superblock into the
// reference tile.
func (ss *strengthSearch[P]) loadReference(pg planeGeom) {
	for r := 0; r < pg.bh; r++ {
		src := ss.source.Span(pg.x0, pg.y0+r, pg.bw)
		dst := ss.s.ref[tileIndex(r, 0) : tileIndex(r, 0)+pg.bw]
		for c, p := range src {
			dst[c] = uint16(p)
		}
	}
}
