package loopfilter

import (
	"fmt"
	"log/slog"

	"github.com/deepteams/cdef/internal/dsp"
	"github.com/deepteams/cdef/internal/logx"
	"github.com/deepteams/cdef/internal/modeinfo"
	"github.com/deepteams/cdef/internal/surface"
)

// Plane is one sample plane of a frame with its subsampling relative to
// luma (0 for full resolution, 1 for half).
type Plane[P surface.Pixel] struct {
	surface.View[P]
	SubX, SubY int
}

// Config parameterizes one filter pass.
type Config struct {
	BitDepth   int // 8..12
	BaseQIndex int // frame base quantizer index, 0..255

	Luma   StrengthTable
	Chroma StrengthTable

	// Kernels overrides the kernel set; nil selects the best for this CPU.
	Kernels *dsp.Kernels

	// Logger overrides the package logger for this pass.
	Logger *slog.Logger
}

// Stats summarizes a filter pass.
type Stats struct {
	Superblocks    int  // superblocks in the frame
	Filtered       int  // superblocks that went through the filters
	PassedThrough  int  // superblocks left untouched
	ChromaDisabled bool // chroma skipped because of its subsampling
}

// FilterFrame runs the deringing and low-pass filters over the frame in
// place. planes holds luma alone or luma followed by the two chroma
// planes; every plane must cover the block grid.
func FilterFrame[P surface.Pixel](planes []Plane[P], grid *modeinfo.Grid, cfg Config) (Stats, error) {
	if err := validateFrame(planes, grid, cfg.BitDepth); err != nil {
		return Stats{}, err
	}
	log := logx.Or(cfg.Logger)

	f := &frameFilter[P]{
		planes:     planes,
		grid:       grid,
		cfg:        cfg,
		k:          cfg.Kernels,
		nplanes:    1,
		nvsb:       grid.SuperblockRows(),
		nhsb:       grid.SuperblockCols(),
		coeffShift: cfg.BitDepth - 8,
		maxVal:     surface.MaxValue(cfg.BitDepth),
	}
	if f.k == nil {
		f.k = dsp.Select(false)
	}
	chromaDisabled := false
	if len(planes) == maxPlanes {
		if chromaFilterable(planes) {
			f.nplanes = maxPlanes
		} else {
			chromaDisabled = true
			log.Warn("cdef: chroma filtering disabled",
				"cb", fmt.Sprintf("%d:%d", planes[1].SubX, planes[1].SubY),
				"cr", fmt.Sprintf("%d:%d", planes[2].SubX, planes[2].SubY))
		}
	}
	for pli := 0; pli < f.nplanes; pli++ {
		f.bsize[pli] = dsp.BlockSizeFor(planes[pli].SubX)
	}

	s, err := acquireScratch(f.nplanes, f.nhsb, grid.Cols<<modeinfo.MISizeLog2, false)
	if err != nil {
		return Stats{}, err
	}
	defer s.release()
	f.s = s

	st := f.run()
	st.ChromaDisabled = chromaDisabled
	log.Debug("cdef: frame filtered",
		"kernels", f.k.Name,
		"superblocks", st.Superblocks,
		"filtered", st.Filtered,
		"passthrough", st.PassedThrough)
	return st, nil
}

// chromaFilterable reports whether both chroma planes share one square
// subsampling the block geometry supports.
func chromaFilterable[P surface.Pixel](planes []Plane[P]) bool {
	cb, cr := planes[1], planes[2]
	return cb.SubX == cb.SubY && cr.SubX == cr.SubY && cb.SubX == cr.SubX &&
		(cb.SubX == 0 || cb.SubX == 1)
}

func validateFrame[P surface.Pixel](planes []Plane[P], grid *modeinfo.Grid, bitDepth int) error {
	if bitDepth < 8 || bitDepth > 12 || uint64(^P(0)) < uint64(surface.MaxValue(bitDepth)) {
		return fmt.Errorf("%w: %d bits", ErrBitDepth, bitDepth)
	}
	if len(planes) != 1 && len(planes) != maxPlanes {
		return fmt.Errorf("%w: %d planes", ErrInvalidFrame, len(planes))
	}
	if grid == nil {
		return fmt.Errorf("%w: nil grid", ErrGridMismatch)
	}
	if err := grid.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrGridMismatch, err)
	}
	luma := planes[0]
	if luma.SubX != 0 || luma.SubY != 0 {
		return fmt.Errorf("%w: subsampled luma plane", ErrInvalidFrame)
	}
	w, h := grid.Cols<<modeinfo.MISizeLog2, grid.Rows<<modeinfo.MISizeLog2
	for pli, p := range planes {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: plane %d: %v", ErrInvalidFrame, pli, err)
		}
		if pli > 0 && !chromaFilterable(planes) {
			continue
		}
		if p.Width < w>>p.SubX || p.Height < h>>p.SubY {
			return fmt.Errorf("%w: plane %d is %dx%d, grid needs %dx%d",
				ErrGridMismatch, pli, p.Width, p.Height, w>>p.SubX, h>>p.SubY)
		}
	}
	return nil
}

type frameFilter[P surface.Pixel] struct {
	planes []Plane[P]
	grid   *modeinfo.Grid
	cfg    Config
	k      *dsp.Kernels
	s      *scratch

	nplanes    int
	bsize      [maxPlanes]dsp.BlockSize
	nvsb, nhsb int
	coeffShift int
	maxVal     int
}

// run visits the superblocks in raster order. A superblock either goes
// through the filters or is passed through; the flags of the previous row
// and of the superblock on the left decide whether the caches may feed the
// next window.
func (f *frameFilter[P]) run() Stats {
	st := Stats{Superblocks: f.nvsb * f.nhsb}
	prev, curr := f.s.rowFlagPair(f.nhsb)
	for sbr := 0; sbr < f.nvsb; sbr++ {
		for pli := 0; pli < f.nplanes; pli++ {
			fillUint16(f.s.colBuf[pli], dsp.VeryLarge)
		}
		deringLeft := true
		for sbc := 0; sbc < f.nhsb; sbc++ {
			filtered := f.superblock(sbr, sbc, prev, deringLeft)
			curr[sbc+1] = filtered
			deringLeft = filtered
			if filtered {
				st.Filtered++
			} else {
				st.PassedThrough++
			}
		}
		prev, curr = curr, prev
		f.s.swapLines()
	}
	return st
}

// superblock filters superblock (sbr, sbc) and reports whether it did.
func (f *frameFilter[P]) superblock(sbr, sbc int, prev []bool, deringLeft bool) bool {
	rec := f.grid.Superblock(sbr, sbc)
	luma := f.cfg.Luma.Resolve(rec.Strength)
	var chroma Strength
	if f.nplanes > 1 {
		chroma = f.cfg.Chroma.Resolve(rec.Strength)
	}
	if luma.IsZero() && chroma.IsZero() {
		return false
	}
	f.s.dlist = f.grid.DeringList(sbr, sbc, f.s.dlist[:0])
	if len(f.s.dlist) == 0 {
		return false
	}

	nvb, nhb := f.grid.SuperblockSize(sbr, sbc)
	sb := sbGeom{
		sbr: sbr, sbc: sbc,
		nvb: nvb, nhb: nhb,
		lastRow:  sbr == f.nvsb-1,
		lastCol:  sbc == f.nhsb-1,
		boundary: f.grid.SuperblockBoundary(sbr, sbc),
	}
	for pli := 0; pli < f.nplanes; pli++ {
		strength := luma
		if pli > 0 {
			strength = chroma
		}
		pg := sb.plane(f.bsize[pli])
		f.assembleWindow(pli, sb, pg, prev, deringLeft)
		f.saveCaches(pli, sb, pg)
		// Chroma reuses the luma directions, so luma always searches.
		if pli == 0 {
			f.findDirections()
		}
		if strength.IsZero() {
			continue
		}
		f.applyTileEdges(sb, pg)
		f.filterPlane(pli, sb, pg, strength)
	}
	return true
}

func (f *frameFilter[P]) findDirections() {
	w := f.s.window
	for _, p := range f.s.dlist {
		by, bx := int(p.By), int(p.Bx)
		off := winIndex(by<<modeinfo.MISizeLog2, bx<<modeinfo.MISizeLog2)
		f.s.dirs[by][bx], f.s.vars[by][bx] = f.k.FindDirection(w, off, dsp.WindowStride, f.coeffShift)
	}
}

// filterPlane deringes every listed block into the tile, runs the
// low-pass filter over the deringed samples when enabled and writes the
// tile back to the plane.
func (f *frameFilter[P]) filterPlane(pli int, sb sbGeom, pg planeGeom, strength Strength) {
	w, tile := f.s.window, f.s.tile
	bs := f.bsize[pli]
	log2, size := bs.Log2(), bs.Edge()
	threshold := strength.Level << f.coeffShift

	for _, p := range f.s.dlist {
		by, bx := int(p.By), int(p.Bx)
		t := threshold
		if pli == 0 {
			t = dsp.AdjustThreshold(threshold, f.s.vars[by][bx])
		}
		f.k.Dering(bs, tile, tileIndex(by<<log2, bx<<log2), tileStride,
			w, winIndex(by<<log2, bx<<log2), t, f.s.dirs[by][bx])
	}

	if strength.Lowpass != 0 {
		lowpass := strength.Lowpass << f.coeffShift
		damping := LowpassDamping(pli, f.cfg.BaseQIndex) + f.coeffShift
		for _, p := range f.s.dlist {
			y, x := int(p.By)<<log2, int(p.Bx)<<log2
			for r := 0; r < size; r++ {
				copy(w[winIndex(y+r, x):winIndex(y+r, x)+size], tile[tileIndex(y+r, x):])
			}
		}
		for _, p := range f.s.dlist {
			by, bx := int(p.By), int(p.Bx)
			var edges dsp.Edges
			if by == 0 {
				edges |= dsp.EdgeTop
			}
			if by == sb.nvb-1 {
				edges |= dsp.EdgeBottom
			}
			if bx == 0 && sb.boundary&modeinfo.BoundaryLeft != 0 {
				edges |= dsp.EdgeLeft
			}
			if bx == sb.nhb-1 && sb.boundary&modeinfo.BoundaryRight != 0 {
				edges |= dsp.EdgeRight
			}
			v := dsp.VariantFor(f.s.dirs[by][bx], threshold)
			f.k.LowpassBlock(v, tile, tileIndex(by<<log2, bx<<log2), tileStride,
				w, winIndex(by<<log2, bx<<log2), size, lowpass, edges, damping)
		}
	}

	f.writeBack(pli, pg, size)
}

// writeBack copies the filtered blocks of the dering list into the plane,
// clamped to the sample range.
func (f *frameFilter[P]) writeBack(pli int, pg planeGeom, size int) {
	v := f.planes[pli].View
	maxVal := uint16(f.maxVal)
	for _, p := range f.s.dlist {
		y, x := int(p.By)<<pg.log2, int(p.Bx)<<pg.log2
		for r := 0; r < size; r++ {
			dst := v.Span(pg.x0+x, pg.y0+y+r, size)
			src := f.s.tile[tileIndex(y+r, x) : tileIndex(y+r, x)+size]
			for c := range dst {
				dst[c] = P(min(src[c], maxVal))
			}
		}
	}
}
