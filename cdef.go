package cdef

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/deepteams/cdef/internal/dsp"
	"github.com/deepteams/cdef/internal/logx"
	"github.com/deepteams/cdef/internal/loopfilter"
	"github.com/deepteams/cdef/internal/modeinfo"
)

// Errors returned by the filter entry points. Errors from the filter
// packages wrap these, so test with errors.Is.
var (
	ErrInvalidFrame = loopfilter.ErrInvalidFrame
	ErrGridMismatch = loopfilter.ErrGridMismatch
	ErrBitDepth     = loopfilter.ErrBitDepth
	ErrScratch      = loopfilter.ErrScratch

	ErrInvalidOptions = errors.New("cdef: invalid options")
	ErrUnsupported    = errors.New("cdef: unsupported format")
)

// BlockGrid is the per-8x8-block mode metadata of a frame: skip flags,
// tile/frame boundary bits and strength indices.
type BlockGrid = modeinfo.Grid

// Boundary bits of a block record.
const (
	BoundaryAbove = modeinfo.BoundaryAbove
	BoundaryLeft  = modeinfo.BoundaryLeft
	BoundaryBelow = modeinfo.BoundaryBelow
	BoundaryRight = modeinfo.BoundaryRight
)

// NewBlockGrid returns a grid of non-skipped blocks covering a width x
// height luma frame, with the frame border marked.
func NewBlockGrid(width, height int) *BlockGrid {
	g := modeinfo.ForFrame(width, height)
	g.MarkFrameEdges()
	return g
}

type (
	// StrengthTable maps a block's strength index to a packed strength;
	// see PackStrength.
	StrengthTable = loopfilter.StrengthTable

	// Strength is an unpacked strength table entry.
	Strength = loopfilter.Strength

	// Stats summarizes a filter pass.
	Stats = loopfilter.Stats

	// SearchResult reports the outcome of SearchStrengths.
	SearchResult = loopfilter.SearchResult
)

// PackStrength returns the table entry for a deringing level (0..63) and a
// low-pass strength (0, 1, 2 or 4).
func PackStrength(level, lowpass int) int { return loopfilter.Pack(level, lowpass) }

// SearchTable returns the luma strength table that resolves the indices
// written by SearchStrengths for the given baseline level.
func SearchTable(baseLevel int) StrengthTable { return loopfilter.FromSearch(baseLevel) }

// Options controls a filter or search call. The zero value filters
// nothing: both strength tables are empty.
type Options struct {
	// BaseQIndex is the frame's base quantizer index (0-255). It sets the
	// low-pass damping and the search baseline.
	BaseQIndex int

	// LumaStrengths and ChromaStrengths resolve the strength index of each
	// superblock. Indices outside a table disable filtering for that plane.
	LumaStrengths   StrengthTable
	ChromaStrengths StrengthTable

	// ForceGeneric disables the CPU-specific kernels.
	ForceGeneric bool

	// Logger overrides the package logger for this call.
	Logger *slog.Logger
}

func (o *Options) validate() error {
	if o.BaseQIndex < 0 || o.BaseQIndex > 255 {
		return fmt.Errorf("%w: BaseQIndex %d (must be 0-255)", ErrInvalidOptions, o.BaseQIndex)
	}
	for _, t := range []StrengthTable{o.LumaStrengths, o.ChromaStrengths} {
		for i, s := range t {
			if s < 0 || s > PackStrength(loopfilter.MaxLevel, 4) {
				return fmt.Errorf("%w: strength %d at index %d", ErrInvalidOptions, s, i)
			}
		}
	}
	return nil
}

func (o *Options) kernels() *dsp.Kernels { return dsp.Select(o.ForceGeneric) }

// SetLogger installs the logger used by every call without its own
// Options.Logger. The default discards everything; nil restores that.
func SetLogger(l *slog.Logger) { logx.Set(l) }

// Filter runs the deringing and low-pass filters over f in place, using
// the skip flags, boundary bits and strength indices of grid.
func Filter[P Pixel](f *Frame[P], grid *BlockGrid, opts *Options) (Stats, error) {
	if opts == nil {
		opts = &Options{}
	}
	if err := opts.validate(); err != nil {
		return Stats{}, err
	}
	if f == nil || len(f.Planes) == 0 {
		return Stats{}, fmt.Errorf("%w: no planes", ErrInvalidFrame)
	}
	return loopfilter.FilterFrame(f.planes(), grid, loopfilter.Config{
		BitDepth:   f.BitDepth,
		BaseQIndex: opts.BaseQIndex,
		Luma:       opts.LumaStrengths,
		Chroma:     opts.ChromaStrengths,
		Kernels:    opts.kernels(),
		Logger:     opts.Logger,
	})
}

// SearchStrengths chooses a deringing refinement index for every
// superblock of recon by comparing against source, and writes it into the
// strength field of the superblock's top-left record in grid. Only luma is
// read and recon is left unchanged. Filter the frame with
// SearchTable(result.BaseLevel) as the luma table to apply the choice.
func SearchStrengths[P Pixel](recon, source *Frame[P], grid *BlockGrid, opts *Options) (SearchResult, error) {
	if opts == nil {
		opts = &Options{}
	}
	if err := opts.validate(); err != nil {
		return SearchResult{}, err
	}
	if recon == nil || source == nil || len(recon.Planes) == 0 || len(source.Planes) == 0 {
		return SearchResult{}, fmt.Errorf("%w: no planes", ErrInvalidFrame)
	}
	if recon.BitDepth != source.BitDepth {
		return SearchResult{}, fmt.Errorf("%w: bit depths %d and %d differ", ErrInvalidFrame, recon.BitDepth, source.BitDepth)
	}
	return loopfilter.SearchStrengths(recon.Planes[0].view(), source.Planes[0].view(), grid, loopfilter.SearchConfig{
		BitDepth:   recon.BitDepth,
		BaseQIndex: opts.BaseQIndex,
		Kernels:    opts.kernels(),
		Logger:     opts.Logger,
	})
}

// PSNR returns the luma peak signal-to-noise ratio between the visible
// areas of two frames in dB. Identical frames report 99 dB.
func PSNR[P Pixel](a, b *Frame[P]) (float64, error) {
	if err := checkComparable(a, b); err != nil {
		return 0, err
	}
	va := a.Planes[0].view().Sub(0, 0, a.Width, a.Height)
	vb := b.Planes[0].view().Sub(0, 0, b.Width, b.Height)
	sse := dsp.PlaneSSE(va, vb)
	return dsp.PSNRFromSSE(sse, a.Width*a.Height, a.BitDepth), nil
}

// SSIM returns the mean luma structural similarity between the visible
// areas of two frames, in [-1, 1].
func SSIM[P Pixel](a, b *Frame[P]) (float64, error) {
	if err := checkComparable(a, b); err != nil {
		return 0, err
	}
	va := a.Planes[0].view().Sub(0, 0, a.Width, a.Height)
	vb := b.Planes[0].view().Sub(0, 0, b.Width, b.Height)
	return dsp.PlaneSSIM(va, vb, a.BitDepth), nil
}

func checkComparable[P Pixel](a, b *Frame[P]) error {
	if a == nil || b == nil || len(a.Planes) == 0 || len(b.Planes) == 0 {
		return fmt.Errorf("%w: missing frame or luma plane", ErrInvalidFrame)
	}
	if a.Width != b.Width || a.Height != b.Height || a.BitDepth != b.BitDepth {
		return fmt.Errorf("%w: frames differ in size or bit depth", ErrInvalidFrame)
	}
	return nil
}
