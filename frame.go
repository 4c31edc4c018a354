package cdef

import (
	"fmt"
	"image"

	"github.com/deepteams/cdef/internal/loopfilter"
	"github.com/deepteams/cdef/internal/modeinfo"
	"github.com/deepteams/cdef/internal/surface"
)

// Pixel is the sample storage type: uint8 for 8-bit frames, uint16 for
// 10- and 12-bit frames.
type Pixel interface {
	~uint8 | ~uint16
}

// Subsampling describes the chroma layout of a frame.
type Subsampling int

const (
	Subsample420 Subsampling = iota // chroma halved in both directions
	Subsample422                    // chroma halved horizontally
	Subsample444                    // full resolution chroma
	Subsample400                    // luma only
)

func (s Subsampling) String() string {
	switch s {
	case Subsample420:
		return "4:2:0"
	case Subsample422:
		return "4:2:2"
	case Subsample444:
		return "4:4:4"
	case Subsample400:
		return "4:0:0"
	}
	return fmt.Sprintf("Subsampling(%d)", int(s))
}

// shifts returns the horizontal and vertical chroma subsampling shifts.
func (s Subsampling) shifts() (subX, subY int) {
	switch s {
	case Subsample420:
		return 1, 1
	case Subsample422:
		return 1, 0
	}
	return 0, 0
}

// Plane is one sample plane. Pix holds Height rows of Stride samples;
// SubX and SubY are the subsampling shifts relative to luma.
type Plane[P Pixel] struct {
	Pix    []P
	Stride int
	Width  int
	Height int
	SubX   int
	SubY   int
}

func (p *Plane[P]) view() surface.View[P] {
	return surface.View[P]{Pix: p.Pix, Stride: p.Stride, Width: p.Width, Height: p.Height}
}

// Frame is a reconstructed picture: a luma plane optionally followed by
// two chroma planes. Planes may be larger than Width x Height; the filter
// reads and writes the area covered by the block grid.
type Frame[P Pixel] struct {
	Planes   []Plane[P]
	Width    int // visible luma width
	Height   int // visible luma height
	BitDepth int
}

// NewFrame allocates a frame whose planes are padded to whole 8x8 luma
// blocks.
func NewFrame[P Pixel](width, height, bitDepth int, sub Subsampling) *Frame[P] {
	aw := alignBlock(width)
	ah := alignBlock(height)
	f := &Frame[P]{Width: width, Height: height, BitDepth: bitDepth}
	f.Planes = append(f.Planes, newPlane[P](aw, ah, 0, 0))
	if sub != Subsample400 {
		subX, subY := sub.shifts()
		f.Planes = append(f.Planes,
			newPlane[P](aw>>subX, ah>>subY, subX, subY),
			newPlane[P](aw>>subX, ah>>subY, subX, subY))
	}
	return f
}

func newPlane[P Pixel](w, h, subX, subY int) Plane[P] {
	return Plane[P]{Pix: make([]P, w*h), Stride: w, Width: w, Height: h, SubX: subX, SubY: subY}
}

func alignBlock(n int) int {
	return (n + modeinfo.MISize - 1) &^ (modeinfo.MISize - 1)
}

func (f *Frame[P]) planes() []loopfilter.Plane[P] {
	out := make([]loopfilter.Plane[P], len(f.Planes))
	for i := range f.Planes {
		p := &f.Planes[i]
		out[i] = loopfilter.Plane[P]{View: p.view(), SubX: p.SubX, SubY: p.SubY}
	}
	return out
}

// Clone returns a deep copy of the frame.
func (f *Frame[P]) Clone() *Frame[P] {
	c := &Frame[P]{Width: f.Width, Height: f.Height, BitDepth: f.BitDepth}
	for _, p := range f.Planes {
		np := newPlane[P](p.Width, p.Height, p.SubX, p.SubY)
		v := np.view()
		src := p.view()
		for y := 0; y < p.Height; y++ {
			copy(v.Row(y), src.Row(y))
		}
		c.Planes = append(c.Planes, np)
	}
	return c
}

// FromYCbCr copies an 8-bit image into a new frame, replicating the right
// and bottom edges into the block padding.
func FromYCbCr(img *image.YCbCr) (*Frame[uint8], error) {
	var sub Subsampling
	switch img.SubsampleRatio {
	case image.YCbCrSubsampleRatio420:
		sub = Subsample420
	case image.YCbCrSubsampleRatio422:
		sub = Subsample422
	case image.YCbCrSubsampleRatio444:
		sub = Subsample444
	default:
		return nil, fmt.Errorf("%w: subsample ratio %v", ErrUnsupported, img.SubsampleRatio)
	}
	b := img.Rect
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidFrame)
	}
	f := NewFrame[uint8](b.Dx(), b.Dy(), 8, sub)
	copyPadded(&f.Planes[0], b.Dx(), b.Dy(), func(x, y int) uint8 {
		return img.Y[img.YOffset(b.Min.X+x, b.Min.Y+y)]
	})
	cw, ch := chromaSize(b.Dx(), b.Dy(), sub)
	for i, src := range [][]uint8{img.Cb, img.Cr} {
		copyPadded(&f.Planes[1+i], cw, ch, func(x, y int) uint8 {
			return src[img.COffset(b.Min.X+x<<f.Planes[1].SubX, b.Min.Y+y<<f.Planes[1].SubY)]
		})
	}
	return f, nil
}

// ToYCbCr copies the visible area of an 8-bit frame into a new image.
func ToYCbCr(f *Frame[uint8]) (*image.YCbCr, error) {
	if len(f.Planes) != 3 {
		return nil, fmt.Errorf("%w: %d planes", ErrUnsupported, len(f.Planes))
	}
	var (
		sub   Subsampling
		ratio image.YCbCrSubsampleRatio
	)
	switch c := f.Planes[1]; {
	case c.SubX == 1 && c.SubY == 1:
		sub, ratio = Subsample420, image.YCbCrSubsampleRatio420
	case c.SubX == 1 && c.SubY == 0:
		sub, ratio = Subsample422, image.YCbCrSubsampleRatio422
	case c.SubX == 0 && c.SubY == 0:
		sub, ratio = Subsample444, image.YCbCrSubsampleRatio444
	default:
		return nil, fmt.Errorf("%w: chroma shifts %d,%d", ErrUnsupported, c.SubX, c.SubY)
	}
	img := image.NewYCbCr(image.Rect(0, 0, f.Width, f.Height), ratio)
	luma := f.Planes[0].view()
	for y := 0; y < f.Height; y++ {
		copy(img.Y[y*img.YStride:], luma.Span(0, y, f.Width))
	}
	cw, ch := chromaSize(f.Width, f.Height, sub)
	for i, dst := range [][]uint8{img.Cb, img.Cr} {
		v := f.Planes[1+i].view()
		for y := 0; y < ch; y++ {
			copy(dst[y*img.CStride:], v.Span(0, y, cw))
		}
	}
	return img, nil
}

// chromaSize returns the chroma samples that hold image data for a
// width x height luma area.
func chromaSize(width, height int, sub Subsampling) (cw, ch int) {
	subX, subY := sub.shifts()
	return (width + subX) >> subX, (height + subY) >> subY
}

// copyPadded fills p from at for the w x h data area and replicates the
// last column and row into the rest of the plane.
func copyPadded[P Pixel](p *Plane[P], w, h int, at func(x, y int) P) {
	v := p.view()
	for y := 0; y < p.Height; y++ {
		row := v.Row(y)
		sy := min(y, h-1)
		for x := range row {
			row[x] = at(min(x, w-1), sy)
		}
	}
}
