// Package surface provides bounds-aware 2-D views over sample planes.
//
// A View never owns its memory: it describes a rectangle inside a caller
// supplied slice (base + stride + bounds). Filter code addresses samples
// through rows and (x, y) coordinates instead of raw offsets, so a
// mis-computed coordinate surfaces as a panic rather than silently touching
// a neighbouring plane.
package surface

import (
	"errors"
	"fmt"

	"golang.org/x/exp/constraints"
)

// Pixel is the storage type of a sample: 8-bit or 16-bit.
type Pixel interface {
	~uint8 | ~uint16
}

// ErrShortBuffer is returned when a view's slice cannot hold its rectangle.
var ErrShortBuffer = errors.New("surface: buffer too small for view")

// View is a Width x Height rectangle of samples stored row-major with Stride
// samples between the starts of consecutive rows.
type View[P Pixel] struct {
	Pix    []P
	Stride int
	Width  int
	Height int
}

// New allocates a tightly packed view.
func New[P Pixel](width, height int) View[P] {
	return View[P]{
		Pix:    make([]P, width*height),
		Stride: width,
		Width:  width,
		Height: height,
	}
}

// Validate reports whether the view's slice covers its rectangle.
func (v View[P]) Validate() error {
	if v.Width < 0 || v.Height < 0 {
		return fmt.Errorf("surface: negative size %dx%d", v.Width, v.Height)
	}
	if v.Width == 0 || v.Height == 0 {
		return nil
	}
	if v.Stride < v.Width {
		return fmt.Errorf("surface: stride %d < width %d", v.Stride, v.Width)
	}
	if need := (v.Height-1)*v.Stride + v.Width; len(v.Pix) < need {
		return fmt.Errorf("%w: have %d, need %d", ErrShortBuffer, len(v.Pix), need)
	}
	return nil
}

// In reports whether (x, y) lies inside the view.
func (v View[P]) In(x, y int) bool {
	return uint(x) < uint(v.Width) && uint(y) < uint(v.Height)
}

func (v View[P]) check(x, y int) {
	if debug && !v.In(x, y) {
		panic(fmt.Sprintf("surface: (%d,%d) outside %dx%d view", x, y, v.Width, v.Height))
	}
}

// At returns the sample at (x, y).
func (v View[P]) At(x, y int) P {
	v.check(x, y)
	return v.Pix[y*v.Stride+x]
}

// Set stores p at (x, y).
func (v View[P]) Set(x, y int, p P) {
	v.check(x, y)
	v.Pix[y*v.Stride+x] = p
}

// Row returns row y restricted to the view's width.
func (v View[P]) Row(y int) []P {
	v.check(0, y)
	off := y * v.Stride
	return v.Pix[off : off+v.Width : off+v.Width]
}

// Span returns n samples of row y starting at column x.
func (v View[P]) Span(x, y, n int) []P {
	if n <= 0 {
		return nil
	}
	v.check(x, y)
	v.check(x+n-1, y)
	off := y*v.Stride + x
	return v.Pix[off : off+n : off+n]
}

// Sub returns the w x h view whose top-left corner is (x, y) in v.
func (v View[P]) Sub(x, y, w, h int) View[P] {
	if w <= 0 || h <= 0 {
		return View[P]{}
	}
	v.check(x, y)
	v.check(x+w-1, y+h-1)
	off := y*v.Stride + x
	return View[P]{
		Pix:    v.Pix[off : off+(h-1)*v.Stride+w],
		Stride: v.Stride,
		Width:  w,
		Height: h,
	}
}

// Fill sets every sample of the view to p.
func (v View[P]) Fill(p P) {
	for y := 0; y < v.Height; y++ {
		row := v.Row(y)
		for x := range row {
			row[x] = p
		}
	}
}

// Clone returns a tightly packed copy of the view.
func (v View[P]) Clone() View[P] {
	c := New[P](v.Width, v.Height)
	for y := 0; y < v.Height; y++ {
		copy(c.Row(y), v.Row(y))
	}
	return c
}

// Equal reports whether both views have the same size and samples.
func (v View[P]) Equal(o View[P]) bool {
	if v.Width != o.Width || v.Height != o.Height {
		return false
	}
	for y := 0; y < v.Height; y++ {
		a, b := v.Row(y), o.Row(y)
		for x := range a {
			if a[x] != b[x] {
				return false
			}
		}
	}
	return true
}

// MaxValue returns the largest sample value representable at bitDepth.
func MaxValue(bitDepth int) int {
	return 1<<bitDepth - 1
}

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
