package dsp

import "github.com/deepteams/cdef/internal/surface"

// ssimKernel is the radius of the hat-shaped SSIM window.
const ssimKernel = 3

var ssimWeight = [2*ssimKernel + 1]float64{1, 2, 3, 4, 3, 2, 1}

// ssimStats accumulates weighted first and second moments of a sample pair
// window.
type ssimStats struct {
	w             float64
	xm, ym        float64
	xxm, xym, yym float64
}

func (s *ssimStats) add(x, y, w float64) {
	s.w += w
	s.xm += w * x
	s.ym += w * y
	s.xxm += w * x * x
	s.xym += w * x * y
	s.yym += w * y * y
}

// value returns the structural similarity of the accumulated window. c1
// and c2 are the stabilizing constants for the sample range in use.
func (s *ssimStats) value(c1, c2 float64) float64 {
	if s.w == 0 {
		return 1
	}
	mx, my := s.xm/s.w, s.ym/s.w
	sxx := s.xxm/s.w - mx*mx
	syy := s.yym/s.w - my*my
	sxy := s.xym/s.w - mx*my
	num := (2*mx*my + c1) * (2*sxy + c2)
	den := (mx*mx + my*my + c1) * (sxx + syy + c2)
	if den == 0 {
		return 1
	}
	return num / den
}

// PlaneSSIM returns the mean structural similarity of two equally sized
// views, evaluated with a 7x7 hat window centred on every sample. Windows
// are clipped at the view edges.
func PlaneSSIM[P surface.Pixel](a, b surface.View[P], bitDepth int) float64 {
	if a.Width == 0 || a.Height == 0 {
		return 1
	}
	peak := float64(int(1)<<bitDepth - 1)
	c1 := (0.01 * peak) * (0.01 * peak)
	c2 := (0.03 * peak) * (0.03 * peak)

	var total float64
	for yo := 0; yo < a.Height; yo++ {
		ymin, ymax := max(yo-ssimKernel, 0), min(yo+ssimKernel, a.Height-1)
		for xo := 0; xo < a.Width; xo++ {
			xmin, xmax := max(xo-ssimKernel, 0), min(xo+ssimKernel, a.Width-1)
			var s ssimStats
			for y := ymin; y <= ymax; y++ {
				ra, rb := a.Row(y), b.Row(y)
				wy := ssimWeight[ssimKernel+y-yo]
				for x := xmin; x <= xmax; x++ {
					s.add(float64(ra[x]), float64(rb[x]), wy*ssimWeight[ssimKernel+x-xo])
				}
			}
			total += s.value(c1, c2)
		}
	}
	return total / float64(a.Width*a.Height)
}
