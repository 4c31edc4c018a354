package dsp

import (
	"math"

	"github.com/deepteams/cdef/internal/surface"
)

// sse returns the sum of squared differences of two w x h uint16 blocks.
func sse(a []uint16, aOff, aStride int, b []uint16, bOff, bStride, w, h int) uint64 {
	var sum uint64
	for y := 0; y < h; y++ {
		ra := a[aOff+y*aStride : aOff+y*aStride+w]
		rb := b[bOff+y*bStride : bOff+y*bStride+w]
		for x := range ra {
			d := int64(ra[x]) - int64(rb[x])
			sum += uint64(d * d)
		}
	}
	return sum
}

// PlaneSSE returns the sum of squared differences of two equally sized
// views.
func PlaneSSE[P surface.Pixel](a, b surface.View[P]) uint64 {
	var sum uint64
	for y := 0; y < a.Height; y++ {
		ra, rb := a.Row(y), b.Row(y)
		for x := range ra {
			d := int64(ra[x]) - int64(rb[x])
			sum += uint64(d * d)
		}
	}
	return sum
}

// PSNRFromSSE converts a sum of squared errors over count samples of the
// given bit depth to a peak signal-to-noise ratio in dB. Identical inputs
// report 99 dB.
func PSNRFromSSE(sse uint64, count, bitDepth int) float64 {
	if sse == 0 || count == 0 {
		return 99.0
	}
	peak := float64(int(1)<<bitDepth - 1)
	mse := float64(sse) / float64(count)
	return 10.0 * math.Log10(peak*peak/mse)
}
