package dsp

import (
	"fmt"
	"math/bits"

	"golang.org/x/exp/constraints"
)

// LowpassVariant selects which neighbours the constrained low-pass filter
// reads.
type LowpassVariant uint8

const (
	LowpassFull       LowpassVariant = iota // all eight taps
	LowpassVertical                         // the four taps above and below
	LowpassHorizontal                       // the four taps left and right

	numLowpassVariants
)

func (v LowpassVariant) String() string {
	switch v {
	case LowpassFull:
		return "full"
	case LowpassVertical:
		return "vertical"
	case LowpassHorizontal:
		return "horizontal"
	}
	return fmt.Sprintf("LowpassVariant(%d)", uint8(v))
}

// VariantFor returns the low-pass variant used after deringing a block
// with direction dir. Near-horizontal edges (1, 2, 3) are smoothed with
// vertical taps and near-vertical edges (5, 6, 7) with horizontal taps so
// the filter never averages across the edge. Diagonals and planes that
// skipped deringing (threshold 0, no meaningful direction) get the full
// filter. A direction outside 0..7 is a programming error.
func VariantFor(dir, threshold int) LowpassVariant {
	if dir < 0 || dir >= NumDirections {
		panic(fmt.Sprintf("dsp: direction %d out of range", dir))
	}
	if threshold == 0 {
		return LowpassFull
	}
	switch dir {
	case 1, 2, 3:
		return LowpassVertical
	case 5, 6, 7:
		return LowpassHorizontal
	}
	return LowpassFull
}

func absInt[T constraints.Signed](x T) T {
	if x < 0 {
		return -x
	}
	return x
}

// Constrain soft-clips a neighbour difference. Differences well below the
// strength pass unchanged; larger ones are attenuated and vanish once
// |diff| >> (damping - log2(strength)) exceeds the strength.
func Constrain(diff, strength, damping int) int {
	if strength == 0 || diff == 0 {
		return 0
	}
	a := absInt(diff)
	shift := max(0, damping-(bits.Len(uint(strength))-1))
	v := max(0, a-max(0, a-strength+(a>>shift)))
	if diff < 0 {
		return -v
	}
	return v
}

// lowpassSample combines eight constrained taps with weights 1,3,1,3,3,1,3,1
// and rounds the sum towards zero at the half.
func lowpassSample(x, a, b, c, d, e, f, g, h, s, dmp int) int {
	delta := 1*Constrain(a-x, s, dmp) + 3*Constrain(b-x, s, dmp) +
		1*Constrain(c-x, s, dmp) + 3*Constrain(d-x, s, dmp) +
		3*Constrain(e-x, s, dmp) + 1*Constrain(f-x, s, dmp) +
		3*Constrain(g-x, s, dmp) + 1*Constrain(h-x, s, dmp)
	if delta < 0 {
		return (8 + delta - 1) >> 4
	}
	return (8 + delta) >> 4
}

// lowpassBounds returns the clamp limits, relative to the block origin,
// for neighbour reads. A marked edge clamps reads to the block itself;
// otherwise two samples of context are allowed.
func lowpassBounds(size int, edges Edges) (xmin, ymin, xmax, ymax int) {
	xmin, ymin, xmax, ymax = -2, -2, size+1, size+1
	if edges&EdgeLeft != 0 {
		xmin = 0
	}
	if edges&EdgeTop != 0 {
		ymin = 0
	}
	if edges&EdgeRight != 0 {
		xmax = size - 1
	}
	if edges&EdgeBottom != 0 {
		ymax = size - 1
	}
	return xmin, ymin, xmax, ymax
}

func lowpassFull(dst []uint16, dstOff, dstStride int, in []uint16, inOff, size, strength int, edges Edges, damping int) {
	xmin, ymin, xmax, ymax := lowpassBounds(size, edges)
	at := func(y, x int) int { return int(in[inOff+y*WindowStride+x]) }
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			X := at(y, x)
			A := at(max(ymin, y-2), x)
			B := at(max(ymin, y-1), x)
			C := at(y, max(xmin, x-2))
			D := at(y, max(xmin, x-1))
			E := at(y, min(xmax, x+1))
			F := at(y, min(xmax, x+2))
			G := at(min(ymax, y+1), x)
			H := at(min(ymax, y+2), x)
			dst[dstOff+y*dstStride+x] = uint16(X + lowpassSample(X, A, B, C, D, E, F, G, H, strength, damping))
		}
	}
}

func lowpassVertical(dst []uint16, dstOff, dstStride int, in []uint16, inOff, size, strength int, edges Edges, damping int) {
	_, ymin, _, ymax := lowpassBounds(size, edges)
	at := func(y, x int) int { return int(in[inOff+y*WindowStride+x]) }
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			X := at(y, x)
			A := at(max(ymin, y-2), x)
			B := at(max(ymin, y-1), x)
			G := at(min(ymax, y+1), x)
			H := at(min(ymax, y+2), x)
			dst[dstOff+y*dstStride+x] = uint16(X + lowpassSample(X, A, B, A, B, G, H, G, H, strength, damping))
		}
	}
}

func lowpassHorizontal(dst []uint16, dstOff, dstStride int, in []uint16, inOff, size, strength int, edges Edges, damping int) {
	xmin, _, xmax, _ := lowpassBounds(size, edges)
	at := func(y, x int) int { return int(in[inOff+y*WindowStride+x]) }
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			X := at(y, x)
			C := at(y, max(xmin, x-2))
			D := at(y, max(xmin, x-1))
			E := at(y, min(xmax, x+1))
			F := at(y, min(xmax, x+2))
			dst[dstOff+y*dstStride+x] = uint16(X + lowpassSample(X, C, D, C, D, E, F, E, F, strength, damping))
		}
	}
}
