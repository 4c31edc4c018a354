package dsp

import "math/bits"

// threshTableQ8 approximates var^0.16 in Q8 with log2(var) as the index,
// clamped to [0.5, 3].
var threshTableQ8 = [18]int{
	128, 134, 150, 168, 188, 210, 234, 262, 292,
	327, 365, 408, 455, 509, 569, 635, 710, 768,
}

// AdjustThreshold scales a base deringing threshold by the directional
// variance of a block. Strongly directional blocks (high contrast edges)
// get a larger threshold, flat or textured blocks a smaller one.
func AdjustThreshold(threshold, variance int) int {
	v := min(32767, variance>>6)
	idx := min(bits.Len(uint(max(v, 0))), len(threshTableQ8)-1)
	return (threshold*threshTableQ8[idx] + 128) >> 8
}

var (
	dering8Taps = [3]int{3, 2, 1}
	dering4Taps = [2]int{4, 1}
)

// dering8x8 smooths an 8x8 block along dir. Taps whose difference to the
// centre reaches the threshold are dropped.
func dering8x8(dst []uint16, dstOff, dstStride int, in []uint16, inOff, threshold, dir int) int {
	offs := &directionOffsets[dir]
	total := 0
	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			p := inOff + i*WindowStride + j
			x := int(in[p])
			sum := 0
			for k, tap := range dering8Taps {
				p0 := int(in[p+offs[k]]) - x
				p1 := int(in[p-offs[k]]) - x
				if absInt(p0) < threshold {
					sum += tap * p0
				}
				if absInt(p1) < threshold {
					sum += tap * p1
				}
			}
			sum = (sum + 8) >> 4
			total += absInt(sum)
			dst[dstOff+i*dstStride+j] = uint16(x + sum)
		}
	}
	return (total + 8) >> 4
}

// dering4x4 is the subsampled-chroma variant with two taps per side.
func dering4x4(dst []uint16, dstOff, dstStride int, in []uint16, inOff, threshold, dir int) int {
	offs := &directionOffsets[dir]
	total := 0
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			p := inOff + i*WindowStride + j
			x := int(in[p])
			sum := 0
			for k, tap := range dering4Taps {
				p0 := int(in[p+offs[k]]) - x
				p1 := int(in[p-offs[k]]) - x
				if absInt(p0) < threshold {
					sum += tap * p0
				}
				if absInt(p1) < threshold {
					sum += tap * p1
				}
			}
			sum = (sum + 8) >> 4
			total += absInt(sum)
			dst[dstOff+i*dstStride+j] = uint16(x + sum)
		}
	}
	return (total + 2) >> 2
}
