// Package dsp implements the pixel kernels of the deringing loop filter:
// direction search, directional deringing, the constrained low-pass filter
// and block distortion. Every kernel reads a padded filter window of uint16
// samples laid out with WindowStride.
package dsp

// Filter window geometry.
const (
	// FiltBorder is the number of context samples kept on every side of a
	// superblock in the filter window.
	FiltBorder = 3

	// BlockMax is the largest superblock edge in samples.
	BlockMax = 64

	// WindowStride is the row pitch of the filter window.
	WindowStride = BlockMax + 2*FiltBorder

	// WindowSize is the number of samples in a filter window.
	WindowSize = WindowStride * WindowStride

	// VeryLarge fills window positions that have no usable context. It is
	// far outside the range of any supported bit depth so every tap that
	// reads it is rejected by the deringing threshold and zeroed by the
	// low-pass constrain function.
	VeryLarge = 30000
)

// NumDirections is the number of orientations searched per block.
const NumDirections = 8

// directionOffsets lists, for each direction, the window offsets of the
// first three taps on the positive side of the line through a sample.
// Generated from the line geometry in direction.go.
var directionOffsets = [NumDirections][3]int{
	{-1*WindowStride + 1, -2*WindowStride + 2, -3*WindowStride + 3},
	{0*WindowStride + 1, -1*WindowStride + 2, -1*WindowStride + 3},
	{0*WindowStride + 1, 0*WindowStride + 2, 0*WindowStride + 3},
	{0*WindowStride + 1, 1*WindowStride + 2, 1*WindowStride + 3},
	{1*WindowStride + 1, 2*WindowStride + 2, 3*WindowStride + 3},
	{1*WindowStride + 0, 2*WindowStride + 1, 3*WindowStride + 1},
	{1*WindowStride + 0, 2*WindowStride + 0, 3*WindowStride + 0},
	{1*WindowStride + 0, 2*WindowStride - 1, 3*WindowStride - 1},
}

// BlockSize selects the deringing block geometry of a plane.
type BlockSize uint8

const (
	Block4x4 BlockSize = 2 // log2 of the edge length
	Block8x8 BlockSize = 3
)

// BlockSizeFor returns the block size of a plane with horizontal
// subsampling subX: 8x8 for full resolution, 4x4 when halved.
func BlockSizeFor(subX int) BlockSize {
	if subX != 0 {
		return Block4x4
	}
	return Block8x8
}

// Log2 returns the base-2 logarithm of the block edge.
func (b BlockSize) Log2() int { return int(b) }

// Edge returns the block edge length in samples.
func (b BlockSize) Edge() int { return 1 << b }

func (b BlockSize) String() string {
	switch b {
	case Block4x4:
		return "4x4"
	case Block8x8:
		return "8x8"
	}
	return "invalid"
}

// Edges marks block sides that the low-pass filter must not read across.
type Edges uint8

const (
	EdgeTop Edges = 1 << iota
	EdgeLeft
	EdgeBottom
	EdgeRight
)

// DeringFunc filters one block of the window starting at in[inOff] along
// dir and writes the result to dst[dstOff:] with dstStride. It returns the
// block activity (scaled sum of absolute corrections).
type DeringFunc func(dst []uint16, dstOff, dstStride int, in []uint16, inOff, threshold, dir int) int

// LowpassFunc runs one constrained low-pass variant over a size x size
// block at in[inOff] and writes it to dst[dstOff:] with dstStride.
type LowpassFunc func(dst []uint16, dstOff, dstStride int, in []uint16, inOff, size, strength int, edges Edges, damping int)

// DirectionFunc finds the dominant direction of the 8x8 block at in[off]
// and returns it with its variance score.
type DirectionFunc func(in []uint16, off, stride, coeffShift int) (dir, variance int)

// SSEFunc returns the sum of squared differences of two w x h blocks.
type SSEFunc func(a []uint16, aOff, aStride int, b []uint16, bOff, bStride, w, h int) uint64

// Kernels is one complete kernel set. A set is chosen once per filter call
// and shared by every plane and block size of that call.
type Kernels struct {
	Name string

	FindDirection DirectionFunc
	Dering8x8     DeringFunc
	Dering4x4     DeringFunc
	Lowpass       [numLowpassVariants]LowpassFunc
	SSE           SSEFunc
}

// Dering dispatches to the deringing kernel of the given block size.
func (k *Kernels) Dering(size BlockSize, dst []uint16, dstOff, dstStride int, in []uint16, inOff, threshold, dir int) int {
	switch size {
	case Block8x8:
		return k.Dering8x8(dst, dstOff, dstStride, in, inOff, threshold, dir)
	case Block4x4:
		return k.Dering4x4(dst, dstOff, dstStride, in, inOff, threshold, dir)
	}
	panic("dsp: invalid block size " + size.String())
}

// LowpassBlock runs low-pass variant v over one block.
func (k *Kernels) LowpassBlock(v LowpassVariant, dst []uint16, dstOff, dstStride int, in []uint16, inOff, size, strength int, edges Edges, damping int) {
	k.Lowpass[v](dst, dstOff, dstStride, in, inOff, size, strength, edges, damping)
}

var generic = Kernels{
	Name:          "generic",
	FindDirection: findDirection,
	Dering8x8:     dering8x8,
	Dering4x4:     dering4x4,
	Lowpass: [numLowpassVariants]LowpassFunc{
		LowpassFull:       lowpassFull,
		LowpassVertical:   lowpassVertical,
		LowpassHorizontal: lowpassHorizontal,
	},
	SSE: sse,
}

// Generic returns the portable reference kernels.
func Generic() *Kernels { return &generic }

func init() {
	Register(Entry{Name: generic.Name, Level: SIMDNone, Priority: 0, Kernels: &generic})
}
