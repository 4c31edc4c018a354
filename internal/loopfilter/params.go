// Package loopfilter drives the deringing and constrained low-pass kernels
// over whole frames, superblock by superblock, and implements the encoder
// search that picks a deringing strength per superblock.
package loopfilter

import (
	"errors"
	"math"
)

var (
	// ErrInvalidFrame reports planes that are missing, empty or too small
	// for the block grid.
	ErrInvalidFrame = errors.New("cdef: invalid frame")

	// ErrGridMismatch reports a block grid that does not fit the frame.
	ErrGridMismatch = errors.New("cdef: block grid does not match frame")

	// ErrBitDepth reports a bit depth the sample type cannot hold.
	ErrBitDepth = errors.New("cdef: unsupported bit depth")

	// ErrScratch reports a failure to obtain scratch memory for a pass.
	ErrScratch = errors.New("cdef: scratch allocation failed")
)

// Strength limits.
const (
	MaxLevel = 63 // largest deringing level

	// lowpassCodes is the number of low-pass settings packed into a
	// strength table entry.
	lowpassCodes = 4

	// RefinementLevels is the number of candidates the encoder search
	// tries per superblock; a strength index fits in two bits.
	RefinementLevels = 4
)

// Strength is a resolved strength table entry.
type Strength struct {
	Level   int // deringing level, 0..MaxLevel
	Lowpass int // low-pass strength: 0, 1, 2 or 4
}

// IsZero reports whether the entry disables both filters.
func (s Strength) IsZero() bool { return s.Level == 0 && s.Lowpass == 0 }

// Pack encodes a strength into the table representation level*4+code,
// where low-pass strength 4 is stored as code 3.
func Pack(level, lowpass int) int {
	code := lowpass
	if lowpass >= lowpassCodes {
		code = lowpassCodes - 1
	}
	return min(max(level, 0), MaxLevel)*lowpassCodes + max(code, 0)
}

// Unpack decodes a packed strength table entry.
func Unpack(packed int) Strength {
	s := Strength{Level: packed / lowpassCodes, Lowpass: packed % lowpassCodes}
	if s.Lowpass == lowpassCodes-1 {
		s.Lowpass++
	}
	return s
}

// StrengthTable maps a mode record's strength index to a packed strength.
type StrengthTable []int

// Resolve returns the strength stored at idx. Indices outside the table
// resolve to the zero strength.
func (t StrengthTable) Resolve(idx uint8) Strength {
	if int(idx) >= len(t) {
		return Strength{}
	}
	return Unpack(t[idx])
}

// FromSearch returns the luma table whose index gi holds the refinement
// level gi yields for baseLevel, with the low-pass filter off. Records
// written by SearchStrengths resolve through it to the levels the search
// measured.
func FromSearch(baseLevel int) StrengthTable {
	t := make(StrengthTable, RefinementLevels)
	for gi := range t {
		t[gi] = Pack(LevelFromIndex(baseLevel, gi), 0)
	}
	return t
}

var refinementGains = [RefinementLevels]int{0, 11, 16, 22}

// LevelFromIndex returns the deringing level of refinement candidate gi
// around a frame-level baseline.
func LevelFromIndex(baseLevel, gi int) int {
	if baseLevel == 0 {
		return 0
	}
	level := (baseLevel*refinementGains[gi] + 8) >> 4
	return min(max(level, gi), MaxLevel)
}

// BaselineLevel derives the frame-level deringing level from the base
// quantizer index as round(0.45 * q^0.6), q being the AC quantizer step.
func BaselineLevel(qindex int) int {
	return int(math.Floor(0.5 + 0.45*math.Pow(float64(ACQuant(qindex)), 0.6)))
}

// LowpassDamping returns the low-pass damping of a plane before the bit
// depth adjustment. Chroma is damped one step harder.
func LowpassDamping(plane, qindex int) int {
	d := 3 + (qindex >> 6)
	if plane != 0 {
		d--
	}
	return d
}

// ACQuant returns the 8-bit AC quantizer step for a base quantizer index,
// clamping the index to 0..255.
func ACQuant(qindex int) int {
	return int(acQLookup[min(max(qindex, 0), len(acQLookup)-1)])
}

var acQLookup = [256]int16{
	4, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22,
	23, 24, 25, 26, 27, 28, 29, 30, 31, 32, 33, 34, 35, 36, 37, 38,
	39, 40, 41, 42, 43, 44, 45, 46, 47, 48, 49, 50, 51, 52, 53, 54,
	55, 56, 57, 58, 59, 60, 61, 62, 63, 64, 65, 66, 67, 68, 69, 70,
	71, 72, 73, 74, 75, 76, 77, 78, 79, 80, 81, 82, 83, 84, 85, 86,
	87, 88, 89, 90, 91, 92, 93, 94, 95, 96, 97, 98, 99, 100, 101, 102,
	104, 106, 108, 110, 112, 114, 116, 118, 120, 122, 124, 126, 128, 130, 132, 134,
	136, 138, 140, 142, 144, 146, 148, 150, 152, 155, 158, 161, 164, 167, 170, 173,
	176, 179, 182, 185, 188, 191, 194, 197, 200, 203, 207, 211, 215, 219, 223, 227,
	231, 235, 239, 243, 247, 251, 255, 260, 265, 270, 275, 280, 285, 290, 295, 300,
	305, 311, 317, 323, 329, 335, 341, 347, 353, 359, 366, 373, 380, 387, 394, 401,
	408, 416, 424, 432, 440, 448, 456, 465, 474, 483, 492, 501, 510, 520, 530, 540,
	550, 560, 571, 582, 593, 604, 615, 627, 639, 651, 663, 676, 689, 702, 715, 729,
	743, 757, 771, 786, 801, 816, 832, 848, 864, 881, 898, 915, 933, 951, 969, 988,
	1007, 1026, 1046, 1066, 1087, 1108, 1129, 1151, 1173, 1196, 1219, 1243, 1267, 1292, 1317, 1343,
	1369, 1396, 1423, 1451, 1479, 1508, 1537, 1567, 1597, 1628, 1660, 1692, 1725, 1759, 1793, 1828,
}
