package dsp

// Row-oriented kernels. They produce the same output as the generic set
// but slice every tap row once per block row so the compiler can drop the
// per-sample bounds checks, and they keep four independent accumulators in
// the distortion loop. They are selected on CPUs with 128-bit vector units
// where the wider loop bodies pay off.

var wide = Kernels{
	Name:          "wide",
	FindDirection: findDirectionWide,
	Dering8x8:     dering8x8Wide,
	Dering4x4:     dering4x4Wide,
	Lowpass: [numLowpassVariants]LowpassFunc{
		LowpassFull:       lowpassFullWide,
		LowpassVertical:   lowpassVerticalWide,
		LowpassHorizontal: lowpassHorizontalWide,
	},
	SSE: sseWide,
}

// Wide returns the row-oriented kernel set regardless of CPU support.
func Wide() *Kernels { return &wide }

func init() {
	Register(Entry{Name: "wide-sse2", Level: SIMDSSE2, Priority: 10, Kernels: &wide})
	Register(Entry{Name: "wide-neon", Level: SIMDNEON, Priority: 10, Kernels: &wide})
}

func findDirectionWide(in []uint16, off, stride, coeffShift int) (dir, variance int) {
	var partial [NumDirections][15]int
	for i := 0; i < 8; i++ {
		row := in[off+i*stride : off+i*stride+8]
		_ = row[7]
		x0 := int(row[0]>>coeffShift) - 128
		x1 := int(row[1]>>coeffShift) - 128
		x2 := int(row[2]>>coeffShift) - 128
		x3 := int(row[3]>>coeffShift) - 128
		x4 := int(row[4]>>coeffShift) - 128
		x5 := int(row[5]>>coeffShift) - 128
		x6 := int(row[6]>>coeffShift) - 128
		x7 := int(row[7]>>coeffShift) - 128

		partial[2][i] += x0 + x1 + x2 + x3 + x4 + x5 + x6 + x7

		// Pairs of columns share a line for the half-slope directions.
		h := i / 2
		partial[1][i] += x0 + x1
		partial[1][i+1] += x2 + x3
		partial[1][i+2] += x4 + x5
		partial[1][i+3] += x6 + x7
		partial[3][3+i] += x0 + x1
		partial[3][2+i] += x2 + x3
		partial[3][1+i] += x4 + x5
		partial[3][i] += x6 + x7

		xs := [8]int{x0, x1, x2, x3, x4, x5, x6, x7}
		for j, x := range xs {
			partial[0][i+j] += x
			partial[4][7+i-j] += x
			partial[5][3-h+j] += x
			partial[6][j] += x
			partial[7][h+j] += x
		}
	}
	cost := costsFromPartials(&partial)
	return bestDirection(&cost)
}

func deringRowsWide(dst []uint16, dstOff, dstStride int, in []uint16, inOff, threshold, dir int, taps []int, n int) int {
	offs := &directionOffsets[dir]
	total := 0
	for i := 0; i < n; i++ {
		p := inOff + i*WindowStride
		c := in[p : p+n]
		d := dst[dstOff+i*dstStride : dstOff+i*dstStride+n]
		var sums [8]int
		for k, tap := range taps {
			pos := in[p+offs[k] : p+offs[k]+n]
			neg := in[p-offs[k] : p-offs[k]+n]
			for j := range c {
				x := int(c[j])
				p0 := int(pos[j]) - x
				p1 := int(neg[j]) - x
				if p0 < threshold && -p0 < threshold {
					sums[j] += tap * p0
				}
				if p1 < threshold && -p1 < threshold {
					sums[j] += tap * p1
				}
			}
		}
		for j := range c {
			s := (sums[j] + 8) >> 4
			if s < 0 {
				total -= s
			} else {
				total += s
			}
			d[j] = uint16(int(c[j]) + s)
		}
	}
	return total
}

func dering8x8Wide(dst []uint16, dstOff, dstStride int, in []uint16, inOff, threshold, dir int) int {
	return (deringRowsWide(dst, dstOff, dstStride, in, inOff, threshold, dir, dering8Taps[:], 8) + 8) >> 4
}

func dering4x4Wide(dst []uint16, dstOff, dstStride int, in []uint16, inOff, threshold, dir int) int {
	return (deringRowsWide(dst, dstOff, dstStride, in, inOff, threshold, dir, dering4Taps[:], 4) + 2) >> 2
}

// clampedColumns returns, for every column of a block, the clamped column
// index of the taps two and one to the left and one and two to the right.
func clampedColumns(size, xmin, xmax int) (l2, l1, r1, r2 [8]int) {
	for x := 0; x < size; x++ {
		l2[x] = max(xmin, x-2)
		l1[x] = max(xmin, x-1)
		r1[x] = min(xmax, x+1)
		r2[x] = min(xmax, x+2)
	}
	return l2, l1, r1, r2
}

// windowRow returns the size+4 samples of block row y starting two
// columns left of the block, so clamped column c is found at index c+2.
func windowRow(in []uint16, inOff, y, size int) []uint16 {
	o := inOff + y*WindowStride - 2
	return in[o : o+size+4]
}

func lowpassFullWide(dst []uint16, dstOff, dstStride int, in []uint16, inOff, size, strength int, edges Edges, damping int) {
	xmin, ymin, xmax, ymax := lowpassBounds(size, edges)
	l2, l1, r1, r2 := clampedColumns(size, xmin, xmax)
	for y := 0; y < size; y++ {
		ra := windowRow(in, inOff, max(ymin, y-2), size)
		rb := windowRow(in, inOff, max(ymin, y-1), size)
		rx := windowRow(in, inOff, y, size)
		rg := windowRow(in, inOff, min(ymax, y+1), size)
		rh := windowRow(in, inOff, min(ymax, y+2), size)
		d := dst[dstOff+y*dstStride : dstOff+y*dstStride+size]
		for x := range d {
			X := int(rx[x+2])
			delta := lowpassSample(X,
				int(ra[x+2]), int(rb[x+2]),
				int(rx[l2[x]+2]), int(rx[l1[x]+2]),
				int(rx[r1[x]+2]), int(rx[r2[x]+2]),
				int(rg[x+2]), int(rh[x+2]),
				strength, damping)
			d[x] = uint16(X + delta)
		}
	}
}

func lowpassVerticalWide(dst []uint16, dstOff, dstStride int, in []uint16, inOff, size, strength int, edges Edges, damping int) {
	_, ymin, _, ymax := lowpassBounds(size, edges)
	for y := 0; y < size; y++ {
		ra := windowRow(in, inOff, max(ymin, y-2), size)
		rb := windowRow(in, inOff, max(ymin, y-1), size)
		rx := windowRow(in, inOff, y, size)
		rg := windowRow(in, inOff, min(ymax, y+1), size)
		rh := windowRow(in, inOff, min(ymax, y+2), size)
		d := dst[dstOff+y*dstStride : dstOff+y*dstStride+size]
		for x := range d {
			X := int(rx[x+2])
			A, B, G, H := int(ra[x+2]), int(rb[x+2]), int(rg[x+2]), int(rh[x+2])
			d[x] = uint16(X + lowpassSample(X, A, B, A, B, G, H, G, H, strength, damping))
		}
	}
}

func lowpassHorizontalWide(dst []uint16, dstOff, dstStride int, in []uint16, inOff, size, strength int, edges Edges, damping int) {
	xmin, _, xmax, _ := lowpassBounds(size, edges)
	l2, l1, r1, r2 := clampedColumns(size, xmin, xmax)
	for y := 0; y < size; y++ {
		rx := windowRow(in, inOff, y, size)
		d := dst[dstOff+y*dstStride : dstOff+y*dstStride+size]
		for x := range d {
			X := int(rx[x+2])
			C, D := int(rx[l2[x]+2]), int(rx[l1[x]+2])
			E, F := int(rx[r1[x]+2]), int(rx[r2[x]+2])
			d[x] = uint16(X + lowpassSample(X, C, D, C, D, E, F, E, F, strength, damping))
		}
	}
}

func sseWide(a []uint16, aOff, aStride int, b []uint16, bOff, bStride, w, h int) uint64 {
	var s0, s1, s2, s3 uint64
	for y := 0; y < h; y++ {
		ra := a[aOff+y*aStride : aOff+y*aStride+w]
		rb := b[bOff+y*bStride : bOff+y*bStride+w]
		rb = rb[:len(ra)]
		x := 0
		for ; x+4 <= len(ra); x += 4 {
			d0 := int64(ra[x]) - int64(rb[x])
			d1 := int64(ra[x+1]) - int64(rb[x+1])
			d2 := int64(ra[x+2]) - int64(rb[x+2])
			d3 := int64(ra[x+3]) - int64(rb[x+3])
			s0 += uint64(d0 * d0)
			s1 += uint64(d1 * d1)
			s2 += uint64(d2 * d2)
			s3 += uint64(d3 * d3)
		}
		for ; x < len(ra); x++ {
			d := int64(ra[x]) - int64(rb[x])
			s0 += uint64(d * d)
		}
	}
	return s0 + s1 + s2 + s3
}
