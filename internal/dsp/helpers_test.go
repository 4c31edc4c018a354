package dsp

import (
	"math/rand"
	"testing"

	"github.com/davecgh/go-spew/spew"
)

// newWindow returns a filter window filled with v.
func newWindow(v uint16) []uint16 {
	w := make([]uint16, WindowSize)
	for i := range w {
		w[i] = v
	}
	return w
}

// randWindow fills a window with samples below 1<<bits.
func randWindow(rng *rand.Rand, bits int) []uint16 {
	w := make([]uint16, WindowSize)
	for i := range w {
		w[i] = uint16(rng.Intn(1 << bits))
	}
	return w
}

// origin returns the window index of superblock sample (row, col).
func origin(row, col int) int {
	return (FiltBorder+row)*WindowStride + FiltBorder + col
}

// block extracts an n x n block from a buffer.
func block(buf []uint16, off, stride, n int) [][]uint16 {
	out := make([][]uint16, n)
	for i := range out {
		out[i] = append([]uint16(nil), buf[off+i*stride:off+i*stride+n]...)
	}
	return out
}

func assertBlocksEqual(t *testing.T, name string, got, want [][]uint16) {
	t.Helper()
	for i := range want {
		for j := range want[i] {
			if got[i][j] != want[i][j] {
				t.Fatalf("%s: mismatch at (%d,%d): got %d want %d\ngot:\n%swant:\n%s",
					name, i, j, got[i][j], want[i][j], spew.Sdump(got), spew.Sdump(want))
			}
		}
	}
}
