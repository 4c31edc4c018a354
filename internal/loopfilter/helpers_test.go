package loopfilter

import (
	"math/rand"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/deepteams/cdef/internal/surface"
)

// randView returns a w x h view of samples in [base, base+spread).
func randView[P surface.Pixel](rng *rand.Rand, w, h, base, spread int) surface.View[P] {
	v := surface.New[P](w, h)
	for y := 0; y < h; y++ {
		row := v.Row(y)
		for x := range row {
			row[x] = P(base + rng.Intn(spread))
		}
	}
	return v
}

// flatView returns a w x h view filled with val.
func flatView[P surface.Pixel](w, h int, val P) surface.View[P] {
	v := surface.New[P](w, h)
	v.Fill(val)
	return v
}

func lumaPlanes[P surface.Pixel](v surface.View[P]) []Plane[P] {
	return []Plane[P]{{View: v}}
}

// assertViewsEqual fails with the first differing row of both views.
func assertViewsEqual[P surface.Pixel](t *testing.T, name string, got, want surface.View[P]) {
	t.Helper()
	if got.Width != want.Width || got.Height != want.Height {
		t.Fatalf("%s: size %dx%d, want %dx%d", name, got.Width, got.Height, want.Width, want.Height)
	}
	for y := 0; y < want.Height; y++ {
		g, w := got.Row(y), want.Row(y)
		for x := range w {
			if g[x] != w[x] {
				t.Fatalf("%s: mismatch at (%d,%d): got %d want %d\ngot row:\n%swant row:\n%s",
					name, x, y, g[x], w[x], spew.Sdump(g), spew.Sdump(w))
			}
		}
	}
}

// countChanged returns how many samples differ between a and b.
func countChanged[P surface.Pixel](a, b surface.View[P]) int {
	n := 0
	for y := 0; y < a.Height; y++ {
		ra, rb := a.Row(y), b.Row(y)
		for x := range ra {
			if ra[x] != rb[x] {
				n++
			}
		}
	}
	return n
}
