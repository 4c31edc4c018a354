package cdef

import (
	"errors"
	"image"
	"testing"
)

func TestNewFrame(t *testing.T) {
	tests := []struct {
		sub          Subsampling
		planes       int
		lumaW, lumaH int
		chromaW      int
		chromaH      int
	}{
		{Subsample420, 3, 104, 72, 52, 36},
		{Subsample422, 3, 104, 72, 52, 72},
		{Subsample444, 3, 104, 72, 104, 72},
		{Subsample400, 1, 104, 72, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.sub.String(), func(t *testing.T) {
			f := NewFrame[uint16](100, 70, 10, tt.sub)
			if len(f.Planes) != tt.planes {
				t.Fatalf("%d planes, want %d", len(f.Planes), tt.planes)
			}
			if p := f.Planes[0]; p.Width != tt.lumaW || p.Height != tt.lumaH {
				t.Errorf("luma %dx%d, want %dx%d", p.Width, p.Height, tt.lumaW, tt.lumaH)
			}
			if tt.planes == 3 {
				if p := f.Planes[2]; p.Width != tt.chromaW || p.Height != tt.chromaH {
					t.Errorf("chroma %dx%d, want %dx%d", p.Width, p.Height, tt.chromaW, tt.chromaH)
				}
			}
			if f.Width != 100 || f.Height != 70 || f.BitDepth != 10 {
				t.Errorf("frame = %dx%d @%d", f.Width, f.Height, f.BitDepth)
			}
		})
	}
	if got := Subsampling(9).String(); got != "Subsampling(9)" {
		t.Errorf("String = %q", got)
	}
}

func TestYCbCrRoundTrip(t *testing.T) {
	for _, ratio := range []image.YCbCrSubsampleRatio{
		image.YCbCrSubsampleRatio420,
		image.YCbCrSubsampleRatio422,
		image.YCbCrSubsampleRatio444,
	} {
		img := image.NewYCbCr(image.Rect(0, 0, 37, 21), ratio)
		for i := range img.Y {
			img.Y[i] = uint8(i * 7)
		}
		for i := range img.Cb {
			img.Cb[i] = uint8(i * 3)
			img.Cr[i] = uint8(255 - i)
		}
		f, err := FromYCbCr(img)
		if err != nil {
			t.Fatalf("%v: FromYCbCr: %v", ratio, err)
		}
		// Padding replicates the last column.
		luma := f.Planes[0]
		if got, want := luma.Pix[39], img.Y[36]; got != want {
			t.Errorf("%v: padded sample = %d, want %d", ratio, got, want)
		}
		back, err := ToYCbCr(f)
		if err != nil {
			t.Fatalf("%v: ToYCbCr: %v", ratio, err)
		}
		if back.SubsampleRatio != ratio {
			t.Errorf("ratio = %v, want %v", back.SubsampleRatio, ratio)
		}
		for y := 0; y < 21; y++ {
			for x := 0; x < 37; x++ {
				if back.YCbCrAt(x, y) != img.YCbCrAt(x, y) {
					t.Fatalf("%v: (%d,%d) = %v, want %v", ratio, x, y, back.YCbCrAt(x, y), img.YCbCrAt(x, y))
				}
			}
		}
	}
}

func TestYCbCrUnsupported(t *testing.T) {
	img := image.NewYCbCr(image.Rect(0, 0, 8, 8), image.YCbCrSubsampleRatio410)
	if _, err := FromYCbCr(img); !errors.Is(err, ErrUnsupported) {
		t.Errorf("FromYCbCr 4:1:0: err = %v", err)
	}
	if _, err := FromYCbCr(image.NewYCbCr(image.Rect(0, 0, 0, 0), image.YCbCrSubsampleRatio420)); !errors.Is(err, ErrInvalidFrame) {
		t.Errorf("FromYCbCr empty: err = %v", err)
	}
	if _, err := ToYCbCr(NewFrame[uint8](8, 8, 8, Subsample400)); !errors.Is(err, ErrUnsupported) {
		t.Errorf("ToYCbCr gray: err = %v", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	f := NewFrame[uint8](16, 16, 8, Subsample420)
	c := f.Clone()
	c.Planes[1].Pix[0] = 9
	if f.Planes[1].Pix[0] != 0 {
		t.Error("Clone shares plane memory")
	}
}
