package main

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeImages creates a source PNG with a blocky pattern and a noisy copy
// of it as the reconstruction, and returns both paths.
func writeImages(t *testing.T, dir string, w, h int) (source, recon string) {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	src := image.NewNRGBA(image.Rect(0, 0, w, h))
	rec := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := 60
			if (x/12+y/12)%2 == 1 {
				v = 190
			}
			src.SetNRGBA(x, y, color.NRGBA{R: uint8(v), G: uint8(v), B: uint8(v), A: 255})
			n := uint8(v + rng.Intn(21) - 10)
			rec.SetNRGBA(x, y, color.NRGBA{R: n, G: n, B: n, A: 255})
		}
	}
	source = filepath.Join(dir, "source.png")
	recon = filepath.Join(dir, "recon.png")
	writePNG(t, source, src)
	writePNG(t, recon, rec)
	return source, recon
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func runTool(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err = run(args, &out, &errOut)
	return out.String(), errOut.String(), err
}

func TestSearchFilterInfo(t *testing.T) {
	dir := t.TempDir()
	source, recon := writeImages(t, dir, 150, 100)
	mapPath := filepath.Join(dir, "recon.cdsm")

	out, _, err := runTool(t, "search", "-no-color", "-q", "120", "-ref", source, recon)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.Contains(out, "base level 9") || !strings.Contains(out, "2x3 superblocks") {
		t.Errorf("search output:\n%s", out)
	}
	if _, err := os.Stat(mapPath); err != nil {
		t.Fatalf("map not written: %v", err)
	}

	out, _, err = runTool(t, "info", mapPath)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	for _, want := range []string{"Superblocks: 3 x 2", "Base level:  9", "index 2 (level  9)"} {
		if !strings.Contains(out, want) {
			t.Errorf("info output missing %q:\n%s", want, out)
		}
	}

	filtered := filepath.Join(dir, "out.png")
	out, _, err = runTool(t, "filter", "-no-color", "-q", "120", "-map", mapPath, "-ref", source, "-o", filtered, recon)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if !strings.Contains(out, "luma PSNR") || !strings.Contains(out, "luma SSIM") {
		t.Errorf("filter output:\n%s", out)
	}
	f, err := os.Open(filtered)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 150 || b.Dy() != 100 {
		t.Errorf("output bounds = %v", b)
	}
}

func TestFilterWithoutMap(t *testing.T) {
	dir := t.TempDir()
	_, recon := writeImages(t, dir, 64, 64)

	// A JPEG input keeps its 4:2:0 layout.
	jpegPath := filepath.Join(dir, "recon.jpg")
	rf, err := os.Open(recon)
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(rf)
	rf.Close()
	if err != nil {
		t.Fatal(err)
	}
	jf, err := os.Create(jpegPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := jpeg.Encode(jf, img, &jpeg.Options{Quality: 50}); err != nil {
		t.Fatal(err)
	}
	jf.Close()

	out, stderr, err := runTool(t, "filter", "-v", "-no-color", "-luma", "30:4", "-chroma", "10:1", jpegPath)
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if !strings.Contains(out, "1 of 1 superblocks filtered") {
		t.Errorf("filter output:\n%s", out)
	}
	if !strings.Contains(stderr, "frame filtered") {
		t.Errorf("verbose log missing:\n%s", stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "recon.cdef.png")); err != nil {
		t.Errorf("default output not written: %v", err)
	}
}

func TestToolErrors(t *testing.T) {
	dir := t.TempDir()
	source, recon := writeImages(t, dir, 32, 32)
	junk := filepath.Join(dir, "junk.cdsm")
	if err := os.WriteFile(junk, []byte("not a map"), 0o644); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no command", nil, "missing command"},
		{"unknown command", []string{"frobnicate"}, "unknown command"},
		{"search without ref", []string{"search", recon}, "need -ref"},
		{"filter without input", []string{"filter"}, "missing input"},
		{"bad luma", []string{"filter", "-luma", "99:1", recon}, "invalid level"},
		{"bad lowpass", []string{"filter", "-luma", "10:3", recon}, "invalid low-pass"},
		{"bad map", []string{"filter", "-map", junk, recon}, "not a strength map"},
		{"missing image", []string{"search", "-ref", source, filepath.Join(dir, "nope.png")}, "nope.png"},
		{"info without file", []string{"info"}, "missing map"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runTool(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestParseStrength(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"0:0", 0, false},
		{"20:2", 82, false},
		{"63:4", 255, false},
		{"7", 28, false},
		{"-1:0", 0, true},
		{"64:0", 0, true},
		{"10:3", 0, true},
		{"a:b", 0, true},
	}
	for _, tt := range tests {
		got, err := parseStrength(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseStrength(%q) = %d, %v; want %d, error %v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}
