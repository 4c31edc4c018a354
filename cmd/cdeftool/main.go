// Command cdeftool runs the deringing filter and its strength search over
// image files.
//
// Usage:
//
//	cdeftool search [options] -ref <source> <recon>   Pick strengths, write a .cdsm map
//	cdeftool filter [options] <recon>                 Filter an image
//	cdeftool info <map.cdsm>                          Describe a strength map
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	imgcolor "image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/deepteams/cdef"
	"github.com/deepteams/cdef/internal/strengthmap"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "cdeftool: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) < 1 {
		printUsage(stderr)
		return errors.New("missing command")
	}
	switch args[0] {
	case "search":
		return runSearch(args[1:], stdout, stderr)
	case "filter":
		return runFilter(args[1:], stdout, stderr)
	case "info":
		return runInfo(args[1:], stdout)
	case "-h", "-help", "--help", "help":
		printUsage(stdout)
		return nil
	}
	printUsage(stderr)
	return fmt.Errorf("unknown command %q", args[0])
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage:
  cdeftool search [options] -ref <source> <recon>   Pick strengths, write a .cdsm map
  cdeftool filter [options] <recon>                 Filter an image
  cdeftool info <map.cdsm>                          Describe a strength map

Images may be PNG, JPEG, GIF, BMP or TIFF.
Run "cdeftool <command> -h" for command-specific options.
`)
}

// common holds the flags shared by search and filter.
type common struct {
	q        *int
	tilesX   *int
	tilesY   *int
	generic  *bool
	verbose  *bool
	noColor  *bool
	stderr   io.Writer
	progress *color.Color
}

func addCommon(fs *flag.FlagSet, stderr io.Writer) *common {
	return &common{
		q:        fs.Int("q", 120, "base quantizer index 0-255"),
		tilesX:   fs.Int("tiles-x", 1, "tile columns"),
		tilesY:   fs.Int("tiles-y", 1, "tile rows"),
		generic:  fs.Bool("generic", false, "disable CPU-specific kernels"),
		verbose:  fs.Bool("v", false, "log filter statistics to stderr"),
		noColor:  fs.Bool("no-color", false, "disable colored output"),
		stderr:   stderr,
		progress: color.New(color.FgGreen),
	}
}

// setup applies the logging and color flags and returns the options and
// the block grid for a width x height frame.
func (c *common) setup(width, height int) (*cdef.Options, *cdef.BlockGrid) {
	if *c.verbose {
		cdef.SetLogger(slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	} else {
		cdef.SetLogger(nil)
	}
	if *c.noColor {
		c.progress.DisableColor()
	}
	grid := cdef.NewBlockGrid(width, height)
	grid.MarkTiles(*c.tilesX, *c.tilesY)
	return &cdef.Options{BaseQIndex: *c.q, ForceGeneric: *c.generic}, grid
}

// --- search ---

func runSearch(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(stderr)
	c := addCommon(fs, stderr)
	refPath := fs.String("ref", "", "source image the reconstruction is compared against (required)")
	mapPath := fs.String("map", "", "output strength map (default: <recon>.cdsm)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 || *refPath == "" {
		return errors.New("search: need -ref <source> and <recon>\nUsage: cdeftool search [options] -ref <source> <recon>")
	}
	reconPath := fs.Arg(0)
	if *mapPath == "" {
		*mapPath = trimExt(reconPath) + ".cdsm"
	}

	recon, err := loadFrame(reconPath)
	if err != nil {
		return err
	}
	source, err := loadFrame(*refPath)
	if err != nil {
		return err
	}
	if recon.Width != source.Width || recon.Height != source.Height {
		return fmt.Errorf("search: %s is %dx%d, %s is %dx%d",
			reconPath, recon.Width, recon.Height, *refPath, source.Width, source.Height)
	}

	opts, grid := c.setup(recon.Width, recon.Height)
	res, err := cdef.SearchStrengths(recon, source, grid, opts)
	if err != nil {
		return err
	}
	m, err := strengthmap.FromResult(res, grid.SuperblockRows(), grid.SuperblockCols())
	if err != nil {
		return err
	}
	if err := writeMap(*mapPath, m); err != nil {
		return err
	}

	c.progress.Fprintf(stdout, "Searched %s → %s\n", reconPath, *mapPath)
	fmt.Fprintf(stdout, "  base level %d, %dx%d superblocks\n", res.BaseLevel, m.Rows, m.Cols)
	fmt.Fprintf(stdout, "  luma SSE %d → %d\n", res.BaseSSE, res.BestSSE)
	return nil
}

func writeMap(path string, m *strengthmap.Map) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := m.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func readMap(path string) (*strengthmap.Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := strengthmap.Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// --- filter ---

func runFilter(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("filter", flag.ContinueOnError)
	fs.SetOutput(stderr)
	c := addCommon(fs, stderr)
	mapPath := fs.String("map", "", "strength map from the search command")
	luma := fs.String("luma", "20:2", `luma strength "level:lowpass" when no map is given`)
	chroma := fs.String("chroma", "0:0", `chroma strength "level:lowpass"`)
	refPath := fs.String("ref", "", "source image for a PSNR report")
	output := fs.String("o", "", "output PNG or JPEG (default: <recon>.cdef.png)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("filter: missing input file\nUsage: cdeftool filter [options] <recon>")
	}
	inputPath := fs.Arg(0)
	if *output == "" {
		*output = trimExt(inputPath) + ".cdef.png"
	}

	frame, err := loadFrame(inputPath)
	if err != nil {
		return err
	}
	opts, grid := c.setup(frame.Width, frame.Height)
	chromaStrength, err := parseStrength(*chroma)
	if err != nil {
		return fmt.Errorf("filter: -chroma: %w", err)
	}
	opts.ChromaStrengths = cdef.StrengthTable{chromaStrength}
	if *mapPath != "" {
		m, err := readMap(*mapPath)
		if err != nil {
			return err
		}
		if err := m.Apply(grid); err != nil {
			return fmt.Errorf("filter: %s: %w", *mapPath, err)
		}
		opts.LumaStrengths = m.Table()
		// Map indices select the chroma entry too.
		opts.ChromaStrengths = cdef.StrengthTable{chromaStrength, chromaStrength, chromaStrength, chromaStrength}
	} else {
		lumaStrength, err := parseStrength(*luma)
		if err != nil {
			return fmt.Errorf("filter: -luma: %w", err)
		}
		opts.LumaStrengths = cdef.StrengthTable{lumaStrength}
	}

	var before *cdef.Frame[uint8]
	if *refPath != "" {
		before = frame.Clone()
	}
	st, err := cdef.Filter(frame, grid, opts)
	if err != nil {
		return err
	}
	if err := saveFrame(*output, frame); err != nil {
		return err
	}

	c.progress.Fprintf(stdout, "Filtered %s → %s\n", inputPath, *output)
	fmt.Fprintf(stdout, "  %d of %d superblocks filtered\n", st.Filtered, st.Superblocks)
	if st.ChromaDisabled {
		color.New(color.FgYellow).Fprintln(stdout, "  chroma left unfiltered: unsupported subsampling")
	}
	if before != nil {
		source, err := loadFrame(*refPath)
		if err != nil {
			return err
		}
		p0, err := cdef.PSNR(before, source)
		if err != nil {
			return err
		}
		p1, err := cdef.PSNR(frame, source)
		if err != nil {
			return err
		}
		s0, err := cdef.SSIM(before, source)
		if err != nil {
			return err
		}
		s1, err := cdef.SSIM(frame, source)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "  luma PSNR %.2f dB → %.2f dB\n", p0, p1)
		fmt.Fprintf(stdout, "  luma SSIM %.4f → %.4f\n", s0, s1)
	}
	return nil
}

// parseStrength parses "level:lowpass" into a packed strength.
func parseStrength(s string) (int, error) {
	l, p, ok := strings.Cut(s, ":")
	if !ok {
		p = "0"
	}
	level, err := strconv.Atoi(l)
	if err != nil || level < 0 || level > 63 {
		return 0, fmt.Errorf("invalid level %q (must be 0-63)", l)
	}
	lowpass, err := strconv.Atoi(p)
	if err != nil || (lowpass != 0 && lowpass != 1 && lowpass != 2 && lowpass != 4) {
		return 0, fmt.Errorf("invalid low-pass strength %q (must be 0, 1, 2 or 4)", p)
	}
	return cdef.PackStrength(level, lowpass), nil
}

// --- info ---

func runInfo(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("info: missing map file\nUsage: cdeftool info <map.cdsm>")
	}
	name := fs.Arg(0)
	m, err := readMap(name)
	if err != nil {
		return err
	}
	var hist [4]int
	for _, idx := range m.Indices {
		hist[idx]++
	}
	table := m.Table()
	fmt.Fprintf(stdout, "File:        %s\n", name)
	fmt.Fprintf(stdout, "Superblocks: %d x %d\n", m.Cols, m.Rows)
	fmt.Fprintf(stdout, "Base level:  %d\n", m.BaseLevel)
	for gi, n := range hist {
		fmt.Fprintf(stdout, "  index %d (level %2d): %d\n", gi, table.Resolve(uint8(gi)).Level, n)
	}
	return nil
}

// --- images ---

func trimExt(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// loadFrame decodes an image file into an 8-bit frame. YCbCr images keep
// their subsampling; anything else is converted to 4:4:4.
func loadFrame(path string) (*cdef.Frame[uint8], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if yc, ok := img.(*image.YCbCr); ok {
		if frame, err := cdef.FromYCbCr(yc); err == nil {
			return frame, nil
		}
	}
	return cdef.FromYCbCr(toYCbCr444(img))
}

func toYCbCr444(img image.Image) *image.YCbCr {
	b := img.Bounds()
	out := image.NewYCbCr(image.Rect(0, 0, b.Dx(), b.Dy()), image.YCbCrSubsampleRatio444)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := imgcolor.YCbCrModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(imgcolor.YCbCr)
			out.Y[out.YOffset(x, y)] = c.Y
			out.Cb[out.COffset(x, y)] = c.Cb
			out.Cr[out.COffset(x, y)] = c.Cr
		}
	}
	return out
}

func saveFrame(path string, frame *cdef.Frame[uint8]) error {
	img, err := cdef.ToYCbCr(frame)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 95})
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
