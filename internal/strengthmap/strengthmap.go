// Package strengthmap stores searched deringing strengths next to a
// reconstruction so a later filter pass can reuse them.
//
// A map file starts with a fixed 16-byte header:
//
//	0  magic "CDSM"
//	4  format version
//	5  frame baseline level
//	6  reserved, zero
//	8  superblock rows, little-endian uint32
//	12 superblock columns, little-endian uint32
//
// followed by an LZ4 frame holding one refinement index per superblock in
// raster order.
package strengthmap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"

	"github.com/deepteams/cdef/internal/loopfilter"
	"github.com/deepteams/cdef/internal/modeinfo"
	"github.com/deepteams/cdef/internal/pool"
)

const (
	// Version is the format version written by Write.
	Version = 1

	headerSize = 16

	// maxDim bounds the superblock grid accepted by Read: 65536 luma
	// samples on either side.
	maxDim = 1 << 10
)

var magic = [4]byte{'C', 'D', 'S', 'M'}

var (
	ErrFormat   = errors.New("strengthmap: not a strength map")
	ErrVersion  = errors.New("strengthmap: unsupported version")
	ErrTooLarge = errors.New("strengthmap: grid too large")
	ErrMismatch = errors.New("strengthmap: grid does not match map")
)

// Map holds the refinement index of every superblock of a frame.
type Map struct {
	Rows, Cols int // superblock grid
	BaseLevel  int
	Indices    []uint8
}

// FromResult captures a search result for a grid of rows x cols
// superblocks.
func FromResult(res loopfilter.SearchResult, rows, cols int) (*Map, error) {
	if len(res.Indices) != rows*cols {
		return nil, fmt.Errorf("%w: %d indices for %dx%d superblocks", ErrMismatch, len(res.Indices), rows, cols)
	}
	return &Map{
		Rows:      rows,
		Cols:      cols,
		BaseLevel: res.BaseLevel,
		Indices:   append([]uint8(nil), res.Indices...),
	}, nil
}

// Table returns the luma strength table the indices refer to.
func (m *Map) Table() loopfilter.StrengthTable {
	return loopfilter.FromSearch(m.BaseLevel)
}

// Apply stores the indices in the strength field of every superblock of g.
func (m *Map) Apply(g *modeinfo.Grid) error {
	if g.SuperblockRows() != m.Rows || g.SuperblockCols() != m.Cols {
		return fmt.Errorf("%w: grid has %dx%d superblocks, map %dx%d",
			ErrMismatch, g.SuperblockRows(), g.SuperblockCols(), m.Rows, m.Cols)
	}
	for sbr := 0; sbr < m.Rows; sbr++ {
		for sbc := 0; sbc < m.Cols; sbc++ {
			g.Superblock(sbr, sbc).Strength = m.Indices[sbr*m.Cols+sbc]
		}
	}
	return nil
}

func (m *Map) validate() error {
	if m.Rows <= 0 || m.Cols <= 0 || m.Rows > maxDim || m.Cols > maxDim {
		return fmt.Errorf("%w: %dx%d", ErrTooLarge, m.Rows, m.Cols)
	}
	if len(m.Indices) != m.Rows*m.Cols {
		return fmt.Errorf("%w: %d indices for %dx%d superblocks", ErrMismatch, len(m.Indices), m.Rows, m.Cols)
	}
	if m.BaseLevel < 0 || m.BaseLevel > loopfilter.MaxLevel {
		return fmt.Errorf("%w: baseline level %d", ErrFormat, m.BaseLevel)
	}
	for i, idx := range m.Indices {
		if idx >= loopfilter.RefinementLevels {
			return fmt.Errorf("%w: index %d at superblock %d", ErrFormat, idx, i)
		}
	}
	return nil
}

// Write encodes m to w.
func (m *Map) Write(w io.Writer) error {
	if err := m.validate(); err != nil {
		return err
	}
	var hdr [headerSize]byte
	copy(hdr[:4], magic[:])
	hdr[4] = Version
	hdr[5] = byte(m.BaseLevel)
	binary.LittleEndian.PutUint32(hdr[8:], uint32(m.Rows))
	binary.LittleEndian.PutUint32(hdr[12:], uint32(m.Cols))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}

	zw := lz4.NewWriter(w)
	if _, err := zw.Write(m.Indices); err != nil {
		return fmt.Errorf("strengthmap: compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("strengthmap: compress: %w", err)
	}
	return nil
}

// Read decodes a map from r.
func Read(r io.Reader) (*Map, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrFormat, err)
	}
	if !bytes.Equal(hdr[:4], magic[:]) {
		return nil, ErrFormat
	}
	if hdr[4] != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, hdr[4])
	}
	rows := binary.LittleEndian.Uint32(hdr[8:])
	cols := binary.LittleEndian.Uint32(hdr[12:])
	if rows == 0 || cols == 0 || rows > maxDim || cols > maxDim {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, rows, cols)
	}

	indices, err := readIndices(lz4.NewReader(r), int(rows)*int(cols))
	if err != nil {
		return nil, fmt.Errorf("%w: indices: %v", ErrFormat, err)
	}
	m := &Map{
		Rows:      int(rows),
		Cols:      int(cols),
		BaseLevel: int(hdr[5]),
		Indices:   indices,
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// readIndices reads exactly n indices from r. The result grows with the
// decompressed payload, so a header alone cannot force a large allocation.
func readIndices(r io.Reader, n int) ([]uint8, error) {
	chunk := pool.Bytes.Get(pool.Size4K)
	defer pool.Bytes.Put(chunk)

	lr := io.LimitReader(r, int64(n)+1)
	var out []uint8
	for {
		k, err := lr.Read(chunk)
		out = append(out, chunk[:k]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	if len(out) != n {
		return nil, fmt.Errorf("got %d indices, want %d", len(out), n)
	}
	return out, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (m *Map) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	if err := m.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (m *Map) UnmarshalBinary(data []byte) error {
	got, err := Read(bytes.NewReader(data))
	if err != nil {
		return err
	}
	*m = *got
	return nil
}
