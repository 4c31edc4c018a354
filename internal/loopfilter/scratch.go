package loopfilter

import (
	"fmt"

	"github.com/deepteams/cdef/internal/dsp"
	"github.com/deepteams/cdef/internal/modeinfo"
	"github.com/deepteams/cdef/internal/pool"
)

const (
	// tileStride is the row pitch of a superblock output tile.
	tileStride = dsp.BlockMax
	tileSize   = tileStride * dsp.BlockMax

	// colCacheRows covers a superblock plus its top and bottom borders.
	colCacheRows = dsp.BlockMax + 2*dsp.FiltBorder
)

// maxPlanes is the number of planes a frame can carry.
const maxPlanes = 3

// scratch owns every buffer of one filter pass. Nothing in it is shared
// between concurrent passes.
type scratch struct {
	window []uint16 // filter window, dsp.WindowStride pitch
	tile   []uint16 // filtered superblock, tileStride pitch
	ref    []uint16 // source superblock for the search, tileStride pitch

	lineStride int
	lineBuf    [maxPlanes][]uint16 // bottom rows of two superblock rows, see lines
	lineFlip   int
	colBuf     [maxPlanes][]uint16 // right columns of the previous superblock

	rowFlags []bool // previous and current row flags, see rowFlagPair

	dlist []modeinfo.BlockPos
	dirs  [modeinfo.SBSizeMI][modeinfo.SBSizeMI]int
	vars  [modeinfo.SBSizeMI][modeinfo.SBSizeMI]int
}

// acquireScratch takes the buffers for a pass over a frame nhsb
// superblocks wide whose widest plane row holds lineStride samples.
// A failed allocation is returned as ErrScratch; buffers already taken
// are released.
func acquireScratch(nplanes, nhsb, lineStride int, search bool) (s *scratch, err error) {
	s = &scratch{lineStride: lineStride}
	defer func() {
		if r := recover(); r != nil {
			s.release()
			s, err = nil, fmt.Errorf("%w: %v", ErrScratch, r)
		}
	}()
	if nhsb <= 0 || lineStride <= 0 {
		panic(fmt.Sprintf("empty frame geometry %d superblocks, stride %d", nhsb, lineStride))
	}

	s.window = pool.Uint16.Get(dsp.WindowSize)
	s.tile = pool.Uint16.Get(tileSize)
	if search {
		s.ref = pool.Uint16.Get(tileSize)
	} else {
		for pli := 0; pli < nplanes; pli++ {
			s.lineBuf[pli] = pool.Uint16.Get(2 * dsp.FiltBorder * lineStride)
			s.colBuf[pli] = pool.Uint16.Get(colCacheRows * dsp.FiltBorder)
		}
		s.rowFlags = pool.Bool.Get(2 * (nhsb + 2))
	}
	s.dlist = make([]modeinfo.BlockPos, 0, modeinfo.MaxDeringBlocks)
	return s, nil
}

// release hands every buffer back to the pools.
func (s *scratch) release() {
	if s == nil {
		return
	}
	putUint16 := func(b *[]uint16) {
		if *b != nil {
			pool.Uint16.Put(*b)
			*b = nil
		}
	}
	putUint16(&s.window)
	putUint16(&s.tile)
	putUint16(&s.ref)
	for pli := range s.lineBuf {
		putUint16(&s.lineBuf[pli])
		putUint16(&s.colBuf[pli])
	}
	if s.rowFlags != nil {
		pool.Bool.Put(s.rowFlags)
		s.rowFlags = nil
	}
}

// rowFlagPair splits the flag storage into the previous and current rows.
// Both have one guard entry on each side so column -1 and nhsb are
// addressable; index with sbc+1. Guards stay true.
func (s *scratch) rowFlagPair(nhsb int) (prev, curr []bool) {
	for i := range s.rowFlags {
		s.rowFlags[i] = true
	}
	return s.rowFlags[:nhsb+2], s.rowFlags[nhsb+2 : 2*(nhsb+2)]
}

// lines returns the bottom rows saved by the previous superblock row and
// the buffer the current row saves into. Both hold dsp.FiltBorder rows of
// lineStride samples.
func (s *scratch) lines(pli int) (prev, curr []uint16) {
	n := dsp.FiltBorder * s.lineStride
	b := s.lineBuf[pli]
	if s.lineFlip != 0 {
		return b[n : 2*n], b[:n]
	}
	return b[:n], b[n : 2*n]
}

// swapLines makes the rows saved by the current superblock row visible to
// the next one.
func (s *scratch) swapLines() { s.lineFlip ^= 1 }

func fillUint16(b []uint16, v uint16) {
	for i := range b {
		b[i] = v
	}
}
