// Package cdef implements the constrained directional enhancement stage of
// a block-based video codec: a directional deringing filter followed by a
// constrained low-pass filter, applied superblock by superblock to a
// reconstructed frame, plus the encoder search that picks a deringing
// strength per superblock.
//
// The package works on caller-owned planes of 8-bit (uint8) or 10/12-bit
// (uint16) samples and on a BlockGrid carrying, per 8x8 luma block, the
// skip flag, the tile/frame boundary bits and a strength index resolved
// through a StrengthTable.
//
// Decoder side:
//
//	grid := cdef.NewBlockGrid(w, h)
//	stats, err := cdef.Filter(frame, grid, &cdef.Options{
//		BaseQIndex:    120,
//		LumaStrengths: cdef.StrengthTable{cdef.PackStrength(20, 2)},
//	})
//
// Encoder side:
//
//	res, err := cdef.SearchStrengths(recon, source, grid, &cdef.Options{BaseQIndex: 120})
//	_, err = cdef.Filter(recon, grid, &cdef.Options{LumaStrengths: cdef.SearchTable(res.BaseLevel)})
//
// The package logs through log/slog and is silent until SetLogger is
// called.
package cdef
