package modeinfo

// BlockPos addresses an 8x8 luma block (one mode unit) inside a superblock.
type BlockPos struct {
	By, Bx uint8
}

// MaxDeringBlocks bounds the length of a superblock's dering list.
const MaxDeringBlocks = SBSizeMI * SBSizeMI

// DeringList appends the position of every non-skip unit of superblock
// (sbr, sbc) to dst in raster order and returns the extended slice.
func (g *Grid) DeringList(sbr, sbc int, dst []BlockPos) []BlockPos {
	nvb, nhb := g.SuperblockSize(sbr, sbc)
	for r := 0; r < nvb; r++ {
		row := g.Records[(sbr*SBSizeMI+r)*g.Cols+sbc*SBSizeMI:]
		for c := 0; c < nhb; c++ {
			if !row[c].Skip {
				dst = append(dst, BlockPos{By: uint8(r), Bx: uint8(c)})
			}
		}
	}
	return dst
}
