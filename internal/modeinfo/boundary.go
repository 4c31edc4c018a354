package modeinfo

// MarkFrameEdges sets the boundary bits of every unit on the frame border.
func (g *Grid) MarkFrameEdges() {
	for c := 0; c < g.Cols; c++ {
		g.At(0, c).Boundary |= BoundaryAbove
		g.At(g.Rows-1, c).Boundary |= BoundaryBelow
	}
	for r := 0; r < g.Rows; r++ {
		g.At(r, 0).Boundary |= BoundaryLeft
		g.At(r, g.Cols-1).Boundary |= BoundaryRight
	}
}

// TileStarts splits n superblocks into tiles with uniform spacing and returns
// the first superblock of each tile followed by n.
func TileStarts(n, tiles int) []int {
	tiles = max(1, min(tiles, n))
	starts := make([]int, tiles+1)
	for i := 0; i <= tiles; i++ {
		starts[i] = i * n / tiles
	}
	return starts
}

// MarkTiles partitions the frame into tileCols x tileRows tiles aligned to
// superblocks and sets the boundary bits along every tile edge, the frame
// border included.
func (g *Grid) MarkTiles(tileCols, tileRows int) {
	g.MarkFrameEdges()
	for _, sbc := range TileStarts(g.SuperblockCols(), tileCols) {
		c := sbc * SBSizeMI
		if c <= 0 || c >= g.Cols {
			continue
		}
		for r := 0; r < g.Rows; r++ {
			g.At(r, c-1).Boundary |= BoundaryRight
			g.At(r, c).Boundary |= BoundaryLeft
		}
	}
	for _, sbr := range TileStarts(g.SuperblockRows(), tileRows) {
		r := sbr * SBSizeMI
		if r <= 0 || r >= g.Rows {
			continue
		}
		for c := 0; c < g.Cols; c++ {
			g.At(r-1, c).Boundary |= BoundaryBelow
			g.At(r, c).Boundary |= BoundaryAbove
		}
	}
}
