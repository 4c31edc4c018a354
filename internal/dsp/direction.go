package dsp

// Direction search. Each direction groups the 64 samples of a block into
// lines; a direction scores the energy of its line sums, which is the
// explained variance once every sample is replaced by its line average.
// The total sum of squares is the same for every direction and is never
// computed.

// divTable[n] is 840/n so that line energies with different sample counts
// compare without a division.
var divTable = [9]int{0, 840, 420, 280, 210, 168, 140, 120, 105}

// directionCosts returns the scaled line energy of every direction for the
// 8x8 block at in[off]. Samples are reduced to 8 bits and centred on zero
// so the squared partial sums stay small.
func directionCosts(in []uint16, off, stride, coeffShift int) [NumDirections]int {
	var partial [NumDirections][15]int
	for i := 0; i < 8; i++ {
		row := in[off+i*stride : off+i*stride+8]
		for j := 0; j < 8; j++ {
			x := int(row[j]>>coeffShift) - 128
			partial[0][i+j] += x
			partial[1][i+j/2] += x
			partial[2][i] += x
			partial[3][3+i-j/2] += x
			partial[4][7+i-j] += x
			partial[5][3-i/2+j] += x
			partial[6][j] += x
			partial[7][i/2+j] += x
		}
	}
	return costsFromPartials(&partial)
}

func costsFromPartials(partial *[NumDirections][15]int) [NumDirections]int {
	var cost [NumDirections]int
	for i := 0; i < 8; i++ {
		cost[2] += partial[2][i] * partial[2][i]
		cost[6] += partial[6][i] * partial[6][i]
	}
	cost[2] *= divTable[8]
	cost[6] *= divTable[8]

	// Diagonals: 15 lines of 1..8 samples, symmetric around the longest.
	for i := 0; i < 7; i++ {
		cost[0] += (partial[0][i]*partial[0][i] + partial[0][14-i]*partial[0][14-i]) * divTable[i+1]
		cost[4] += (partial[4][i]*partial[4][i] + partial[4][14-i]*partial[4][14-i]) * divTable[i+1]
	}
	cost[0] += partial[0][7] * partial[0][7] * divTable[8]
	cost[4] += partial[4][7] * partial[4][7] * divTable[8]

	// Half-slope directions: 11 lines, the central five hold 8 samples.
	for i := 1; i < NumDirections; i += 2 {
		for j := 0; j < 5; j++ {
			cost[i] += partial[i][3+j] * partial[i][3+j]
		}
		cost[i] *= divTable[8]
		for j := 0; j < 3; j++ {
			cost[i] += (partial[i][j]*partial[i][j] + partial[i][10-j]*partial[i][10-j]) * divTable[2*j+2]
		}
	}
	return cost
}

// bestDirection picks the highest cost (first wins on ties) and scores it
// against the orthogonal direction. Dividing by 1024 instead of 840 is
// close enough for threshold adjustment.
func bestDirection(cost *[NumDirections]int) (dir, variance int) {
	best := 0
	for i := 0; i < NumDirections; i++ {
		if cost[i] > best {
			best = cost[i]
			dir = i
		}
	}
	return dir, (best - cost[(dir+4)&7]) >> 10
}

// findDirection returns the dominant orientation of the 8x8 block at
// in[off]: 0 is 45 degrees up-right, 2 horizontal, 4 45 degrees down-right,
// 6 vertical, odd values lie in between.
func findDirection(in []uint16, off, stride, coeffShift int) (dir, variance int) {
	cost := directionCosts(in, off, stride, coeffShift)
	return bestDirection(&cost)
}
