package domain

// buildLines lists every maximal line of the grid in scan order:
// rows, then columns, then the main diagonal and the anti-diagonal.
// For size 3 that is exactly 8 lines.
func buildLines(size int) [][]int {
	lines := make([][]int, 0, 2*size+2)

	for r := 0; r < size; r++ {
		row := make([]int, size)
		for c := 0; c < size; c++ {
			row[c] = r*size + c
		}
		lines = append(lines, row)
	}

	for c := 0; c < size; c++ {
		col := make([]int, size)
		for r := 0; r < size; r++ {
			col[r] = r*size + c
		}
		lines = append(lines, col)
	}

	diag := make([]int, size)
	anti := make([]int, size)
	for i := 0; i < size; i++ {
		diag[i] = i*size + i
		anti[i] = i*size + (size - 1 - i)
	}
	lines = append(lines, diag, anti)

	return lines
}

// OpeningCells returns the corners and, for odd sizes, the centre, in
// ascending order. On an empty board these openings are equivalent under
// optimal play, so a bot may pick among them for variety.
func OpeningCells(size int) []int {
	if size == 1 {
		return []int{0}
	}
	last := size - 1
	cells := []int{0, last}
	if size%2 == 1 {
		cells = append(cells, (size/2)*size+size/2)
	}
	cells = append(cells, last*size, last*size+last)
	return cells
}
