package domain

import (
	"fmt"
	"math"
	"strings"
)

// Board is a square grid of cells stored row-major (index = row*size + col).
// A board is owned by a single goroutine at a time; it is not safe for
// concurrent mutation.
type Board struct {
	size  int
	cells []PlayerID
	lines [][]int
}

func NewBoard(size int) (*Board, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBoardSize, size)
	}
	return &Board{
		size:  size,
		cells: make([]PlayerID, size*size),
		lines: buildLines(size),
	}, nil
}

func NewStandardBoard() *Board {
	b, _ := NewBoard(StandardSize)
	return b
}

// BoardFromCells builds a board from a flat row-major slice. The length must be
// a perfect square and every value must be Empty, Player1 or Player2.
func BoardFromCells(cells []PlayerID) (*Board, error) {
	size := int(math.Round(math.Sqrt(float64(len(cells)))))
	if size < 1 || size*size != len(cells) {
		return nil, fmt.Errorf("%w: %d cells is not a square grid", ErrInvalidBoardSize, len(cells))
	}
	for i, c := range cells {
		if c != Empty && !c.IsPlayer() {
			return nil, fmt.Errorf("%w: cell %d has value %d", ErrInvalidCells, i, c)
		}
	}

	b, err := NewBoard(size)
	if err != nil {
		return nil, err
	}
	copy(b.cells, cells)
	return b, nil
}

func (b *Board) Size() int { return b.size }

func (b *Board) Len() int { return len(b.cells) }

func (b *Board) Cell(index int) PlayerID {
	return b.cells[index]
}

// Cells returns a copy of the cells.
func (b *Board) Cells() []PlayerID {
	out := make([]PlayerID, len(b.cells))
	copy(out, b.cells)
	return out
}

// EmptyCells lists empty cell indices in ascending order. The order defines
// search order and tie-breaking, so callers must not reorder it.
func (b *Board) EmptyCells() []int {
	empty := make([]int, 0, len(b.cells))
	for i, c := range b.cells {
		if c == Empty {
			empty = append(empty, i)
		}
	}
	return empty
}

func (b *Board) CountEmpty() int {
	return b.CountMarks(Empty)
}

func (b *Board) CountMarks(p PlayerID) int {
	n := 0
	for _, c := range b.cells {
		if c == p {
			n++
		}
	}
	return n
}

func (b *Board) IsFull() bool {
	for _, c := range b.cells {
		if c == Empty {
			return false
		}
	}
	return true
}

func (b *Board) IsValidMove(index int) bool {
	return index >= 0 && index < len(b.cells) && b.cells[index] == Empty
}

// Place marks a cell for player. It does not check for a win.
func (b *Board) Place(index int, player PlayerID) error {
	if index < 0 || index >= len(b.cells) {
		return fmt.Errorf("%w: %d", ErrCellOutOfRange, index)
	}
	if !player.IsPlayer() {
		return fmt.Errorf("%w: %d", ErrInvalidPlayer, player)
	}
	if b.cells[index] != Empty {
		return fmt.Errorf("%w: %d", ErrOccupiedCell, index)
	}
	b.cells[index] = player
	return nil
}

// Undo clears a cell previously set by Place. Clearing a cell that was not
// placed in the current simulation corrupts the board; this is not checked.
func (b *Board) Undo(index int) {
	b.cells[index] = Empty
}

// Apply places a mark and returns the func that takes it back.
func (b *Board) Apply(index int, player PlayerID) (func(), error) {
	if err := b.Place(index, player); err != nil {
		return nil, err
	}
	return func() { b.Undo(index) }, nil
}

// Winner returns the owner of the first fully owned line (rows, then columns,
// then diagonals) or Empty.
func (b *Board) Winner() PlayerID {
	for _, line := range b.lines {
		if owner := b.lineOwner(line); owner != Empty {
			return owner
		}
	}
	return Empty
}

// WinningLine returns the cells of the first fully owned line, or nil.
func (b *Board) WinningLine() []int {
	for _, line := range b.lines {
		if b.lineOwner(line) != Empty {
			out := make([]int, len(line))
			copy(out, line)
			return out
		}
	}
	return nil
}

func (b *Board) lineOwner(line []int) PlayerID {
	first := b.cells[line[0]]
	if first == Empty {
		return Empty
	}
	for _, idx := range line[1:] {
		if b.cells[idx] != first {
			return Empty
		}
	}
	return first
}

// this creates a deep copy of the cells; lines are read-only and shared
func (b *Board) Clone() *Board {
	return &Board{
		size:  b.size,
		cells: b.Cells(),
		lines: b.lines,
	}
}

func (b *Board) Equal(other *Board) bool {
	if other == nil || b.size != other.size {
		return false
	}
	for i := range b.cells {
		if b.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

// Rows returns the board as a 2D int grid, the shape sent to clients and stored in the database.
func (b *Board) Rows() [][]int {
	rows := make([][]int, b.size)
	for r := range rows {
		rows[r] = make([]int, b.size)
		for c := range rows[r] {
			rows[r][c] = int(b.cells[r*b.size+c])
		}
	}
	return rows
}

func (b *Board) String() string {
	var sb strings.Builder
	for r := 0; r < b.size; r++ {
		for c := 0; c < b.size; c++ {
			if c > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(b.cells[r*b.size+c].Symbol())
		}
		if r < b.size-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}
