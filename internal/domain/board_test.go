package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	e = Empty
	x = Player1
	o = Player2
)

func mustBoard(t *testing.T, cells ...PlayerID) *Board {
	t.Helper()
	b, err := BoardFromCells(cells)
	require.NoError(t, err)
	return b
}

func TestNewBoard(t *testing.T) {
	t.Run("standard board is empty", func(t *testing.T) {
		b := NewStandardBoard()
		require.Equal(t, 3, b.Size())
		require.Equal(t, 9, b.Len())
		require.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, b.EmptyCells())
		require.False(t, b.IsFull())
		require.Equal(t, Empty, b.Winner())
	})

	t.Run("rejects non-positive size", func(t *testing.T) {
		_, err := NewBoard(0)
		require.ErrorIs(t, err, ErrInvalidBoardSize)
	})

	t.Run("rejects non-square cell count", func(t *testing.T) {
		_, err := BoardFromCells(make([]PlayerID, 8))
		require.ErrorIs(t, err, ErrInvalidBoardSize)
	})

	t.Run("rejects unknown cell values", func(t *testing.T) {
		_, err := BoardFromCells([]PlayerID{e, e, e, 7})
		require.ErrorIs(t, err, ErrInvalidCells)
	})
}

func TestBuildLines(t *testing.T) {
	lines := buildLines(3)
	require.Len(t, lines, 8)
	require.Equal(t, []int{0, 1, 2}, lines[0])
	require.Equal(t, []int{0, 3, 6}, lines[3])
	require.Equal(t, []int{0, 4, 8}, lines[6])
	require.Equal(t, []int{2, 4, 6}, lines[7])

	require.Len(t, buildLines(4), 10)
}

func TestPlaceAndUndo(t *testing.T) {
	t.Run("place marks the cell without checking for a win", func(t *testing.T) {
		b := mustBoard(t, x, x, e, o, o, e, e, e, e)
		require.NoError(t, b.Place(2, x))
		require.Equal(t, x, b.Cell(2))
		require.Equal(t, []int{5, 6, 7, 8}, b.EmptyCells())
	})

	t.Run("occupied cell fails without mutation", func(t *testing.T) {
		b := mustBoard(t, x, e, e, e, e, e, e, e, e)
		before := b.Clone()
		err := b.Place(0, o)
		require.ErrorIs(t, err, ErrOccupiedCell)
		require.True(t, b.Equal(before))
	})

	t.Run("out of range and invalid player", func(t *testing.T) {
		b := NewStandardBoard()
		require.ErrorIs(t, b.Place(9, x), ErrCellOutOfRange)
		require.ErrorIs(t, b.Place(-1, x), ErrCellOutOfRange)
		require.ErrorIs(t, b.Place(0, Empty), ErrInvalidPlayer)
	})

	t.Run("apply returns a release that restores the cell", func(t *testing.T) {
		b := NewStandardBoard()
		undo, err := b.Apply(4, o)
		require.NoError(t, err)
		require.Equal(t, o, b.Cell(4))
		undo()
		require.True(t, b.Equal(NewStandardBoard()))
	})
}

func TestWinner(t *testing.T) {
	tests := []struct {
		name  string
		cells []PlayerID
		want  PlayerID
		line  []int
	}{
		{"row", []PlayerID{o, o, e, x, x, x, e, e, e}, x, []int{3, 4, 5}},
		{"column", []PlayerID{o, x, e, o, x, e, o, e, x}, o, []int{0, 3, 6}},
		{"diagonal", []PlayerID{x, o, e, o, x, e, e, e, x}, x, []int{0, 4, 8}},
		{"anti diagonal", []PlayerID{x, x, o, e, o, e, o, x, e}, o, []int{2, 4, 6}},
		{"no winner on a full board", []PlayerID{x, o, x, x, o, o, o, x, x}, Empty, nil},
		{"no winner in progress", []PlayerID{x, o, e, e, e, e, e, e, e}, Empty, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := mustBoard(t, tt.cells...)
			require.Equal(t, tt.want, b.Winner())
			require.Equal(t, tt.line, b.WinningLine())
		})
	}

	t.Run("4x4 needs a full line", func(t *testing.T) {
		b, err := NewBoard(4)
		require.NoError(t, err)
		for _, i := range []int{0, 5, 10} {
			require.NoError(t, b.Place(i, x))
		}
		require.Equal(t, Empty, b.Winner())
		require.NoError(t, b.Place(15, x))
		require.Equal(t, x, b.Winner())
	})
}

func TestIsFull(t *testing.T) {
	b := mustBoard(t, x, o, x, x, o, o, o, x, x)
	require.True(t, b.IsFull())
	require.Empty(t, b.EmptyCells())
}

func TestOpeningCells(t *testing.T) {
	require.Equal(t, []int{0, 2, 4, 6, 8}, OpeningCells(3))
	require.Equal(t, []int{0, 3, 12, 15}, OpeningCells(4))
	require.Equal(t, []int{0}, OpeningCells(1))
}

func TestBoardString(t *testing.T) {
	b := mustBoard(t, x, o, e, e, x, e, e, e, o)
	require.Equal(t, "X O .\n. X .\n. . O", b.String())
	require.Equal(t, [][]int{{1, 2, 0}, {0, 1, 0}, {0, 0, 2}}, b.Rows())
}
