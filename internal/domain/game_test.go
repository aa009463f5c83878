package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGameMakeMove(t *testing.T) {
	t.Run("players alternate starting with X", func(t *testing.T) {
		g, err := NewGame(StandardSize)
		require.NoError(t, err)
		require.Equal(t, Player1, g.CurrentPlayer)

		require.ErrorIs(t, g.MakeMove(Player2, 0), ErrNotYourTurn)
		require.NoError(t, g.MakeMove(Player1, 0))
		require.Equal(t, Player2, g.CurrentPlayer)
		require.Equal(t, 1, g.MoveCount)
		require.Equal(t, []int{0}, g.Moves)
	})

	t.Run("occupied cell keeps the turn", func(t *testing.T) {
		g, _ := NewGame(StandardSize)
		require.NoError(t, g.MakeMove(Player1, 4))
		require.ErrorIs(t, g.MakeMove(Player2, 4), ErrOccupiedCell)
		require.Equal(t, Player2, g.CurrentPlayer)
		require.Equal(t, 1, g.MoveCount)
	})

	t.Run("win is terminal", func(t *testing.T) {
		g, _ := NewGame(StandardSize)
		for i, cell := range []int{0, 3, 1, 4, 2} {
			player := Player1
			if i%2 == 1 {
				player = Player2
			}
			require.NoError(t, g.MakeMove(player, cell))
		}
		require.Equal(t, StatusWon, g.Status)
		require.Equal(t, Player1, g.Winner)
		require.True(t, g.IsFinished())
		require.ErrorIs(t, g.MakeMove(Player2, 5), ErrGameOver)
	})

	t.Run("full board without a line is a draw", func(t *testing.T) {
		g, _ := NewGame(StandardSize)
		// X O X / X O O / O X X
		for i, cell := range []int{0, 1, 2, 4, 3, 5, 7, 6, 8} {
			player := Player1
			if i%2 == 1 {
				player = Player2
			}
			require.NoError(t, g.MakeMove(player, cell))
		}
		require.Equal(t, StatusDraw, g.Status)
		require.Equal(t, Empty, g.Winner)
	})
}

func TestGameForfeit(t *testing.T) {
	g, _ := NewGame(StandardSize)
	require.NoError(t, g.MakeMove(Player1, 4))

	require.ErrorIs(t, g.Forfeit(Empty), ErrInvalidPlayer)
	require.NoError(t, g.Forfeit(Player2))
	require.Equal(t, StatusWon, g.Status)
	require.Equal(t, Player1, g.Winner)
	require.ErrorIs(t, g.Forfeit(Player1), ErrGameOver)
}
