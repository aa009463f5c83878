package bot

import (
	"testing"

	"github.com/iamasit07/tic-tac-toe/backend/internal/domain"
	"github.com/stretchr/testify/require"
)

const (
	e = domain.Empty
	x = domain.Player1
	o = domain.Player2
)

func newBoard(t *testing.T, cells ...domain.PlayerID) *domain.Board {
	t.Helper()
	b, err := domain.BoardFromCells(cells)
	require.NoError(t, err)
	return b
}

// sideToMove follows the alternating-turn invariant: X moves whenever the
// mark counts are equal.
func sideToMove(b *domain.Board) domain.PlayerID {
	if b.CountMarks(x) == b.CountMarks(o) {
		return x
	}
	return o
}

// forEachReachable visits every distinct non-terminal position reachable from
// an empty 3x3 board by legal alternating play.
func forEachReachable(visit func(b *domain.Board, toMove domain.PlayerID)) {
	seen := make(map[string]bool)
	var walk func(b *domain.Board, toMove domain.PlayerID)
	walk = func(b *domain.Board, toMove domain.PlayerID) {
		key := b.String()
		if seen[key] {
			return
		}
		seen[key] = true

		if b.Winner() != domain.Empty || b.IsFull() {
			return
		}
		visit(b, toMove)

		for _, cell := range b.EmptyCells() {
			child := b.Clone()
			_ = child.Place(cell, toMove)
			walk(child, toMove.Opponent())
		}
	}
	walk(domain.NewStandardBoard(), x)
}

func TestSearchDrawScoring(t *testing.T) {
	t.Run("full board without a line scores zero", func(t *testing.T) {
		b := newBoard(t, x, o, x, x, o, o, o, x, x)
		s := &searcher{board: b, mover: x, opponent: o, pruning: true}

		move, score, err := s.search(x, -SCORE_INF, SCORE_INF)
		require.NoError(t, err)
		require.Equal(t, NO_MOVE, move)
		require.Equal(t, SCORE_DRAW, score)
	})

	t.Run("last cell that completes a draw", func(t *testing.T) {
		b := newBoard(t, x, o, x, x, o, o, o, x, e)

		res, err := NewEngine().Evaluate(b, x, o)
		require.NoError(t, err)
		require.Equal(t, 8, res.Move)
		require.Equal(t, 0, res.Score)
	})
}

func TestSearchTerminalWeighting(t *testing.T) {
	t.Run("win by the mover is weighted by empty cells", func(t *testing.T) {
		// X just completed the top row with 4 empty cells left.
		b := newBoard(t, x, x, x, o, o, e, e, e, e)
		s := &searcher{board: b, mover: x, opponent: o}

		_, score, err := s.search(o, -SCORE_INF, SCORE_INF)
		require.NoError(t, err)
		require.Equal(t, 5, score)
	})

	t.Run("win by the opponent is negative", func(t *testing.T) {
		b := newBoard(t, x, x, e, o, o, o, x, e, e)
		s := &searcher{board: b, mover: x, opponent: o}

		_, score, err := s.search(x, -SCORE_INF, SCORE_INF)
		require.NoError(t, err)
		require.Equal(t, -4, score)
	})
}

func TestDepthPreference(t *testing.T) {
	// X O O
	// . X .
	// . . .
	// X wins at once on 8, or forks on 3 and wins two plies later.
	b := newBoard(t, x, o, o, e, x, e, e, e, e)

	res, err := NewEngine().Evaluate(b, x, o)
	require.NoError(t, err)
	require.Equal(t, 8, res.Move, "immediate win must beat the slower forced win")
	require.Equal(t, 5, res.Score)

	t.Run("the fork is also a forced win but scores lower", func(t *testing.T) {
		fork := b.Clone()
		require.NoError(t, fork.Place(3, x))

		res, err := NewEngine().Evaluate(fork, o, x)
		require.NoError(t, err)
		require.Equal(t, -3, res.Score)
	})
}

func TestPruningEquivalence(t *testing.T) {
	pruned := NewEngine()
	plain := NewEngine(WithoutPruning())

	positions := 0
	forEachReachable(func(b *domain.Board, toMove domain.PlayerID) {
		positions++
		before := b.Clone()

		want, err := plain.Evaluate(b, toMove, toMove.Opponent())
		require.NoError(t, err)
		require.True(t, b.Equal(before), "unpruned search changed the board:\n%s", b)

		got, err := pruned.Evaluate(b, toMove, toMove.Opponent())
		require.NoError(t, err)
		require.True(t, b.Equal(before), "pruned search changed the board:\n%s", b)

		require.Equal(t, want.Move, got.Move, "move differs on\n%s", b)
		require.Equal(t, want.Score, got.Score, "score differs on\n%s", b)
		require.LessOrEqual(t, got.Nodes, want.Nodes)
	})

	// 4520 distinct non-terminal positions are reachable in tic-tac-toe.
	require.Equal(t, 4520, positions)
}

func TestEmptyBoardSearch(t *testing.T) {
	res, err := NewEngine().Evaluate(domain.NewStandardBoard(), x, o)
	require.NoError(t, err)
	require.Equal(t, 0, res.Move, "all openings draw, so the lowest index wins the tie")
	require.Equal(t, 0, res.Score)

	plain, err := NewEngine(WithoutPruning()).Evaluate(domain.NewStandardBoard(), x, o)
	require.NoError(t, err)
	require.Equal(t, res.Move, plain.Move)
	require.Equal(t, 549946, plain.Nodes)
	require.Less(t, res.Nodes, plain.Nodes)
}
