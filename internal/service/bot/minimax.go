package bot

import (
	"math"

	"github.com/iamasit07/tic-tac-toe/backend/internal/domain"
)

const (
	SCORE_INF  = math.MaxInt32
	SCORE_DRAW = 0
	NO_MOVE    = -1
)

// searcher holds one exhaustive search pass. It mutates board in place and
// restores every cell it touches before returning.
type searcher struct {
	board    *domain.Board
	mover    domain.PlayerID // maximizer
	opponent domain.PlayerID // minimizer
	pruning  bool
	nodes    int
}

func (s *searcher) other(p domain.PlayerID) domain.PlayerID {
	if p == s.mover {
		return s.opponent
	}
	return s.mover
}

// terminalScore scores a finished position from the mover's side. Wins are
// weighted by empty cells left (+1) so earlier wins and later losses score
// better.
func (s *searcher) terminalScore(toMove domain.PlayerID) (int, bool) {
	justMoved := s.other(toMove)
	if s.board.Winner() == justMoved {
		k := s.board.CountEmpty() + 1
		if justMoved == s.mover {
			return k, true
		}
		return -k, true
	}
	if s.board.IsFull() {
		return SCORE_DRAW, true
	}
	return 0, false
}

// search returns the best cell for toMove and its score from the mover's side.
// Cells are tried in ascending order and only a strictly better score replaces
// the current best, so ties go to the lowest index.
func (s *searcher) search(toMove domain.PlayerID, alpha, beta int) (int, int, error) {
	s.nodes++

	if score, done := s.terminalScore(toMove); done {
		return NO_MOVE, score, nil
	}

	maximizing := toMove == s.mover
	bestMove := NO_MOVE
	bestScore := SCORE_INF
	if maximizing {
		bestScore = -SCORE_INF
	}

	for _, cell := range s.board.EmptyCells() {
		score, err := s.try(cell, toMove, alpha, beta)
		if err != nil {
			return NO_MOVE, 0, err
		}

		if maximizing {
			if score > bestScore {
				bestScore, bestMove = score, cell
			}
			alpha = max(alpha, bestScore)
		} else {
			if score < bestScore {
				bestScore, bestMove = score, cell
			}
			beta = min(beta, bestScore)
		}

		if s.pruning && beta <= alpha {
			break
		}
	}

	return bestMove, bestScore, nil
}

// try plays cell for player, scores the reply, and takes the move back on
// every exit path.
func (s *searcher) try(cell int, player domain.PlayerID, alpha, beta int) (int, error) {
	undo, err := s.board.Apply(cell, player)
	if err != nil {
		return 0, err
	}
	defer undo()

	_, score, err := s.search(s.other(player), alpha, beta)
	return score, err
}
