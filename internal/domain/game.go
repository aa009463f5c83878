package domain

type Game struct {
	Board         *Board
	CurrentPlayer PlayerID
	Status        GameStatus
	Winner        PlayerID
	MoveCount     int
	Moves         []int
}

func NewGame(size int) (*Game, error) {
	board, err := NewBoard(size)
	if err != nil {
		return nil, err
	}
	return &Game{
		Board:         board,
		CurrentPlayer: Player1,
		Status:        StatusActive,
		Winner:        Empty,
	}, nil
}

// MakeMove applies a move for player and advances the state machine.
// Won and draw are terminal: no further move is accepted.
func (g *Game) MakeMove(player PlayerID, index int) error {
	if g.IsFinished() {
		return ErrGameOver
	}
	if player != g.CurrentPlayer {
		return ErrNotYourTurn
	}

	if err := g.Board.Place(index, player); err != nil {
		return err
	}

	g.MoveCount++
	g.Moves = append(g.Moves, index)

	if winner := g.Board.Winner(); winner != Empty {
		g.Status = StatusWon
		g.Winner = winner
		return nil
	}

	if g.Board.IsFull() {
		g.Status = StatusDraw
		return nil
	}

	g.CurrentPlayer = g.CurrentPlayer.Opponent()
	return nil
}

func (g *Game) IsFinished() bool {
	return g.Status == StatusWon || g.Status == StatusDraw
}

// Forfeit ends an unfinished game with loser's opponent as the winner.
func (g *Game) Forfeit(loser PlayerID) error {
	if g.IsFinished() {
		return ErrGameOver
	}
	if !loser.IsPlayer() {
		return ErrInvalidPlayer
	}
	g.Status = StatusWon
	g.Winner = loser.Opponent()
	return nil
}
