package domain

import "time"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	GoogleID     string    `json:"-"`
	GamesPlayed  int       `json:"gamesPlayed"`
	GamesWon     int       `json:"gamesWon"`
	GamesDrawn   int       `json:"gamesDrawn"`
	CreatedAt    time.Time `json:"createdAt"`
}

// GameRecord is a finished game as stored in the database, seen from one
// user's side. A game between two users is stored once per user.
type GameRecord struct {
	GameID          string    `json:"gameId"`
	UserID          int64     `json:"userId"`
	Username        string    `json:"username"`
	UserPlayer      PlayerID  `json:"userPlayer"`
	Opponent        string    `json:"opponent"`
	OpponentID      int64     `json:"opponentId,omitempty"` // 0 for the bot
	BotDifficulty   string    `json:"botDifficulty,omitempty"`
	BoardSize       int       `json:"boardSize"`
	Winner          PlayerID  `json:"winner"`
	Reason          string    `json:"reason"`
	Moves           []int     `json:"moves"`
	TotalMoves      int       `json:"totalMoves"`
	DurationSeconds int       `json:"durationSeconds"`
	CreatedAt       time.Time `json:"createdAt"`
	FinishedAt      time.Time `json:"finishedAt"`
	Board           [][]int   `json:"board,omitempty"`
}

func (r GameRecord) AgainstBot() bool {
	return r.OpponentID == 0
}

// Result classifies the game from the user's side: "win", "loss" or "draw".
func (r GameRecord) Result() string {
	switch r.Winner {
	case Empty:
		return "draw"
	case r.UserPlayer:
		return "win"
	default:
		return "loss"
	}
}
