package domain

var BotNames = map[string]string{
	"easy":   "Alice",
	"medium": "Bob",
	"hard":   "Charles",
}

func GetBotName(difficulty string) string {
	if name, ok := BotNames[difficulty]; ok {
		return name
	}
	return "BOT"
}

func IsBotName(username string) bool {
	if username == "BOT" {
		return true
	}
	for _, name := range BotNames {
		if username == name {
			return true
		}
	}
	return false
}

type PlayerID int

const (
	Empty   PlayerID = 0
	Player1 PlayerID = 1 // X, always moves first
	Player2 PlayerID = 2 // O
)

// StandardSize is the side of the classic 3x3 board.
const StandardSize = 3

// IsPlayer reports whether p is one of the two players (not Empty).
func (p PlayerID) IsPlayer() bool {
	return p == Player1 || p == Player2
}

// Opponent returns the other player. Empty maps to Empty.
func (p PlayerID) Opponent() PlayerID {
	switch p {
	case Player1:
		return Player2
	case Player2:
		return Player1
	default:
		return Empty
	}
}

func (p PlayerID) Symbol() string {
	switch p {
	case Player1:
		return "X"
	case Player2:
		return "O"
	default:
		return "."
	}
}

// ParseSymbol maps "X"/"O" (any case) to a player.
func ParseSymbol(s string) (PlayerID, bool) {
	switch s {
	case "X", "x":
		return Player1, true
	case "O", "o":
		return Player2, true
	}
	return Empty, false
}

// to represent the game status
type GameStatus string

const (
	StatusActive GameStatus = "active"
	StatusWon    GameStatus = "won"
	StatusDraw   GameStatus = "draw"
)

// basic errors that can occur
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrOccupiedCell      Error = "cell is already occupied"
	ErrNoLegalMove       Error = "no legal move available"
	ErrCellOutOfRange    Error = "cell index out of range"
	ErrInvalidPlayer     Error = "invalid player"
	ErrInvalidPlayers    Error = "mover and opponent must be two distinct players"
	ErrInvalidBoardSize  Error = "invalid board size"
	ErrInvalidCells      Error = "invalid board cells"
	ErrGameOver          Error = "game is already over"
	ErrNotYourTurn       Error = "not your turn"
	ErrUnknownDifficulty Error = "unknown difficulty"

	ErrUsernameTaken      Error = "username already taken"
	ErrInvalidUsername    Error = "username must be 3-30 characters and not a bot name"
	ErrWeakPassword       Error = "password too weak"
	ErrInvalidCredentials Error = "invalid credentials"
	ErrSessionRevoked     Error = "session has been revoked"
	ErrGameNotFound       Error = "game not found"
	ErrNoActiveGame       Error = "no active game"
	ErrGameInProgress     Error = "game still in progress"
	ErrInvalidMatch       Error = "a match needs two different users"
	ErrOpponentLeft       Error = "opponent has left the game"
)
