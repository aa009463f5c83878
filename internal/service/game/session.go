package game

import (
	"sync"
	"time"

	"github.com/iamasit07/tic-tac-toe/backend/internal/domain"
	"github.com/iamasit07/tic-tac-toe/backend/internal/service/bot"
	"github.com/iamasit07/tic-tac-toe/backend/pkg/uid"
	"github.com/rs/zerolog/log"
)

const (
	REASON_LINE = "three_in_a_row"
	REASON_DRAW = "draw"
)

// Seat is one side of a game. A seat without a user is played by the bot.
type Seat struct {
	UserID   int64
	Username string
}

func (s Seat) IsBot() bool {
	return s.UserID == 0
}

// GameSession is one game, either a user against the bot or two users
// against each other. Seats never change after creation.
type GameSession struct {
	GameID     string
	Player1    Seat            // X
	Player2    Seat            // O
	BotPlayer  domain.PlayerID // Empty when both seats are users
	Difficulty bot.Difficulty
	Game       *domain.Game
	Reason     string
	CreatedAt  time.Time
	FinishedAt time.Time

	rematchRequester int64
	mu               sync.Mutex
	manager          *SessionManager
}

// Snapshot is the JSON view of a session used by the live game endpoints
// and the cache.
type Snapshot struct {
	GameID      string    `json:"gameId"`
	PlayerX     string    `json:"playerX"`
	PlayerO     string    `json:"playerO"`
	Difficulty  string    `json:"difficulty,omitempty"`
	Status      string    `json:"status"`
	CurrentTurn string    `json:"currentTurn,omitempty"`
	Winner      string    `json:"winner,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Board       [][]int   `json:"board"`
	Moves       []int     `json:"moves"`
	CreatedAt   time.Time `json:"createdAt"`
}

func newGameSession(sm *SessionManager, player1, player2 Seat, difficulty bot.Difficulty) (*GameSession, error) {
	g, err := domain.NewGame(domain.StandardSize)
	if err != nil {
		return nil, err
	}

	gs := &GameSession{
		GameID:     uid.GenerateGameID(),
		Player1:    player1,
		Player2:    player2,
		Difficulty: difficulty,
		Game:       g,
		CreatedAt:  time.Now(),
		manager:    sm,
	}
	switch {
	case player1.IsBot():
		gs.BotPlayer = domain.Player1
	case player2.IsBot():
		gs.BotPlayer = domain.Player2
	}
	return gs, nil
}

func (gs *GameSession) IsBotGame() bool {
	return gs.BotPlayer != domain.Empty
}

func (gs *GameSession) Seat(p domain.PlayerID) Seat {
	if p == domain.Player1 {
		return gs.Player1
	}
	return gs.Player2
}

// PlayerOf returns the mark the user plays in this game.
func (gs *GameSession) PlayerOf(userID int64) (domain.PlayerID, bool) {
	switch {
	case userID == 0:
		return domain.Empty, false
	case gs.Player1.UserID == userID:
		return domain.Player1, true
	case gs.Player2.UserID == userID:
		return domain.Player2, true
	}
	return domain.Empty, false
}

// userPlayers lists the marks played by users, X first.
func (gs *GameSession) userPlayers() []domain.PlayerID {
	players := make([]domain.PlayerID, 0, 2)
	for _, p := range []domain.PlayerID{domain.Player1, domain.Player2} {
		if !gs.Seat(p).IsBot() {
			players = append(players, p)
		}
	}
	return players
}

func (gs *GameSession) start() {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	for _, p := range gs.userPlayers() {
		gs.sendTo(gs.Seat(p).UserID, domain.ServerMessage{
			Type:        "game_start",
			GameID:      gs.GameID,
			Opponent:    gs.Seat(p.Opponent()).Username,
			YourPlayer:  int(p),
			CurrentTurn: int(gs.Game.CurrentPlayer),
			Board:       gs.Game.Board.Rows(),
		})
	}
	gs.manager.cacheSnapshot(gs.snapshotLocked(), ACTIVE_SNAPSHOT_TTL)

	if gs.botToMove() {
		gs.scheduleBotMove()
	}
}

func (gs *GameSession) HandleMove(userID int64, cell int) error {
	player, ok := gs.PlayerOf(userID)
	if !ok {
		return domain.ErrInvalidPlayer
	}

	gs.mu.Lock()
	defer gs.mu.Unlock()

	if err := gs.Game.MakeMove(player, cell); err != nil {
		return err
	}

	gs.afterMove(player, cell)
	if gs.botToMove() {
		gs.scheduleBotMove()
	}
	return nil
}

// HandleBotMove plays the bot's turn. It is a no-op unless the bot is to
// move in an unfinished game.
func (gs *GameSession) HandleBotMove() error {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	if !gs.botToMove() {
		return nil
	}

	cell, err := gs.manager.engine.BestMove(gs.Game.Board, gs.BotPlayer, gs.BotPlayer.Opponent(), gs.Difficulty)
	if err != nil {
		return err
	}
	if err := gs.Game.MakeMove(gs.BotPlayer, cell); err != nil {
		return err
	}

	gs.afterMove(gs.BotPlayer, cell)
	return nil
}

func (gs *GameSession) Hint(userID int64) (bot.Result, error) {
	player, ok := gs.PlayerOf(userID)
	if !ok {
		return bot.Result{}, domain.ErrInvalidPlayer
	}

	gs.mu.Lock()
	defer gs.mu.Unlock()

	if gs.Game.IsFinished() {
		return bot.Result{}, domain.ErrGameOver
	}
	if gs.Game.CurrentPlayer != player {
		return bot.Result{}, domain.ErrNotYourTurn
	}

	res, err := gs.manager.engine.Evaluate(gs.Game.Board, player, player.Opponent())
	if err != nil {
		return bot.Result{}, err
	}

	cell, score := res.Move, res.Score
	gs.sendTo(userID, domain.ServerMessage{
		Type:   "hint",
		GameID: gs.GameID,
		Cell:   &cell,
		Score:  &score,
	})
	return res, nil
}

func (gs *GameSession) Snapshot() Snapshot {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.snapshotLocked()
}

func (gs *GameSession) snapshotLocked() Snapshot {
	snap := Snapshot{
		GameID:    gs.GameID,
		PlayerX:   gs.Player1.Username,
		PlayerO:   gs.Player2.Username,
		Status:    string(gs.Game.Status),
		Reason:    gs.Reason,
		Board:     gs.Game.Board.Rows(),
		Moves:     append([]int{}, gs.Game.Moves...),
		CreatedAt: gs.CreatedAt,
	}
	if gs.IsBotGame() {
		snap.Difficulty = gs.Difficulty.String()
	}
	if gs.Game.IsFinished() {
		snap.Winner = gs.winnerName()
	} else {
		snap.CurrentTurn = gs.Game.CurrentPlayer.Symbol()
	}
	return snap
}

// abandon ends an unfinished game with the user's opponent as winner. It
// reports false if the user is not in the game or it was already over.
func (gs *GameSession) abandon(userID int64, reason string) bool {
	player, ok := gs.PlayerOf(userID)
	if !ok {
		return false
	}

	gs.mu.Lock()
	defer gs.mu.Unlock()

	if err := gs.Game.Forfeit(player); err != nil {
		return false
	}

	log.Info().Str("game_id", gs.GameID).Msgf("[TERMINATE] Game terminated by %s from %s", reason, gs.Seat(player).Username)
	gs.finish(reason)
	return true
}

// requestRematch records the user's rematch request in a game between two
// users. It reports true once both users have asked.
func (gs *GameSession) requestRematch(userID int64) (bool, error) {
	player, ok := gs.PlayerOf(userID)
	if !ok {
		return false, domain.ErrInvalidPlayer
	}

	gs.mu.Lock()
	defer gs.mu.Unlock()

	if !gs.Game.IsFinished() {
		return false, domain.ErrGameInProgress
	}
	if gs.rematchRequester != 0 && gs.rematchRequester != userID {
		gs.rematchRequester = 0
		return true, nil
	}

	gs.rematchRequester = userID
	gs.sendTo(gs.Seat(player.Opponent()).UserID, domain.ServerMessage{
		Type:    "rematch_requested",
		GameID:  gs.GameID,
		Message: gs.Seat(player).Username,
	})
	return false, nil
}

// botToMove reports whether the bot owns the next move. Caller holds gs.mu.
func (gs *GameSession) botToMove() bool {
	return gs.IsBotGame() && !gs.Game.IsFinished() && gs.Game.CurrentPlayer == gs.BotPlayer
}

func (gs *GameSession) scheduleBotMove() {
	time.AfterFunc(gs.manager.botDelay, func() {
		if err := gs.HandleBotMove(); err != nil {
			log.Error().Err(err).Str("game_id", gs.GameID).Msg("[BOT] Error handling bot move")
		}
	})
}

// afterMove broadcasts the move and finishes the game if it just ended.
// Caller holds gs.mu.
func (gs *GameSession) afterMove(player domain.PlayerID, cell int) {
	msg := domain.ServerMessage{
		Type:     "move_made",
		GameID:   gs.GameID,
		Cell:     &cell,
		Player:   int(player),
		Board:    gs.Game.Board.Rows(),
		NextTurn: int(gs.Game.CurrentPlayer),
	}
	if gs.Game.IsFinished() {
		msg.NextTurn = 0
	}
	gs.broadcast(msg)

	switch gs.Game.Status {
	case domain.StatusWon:
		gs.finish(REASON_LINE)
	case domain.StatusDraw:
		gs.finish(REASON_DRAW)
	default:
		gs.manager.cacheSnapshot(gs.snapshotLocked(), ACTIVE_SNAPSHOT_TTL)
	}
}

// finish announces the result and saves the game for every user in it.
// Caller holds gs.mu.
func (gs *GameSession) finish(reason string) {
	gs.FinishedAt = time.Now()
	gs.Reason = reason

	gs.broadcast(domain.ServerMessage{
		Type:        "game_over",
		GameID:      gs.GameID,
		Winner:      gs.winnerName(),
		Reason:      reason,
		Board:       gs.Game.Board.Rows(),
		WinningLine: gs.Game.Board.WinningLine(),
	})

	gs.manager.cacheSnapshot(gs.snapshotLocked(), FINISHED_SNAPSHOT_TTL)
	for _, p := range gs.userPlayers() {
		gs.manager.saveGameAsync(gs.record(p))
	}
}

func (gs *GameSession) winnerName() string {
	if gs.Game.Winner == domain.Empty {
		return "draw"
	}
	return gs.Seat(gs.Game.Winner).Username
}

// record is the game as seen by the user playing p.
func (gs *GameSession) record(p domain.PlayerID) domain.GameRecord {
	seat, opponent := gs.Seat(p), gs.Seat(p.Opponent())
	rec := domain.GameRecord{
		GameID:          gs.GameID,
		UserID:          seat.UserID,
		Username:        seat.Username,
		UserPlayer:      p,
		Opponent:        opponent.Username,
		OpponentID:      opponent.UserID,
		BoardSize:       gs.Game.Board.Size(),
		Winner:          gs.Game.Winner,
		Reason:          gs.Reason,
		Moves:           append([]int{}, gs.Game.Moves...),
		TotalMoves:      gs.Game.MoveCount,
		DurationSeconds: int(gs.FinishedAt.Sub(gs.CreatedAt).Seconds()),
		CreatedAt:       gs.CreatedAt,
		FinishedAt:      gs.FinishedAt,
		Board:           gs.Game.Board.Rows(),
	}
	if gs.IsBotGame() {
		rec.BotDifficulty = gs.Difficulty.String()
	}
	return rec
}

func (gs *GameSession) broadcast(msg domain.ServerMessage) {
	for _, p := range gs.userPlayers() {
		gs.sendTo(gs.Seat(p).UserID, msg)
	}
}

func (gs *GameSession) sendTo(userID int64, msg domain.ServerMessage) {
	if err := gs.manager.conn.SendMessage(userID, msg); err != nil {
		log.Debug().Err(err).Int64("user_id", userID).Msgf("[SESSION] Failed to send %s", msg.Type)
	}
}
