package game

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/iamasit07/tic-tac-toe/backend/internal/domain"
	"github.com/iamasit07/tic-tac-toe/backend/internal/service/bot"
	"github.com/rs/zerolog/log"
)

const liveGameKeyPrefix = "live_game:"

const (
	ACTIVE_SNAPSHOT_TTL   = 24 * time.Hour
	FINISHED_SNAPSHOT_TTL = 1 * time.Hour
	FINISHED_SESSION_TTL  = 1 * time.Hour
	ACTIVE_SESSION_TTL    = 24 * time.Hour
	CACHE_WRITE_TIMEOUT   = 500 * time.Millisecond
)

type ConnectionManagerInterface interface {
	SendMessage(userID int64, message domain.ServerMessage) error
}

type GameRepository interface {
	SaveGame(ctx context.Context, rec domain.GameRecord) error
}

type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// BotEngine is the move-selection surface the sessions need.
type BotEngine interface {
	BestMove(board *domain.Board, mover, opponent domain.PlayerID, difficulty bot.Difficulty) (int, error)
	Evaluate(board *domain.Board, mover, opponent domain.PlayerID) (bot.Result, error)
}

// SessionManager owns every in-memory game, against the bot or between two
// users. A user has at most one session; starting a new game abandons the
// previous one.
type SessionManager struct {
	sessions   map[string]*GameSession // gameID → GameSession
	userToGame map[int64]string        // userID → gameID
	mu         sync.RWMutex

	engine   BotEngine
	conn     ConnectionManagerInterface
	repo     GameRepository  // Optional, can be nil
	cache    CacheRepository // Optional, can be nil
	botDelay time.Duration

	saves sync.WaitGroup
}

func NewSessionManager(engine BotEngine, conn ConnectionManagerInterface, repo GameRepository, cache CacheRepository, botDelay time.Duration) *SessionManager {
	return &SessionManager{
		sessions:   make(map[string]*GameSession),
		userToGame: make(map[int64]string),
		engine:     engine,
		conn:       conn,
		repo:       repo,
		cache:      cache,
		botDelay:   botDelay,
	}
}

// StartGame opens a game against the bot. playAs is the user's mark; when
// the user plays O the bot opens.
func (sm *SessionManager) StartGame(userID int64, username string, difficulty bot.Difficulty, playAs domain.PlayerID) (*GameSession, error) {
	if !playAs.IsPlayer() || userID == 0 {
		return nil, domain.ErrInvalidPlayer
	}

	user := Seat{UserID: userID, Username: username}
	botSeat := Seat{Username: domain.GetBotName(difficulty.String())}
	player1, player2 := user, botSeat
	if playAs == domain.Player2 {
		player1, player2 = botSeat, user
	}

	gs, err := newGameSession(sm, player1, player2, difficulty)
	if err != nil {
		return nil, err
	}
	sm.open(gs)

	log.Info().Str("game_id", gs.GameID).Int64("user_id", userID).
		Msgf("[SESSION] Created session: %s (%s) vs %s (%s)", username, playAs.Symbol(), botSeat.Username, difficulty)

	gs.start()
	return gs, nil
}

// StartMatch opens a game between two users. player1 plays X.
func (sm *SessionManager) StartMatch(player1, player2 Seat) (*GameSession, error) {
	if player1.IsBot() || player2.IsBot() || player1.UserID == player2.UserID {
		return nil, domain.ErrInvalidMatch
	}

	gs, err := newGameSession(sm, player1, player2, "")
	if err != nil {
		return nil, err
	}
	sm.open(gs)

	log.Info().Str("game_id", gs.GameID).
		Msgf("[SESSION] Created session: %s (ID: %d) vs %s (ID: %d)", player1.Username, player1.UserID, player2.Username, player2.UserID)

	gs.start()
	return gs, nil
}

// open registers the session for its users, abandoning any game they were
// still playing.
func (sm *SessionManager) open(gs *GameSession) {
	for _, p := range gs.userPlayers() {
		userID := gs.Seat(p).UserID
		if previous, ok := sm.GetSessionByUserID(userID); ok {
			previous.abandon(userID, "new_game")
			sm.RemoveSession(previous.GameID)
		}
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.sessions[gs.GameID] = gs
	for _, p := range gs.userPlayers() {
		sm.userToGame[gs.Seat(p).UserID] = gs.GameID
	}
}

func (sm *SessionManager) GetSessionByUserID(userID int64) (*GameSession, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	gameID, exists := sm.userToGame[userID]
	if !exists {
		return nil, false
	}
	session, exists := sm.sessions[gameID]
	return session, exists
}

func (sm *SessionManager) GetSessionByGameID(gameID string) (*GameSession, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.sessions[gameID]
	return session, exists
}

func (sm *SessionManager) RemoveSession(gameID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.removeSessionLocked(gameID)
}

// removeSessionLocked drops the session and the user mappings that still
// point at it. Caller holds sm.mu.
func (sm *SessionManager) removeSessionLocked(gameID string) {
	session, exists := sm.sessions[gameID]
	if !exists {
		return
	}
	for _, p := range session.userPlayers() {
		userID := session.Seat(p).UserID
		if sm.userToGame[userID] == gameID {
			delete(sm.userToGame, userID)
		}
	}
	delete(sm.sessions, gameID)
}

// HandleMove places the user's mark in their current game.
func (sm *SessionManager) HandleMove(userID int64, cell int) error {
	gs, ok := sm.GetSessionByUserID(userID)
	if !ok {
		return domain.ErrNoActiveGame
	}
	return gs.HandleMove(userID, cell)
}

// Hint evaluates the user's position with the optimal search and sends the
// suggested cell and its score to the user.
func (sm *SessionManager) Hint(userID int64) (bot.Result, error) {
	gs, ok := sm.GetSessionByUserID(userID)
	if !ok {
		return bot.Result{}, domain.ErrNoActiveGame
	}
	return gs.Hint(userID)
}

// Abandon ends the user's active game as a loss.
func (sm *SessionManager) Abandon(userID int64) error {
	gs, ok := sm.GetSessionByUserID(userID)
	if !ok {
		return domain.ErrNoActiveGame
	}
	if !gs.abandon(userID, "surrender") {
		return domain.ErrGameOver
	}
	return nil
}

// Rematch starts a fresh game once the current one is over. Against the bot
// the new game keeps the difficulty and side. Between two users both must
// ask; the first request returns a nil session and notifies the opponent,
// the second starts the game with sides swapped.
func (sm *SessionManager) Rematch(userID int64) (*GameSession, error) {
	gs, ok := sm.GetSessionByUserID(userID)
	if !ok {
		return nil, domain.ErrNoActiveGame
	}
	player, _ := gs.PlayerOf(userID)
	username := gs.Seat(player).Username

	if gs.IsBotGame() {
		gs.mu.Lock()
		finished := gs.Game.IsFinished()
		gs.mu.Unlock()

		if !finished {
			return nil, domain.ErrGameInProgress
		}
		log.Info().Str("game_id", gs.GameID).Msgf("[REMATCH] %s requested a rematch", username)
		return sm.StartGame(userID, username, gs.Difficulty, player)
	}

	if current, ok := sm.GetSessionByUserID(gs.Seat(player.Opponent()).UserID); !ok || current != gs {
		return nil, domain.ErrOpponentLeft
	}

	accepted, err := gs.requestRematch(userID)
	if err != nil || !accepted {
		return nil, err
	}

	log.Info().Str("game_id", gs.GameID).Msgf("[REMATCH] Rematch accepted by %s", username)
	return sm.StartMatch(gs.Player2, gs.Player1)
}

// HandleDisconnect abandons an unfinished game when the user's socket drops.
// A user who leaves a game against another user can no longer be asked for
// a rematch.
func (sm *SessionManager) HandleDisconnect(userID int64) {
	gs, ok := sm.GetSessionByUserID(userID)
	if !ok {
		return
	}
	if gs.abandon(userID, "disconnect") {
		log.Info().Str("game_id", gs.GameID).Int64("user_id", userID).Msg("[DISCONNECT] Game ended by abandonment")
	}
	if !gs.IsBotGame() {
		sm.mu.Lock()
		if sm.userToGame[userID] == gs.GameID {
			delete(sm.userToGame, userID)
		}
		sm.mu.Unlock()
	}
}

// LiveGames returns snapshots of all unfinished games.
func (sm *SessionManager) LiveGames() []Snapshot {
	sm.mu.RLock()
	sessions := make([]*GameSession, 0, len(sm.sessions))
	for _, gs := range sm.sessions {
		sessions = append(sessions, gs)
	}
	sm.mu.RUnlock()

	live := make([]Snapshot, 0, len(sessions))
	for _, gs := range sessions {
		snap := gs.Snapshot()
		if snap.Status == string(domain.StatusActive) {
			live = append(live, snap)
		}
	}
	return live
}

// GetSnapshot looks the game up in memory first, then in the cache, which
// survives a restart of this process.
func (sm *SessionManager) GetSnapshot(ctx context.Context, gameID string) (*Snapshot, error) {
	if gs, ok := sm.GetSessionByGameID(gameID); ok {
		snap := gs.Snapshot()
		return &snap, nil
	}
	if sm.cache == nil {
		return nil, domain.ErrGameNotFound
	}

	data, err := sm.cache.Get(ctx, liveGameKeyPrefix+gameID)
	if err != nil || data == "" {
		return nil, domain.ErrGameNotFound
	}

	var snap Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("failed to decode cached game %s: %w", gameID, err)
	}
	return &snap, nil
}

// CleanupOldSessions drops finished sessions after an hour and unfinished
// ones after a day.
func (sm *SessionManager) CleanupOldSessions() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	count := 0
	now := time.Now()

	for gameID, gs := range sm.sessions {
		gs.mu.Lock()
		stale := (gs.Game.IsFinished() && now.Sub(gs.FinishedAt) > FINISHED_SESSION_TTL) ||
			(!gs.Game.IsFinished() && now.Sub(gs.CreatedAt) > ACTIVE_SESSION_TTL)
		gs.mu.Unlock()

		if stale {
			sm.removeSessionLocked(gameID)
			count++
		}
	}

	if count > 0 {
		log.Info().Msgf("[SESSION] Memory cleanup: Removed %d stale game sessions", count)
	}
	return count
}

// Wait blocks until every pending game save has finished.
func (sm *SessionManager) Wait() {
	sm.saves.Wait()
}

// saveGameAsync persists the game in the background so game_over is not
// delayed by the database.
func (sm *SessionManager) saveGameAsync(rec domain.GameRecord) {
	if sm.repo == nil {
		return
	}
	sm.saves.Add(1)
	go func() {
		defer sm.saves.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := sm.repo.SaveGame(ctx, rec); err != nil {
			log.Error().Err(err).Str("game_id", rec.GameID).Msg("[GAME] Error saving game")
			return
		}
		log.Info().Str("game_id", rec.GameID).Msg("[GAME] Game saved successfully")
	}()
}

func (sm *SessionManager) cacheSnapshot(snap Snapshot, ttl time.Duration) {
	if sm.cache == nil {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), CACHE_WRITE_TIMEOUT)
	defer cancel()

	if err := sm.cache.Set(ctx, liveGameKeyPrefix+snap.GameID, data, ttl); err != nil {
		log.Warn().Err(err).Str("game_id", snap.GameID).Msg("[SESSION] Failed to cache game snapshot")
	}
}
