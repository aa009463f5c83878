package matchmaking

import (
	"context"

	"github.com/iamasit07/tic-tac-toe/backend/internal/domain"
	"github.com/iamasit07/tic-tac-toe/backend/internal/service/bot"
	"github.com/iamasit07/tic-tac-toe/backend/internal/service/game"
	"github.com/rs/zerolog/log"
)

type SessionStarter interface {
	StartMatch(player1, player2 game.Seat) (*game.GameSession, error)
	StartGame(userID int64, username string, difficulty bot.Difficulty, playAs domain.PlayerID) (*game.GameSession, error)
}

// Listen starts a game for every match until ctx is done. Users who timed
// out waiting play the bot at the fallback difficulty.
func Listen(ctx context.Context, queue *Queue, sessions SessionStarter, fallback bot.Difficulty) {
	for {
		select {
		case <-ctx.Done():
			return
		case match := <-queue.Matches():
			var (
				session *game.GameSession
				err     error
			)
			if match.Player2 == nil {
				session, err = sessions.StartGame(match.Player1.UserID, match.Player1.Username, fallback, domain.Player1)
			} else {
				session, err = sessions.StartMatch(match.Player1, *match.Player2)
			}
			if err != nil {
				log.Error().Err(err).Int64("user_id", match.Player1.UserID).Msg("[MATCHMAKING] Failed to start match")
				continue
			}
			log.Info().Str("game_id", session.GameID).Msg("[MATCHMAKING] Match started")
		}
	}
}
