package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iamasit07/tic-tac-toe/backend/internal/domain"
	"github.com/iamasit07/tic-tac-toe/backend/internal/transport/http/middleware"
	"github.com/rs/zerolog/log"
)

type HistoryRepository interface {
	GetUserGameHistory(ctx context.Context, userID int64, limit int) ([]domain.GameRecord, error)
	GetUserGame(ctx context.Context, userID int64, gameID string) (*domain.GameRecord, error)
}

type HistoryHandler struct {
	Games HistoryRepository
}

func NewHistoryHandler(games HistoryRepository) *HistoryHandler {
	return &HistoryHandler{Games: games}
}

type gameHistoryItem struct {
	ID            string    `json:"id"`
	Opponent      string    `json:"opponent"`
	BotDifficulty string    `json:"botDifficulty,omitempty"`
	AgainstBot    bool      `json:"againstBot"`
	PlayedAs      string    `json:"playedAs"`
	Result        string    `json:"result"`
	EndReason     string    `json:"endReason"`
	MovesCount    int       `json:"movesCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (h *HistoryHandler) GetHistory(c *gin.Context) {
	userID := c.GetInt64(middleware.UserIDKey)

	records, err := h.Games.GetUserGameHistory(c.Request.Context(), userID, queryLimit(c, 20, 100))
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("[HISTORY] Failed to fetch history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}

	history := make([]gameHistoryItem, 0, len(records))
	for _, rec := range records {
		history = append(history, gameHistoryItem{
			ID:            rec.GameID,
			Opponent:      rec.Opponent,
			BotDifficulty: rec.BotDifficulty,
			AgainstBot:    rec.AgainstBot(),
			PlayedAs:      rec.UserPlayer.Symbol(),
			Result:        rec.Result(),
			EndReason:     rec.Reason,
			MovesCount:    rec.TotalMoves,
			CreatedAt:     rec.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, history)
}

// GetGameDetails returns the user's side of one finished game. Games the
// user did not play are reported as missing.
func (h *HistoryHandler) GetGameDetails(c *gin.Context) {
	userID := c.GetInt64(middleware.UserIDKey)

	rec, err := h.Games.GetUserGame(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		log.Error().Err(err).Msg("[HISTORY] Failed to fetch game")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch game"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"game":   rec,
		"result": rec.Result(),
	})
}
