package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iamasit07/tic-tac-toe/backend/internal/domain"
	"github.com/iamasit07/tic-tac-toe/backend/internal/service/game"
)

type LiveGames interface {
	LiveGames() []game.Snapshot
	GetSnapshot(ctx context.Context, gameID string) (*game.Snapshot, error)
}

// GamesHandler serves in-progress games for spectators.
type GamesHandler struct {
	Sessions LiveGames
}

func NewGamesHandler(sessions LiveGames) *GamesHandler {
	return &GamesHandler{Sessions: sessions}
}

func (h *GamesHandler) GetLiveGames(c *gin.Context) {
	c.JSON(http.StatusOK, h.Sessions.LiveGames())
}

func (h *GamesHandler) GetGame(c *gin.Context) {
	snap, err := h.Sessions.GetSnapshot(c.Request.Context(), c.Param("id"))
	if errors.Is(err, domain.ErrGameNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load game"})
		return
	}
	c.JSON(http.StatusOK, snap)
}
