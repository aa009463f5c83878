package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iamasit07/tic-tac-toe/backend/internal/domain"
	"github.com/iamasit07/tic-tac-toe/backend/internal/service/bot"
)

type Analyzer interface {
	BestMove(board *domain.Board, mover, opponent domain.PlayerID, difficulty bot.Difficulty) (int, error)
	Evaluate(board *domain.Board, mover, opponent domain.PlayerID) (bot.Result, error)
}

// AnalyzeHandler runs the search on a position supplied by the client.
type AnalyzeHandler struct {
	Engine Analyzer
}

func NewAnalyzeHandler(engine Analyzer) *AnalyzeHandler {
	return &AnalyzeHandler{Engine: engine}
}

type analyzeRequest struct {
	// Cells holds 9 row-major values: 0 empty, 1 X, 2 O.
	Cells      []int  `json:"cells" binding:"required"`
	Mover      string `json:"mover" binding:"required"`
	Difficulty string `json:"difficulty"`
}

type analyzeResponse struct {
	Move       int     `json:"move"`
	Score      *int    `json:"score,omitempty"`
	Nodes      int     `json:"nodes,omitempty"`
	Difficulty string  `json:"difficulty,omitempty"`
	Board      [][]int `json:"board"`
}

// Analyze returns the optimal move and its score, or with a difficulty set,
// the move that tier's bot would play.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	mover, ok := domain.ParseSymbol(req.Mover)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mover must be X or O"})
		return
	}
	if len(req.Cells) != domain.StandardSize*domain.StandardSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrInvalidBoardSize.Error()})
		return
	}

	cells := make([]domain.PlayerID, len(req.Cells))
	for i, v := range req.Cells {
		cells[i] = domain.PlayerID(v)
	}
	board, err := domain.BoardFromCells(cells)
	if err != nil {
		respondSearchError(c, err)
		return
	}

	resp := analyzeResponse{Board: board.Rows()}
	if req.Difficulty != "" {
		move, err := h.Engine.BestMove(board, mover, mover.Opponent(), bot.Difficulty(req.Difficulty))
		if err != nil {
			respondSearchError(c, err)
			return
		}
		resp.Move = move
		resp.Difficulty = req.Difficulty
		c.JSON(http.StatusOK, resp)
		return
	}

	res, err := h.Engine.Evaluate(board, mover, mover.Opponent())
	if err != nil {
		respondSearchError(c, err)
		return
	}
	resp.Move, resp.Score, resp.Nodes = res.Move, &res.Score, res.Nodes
	c.JSON(http.StatusOK, resp)
}

func respondSearchError(c *gin.Context, err error) {
	var de domain.Error
	if errors.As(err, &de) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
}
