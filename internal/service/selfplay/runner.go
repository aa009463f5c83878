package selfplay

import (
	"context"
	"fmt"

	"github.com/iamasit07/tic-tac-toe/backend/internal/domain"
	"github.com/iamasit07/tic-tac-toe/backend/internal/repository/parquet"
	"github.com/iamasit07/tic-tac-toe/backend/internal/service/bot"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Games int
	X     bot.Difficulty
	O     bot.Difficulty
	RunID string // prefix of the game IDs; defaults to "<x>-<o>"
}

// GameID names the i-th game of a run. IDs depend only on the run, so a
// seeded engine reproduces the same rows.
func (c Config) GameID(i int) string {
	runID := c.RunID
	if runID == "" {
		runID = fmt.Sprintf("%s-%s", c.X, c.O)
	}
	return fmt.Sprintf("%s-%05d", runID, i)
}

type Summary struct {
	Games int `json:"games"`
	XWins int `json:"xWins"`
	OWins int `json:"oWins"`
	Draws int `json:"draws"`
}

func (s *Summary) add(winner domain.PlayerID) {
	s.Games++
	switch winner {
	case domain.Player1:
		s.XWins++
	case domain.Player2:
		s.OWins++
	default:
		s.Draws++
	}
}

// Runner plays the engine against itself, one difficulty per side.
type Runner struct {
	engine *bot.Engine
}

func NewRunner(engine *bot.Engine) *Runner {
	return &Runner{engine: engine}
}

// PlayGame plays one standard game and returns it with one row per ply.
func (r *Runner) PlayGame(gameID string, x, o bot.Difficulty) (*domain.Game, []parquet.MoveRow, error) {
	g, err := domain.NewGame(domain.StandardSize)
	if err != nil {
		return nil, nil, err
	}

	difficulty := map[domain.PlayerID]bot.Difficulty{domain.Player1: x, domain.Player2: o}
	var rows []parquet.MoveRow

	for !g.IsFinished() {
		player := g.CurrentPlayer
		before := toInt32(g.Board.Cells())

		cell, err := r.engine.BestMove(g.Board, player, player.Opponent(), difficulty[player])
		if err != nil {
			return nil, nil, fmt.Errorf("game %s ply %d: %w", gameID, g.MoveCount, err)
		}
		if err := g.MakeMove(player, cell); err != nil {
			return nil, nil, fmt.Errorf("game %s ply %d: %w", gameID, g.MoveCount, err)
		}

		rows = append(rows, parquet.MoveRow{
			GameID:     gameID,
			Ply:        int32(len(rows)),
			Player:     int32(player),
			Difficulty: difficulty[player].String(),
			BoardSize:  int32(g.Board.Size()),
			Board:      before,
			Cell:       int32(cell),
		})
	}

	for i := range rows {
		rows[i].Outcome = outcomeFor(domain.PlayerID(rows[i].Player), g.Winner)
	}
	return g, rows, nil
}

// Run plays cfg.Games games, stopping early if ctx is cancelled.
func (r *Runner) Run(ctx context.Context, cfg Config) (Summary, []parquet.MoveRow, error) {
	var summary Summary
	var all []parquet.MoveRow

	log.Info().Msgf("[SELFPLAY] starting %d games: X=%s vs O=%s", cfg.Games, cfg.X, cfg.O)
	for i := 0; i < cfg.Games; i++ {
		select {
		case <-ctx.Done():
			return summary, all, ctx.Err()
		default:
		}

		g, rows, err := r.PlayGame(cfg.GameID(i), cfg.X, cfg.O)
		if err != nil {
			return summary, all, err
		}
		summary.add(g.Winner)
		all = append(all, rows...)

		log.Debug().Msgf("[SELFPLAY] game %d of %d finished after %d moves, winner %s", i+1, cfg.Games, g.MoveCount, g.Winner.Symbol())
	}

	log.Info().Msgf("[SELFPLAY] completed: X wins %d, O wins %d, draws %d", summary.XWins, summary.OWins, summary.Draws)
	return summary, all, nil
}

func outcomeFor(player, winner domain.PlayerID) int32 {
	switch winner {
	case domain.Empty:
		return 0
	case player:
		return 1
	default:
		return -1
	}
}

func toInt32(cells []domain.PlayerID) []int32 {
	out := make([]int32, len(cells))
	for i, c := range cells {
		out[i] = int32(c)
	}
	return out
}
