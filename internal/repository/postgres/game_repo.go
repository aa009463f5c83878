package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/iamasit07/tic-tac-toe/backend/internal/domain"
)

type GameRepo struct {
	DB *sql.DB
}

func NewGameRepo(db *sql.DB) *GameRepo {
	return &GameRepo{DB: db}
}

// SaveGame saves a finished game and updates player stats transactionally
func (r *GameRepo) SaveGame(ctx context.Context, rec domain.GameRecord) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer tx.Rollback()

	if err := r.updatePlayerStatsTx(ctx, tx, rec.UserID, rec.Result()); err != nil {
		return err
	}

	movesJSON, err := json.Marshal(rec.Moves)
	if err != nil {
		return fmt.Errorf("failed to marshal moves: %w", err)
	}
	boardJSON, err := json.Marshal(rec.Board)
	if err != nil {
		return fmt.Errorf("failed to marshal board state: %w", err)
	}

	// UPSERT so a retried save of the same game does not fail
	query := `
	INSERT INTO game (game_id, player_id, player_username, player_mark, opponent_id, opponent_name, bot_difficulty,
		board_size, winner, reason, moves, total_moves, duration_seconds, board_state, created_at, finished_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (game_id, player_id) DO UPDATE SET
		winner = EXCLUDED.winner,
		reason = EXCLUDED.reason,
		moves = EXCLUDED.moves,
		total_moves = EXCLUDED.total_moves,
		duration_seconds = EXCLUDED.duration_seconds,
		board_state = EXCLUDED.board_state,
		finished_at = EXCLUDED.finished_at;
	`

	var opponentID sql.NullInt64
	if !rec.AgainstBot() {
		opponentID = sql.NullInt64{Int64: rec.OpponentID, Valid: true}
	}

	_, err = tx.ExecContext(ctx, query, rec.GameID, rec.UserID, rec.Username, int(rec.UserPlayer),
		opponentID, rec.Opponent, rec.BotDifficulty, rec.BoardSize, int(rec.Winner), rec.Reason, movesJSON,
		rec.TotalMoves, rec.DurationSeconds, boardJSON, rec.CreatedAt, rec.FinishedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert game record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// updatePlayerStatsTx updates player stats within a transaction
func (r *GameRepo) updatePlayerStatsTx(ctx context.Context, tx *sql.Tx, userID int64, result string) error {
	query := `
	UPDATE players
	SET games_played = games_played + 1,
	    games_won = games_won + CASE WHEN $2::text = 'win' THEN 1 ELSE 0 END,
	    games_drawn = games_drawn + CASE WHEN $2::text = 'draw' THEN 1 ELSE 0 END
	WHERE id = $1;
	`
	_, err := tx.ExecContext(ctx, query, userID, result)
	if err != nil {
		return fmt.Errorf("failed to update player stats in transaction: %w", err)
	}
	return nil
}

const gameSelectFields = `game_id, player_id, player_username, player_mark, COALESCE(opponent_id, 0), opponent_name,
	bot_difficulty, board_size, winner, reason, moves, total_moves, duration_seconds, board_state, created_at, finished_at`

func scanGame(row interface{ Scan(dest ...any) error }) (*domain.GameRecord, error) {
	var rec domain.GameRecord
	var userMark, winner int
	var movesJSON, boardJSON []byte

	err := row.Scan(
		&rec.GameID,
		&rec.UserID,
		&rec.Username,
		&userMark,
		&rec.OpponentID,
		&rec.Opponent,
		&rec.BotDifficulty,
		&rec.BoardSize,
		&winner,
		&rec.Reason,
		&movesJSON,
		&rec.TotalMoves,
		&rec.DurationSeconds,
		&boardJSON,
		&rec.CreatedAt,
		&rec.FinishedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.UserPlayer = domain.PlayerID(userMark)
	rec.Winner = domain.PlayerID(winner)
	if err := json.Unmarshal(movesJSON, &rec.Moves); err != nil {
		return nil, fmt.Errorf("failed to unmarshal moves: %w", err)
	}
	if len(boardJSON) > 0 {
		if err := json.Unmarshal(boardJSON, &rec.Board); err != nil {
			return nil, fmt.Errorf("failed to unmarshal board state: %w", err)
		}
	}
	return &rec, nil
}

// GetUserGame retrieves the user's side of a game. A game the user did not
// play returns nil, nil.
func (r *GameRepo) GetUserGame(ctx context.Context, userID int64, gameID string) (*domain.GameRecord, error) {
	query := `SELECT ` + gameSelectFields + ` FROM game WHERE game_id = $1 AND player_id = $2;`

	rec, err := scanGame(r.DB.QueryRowContext(ctx, query, gameID, userID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game by ID: %w", err)
	}
	return rec, nil
}

// GetUserGameHistory retrieves the user's games, newest first
func (r *GameRepo) GetUserGameHistory(ctx context.Context, userID int64, limit int) ([]domain.GameRecord, error) {
	query := `SELECT ` + gameSelectFields + ` FROM game
	WHERE player_id = $1
	ORDER BY finished_at DESC
	LIMIT $2;`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query game history: %w", err)
	}
	defer rows.Close()

	games := make([]domain.GameRecord, 0)
	for rows.Next() {
		rec, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", err)
		}
		games = append(games, *rec)
	}
	return games, rows.Err()
}
