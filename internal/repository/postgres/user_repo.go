package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/iamasit07/tic-tac-toe/backend/internal/domain"
	"github.com/lib/pq"
)

type UserRepo struct {
	DB *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

type PlayerStats struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Wins     int    `json:"wins"`
	Draws    int    `json:"draws"`
	Losses   int    `json:"losses"`
}

// CreateUser creates a new user with a hashed password. A duplicate
// username yields domain.ErrUsernameTaken.
func (r *UserRepo) CreateUser(username, passwordHash string) (int64, error) {
	query := `
	INSERT INTO players (username, password_hash)
	VALUES ($1, $2)
	RETURNING id;
	`
	var userID int64
	err := r.DB.QueryRow(query, username, passwordHash).Scan(&userID)
	if err != nil {
		return 0, createUserError(err)
	}
	return userID, nil
}

// CreateGoogleUser creates an account linked to a Google ID. The account has
// no password and can only sign in through Google.
func (r *UserRepo) CreateGoogleUser(username, googleID string) (int64, error) {
	query := `
	INSERT INTO players (username, google_id)
	VALUES ($1, $2)
	RETURNING id;
	`
	var userID int64
	err := r.DB.QueryRow(query, username, googleID).Scan(&userID)
	if err != nil {
		return 0, createUserError(err)
	}
	return userID, nil
}

func createUserError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == "players_username_key" {
		return domain.ErrUsernameTaken
	}
	return fmt.Errorf("failed to create user: %w", err)
}

// scanUser is a helper that scans a row into a User struct
func scanUser(row interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.GoogleID,
		&user.GamesPlayed,
		&user.GamesWon,
		&user.GamesDrawn,
		&user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

const userSelectFields = `id, username, password_hash, COALESCE(google_id, ''), games_played, games_won, games_drawn, created_at`

// GetUserByUsername retrieves a user by username
func (r *UserRepo) GetUserByUsername(username string) (*domain.User, error) {
	query := `SELECT ` + userSelectFields + ` FROM players WHERE username = $1;`
	user, err := scanUser(r.DB.QueryRow(query, username))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepo) GetUserByID(userID int64) (*domain.User, error) {
	query := `SELECT ` + userSelectFields + ` FROM players WHERE id = $1;`
	user, err := scanUser(r.DB.QueryRow(query, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetUserByGoogleID retrieves the user linked to a Google account
func (r *UserRepo) GetUserByGoogleID(googleID string) (*domain.User, error) {
	query := `SELECT ` + userSelectFields + ` FROM players WHERE google_id = $1;`
	user, err := scanUser(r.DB.QueryRow(query, googleID))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *UserRepo) GetLeaderboard(limit int) ([]PlayerStats, error) {
	query := `
	SELECT
		ROW_NUMBER() OVER (ORDER BY games_won DESC, games_drawn DESC, username ASC) AS rank,
		username,
		games_won,
		games_drawn,
		games_played - games_won - games_drawn AS losses
	FROM players
	ORDER BY games_won DESC, games_drawn DESC, username ASC
	LIMIT $1;
	`

	rows, err := r.DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	leaderboard := make([]PlayerStats, 0)
	for rows.Next() {
		var stats PlayerStats
		if err := rows.Scan(&stats.Rank, &stats.Username, &stats.Wins, &stats.Draws, &stats.Losses); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		leaderboard = append(leaderboard, stats)
	}

	return leaderboard, rows.Err()
}
