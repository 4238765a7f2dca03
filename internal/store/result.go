package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Result is one finished game.
type Result struct {
	ID    string `json:"id"`
	Score int    `json:"score"`
	// Ticks is how long the game lasted in game loop ticks.
	Ticks int `json:"ticks"`
	// CalibrationID is the calibration the game was played with, if any.
	CalibrationID string    `json:"calibration_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ResultRepository provides operations on game results.
type ResultRepository struct {
	db *sql.DB
}

// Results returns the result repository for this store.
func (s *Store) Results() *ResultRepository {
	return &ResultRepository{db: s.db}
}

// Create inserts a result. An empty ID is filled with a new UUID.
func (r *ResultRepository) Create(res *Result) error {
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	res.CreatedAt = time.Now()

	var calibrationID any
	if res.CalibrationID != "" {
		calibrationID = res.CalibrationID
	}

	_, err := r.db.Exec(
		`INSERT INTO game_results (id, score, ticks, calibration_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		res.ID, res.Score, res.Ticks, calibrationID, res.CreatedAt,
	)
	if err != nil {
		return err
	}

	return nil
}

// Record stores a finished game, linked to the latest calibration if one
// exists.
func (r *ResultRepository) Record(score, ticks int) error {
	res := &Result{Score: score, Ticks: ticks}
	err := r.db.QueryRow(
		`SELECT id FROM calibrations ORDER BY created_at DESC, rowid DESC LIMIT 1`,
	).Scan(&res.CalibrationID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	return r.Create(res)
}

// GetByID retrieves a result by its ID.
func (r *ResultRepository) GetByID(id string) (*Result, error) {
	res := &Result{}
	var calibrationID sql.NullString

	err := r.db.QueryRow(
		`SELECT id, score, ticks, calibration_id, created_at
		 FROM game_results WHERE id = ?`,
		id,
	).Scan(&res.ID, &res.Score, &res.Ticks, &calibrationID, &res.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	res.CalibrationID = calibrationID.String
	return res, nil
}

// List retrieves results, best score first and newest first among equals.
// A limit of zero or less returns every result.
func (r *ResultRepository) List(limit int) ([]*Result, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT id, score, ticks, calibration_id, created_at
		 FROM game_results ORDER BY score DESC, created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*Result
	for rows.Next() {
		res := &Result{}
		var calibrationID sql.NullString

		if err := rows.Scan(&res.ID, &res.Score, &res.Ticks, &calibrationID, &res.CreatedAt); err != nil {
			return nil, err
		}

		res.CalibrationID = calibrationID.String
		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// HighScore returns the best score so far, or zero without results.
func (r *ResultRepository) HighScore() (int, error) {
	var best int
	err := r.db.QueryRow(`SELECT COALESCE(MAX(score), 0) FROM game_results`).Scan(&best)
	if err != nil {
		return 0, err
	}
	return best, nil
}

// Count returns the number of stored results.
func (r *ResultRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM game_results`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Reset removes every result, which also resets the high score.
func (r *ResultRepository) Reset() error {
	_, err := r.db.Exec(`DELETE FROM game_results`)
	return err
}
