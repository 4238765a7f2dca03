package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/superimpose/internal/body"
)

// Calibration is a body profile measured during onboarding.
type Calibration struct {
	ID        string       `json:"id"`
	Profile   body.Profile `json:"profile"`
	CreatedAt time.Time    `json:"created_at"`
}

// CalibrationRepository provides operations on calibrations.
type CalibrationRepository struct {
	db *sql.DB
}

// Calibrations returns the calibration repository for this store.
func (s *Store) Calibrations() *CalibrationRepository {
	return &CalibrationRepository{db: s.db}
}

// Create inserts a calibration. An empty ID is filled with a new UUID.
func (r *CalibrationRepository) Create(c *Calibration) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now()

	p := c.Profile
	_, err := r.db.Exec(
		`INSERT INTO calibrations (id, nose_y, nose_to_shoulder_mid, shoulder_to_shoulder,
		 shoulder_to_elbow, elbow_to_wrist, shoulder_mid_to_hip_mid, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, p.NoseY, p.NoseToShoulderMid, p.ShoulderToShoulder,
		p.ShoulderToElbow, p.ElbowToWrist, p.ShoulderMidToHipMid, c.CreatedAt,
	)
	if err != nil {
		return err
	}

	return nil
}

// Record stores a measured profile.
func (r *CalibrationRepository) Record(p body.Profile) error {
	return r.Create(&Calibration{Profile: p})
}

const calibrationColumns = `id, nose_y, nose_to_shoulder_mid, shoulder_to_shoulder,
	shoulder_to_elbow, elbow_to_wrist, shoulder_mid_to_hip_mid, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanCalibration(row scanner) (*Calibration, error) {
	c := &Calibration{}
	p := &c.Profile
	err := row.Scan(&c.ID, &p.NoseY, &p.NoseToShoulderMid, &p.ShoulderToShoulder,
		&p.ShoulderToElbow, &p.ElbowToWrist, &p.ShoulderMidToHipMid, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Latest returns the most recent calibration.
func (r *CalibrationRepository) Latest() (*Calibration, error) {
	c, err := scanCalibration(r.db.QueryRow(
		`SELECT ` + calibrationColumns + ` FROM calibrations ORDER BY created_at DESC, rowid DESC LIMIT 1`,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// List retrieves all calibrations, newest first.
func (r *CalibrationRepository) List() ([]*Calibration, error) {
	rows, err := r.db.Query(
		`SELECT ` + calibrationColumns + ` FROM calibrations ORDER BY created_at DESC, rowid DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Calibration
	for rows.Next() {
		c, err := scanCalibration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
