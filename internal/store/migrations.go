package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Game results table - one row per finished game
		`CREATE TABLE IF NOT EXISTS game_results (
			id TEXT PRIMARY KEY,
			score INTEGER NOT NULL CHECK(score >= 0),
			ticks INTEGER NOT NULL DEFAULT 0,
			calibration_id TEXT REFERENCES calibrations(id) ON DELETE SET NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Calibrations table - body profiles measured during onboarding
		`CREATE TABLE IF NOT EXISTS calibrations (
			id TEXT PRIMARY KEY,
			nose_y REAL NOT NULL,
			nose_to_shoulder_mid REAL NOT NULL,
			shoulder_to_shoulder REAL NOT NULL,
			shoulder_to_elbow REAL NOT NULL,
			elbow_to_wrist REAL NOT NULL,
			shoulder_mid_to_hip_mid REAL NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_game_results_score ON game_results(score)`,
		`CREATE INDEX IF NOT EXISTS idx_calibrations_created_at ON calibrations(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
