package sqlite

import (
	"context"
	"database/sql"
)

// Migrate runs all database migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	migrations := []string{
		// Runs table; seq preserves insertion order
		`CREATE TABLE IF NOT EXISTS runs (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			source TEXT,
			recorded_at DATETIME NOT NULL
		)`,

		// Per-test results of a run
		`CREATE TABLE IF NOT EXISTS run_results (
			run_id TEXT NOT NULL,
			test_name TEXT NOT NULL,
			status TEXT,
			duration_ms REAL,
			PRIMARY KEY (run_id, test_name),
			FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
		)`,

		// Health reports, stored whole
		`CREATE TABLE IF NOT EXISTS reports (
			id TEXT PRIMARY KEY,
			generated_at DATETIME NOT NULL,
			engine TEXT NOT NULL,
			health_score INTEGER NOT NULL,
			trend TEXT NOT NULL,
			report_json TEXT NOT NULL
		)`,

		// Indexes for efficient queries
		`CREATE INDEX IF NOT EXISTS idx_run_results_test ON run_results(test_name)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_generated ON reports(generated_at)`,
	}

	for _, migration := range migrations {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			return err
		}
	}

	return nil
}
