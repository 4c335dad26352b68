package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/testhealth/health/domain"
	"github.com/example/testhealth/internal/storage"
)

type runRepo struct {
	tx *sql.Tx
}

func (r *runRepo) Create(ctx context.Context, run *storage.Run) error {
	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO runs (id, source, recorded_at)
		VALUES (?, ?, ?)
	`, run.ID, run.Source, run.RecordedAt)
	if err != nil {
		return err
	}

	stmt, err := r.tx.PrepareContext(ctx, `
		INSERT INTO run_results (run_id, test_name, status, duration_ms)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, res := range run.Results {
		status := sql.NullString{String: string(res.Status), Valid: res.Status != ""}
		if _, err := stmt.ExecContext(ctx, run.ID, res.TestName, status, res.DurationMs); err != nil {
			return err
		}
	}
	return nil
}

func (r *runRepo) List(ctx context.Context, limit int) ([]*storage.RunInfo, error) {
	rows, err := r.tx.QueryContext(ctx, `
		SELECT r.id, COALESCE(r.source, ''), r.recorded_at,
			COUNT(rr.test_name),
			COALESCE(SUM(CASE WHEN rr.status = 'passed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN rr.status = 'failed' THEN 1 ELSE 0 END), 0)
		FROM runs r LEFT JOIN run_results rr ON rr.run_id = r.id
		GROUP BY r.seq
		ORDER BY r.seq DESC
		LIMIT ?
	`, sqlLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*storage.RunInfo
	for rows.Next() {
		info := &storage.RunInfo{}
		if err := rows.Scan(&info.ID, &info.Source, &info.RecordedAt, &info.Tests, &info.Passed, &info.Failed); err != nil {
			return nil, err
		}
		runs = append(runs, info)
	}
	return runs, rows.Err()
}

func (r *runRepo) History(ctx context.Context, opts storage.HistoryOptions) (domain.History, error) {
	rows, err := r.tx.QueryContext(ctx, `
		SELECT rr.test_name, rr.status
		FROM run_results rr JOIN runs r ON r.id = rr.run_id
		WHERE rr.status IS NOT NULL
			AND r.seq IN (SELECT seq FROM runs ORDER BY seq DESC LIMIT ?)
		ORDER BY r.seq, rr.rowid
	`, sqlLimit(opts.LastN))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make(domain.History)
	for rows.Next() {
		var name, status string
		if err := rows.Scan(&name, &status); err != nil {
			return nil, err
		}
		history[name] = append(history[name], domain.RunStatus(status))
	}
	return history, rows.Err()
}

func (r *runRepo) Durations(ctx context.Context, runID string) ([]domain.PerformanceSample, error) {
	if runID == "" {
		err := r.tx.QueryRowContext(ctx, `SELECT id FROM runs ORDER BY seq DESC LIMIT 1`).Scan(&runID)
		if err == sql.ErrNoRows {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
	} else {
		var exists int
		err := r.tx.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, runID).Scan(&exists)
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		if err != nil {
			return nil, err
		}
	}

	rows, err := r.tx.QueryContext(ctx, `
		SELECT test_name, duration_ms
		FROM run_results
		WHERE run_id = ? AND duration_ms IS NOT NULL
		ORDER BY rowid
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []domain.PerformanceSample
	for rows.Next() {
		var s domain.PerformanceSample
		if err := rows.Scan(&s.TestName, &s.DurationMs); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// sqlLimit maps 0 (no limit) onto SQLite's -1.
func sqlLimit(n int) int {
	if n <= 0 {
		return -1
	}
	return n
}
