package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/example/testhealth/health/domain"
	"github.com/example/testhealth/internal/storage"
)

type reportRepo struct {
	tx *sql.Tx
}

func (r *reportRepo) Save(ctx context.Context, report *domain.HealthReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return err
	}

	_, err = r.tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO reports (id, generated_at, engine, health_score, trend, report_json)
		VALUES (?, ?, ?, ?, ?, ?)
	`, report.ID, report.GeneratedAt, report.Engine, report.HealthScore, string(report.Trend), string(reportJSON))
	return err
}

func (r *reportRepo) Get(ctx context.Context, id string) (*domain.HealthReport, error) {
	var reportJSON string
	err := r.tx.QueryRowContext(ctx, `SELECT report_json FROM reports WHERE id = ?`, id).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	report := &domain.HealthReport{}
	if err := json.Unmarshal([]byte(reportJSON), report); err != nil {
		return nil, err
	}
	return report, nil
}

func (r *reportRepo) List(ctx context.Context, limit int) ([]*storage.ReportInfo, error) {
	rows, err := r.tx.QueryContext(ctx, `
		SELECT id, generated_at, engine, health_score, trend
		FROM reports
		ORDER BY generated_at DESC, id
		LIMIT ?
	`, sqlLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*storage.ReportInfo
	for rows.Next() {
		info := &storage.ReportInfo{}
		var trend string
		if err := rows.Scan(&info.ID, &info.GeneratedAt, &info.Engine, &info.HealthScore, &trend); err != nil {
			return nil, err
		}
		info.Trend = domain.HealthTrend(trend)
		reports = append(reports, info)
	}
	return reports, rows.Err()
}
