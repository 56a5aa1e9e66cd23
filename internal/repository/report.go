package repository

import (
	"context"
	"fmt"

	"campus-vibe-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ReportRepository handles database operations for match reports
type ReportRepository struct {
	db *pgxpool.Pool
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{db: db}
}

// File locks the match, applies fn and stores the updated match together with
// the report fn returns, in one transaction. If fn or either write fails
// nothing is stored.
func (r *ReportRepository) File(ctx context.Context, matchID string, fn func(*models.MutualMatch) (*models.MatchReport, error)) (*models.MutualMatch, *models.MatchReport, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	m, err := lockMatch(ctx, tx, matchID)
	if err != nil {
		return nil, nil, err
	}
	report, err := fn(m)
	if err != nil {
		return nil, nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO match_reports (id, match_id, reporter_id, reported_user_id, reason, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, report.ID, report.MatchID, report.ReporterID, report.ReportedUserID,
		report.Reason, report.Details, report.CreatedAt,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create report: %w", err)
	}
	if err := writeMatch(ctx, tx, m); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit report: %w", err)
	}
	return m, report, nil
}
