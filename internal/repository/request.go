package repository

import (
	"context"
	"fmt"

	"campus-vibe-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RequestRepository handles database operations for meetup requests
type RequestRepository struct {
	db *pgxpool.Pool
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{db: db}
}

// Record inserts req unless the same triple already exists. The quota is
// checked under a per-(requester, pool) advisory lock so concurrent requests
// from one member cannot overshoot it. created is false for a resubmission.
func (r *RequestRepository) Record(ctx context.Context, req *models.MatchRequest, quota int) (bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	lockKey := "request:" + req.FromUserID + ":" + req.PoolID
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
		return false, fmt.Errorf("failed to lock requester: %w", err)
	}

	var exists bool
	var sent int
	err = tx.QueryRow(ctx, `
		SELECT
			EXISTS(SELECT 1 FROM match_requests WHERE from_user_id = $1 AND to_user_id = $2 AND pool_id = $3),
			(SELECT COUNT(*) FROM match_requests WHERE from_user_id = $1 AND pool_id = $3)
	`, req.FromUserID, req.ToUserID, req.PoolID).Scan(&exists, &sent)
	if err != nil {
		return false, fmt.Errorf("failed to check request: %w", err)
	}
	if exists {
		return false, nil
	}
	if sent >= quota {
		return false, ErrQuotaExceeded
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO match_requests (from_user_id, to_user_id, pool_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING
	`, req.FromUserID, req.ToUserID, req.PoolID, req.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit request: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Exists checks whether fromID already requested toID in poolID
func (r *RequestRepository) Exists(ctx context.Context, fromID, toID, poolID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM match_requests WHERE from_user_id = $1 AND to_user_id = $2 AND pool_id = $3)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, fromID, toID, poolID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check request existence: %w", err)
	}
	return exists, nil
}

// ListSent returns the requests fromID sent in poolID, oldest first
func (r *RequestRepository) ListSent(ctx context.Context, fromID, poolID string) ([]*models.MatchRequest, error) {
	query := `
		SELECT from_user_id, to_user_id, pool_id, created_at
		FROM match_requests
		WHERE from_user_id = $1 AND pool_id = $2
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, fromID, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	reqs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.MatchRequest, error) {
		var req models.MatchRequest
		err := row.Scan(&req.FromUserID, &req.ToUserID, &req.PoolID, &req.CreatedAt)
		return &req, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan requests: %w", err)
	}
	return reqs, nil
}
