package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campus-vibe-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolRepository handles database operations for discovery pools.
//
// Seat changes run in a transaction that first takes an advisory lock on the
// member, so one member can never end up in two open pools. The capacity
// check and the increment are a single conditional UPDATE, which row-locks the
// pool and serializes joiners per pool.
type PoolRepository struct {
	db *pgxpool.Pool
}

// NewPoolRepository creates a new pool repository
func NewPoolRepository(db *pgxpool.Pool) *PoolRepository {
	return &PoolRepository{db: db}
}

// GetByID retrieves a pool with its member IDs
func (r *PoolRepository) GetByID(ctx context.Context, id string) (*models.Pool, error) {
	return getPool(ctx, r.db, id)
}

// FindOpenByMember returns the open pool the member is seated in
func (r *PoolRepository) FindOpenByMember(ctx context.Context, memberID string) (*models.Pool, error) {
	id, err := openPoolID(ctx, r.db, memberID)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, ErrNotFound
	}
	return getPool(ctx, r.db, id)
}

// FindJoinable lists open pools on campus that do not contain memberID, oldest first
func (r *PoolRepository) FindJoinable(ctx context.Context, campus, memberID string, limit int) ([]string, error) {
	query := `
		SELECT p.id
		FROM pools p
		WHERE p.campus = $1 AND NOT p.is_full
		  AND NOT EXISTS (
			SELECT 1 FROM pool_members m WHERE m.pool_id = p.id AND m.member_id = $2
		  )
		ORDER BY p.created_at
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, campus, memberID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find joinable pools: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan joinable pools: %w", err)
	}
	return ids, nil
}

// AddMember seats memberID in the pool if it still has a free slot and marks
// the pool full in the same write once capacity is reached.
func (r *PoolRepository) AddMember(ctx context.Context, poolID, memberID string, capacity int) (*models.Pool, error) {
	err := r.withMemberLock(ctx, memberID, func(tx pgx.Tx) error {
		var count int
		err := tx.QueryRow(ctx, `
			UPDATE pools
			SET member_count = member_count + 1,
			    is_full = member_count + 1 >= $2
			WHERE id = $1 AND NOT is_full AND member_count < $2
			RETURNING member_count
		`, poolID, capacity).Scan(&count)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrPoolFull
			}
			return fmt.Errorf("failed to reserve pool slot: %w", err)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO pool_members (pool_id, member_id, joined_at) VALUES ($1, $2, $3)`,
			poolID, memberID, time.Now().UTC(),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadySeated
			}
			return fmt.Errorf("failed to add pool member: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return getPool(ctx, r.db, poolID)
}

// Create inserts a new pool seeded with its initial members
func (r *PoolRepository) Create(ctx context.Context, pool *models.Pool) error {
	if len(pool.MemberIDs) == 0 {
		return fmt.Errorf("pool must start with a member")
	}
	return r.withMemberLock(ctx, pool.MemberIDs[0], func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO pools (id, campus, is_full, member_count, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, pool.ID, pool.Campus, pool.IsFull, len(pool.MemberIDs), pool.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create pool: %w", err)
		}
		for _, memberID := range pool.MemberIDs {
			_, err := tx.Exec(ctx,
				`INSERT INTO pool_members (pool_id, member_id, joined_at) VALUES ($1, $2, $3)`,
				pool.ID, memberID, pool.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to seat pool member: %w", err)
			}
		}
		return nil
	})
}

// withMemberLock runs fn in a transaction holding the member's advisory lock,
// after verifying the member has no open seat yet.
func (r *PoolRepository) withMemberLock(ctx context.Context, memberID string, fn func(tx pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('pool-seat:' || $1))`, memberID); err != nil {
		return fmt.Errorf("failed to lock member: %w", err)
	}

	seated, err := openPoolID(ctx, tx, memberID)
	if err != nil {
		return err
	}
	if seated != "" {
		return ErrAlreadySeated
	}

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit pool change: %w", err)
	}
	return nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func openPoolID(ctx context.Context, q querier, memberID string) (string, error) {
	query := `
		SELECT p.id
		FROM pools p
		JOIN pool_members m ON m.pool_id = p.id
		WHERE m.member_id = $1 AND NOT p.is_full
		ORDER BY p.created_at
		LIMIT 1
	`
	var id string
	err := q.QueryRow(ctx, query, memberID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to find open pool for member: %w", err)
	}
	return id, nil
}

func getPool(ctx context.Context, q querier, id string) (*models.Pool, error) {
	query := `
		SELECT p.id, p.campus, p.is_full, p.created_at,
		       COALESCE(array_agg(m.member_id ORDER BY m.joined_at)
		                FILTER (WHERE m.member_id IS NOT NULL), '{}')
		FROM pools p
		LEFT JOIN pool_members m ON m.pool_id = p.id
		WHERE p.id = $1
		GROUP BY p.id
	`
	var pool models.Pool
	err := q.QueryRow(ctx, query, id).Scan(
		&pool.ID, &pool.Campus, &pool.IsFull, &pool.CreatedAt, &pool.MemberIDs,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("pool %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get pool: %w", err)
	}
	return &pool, nil
}
