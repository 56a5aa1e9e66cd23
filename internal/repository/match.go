package repository

import (
	"context"
	"errors"
	"fmt"

	"campus-vibe-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const matchColumns = `id, user1_id, user2_id, pool_id, status, meeting_location, meeting_time,
	user1_agreed, user2_agreed, chat_unlocked_at, expires_at, created_at`

// MatchRepository handles database operations for mutual matches
type MatchRepository struct {
	db *pgxpool.Pool
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: db}
}

// CreateOrGet inserts m, or returns the existing match for the same
// (user1, user2, pool). created reports whether m was inserted.
func (r *MatchRepository) CreateOrGet(ctx context.Context, m *models.MutualMatch) (*models.MutualMatch, bool, error) {
	query := `
		INSERT INTO mutual_matches (` + matchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user1_id, user2_id, pool_id) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query,
		m.ID, m.User1ID, m.User2ID, m.PoolID, m.Status, m.MeetingLocation, m.MeetingTime,
		m.User1Agreed, m.User2Agreed, m.ChatUnlockedAt, m.ExpiresAt, m.CreatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create match: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return m, true, nil
	}

	existing, err := scanMatch(r.db.QueryRow(ctx,
		`SELECT `+matchColumns+` FROM mutual_matches WHERE user1_id = $1 AND user2_id = $2 AND pool_id = $3`,
		m.User1ID, m.User2ID, m.PoolID,
	))
	if err != nil {
		return nil, false, fmt.Errorf("failed to load existing match: %w", err)
	}
	return existing, false, nil
}

// GetByID retrieves a match by ID
func (r *MatchRepository) GetByID(ctx context.Context, id string) (*models.MutualMatch, error) {
	m, err := scanMatch(r.db.QueryRow(ctx, `SELECT `+matchColumns+` FROM mutual_matches WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("match %s: %w", id, err)
	}
	return m, nil
}

// Update applies fn to the row under SELECT ... FOR UPDATE and writes the
// result back. If fn returns an error nothing is written.
func (r *MatchRepository) Update(ctx context.Context, id string, fn func(*models.MutualMatch) error) (*models.MutualMatch, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	m, err := lockMatch(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(m); err != nil {
		return nil, err
	}
	if err := writeMatch(ctx, tx, m); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit match update: %w", err)
	}
	return m, nil
}

// lockMatch reads a match and holds its row lock until tx ends
func lockMatch(ctx context.Context, tx pgx.Tx, id string) (*models.MutualMatch, error) {
	m, err := scanMatch(tx.QueryRow(ctx, `SELECT `+matchColumns+` FROM mutual_matches WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, fmt.Errorf("match %s: %w", id, err)
	}
	return m, nil
}

// writeMatch stores the mutable columns of m
func writeMatch(ctx context.Context, tx pgx.Tx, m *models.MutualMatch) error {
	_, err := tx.Exec(ctx, `
		UPDATE mutual_matches
		SET status = $2, user1_agreed = $3, user2_agreed = $4,
		    chat_unlocked_at = $5, expires_at = $6,
		    meeting_location = $7, meeting_time = $8
		WHERE id = $1
	`, m.ID, m.Status, m.User1Agreed, m.User2Agreed, m.ChatUnlockedAt, m.ExpiresAt,
		m.MeetingLocation, m.MeetingTime)
	if err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}
	return nil
}

// ListByMember returns every match the member takes part in, newest first
func (r *MatchRepository) ListByMember(ctx context.Context, memberID string) ([]*models.MutualMatch, error) {
	query := `SELECT ` + matchColumns + ` FROM mutual_matches
		WHERE user1_id = $1 OR user2_id = $1
		ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	matches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.MutualMatch, error) {
		return scanMatch(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan matches: %w", err)
	}
	return matches, nil
}

func scanMatch(row pgx.Row) (*models.MutualMatch, error) {
	var m models.MutualMatch
	err := row.Scan(
		&m.ID, &m.User1ID, &m.User2ID, &m.PoolID, &m.Status, &m.MeetingLocation, &m.MeetingTime,
		&m.User1Agreed, &m.User2Agreed, &m.ChatUnlockedAt, &m.ExpiresAt, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}
