package repository

import (
	"context"
	"fmt"

	"campus-vibe-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MessageRepository handles database operations for match chat messages
type MessageRepository struct {
	db *pgxpool.Pool
}

// NewMessageRepository creates a new message repository
func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create appends a message. The insert only happens while the match is
// active; the match row is share-locked so a concurrent status change either
// waits for it or is seen by it.
func (r *MessageRepository) Create(ctx context.Context, msg *models.ChatMessage) error {
	query := `
		INSERT INTO match_messages (id, match_id, sender_id, text, created_at)
		SELECT $1::text, $2::text, $3::text, $4::text, $5::timestamptz
		WHERE EXISTS (
			SELECT 1 FROM mutual_matches
			WHERE id = $2 AND status = 'active'
			FOR SHARE
		)
	`
	tag, err := r.db.Exec(ctx, query, msg.ID, msg.MatchID, msg.SenderID, msg.Text, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("match %s: %w", msg.MatchID, ErrChatLocked)
	}
	return nil
}

// ListByMatch returns the messages of a match in creation order
func (r *MessageRepository) ListByMatch(ctx context.Context, matchID string) ([]*models.ChatMessage, error) {
	query := `
		SELECT id, match_id, sender_id, text, created_at
		FROM match_messages
		WHERE match_id = $1
		ORDER BY seq
	`
	rows, err := r.db.Query(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.ChatMessage, error) {
		var msg models.ChatMessage
		err := row.Scan(&msg.ID, &msg.MatchID, &msg.SenderID, &msg.Text, &msg.CreatedAt)
		return &msg, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan messages: %w", err)
	}
	return msgs, nil
}
