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

// MemberRepository reads members owned by the account subsystem and writes their cooldown
type MemberRepository struct {
	db *pgxpool.Pool
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{db: db}
}

// GetByID retrieves a member by ID
func (r *MemberRepository) GetByID(ctx context.Context, id string) (*models.Member, error) {
	query := `
		SELECT id, campus, avatar_emoji, brain_type, interests, social_energy,
		       connection_intent, cooldown_until, created_at
		FROM members
		WHERE id = $1
	`
	var m models.Member
	err := r.db.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.Campus, &m.Profile.AvatarEmoji, &m.Profile.BrainType,
		&m.Profile.Interests, &m.Profile.SocialEnergy, &m.Profile.ConnectionIntent,
		&m.CooldownUntil, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("member %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return &m, nil
}

// SetCooldown updates the discovery cooldown for a member
func (r *MemberRepository) SetCooldown(ctx context.Context, id string, until time.Time) error {
	query := `UPDATE members SET cooldown_until = $1 WHERE id = $2`
	result, err := r.db.Exec(ctx, query, until, id)
	if err != nil {
		return fmt.Errorf("failed to set cooldown: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("member %s: %w", id, ErrNotFound)
	}
	return nil
}

// Upsert creates or refreshes a member row. Used to bootstrap local accounts.
func (r *MemberRepository) Upsert(ctx context.Context, m *models.Member) error {
	query := `
		INSERT INTO members (id, campus, avatar_emoji, brain_type, interests,
		                     social_energy, connection_intent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			campus = EXCLUDED.campus,
			avatar_emoji = EXCLUDED.avatar_emoji,
			brain_type = EXCLUDED.brain_type,
			interests = EXCLUDED.interests,
			social_energy = EXCLUDED.social_energy,
			connection_intent = EXCLUDED.connection_intent
	`
	_, err := r.db.Exec(ctx, query,
		m.ID, m.Campus, m.Profile.AvatarEmoji, m.Profile.BrainType,
		nonNil(m.Profile.Interests), nonNil(m.Profile.SocialEnergy), nonNil(m.Profile.ConnectionIntent),
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert member: %w", err)
	}
	return nil
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
