package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campus-vibe-backend/internal/apperr"
	"campus-vibe-backend/internal/models"
	"campus-vibe-backend/internal/repository"
)

// MemberStore is the slice of the account subsystem matchmaking depends on
type MemberStore interface {
	GetByID(ctx context.Context, id string) (*models.Member, error)
	SetCooldown(ctx context.Context, id string, until time.Time) error
}

// PoolStore persists pools. AddMember and Create must refuse to seat a member
// that already holds an open seat (repository.ErrAlreadySeated), and AddMember
// must check capacity and add in one atomic step (repository.ErrPoolFull).
type PoolStore interface {
	GetByID(ctx context.Context, id string) (*models.Pool, error)
	FindOpenByMember(ctx context.Context, memberID string) (*models.Pool, error)
	FindJoinable(ctx context.Context, campus, memberID string, limit int) ([]string, error)
	AddMember(ctx context.Context, poolID, memberID string, capacity int) (*models.Pool, error)
	Create(ctx context.Context, pool *models.Pool) error
}

// RequestStore persists meetup requests, unique per (from, to, pool)
type RequestStore interface {
	Record(ctx context.Context, req *models.MatchRequest, quota int) (bool, error)
	Exists(ctx context.Context, fromID, toID, poolID string) (bool, error)
	ListSent(ctx context.Context, fromID, poolID string) ([]*models.MatchRequest, error)
}

// MatchStore persists mutual matches, unique per (user1, user2, pool).
// Update is an atomic read-modify-write; an error from fn aborts the write.
type MatchStore interface {
	CreateOrGet(ctx context.Context, m *models.MutualMatch) (*models.MutualMatch, bool, error)
	GetByID(ctx context.Context, id string) (*models.MutualMatch, error)
	Update(ctx context.Context, id string, fn func(*models.MutualMatch) error) (*models.MutualMatch, error)
	ListByMember(ctx context.Context, memberID string) ([]*models.MutualMatch, error)
}

// ReportStore persists safety reports. File runs fn on the match under the
// same lock as MatchStore.Update, then writes the match and the report fn
// returns as one unit; an error from fn or from either write stores nothing.
type ReportStore interface {
	File(ctx context.Context, matchID string, fn func(*models.MutualMatch) (*models.MatchReport, error)) (*models.MutualMatch, *models.MatchReport, error)
}

// MessageStore persists chat messages in append order. Create must refuse,
// with repository.ErrChatLocked, a message whose match is not active at the
// moment of the insert.
type MessageStore interface {
	Create(ctx context.Context, msg *models.ChatMessage) error
	ListByMatch(ctx context.Context, matchID string) ([]*models.ChatMessage, error)
}

// lookupErr turns a store miss into a NotFound error and wraps anything else
func lookupErr(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("%s not found", what).Wrap(err)
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return fmt.Errorf("failed to load %s: %w", what, err)
}
