package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campus-vibe-backend/internal/compat"
	"campus-vibe-backend/internal/config"
	"campus-vibe-backend/internal/models"
	"campus-vibe-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	maxJoinAttempts    = 5
	joinCandidateLimit = 5
	memberLoadLimit    = 4
)

// Pool view statuses
const (
	PoolStatusPooled   = "pooled"
	PoolStatusCooldown = "cooldown"
)

// BlindProfile is the part of a profile other pool members may see
type BlindProfile struct {
	AvatarEmoji  string   `json:"avatar_emoji,omitempty"`
	BrainType    string   `json:"brain_type"`
	Interests    []string `json:"interests"`
	SocialEnergy []string `json:"social_energy"`
}

// MemberCard is one other member as shown in the pool view
type MemberCard struct {
	ID                  string                            `json:"id"`
	Profile             BlindProfile                      `json:"profile"`
	CompatibilityMeters map[compat.MeterName]compat.Meter `json:"compatibility_meters"`
}

// PoolView is the current_pool response: either a cooldown notice or the
// caller's pool with everyone else scored against the caller
type PoolView struct {
	Status            string       `json:"status"`
	Message           string       `json:"message,omitempty"`
	RemainingSeconds  int          `json:"remaining_seconds,omitempty"`
	ID                string       `json:"id,omitempty"`
	Campus            string       `json:"campus,omitempty"`
	IsFull            bool         `json:"is_full"`
	CreatedAt         *time.Time   `json:"created_at,omitempty"`
	Members           []MemberCard `json:"members,omitempty"`
	RequestedIDs      []string     `json:"requested_ids,omitempty"`
	RequestsSentCount int          `json:"requests_sent_count"`
}

// PoolService handles discovery pool membership
type PoolService struct {
	members  MemberStore
	pools    PoolStore
	requests RequestStore
	engine   *compat.Engine
	cfg      config.MatchingConfig
	opts     options
	joins    singleflight.Group
}

// NewPoolService creates a new pool service
func NewPoolService(
	members MemberStore,
	pools PoolStore,
	requests RequestStore,
	engine *compat.Engine,
	cfg config.MatchingConfig,
	opts ...Option,
) *PoolService {
	return &PoolService{
		members:  members,
		pools:    pools,
		requests: requests,
		engine:   engine,
		cfg:      cfg,
		opts:     buildOptions(opts),
	}
}

// GetOrJoinPool returns the member's open pool, joining or creating one for
// campus when there is none. Concurrent calls for one member share a result.
func (s *PoolService) GetOrJoinPool(ctx context.Context, memberID, campus string) (*models.Pool, error) {
	v, err, _ := s.joins.Do(memberID, func() (interface{}, error) {
		return s.getOrJoin(ctx, memberID, campus)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Pool), nil
}

func (s *PoolService) getOrJoin(ctx context.Context, memberID, campus string) (*models.Pool, error) {
	for attempt := 1; attempt <= maxJoinAttempts; attempt++ {
		pool, err := s.pools.FindOpenByMember(ctx, memberID)
		if err == nil {
			poolJoinsTotal.WithLabelValues("seated").Inc()
			return pool, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to find open pool: %w", err)
		}

		pool, contended, err := s.joinOpen(ctx, memberID, campus)
		if err != nil {
			return nil, err
		}
		if pool != nil {
			poolJoinsTotal.WithLabelValues("joined").Inc()
			return pool, nil
		}
		if contended && attempt < maxJoinAttempts {
			continue
		}

		pool, err = s.create(ctx, memberID, campus)
		if errors.Is(err, repository.ErrAlreadySeated) {
			continue
		}
		if err != nil {
			return nil, err
		}
		poolJoinsTotal.WithLabelValues("created").Inc()
		return pool, nil
	}
	return nil, fmt.Errorf("failed to resolve pool for member %s after %d attempts", memberID, maxJoinAttempts)
}

// joinOpen tries the oldest joinable pools in turn. contended reports that at
// least one candidate was lost to a concurrent writer.
func (s *PoolService) joinOpen(ctx context.Context, memberID, campus string) (*models.Pool, bool, error) {
	candidates, err := s.pools.FindJoinable(ctx, campus, memberID, joinCandidateLimit)
	if err != nil {
		return nil, false, fmt.Errorf("failed to find joinable pools: %w", err)
	}

	contended := false
	for _, poolID := range candidates {
		pool, err := s.pools.AddMember(ctx, poolID, memberID, s.cfg.PoolCapacity)
		switch {
		case err == nil:
			log.Info().
				Str("member_id", memberID).
				Str("pool_id", pool.ID).
				Int("members", len(pool.MemberIDs)).
				Bool("is_full", pool.IsFull).
				Msg("Member joined pool")
			return pool, false, nil
		case errors.Is(err, repository.ErrPoolFull):
			poolJoinConflictsTotal.Inc()
			contended = true
		case errors.Is(err, repository.ErrAlreadySeated):
			// seated by another path; the next attempt finds it
			return nil, true, nil
		default:
			return nil, false, fmt.Errorf("failed to join pool: %w", err)
		}
	}
	return nil, contended, nil
}

func (s *PoolService) create(ctx context.Context, memberID, campus string) (*models.Pool, error) {
	pool := &models.Pool{
		ID:        uuid.New().String(),
		Campus:    campus,
		MemberIDs: []string{memberID},
		CreatedAt: s.opts.now(),
	}
	if err := s.pools.Create(ctx, pool); err != nil {
		if errors.Is(err, repository.ErrAlreadySeated) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	log.Info().
		Str("member_id", memberID).
		Str("pool_id", pool.ID).
		Str("campus", campus).
		Msg("Created pool")
	return pool, nil
}

// CurrentPool resolves the member's pool and scores everyone else in it
// against the member. A member in cooldown gets a cooldown view instead.
func (s *PoolService) CurrentPool(ctx context.Context, memberID string) (*PoolView, error) {
	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, lookupErr(err, "member")
	}

	now := s.opts.now()
	if member.InCooldown(now) {
		poolJoinsTotal.WithLabelValues("cooldown").Inc()
		remaining := member.CooldownUntil.Sub(now)
		return &PoolView{
			Status:           PoolStatusCooldown,
			Message:          fmt.Sprintf("You're booked for now. New matches unlock in %dh.", int(remaining/time.Hour)),
			RemainingSeconds: int(remaining / time.Second),
		}, nil
	}

	pool, err := s.GetOrJoinPool(ctx, memberID, member.Campus)
	if err != nil {
		return nil, err
	}

	cards, err := s.memberCards(ctx, member, pool, now)
	if err != nil {
		return nil, err
	}

	sent, err := s.requests.ListSent(ctx, memberID, pool.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sent requests: %w", err)
	}
	requested := make([]string, 0, len(sent))
	for _, req := range sent {
		requested = append(requested, req.ToUserID)
	}

	createdAt := pool.CreatedAt
	return &PoolView{
		Status:            PoolStatusPooled,
		ID:                pool.ID,
		Campus:            pool.Campus,
		IsFull:            pool.IsFull,
		CreatedAt:         &createdAt,
		Members:           cards,
		RequestedIDs:      requested,
		RequestsSentCount: len(requested),
	}, nil
}

// memberCards loads every other pool member concurrently, keeping pool order
func (s *PoolService) memberCards(ctx context.Context, viewer *models.Member, pool *models.Pool, now time.Time) ([]MemberCard, error) {
	others := make([]string, 0, len(pool.MemberIDs))
	for _, id := range pool.MemberIDs {
		if id != viewer.ID {
			others = append(others, id)
		}
	}

	cards := make([]MemberCard, len(others))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(memberLoadLimit)
	for i, otherID := range others {
		g.Go(func() error {
			other, err := s.members.GetByID(gctx, otherID)
			if err != nil {
				return fmt.Errorf("failed to load pool member %s: %w", otherID, err)
			}
			meters := make(map[compat.MeterName]compat.Meter, s.cfg.DailyMeters)
			for _, name := range compat.SelectDailyMeters(other.ID, now, s.cfg.DailyMeters) {
				if m, ok := s.engine.Compute(name, viewer.Profile, other.Profile); ok {
					meters[name] = m
				}
			}
			cards[i] = MemberCard{
				ID: other.ID,
				Profile: BlindProfile{
					AvatarEmoji:  other.Profile.AvatarEmoji,
					BrainType:    other.Profile.BrainType,
					Interests:    other.Profile.Interests,
					SocialEnergy: other.Profile.SocialEnergy,
				},
				CompatibilityMeters: meters,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	poolViewMembers.Observe(float64(len(cards)))
	return cards, nil
}
