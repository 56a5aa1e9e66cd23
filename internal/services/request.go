package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campus-vibe-backend/internal/apperr"
	"campus-vibe-backend/internal/models"
	"campus-vibe-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Meetup request outcomes
const (
	MeetupRequested   = "requested"
	MeetupMutualMatch = "mutual_match"
)

// MeetupResult is the outcome of RequestMeetup
type MeetupResult struct {
	Status            string `json:"status"`
	MatchID           string `json:"match_id,omitempty"`
	Message           string `json:"message,omitempty"`
	RequestsSentCount int    `json:"requests_sent_count"`
}

// RequestMeetup records fromID's interest in toID within poolID and creates
// the mutual match once the interest is reciprocated. Resubmitting the same
// request is absorbed and yields the same outcome.
func (s *MatchService) RequestMeetup(ctx context.Context, fromID, toID, poolID string) (*MeetupResult, error) {
	if fromID == "" || toID == "" || poolID == "" {
		return nil, apperr.Validation("target_user_id and pool_id required")
	}
	if fromID == toID {
		return nil, apperr.Validation("cannot request a meetup with yourself")
	}

	pool, err := s.pools.GetByID(ctx, poolID)
	if err != nil {
		return nil, lookupErr(err, "pool")
	}
	if !pool.HasMember(fromID) {
		return nil, apperr.Permission("you are not in this pool")
	}
	if !pool.HasMember(toID) {
		return nil, apperr.NotFound("target member not found in this pool")
	}

	created, err := s.requests.Record(ctx, &models.MatchRequest{
		FromUserID: fromID,
		ToUserID:   toID,
		PoolID:     poolID,
		CreatedAt:  s.opts.now(),
	}, s.cfg.RequestQuota)
	if errors.Is(err, repository.ErrQuotaExceeded) {
		meetupRequestsTotal.WithLabelValues("quota_exceeded").Inc()
		return nil, apperr.Validation("limit reached: %d per pool", s.cfg.RequestQuota).Wrap(err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record request: %w", err)
	}
	if !created {
		meetupRequestsTotal.WithLabelValues("duplicate").Inc()
	}

	reciprocal, err := s.requests.Exists(ctx, toID, fromID, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to check reciprocal request: %w", err)
	}
	if reciprocal {
		match, err := s.createMatch(ctx, fromID, toID, poolID)
		if err != nil {
			return nil, err
		}
		meetupRequestsTotal.WithLabelValues("mutual_match").Inc()
		return &MeetupResult{
			Status:  MeetupMutualMatch,
			MatchID: match.ID,
			Message: "It's a Mutual Vibe!",
		}, nil
	}

	sent, err := s.requests.ListSent(ctx, fromID, poolID)
	if err != nil {
		return nil, fmt.Errorf("failed to count sent requests: %w", err)
	}
	if created {
		meetupRequestsTotal.WithLabelValues("requested").Inc()
		log.Info().
			Str("from_id", fromID).
			Str("to_id", toID).
			Str("pool_id", poolID).
			Msg("Meetup requested")
	}
	return &MeetupResult{
		Status:            MeetupRequested,
		RequestsSentCount: len(sent),
	}, nil
}

// createMatch inserts the pending match for the pair or returns the one a
// concurrent reciprocal request already created
func (s *MatchService) createMatch(ctx context.Context, a, b, poolID string) (*models.MutualMatch, error) {
	user1, user2 := models.CanonicalPair(a, b)
	now := s.opts.now()

	spots := s.cfg.MeetingSpots
	hours := s.cfg.MeetingMinHours + s.opts.intN(s.cfg.MeetingMaxHours-s.cfg.MeetingMinHours+1)
	meetingTime := now.Add(time.Duration(hours) * time.Hour)

	match, created, err := s.matches.CreateOrGet(ctx, &models.MutualMatch{
		ID:              uuid.New().String(),
		User1ID:         user1,
		User2ID:         user2,
		PoolID:          poolID,
		Status:          models.MatchStatusPending,
		MeetingLocation: spots[s.opts.intN(len(spots))],
		MeetingTime:     &meetingTime,
		CreatedAt:       now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create mutual match: %w", err)
	}
	if !created {
		return match, nil
	}

	matchTransitionsTotal.WithLabelValues(string(models.MatchStatusPending)).Inc()
	log.Info().
		Str("match_id", match.ID).
		Str("user1_id", user1).
		Str("user2_id", user2).
		Str("pool_id", poolID).
		Msg("Mutual match created")

	for _, memberID := range []string{user1, user2} {
		s.opts.notifier.Notify(memberID, WSMessage{
			Type:    EventMutualMatch,
			MatchID: match.ID,
			Message: "It's a Mutual Vibe!",
		})
	}
	return match, nil
}
