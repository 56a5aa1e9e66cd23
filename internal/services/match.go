package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campus-vibe-backend/internal/apperr"
	"campus-vibe-backend/internal/config"
	"campus-vibe-backend/internal/models"
	"campus-vibe-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MatchView is a mutual match as seen by one of its participants
type MatchView struct {
	*models.MutualMatch
	OtherUserID string `json:"other_user_id"`
	Expired     bool   `json:"expired"`
}

// MatchService drives meetup requests and the mutual match lifecycle
type MatchService struct {
	members  MemberStore
	pools    PoolStore
	requests RequestStore
	matches  MatchStore
	reports  ReportStore
	messages MessageStore
	cfg      config.MatchingConfig
	opts     options
}

// NewMatchService creates a new match service
func NewMatchService(
	members MemberStore,
	pools PoolStore,
	requests RequestStore,
	matches MatchStore,
	reports ReportStore,
	messages MessageStore,
	cfg config.MatchingConfig,
	opts ...Option,
) *MatchService {
	return &MatchService{
		members:  members,
		pools:    pools,
		requests: requests,
		matches:  matches,
		reports:  reports,
		messages: messages,
		cfg:      cfg,
		opts:     buildOptions(opts),
	}
}

// Agree records memberID's agreement to meet. The second agreement activates
// the match, unlocks chat and puts both members into cooldown. Agreeing on an
// already active match leaves the match as is and only completes a cooldown
// write that failed earlier.
func (s *MatchService) Agree(ctx context.Context, matchID, memberID string) (*MatchView, error) {
	now := s.opts.now()
	activated := false

	match, err := s.matches.Update(ctx, matchID, func(m *models.MutualMatch) error {
		activated = false
		if !m.HasUser(memberID) {
			return apperr.Permission("you are not part of this match")
		}
		switch m.Status {
		case models.MatchStatusActive:
			return nil
		case models.MatchStatusPending:
		default:
			return apperr.State("match is %s", m.Status)
		}

		if m.User1ID == memberID {
			m.User1Agreed = true
		} else {
			m.User2Agreed = true
		}
		if m.BothAgreed() {
			expiresAt := now.Add(s.cfg.ActiveWindow)
			m.Status = models.MatchStatusActive
			m.ChatUnlockedAt = &now
			m.ExpiresAt = &expiresAt
			activated = true
		}
		return nil
	})
	if err != nil {
		return nil, lookupErr(err, "match")
	}

	if activated {
		matchTransitionsTotal.WithLabelValues(string(models.MatchStatusActive)).Inc()
		log.Info().
			Str("match_id", match.ID).
			Time("expires_at", *match.ExpiresAt).
			Msg("Mutual match active")
	}
	if match.Status == models.MatchStatusActive {
		if err := s.applyCooldown(ctx, match); err != nil {
			return nil, err
		}
	}

	event := EventMatchUpdated
	if activated {
		event = EventMatchActive
	}
	if other, ok := match.OtherUserID(memberID); ok {
		s.opts.notifier.Notify(other, WSMessage{Type: event, MatchID: match.ID, Data: s.view(match, other, now)})
	}

	return s.view(match, memberID, now), nil
}

// applyCooldown puts both participants of an active match into cooldown
// counted from the chat unlock. It only ever raises a cooldown, so repeating
// it after a partial failure completes the write.
func (s *MatchService) applyCooldown(ctx context.Context, match *models.MutualMatch) error {
	unlocked := s.opts.now()
	if match.ChatUnlockedAt != nil {
		unlocked = *match.ChatUnlockedAt
	}
	until := unlocked.Add(s.cfg.Cooldown)

	for _, id := range []string{match.User1ID, match.User2ID} {
		member, err := s.members.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load member %s: %w", id, err)
		}
		if member.CooldownUntil != nil && !member.CooldownUntil.Before(until) {
			continue
		}
		if err := s.members.SetCooldown(ctx, id, until); err != nil {
			return fmt.Errorf("failed to set cooldown for %s: %w", id, err)
		}
	}
	return nil
}

// Report files a safety report against the other participant and freezes the
// match as reported. Chat history stays stored but becomes unreadable.
func (s *MatchService) Report(ctx context.Context, matchID, reporterID, reason, details string) (*models.MatchReport, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperr.Validation("reason is required")
	}

	now := s.opts.now()
	match, report, err := s.reports.File(ctx, matchID, func(m *models.MutualMatch) (*models.MatchReport, error) {
		reported, ok := m.OtherUserID(reporterID)
		if !ok {
			return nil, apperr.Permission("you are not part of this match")
		}
		if m.Status != models.MatchStatusPending && m.Status != models.MatchStatusActive {
			return nil, apperr.State("match is %s", m.Status)
		}
		m.Status = models.MatchStatusReported
		return &models.MatchReport{
			ID:             uuid.New().String(),
			MatchID:        m.ID,
			ReporterID:     reporterID,
			ReportedUserID: reported,
			Reason:         reason,
			Details:        details,
			CreatedAt:      now,
		}, nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || apperr.KindOf(err) != apperr.KindUnknown {
			return nil, lookupErr(err, "match")
		}
		return nil, fmt.Errorf("failed to file report: %w", err)
	}

	matchTransitionsTotal.WithLabelValues(string(models.MatchStatusReported)).Inc()
	log.Warn().
		Str("match_id", match.ID).
		Str("reporter_id", reporterID).
		Str("reported_user_id", report.ReportedUserID).
		Str("reason", reason).
		Msg("Match reported")

	if s.opts.archiver != nil {
		s.archive(ctx, match, report)
	}

	s.opts.notifier.Notify(report.ReportedUserID, WSMessage{Type: EventReported, MatchID: match.ID})
	return report, nil
}

// archive stores the report with the locked transcript. Failures are logged;
// the report itself is already recorded.
func (s *MatchService) archive(ctx context.Context, match *models.MutualMatch, report *models.MatchReport) {
	transcript, err := s.messages.ListByMatch(ctx, match.ID)
	if err == nil {
		err = s.opts.archiver.Archive(ctx, &ReportArchive{
			Report:     report,
			Match:      match,
			Transcript: transcript,
		})
	}
	if err != nil {
		log.Error().
			Err(err).
			Str("match_id", match.ID).
			Str("report_id", report.ID).
			Msg("Failed to archive report")
	}
}

// GetMatch returns a match to one of its participants
func (s *MatchService) GetMatch(ctx context.Context, matchID, memberID string) (*MatchView, error) {
	match, err := s.participantMatch(ctx, matchID, memberID)
	if err != nil {
		return nil, err
	}
	return s.view(match, memberID, s.opts.now()), nil
}

// ListMatches returns every match of memberID, newest first
func (s *MatchService) ListMatches(ctx context.Context, memberID string) ([]*MatchView, error) {
	matches, err := s.matches.ListByMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	now := s.opts.now()
	views := make([]*MatchView, 0, len(matches))
	for _, m := range matches {
		views = append(views, s.view(m, memberID, now))
	}
	return views, nil
}

// participantMatch loads a match and checks memberID takes part in it
func (s *MatchService) participantMatch(ctx context.Context, matchID, memberID string) (*models.MutualMatch, error) {
	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, lookupErr(err, "match")
	}
	if !match.HasUser(memberID) {
		return nil, apperr.Permission("you are not part of this match")
	}
	return match, nil
}

func (s *MatchService) view(m *models.MutualMatch, viewerID string, now time.Time) *MatchView {
	other, _ := m.OtherUserID(viewerID)
	return &MatchView{
		MutualMatch: m,
		OtherUserID: other,
		Expired:     m.IsExpired(now),
	}
}
