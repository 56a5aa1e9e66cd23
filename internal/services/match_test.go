package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"campus-vibe-backend/internal/apperr"
	"campus-vibe-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAgree_PartialStaysPending verifies one agreement does not activate.
func TestAgree_PartialStaysPending(t *testing.T) {
	env := newTestEnv(t)
	match := env.mutualMatch(t, "a", "b")

	view, err := env.matches.Agree(context.Background(), match.ID, "b")
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusPending, view.Status)
	assert.False(t, view.User1Agreed)
	assert.True(t, view.User2Agreed)
	assert.Nil(t, view.ChatUnlockedAt)
	assert.Equal(t, "a", view.OtherUserID)
	assert.Contains(t, env.notifier.types("a"), EventMatchUpdated)
}

// TestAgree_ActivatesAndAppliesCooldown verifies the second agreement.
func TestAgree_ActivatesAndAppliesCooldown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	match := env.activeMatch(t, "a", "b")

	require.NotNil(t, match.ChatUnlockedAt)
	require.NotNil(t, match.ExpiresAt)
	assert.Equal(t, testEpoch, *match.ChatUnlockedAt)
	assert.Equal(t, testEpoch.Add(24*time.Hour), *match.ExpiresAt)

	for _, id := range []string{"a", "b"} {
		member, err := env.store.Members().GetByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, member.CooldownUntil)
		assert.Equal(t, testEpoch.Add(14*time.Hour), *member.CooldownUntil)
	}
	assert.Contains(t, env.notifier.types("a"), EventMatchActive)
}

// TestAgree_Commutative verifies agreement order does not matter.
func TestAgree_Commutative(t *testing.T) {
	for _, order := range [][2]string{{"a", "b"}, {"b", "a"}} {
		env := newTestEnv(t)
		ctx := context.Background()
		match := env.mutualMatch(t, "a", "b")

		_, err := env.matches.Agree(ctx, match.ID, order[0])
		require.NoError(t, err)
		view, err := env.matches.Agree(ctx, match.ID, order[1])
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusActive, view.Status)
		assert.True(t, view.BothAgreed())
	}
}

// TestAgree_Monotonic verifies repeat agreements leave an active match as is.
func TestAgree_Monotonic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	match := env.activeMatch(t, "a", "b")

	env.clock.Advance(3 * time.Hour)
	for _, id := range []string{"a", "b", "a"} {
		view, err := env.matches.Agree(ctx, match.ID, id)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusActive, view.Status)
		assert.Equal(t, *match.ExpiresAt, *view.ExpiresAt)
		assert.Equal(t, *match.ChatUnlockedAt, *view.ChatUnlockedAt)
	}

	member, err := env.store.Members().GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, testEpoch.Add(14*time.Hour), *member.CooldownUntil, "cooldown is applied once")
}

// TestAgree_RetryCompletesCooldown verifies a failed cooldown write is
// finished by the next agreement on the now active match.
func TestAgree_RetryCompletesCooldown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	match := env.mutualMatch(t, "a", "b")

	members := &flakyMembers{MemberStore: env.store.Members(), failSetCooldown: 1}
	s := env.store
	svc := NewMatchService(members, s.Pools(), s.Requests(), s.Matches(), s.Reports(), s.Messages(), env.cfg, env.opts...)

	_, err := svc.Agree(ctx, match.ID, "a")
	require.NoError(t, err)
	_, err = svc.Agree(ctx, match.ID, "b")
	require.Error(t, err)

	got, err := s.Matches().GetByID(ctx, match.ID)
	require.NoError(t, err)
	require.Equal(t, models.MatchStatusActive, got.Status)

	env.clock.Advance(time.Hour)
	view, err := svc.Agree(ctx, match.ID, "b")
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusActive, view.Status)

	for _, id := range []string{"a", "b"} {
		member, err := s.Members().GetByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, member.CooldownUntil, id)
		assert.Equal(t, testEpoch.Add(14*time.Hour), *member.CooldownUntil, id)
	}
}

// TestAgree_KeepsLongerCooldown verifies activation never shortens a cooldown.
func TestAgree_KeepsLongerCooldown(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	match := env.mutualMatch(t, "a", "b")

	later := testEpoch.Add(48 * time.Hour)
	require.NoError(t, env.store.Members().SetCooldown(ctx, "a", later))

	_, err := env.matches.Agree(ctx, match.ID, "a")
	require.NoError(t, err)
	_, err = env.matches.Agree(ctx, match.ID, "b")
	require.NoError(t, err)

	a, err := env.store.Members().GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, later, *a.CooldownUntil)
	b, err := env.store.Members().GetByID(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, testEpoch.Add(14*time.Hour), *b.CooldownUntil)
}

// TestAgree_ConcurrentBothMembers verifies neither agreement is lost.
func TestAgree_ConcurrentBothMembers(t *testing.T) {
	for round := 0; round < 25; round++ {
		env := newTestEnv(t)
		ctx := context.Background()
		match := env.mutualMatch(t, "a", "b")

		var wg sync.WaitGroup
		for _, id := range []string{"a", "b"} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := env.matches.Agree(ctx, match.ID, id)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		got, err := env.store.Matches().GetByID(ctx, match.ID)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusActive, got.Status, "round %d", round)
	}
}

// TestAgree_Rejections verifies permission, lookup and state failures.
func TestAgree_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	match := env.mutualMatch(t, "a", "b")

	_, err := env.matches.Agree(ctx, match.ID, "stranger")
	assert.True(t, apperr.Is(err, apperr.KindPermission))

	_, err = env.matches.Agree(ctx, "missing", "a")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = env.matches.Report(ctx, match.ID, "a", "spam", "")
	require.NoError(t, err)
	_, err = env.matches.Agree(ctx, match.ID, "b")
	assert.True(t, apperr.Is(err, apperr.KindState))
	assert.Contains(t, err.Error(), "reported")
}

// TestReport_FreezesMatch verifies the report record and the terminal status.
func TestReport_FreezesMatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	match := env.activeMatch(t, "a", "b")
	_, err := env.chat.PostMessage(ctx, match.ID, "b", "hey")
	require.NoError(t, err)

	report, err := env.matches.Report(ctx, match.ID, "a", "  rude  ", "left early")
	require.NoError(t, err)
	assert.Equal(t, "a", report.ReporterID)
	assert.Equal(t, "b", report.ReportedUserID)
	assert.Equal(t, "rude", report.Reason)
	assert.Equal(t, "left early", report.Details)

	got, err := env.store.Matches().GetByID(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusReported, got.Status)

	reports := env.store.Reports().List()
	require.Len(t, reports, 1)
	assert.Equal(t, report.ID, reports[0].ID)

	require.Len(t, env.archiver.archives, 1)
	archived := env.archiver.archives[0]
	assert.Equal(t, report.ID, archived.Report.ID)
	require.Len(t, archived.Transcript, 1)
	assert.Equal(t, "hey", archived.Transcript[0].Text)

	assert.Contains(t, env.notifier.types("b"), EventReported)

	_, err = env.matches.Report(ctx, match.ID, "b", "again", "")
	assert.True(t, apperr.Is(err, apperr.KindState))
}

// TestReport_FailedWriteCanBeRetried verifies a failed report write leaves
// the match open so the report can be filed again.
func TestReport_FailedWriteCanBeRetried(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	match := env.activeMatch(t, "a", "b")

	s := env.store
	reports := &flakyReports{ReportStore: s.Reports(), failFile: 1}
	svc := NewMatchService(s.Members(), s.Pools(), s.Requests(), s.Matches(), reports, s.Messages(), env.cfg, env.opts...)

	_, err := svc.Report(ctx, match.ID, "a", "rude", "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnknown, apperr.KindOf(err))

	got, err := s.Matches().GetByID(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusActive, got.Status)
	assert.Empty(t, s.Reports().List())

	report, err := svc.Report(ctx, match.ID, "a", "rude", "")
	require.NoError(t, err)
	assert.Equal(t, "b", report.ReportedUserID)

	got, err = s.Matches().GetByID(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusReported, got.Status)
	assert.Len(t, s.Reports().List(), 1)
}

// TestReport_Pending verifies a pending match can be reported.
func TestReport_Pending(t *testing.T) {
	env := newTestEnv(t)
	match := env.mutualMatch(t, "a", "b")

	report, err := env.matches.Report(context.Background(), match.ID, "b", "creepy", "")
	require.NoError(t, err)
	assert.Equal(t, "a", report.ReportedUserID)
}

// TestReport_Rejections verifies validation and permission failures leave the
// match untouched.
func TestReport_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	match := env.mutualMatch(t, "a", "b")

	_, err := env.matches.Report(ctx, match.ID, "a", "   ", "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = env.matches.Report(ctx, match.ID, "stranger", "spam", "")
	assert.True(t, apperr.Is(err, apperr.KindPermission))

	_, err = env.matches.Report(ctx, "missing", "a", "spam", "")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	got, err := env.store.Matches().GetByID(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusPending, got.Status)
	assert.Empty(t, env.store.Reports().List())
}

// TestReport_ArchiveFailureIsNotFatal verifies the report stands when S3 fails.
func TestReport_ArchiveFailureIsNotFatal(t *testing.T) {
	env := newTestEnv(t)
	env.archiver.err = errors.New("bucket unavailable")
	match := env.mutualMatch(t, "a", "b")

	_, err := env.matches.Report(context.Background(), match.ID, "a", "spam", "")
	require.NoError(t, err)
	assert.Len(t, env.store.Reports().List(), 1)
}

// TestGetMatch_ParticipantView verifies other_user_id and the expiry flag.
func TestGetMatch_ParticipantView(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	match := env.activeMatch(t, "a", "b")

	view, err := env.matches.GetMatch(ctx, match.ID, "b")
	require.NoError(t, err)
	assert.Equal(t, "a", view.OtherUserID)
	assert.False(t, view.Expired)

	env.clock.Advance(25 * time.Hour)
	view, err = env.matches.GetMatch(ctx, match.ID, "a")
	require.NoError(t, err)
	assert.True(t, view.Expired)
	assert.Equal(t, models.MatchStatusActive, view.Status, "readers never rewrite status")

	_, err = env.matches.GetMatch(ctx, match.ID, "stranger")
	assert.True(t, apperr.Is(err, apperr.KindPermission))
}

// TestListMatches_NewestFirst verifies listing order and scoping.
func TestListMatches_NewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	older := env.mutualMatch(t, "a", "b")
	env.clock.Advance(time.Minute)

	pool := env.seat(t, "campus-ab", "c")
	require.Equal(t, older.PoolID, pool.ID)
	_, err := env.matches.RequestMeetup(ctx, "a", "c", pool.ID)
	require.NoError(t, err)
	res, err := env.matches.RequestMeetup(ctx, "c", "a", pool.ID)
	require.NoError(t, err)

	views, err := env.matches.ListMatches(ctx, "a")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, res.MatchID, views[0].ID)
	assert.Equal(t, "c", views[0].OtherUserID)
	assert.Equal(t, older.ID, views[1].ID)

	onlyB, err := env.matches.ListMatches(ctx, "b")
	require.NoError(t, err)
	assert.Len(t, onlyB, 1)

	none, err := env.matches.ListMatches(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}
