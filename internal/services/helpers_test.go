package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"campus-vibe-backend/internal/compat"
	"campus-vibe-backend/internal/config"
	"campus-vibe-backend/internal/models"
	"campus-vibe-backend/internal/repository/memory"

	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events map[string][]WSMessage
}

func (n *recordingNotifier) Notify(memberID string, msg WSMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.events == nil {
		n.events = make(map[string][]WSMessage)
	}
	n.events[memberID] = append(n.events[memberID], msg)
}

func (n *recordingNotifier) types(memberID string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, e := range n.events[memberID] {
		out = append(out, e.Type)
	}
	return out
}

type recordingArchiver struct {
	mu       sync.Mutex
	archives []*ReportArchive
	err      error
}

func (a *recordingArchiver) Archive(_ context.Context, archive *ReportArchive) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.archives = append(a.archives, archive)
	return nil
}

type testEnv struct {
	store    *memory.Store
	clock    *testClock
	cfg      config.MatchingConfig
	notifier *recordingNotifier
	archiver *recordingArchiver
	opts     []Option
	pools    *PoolService
	matches  *MatchService
	chat     *ChatService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, config.DefaultMatching())
}

func newTestEnvWithConfig(t *testing.T, cfg config.MatchingConfig) *testEnv {
	t.Helper()
	env := &testEnv{
		store:    memory.New(),
		clock:    &testClock{t: testEpoch},
		cfg:      cfg,
		notifier: &recordingNotifier{},
		archiver: &recordingArchiver{},
	}
	opts := []Option{
		WithClock(env.clock.Now),
		WithIntN(func(int) int { return 0 }),
		WithNotifier(env.notifier),
		WithArchiver(env.archiver),
	}
	env.opts = opts
	engine := compat.NewEngine(compat.WithJitter(func() float64 { return 0 }))
	s := env.store
	env.pools = NewPoolService(s.Members(), s.Pools(), s.Requests(), engine, cfg, opts...)
	env.matches = NewMatchService(s.Members(), s.Pools(), s.Requests(), s.Matches(), s.Reports(), s.Messages(), cfg, opts...)
	env.chat = NewChatService(s.Matches(), s.Messages(), cfg, opts...)
	return env
}

func (e *testEnv) addMember(id, campus string) {
	e.store.Members().Put(&models.Member{
		ID:     id,
		Campus: campus,
		Profile: models.Profile{
			BrainType:        "overthinker",
			Interests:        []string{"music", "coding"},
			SocialEnergy:     []string{"small_groups"},
			ConnectionIntent: []string{"friends"},
		},
		CreatedAt: testEpoch,
	})
}

// seat adds members to campus and resolves a pool for each, in order
func (e *testEnv) seat(t *testing.T, campus string, ids ...string) *models.Pool {
	t.Helper()
	var pool *models.Pool
	for _, id := range ids {
		e.addMember(id, campus)
		p, err := e.pools.GetOrJoinPool(context.Background(), id, campus)
		require.NoError(t, err)
		pool = p
	}
	return pool
}

// mutualMatch seats a and b together and has them request each other
func (e *testEnv) mutualMatch(t *testing.T, a, b string) *models.MutualMatch {
	t.Helper()
	ctx := context.Background()
	pool := e.seat(t, "campus-"+a+b, a, b)

	_, err := e.matches.RequestMeetup(ctx, a, b, pool.ID)
	require.NoError(t, err)
	res, err := e.matches.RequestMeetup(ctx, b, a, pool.ID)
	require.NoError(t, err)
	require.Equal(t, MeetupMutualMatch, res.Status)

	match, err := e.store.Matches().GetByID(ctx, res.MatchID)
	require.NoError(t, err)
	return match
}

// activeMatch builds a mutual match and has both members agree
func (e *testEnv) activeMatch(t *testing.T, a, b string) *models.MutualMatch {
	t.Helper()
	ctx := context.Background()
	match := e.mutualMatch(t, a, b)
	_, err := e.matches.Agree(ctx, match.ID, a)
	require.NoError(t, err)
	view, err := e.matches.Agree(ctx, match.ID, b)
	require.NoError(t, err)
	require.Equal(t, models.MatchStatusActive, view.Status)
	return view.MutualMatch
}

// flakyMembers fails the next failSetCooldown cooldown writes
type flakyMembers struct {
	MemberStore
	mu              sync.Mutex
	failSetCooldown int
}

func (f *flakyMembers) SetCooldown(ctx context.Context, id string, until time.Time) error {
	f.mu.Lock()
	if f.failSetCooldown > 0 {
		f.failSetCooldown--
		f.mu.Unlock()
		return errors.New("members unavailable")
	}
	f.mu.Unlock()
	return f.MemberStore.SetCooldown(ctx, id, until)
}

// flakyReports fails the next failFile report writes after the status
// change was computed, the way a failed insert aborts the transaction
type flakyReports struct {
	ReportStore
	failFile int
}

func (f *flakyReports) File(ctx context.Context, matchID string, fn func(*models.MutualMatch) (*models.MatchReport, error)) (*models.MutualMatch, *models.MatchReport, error) {
	if f.failFile == 0 {
		return f.ReportStore.File(ctx, matchID, fn)
	}
	f.failFile--
	return f.ReportStore.File(ctx, matchID, func(m *models.MutualMatch) (*models.MatchReport, error) {
		if _, err := fn(m); err != nil {
			return nil, err
		}
		return nil, errors.New("reports unavailable")
	})
}

// hookedMessages runs beforeCreate ahead of every insert
type hookedMessages struct {
	MessageStore
	beforeCreate func()
}

func (h *hookedMessages) Create(ctx context.Context, msg *models.ChatMessage) error {
	h.beforeCreate()
	return h.MessageStore.Create(ctx, msg)
}

func memberIDs(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s-%02d", prefix, i)
	}
	return ids
}
