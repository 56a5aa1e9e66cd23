// Package memory provides in-process stores with the same atomicity contract
// as the PostgreSQL repositories. All collections share one mutex, which
// trivially serializes pool seats, request quotas and match updates.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"campus-vibe-backend/internal/models"
	"campus-vibe-backend/internal/repository"
)

type requestKey struct {
	from, to, pool string
}

type pairKey struct {
	user1, user2, pool string
}

// Store holds every collection
type Store struct {
	mu          sync.Mutex
	members     map[string]*models.Member
	pools       map[string]*models.Pool
	requests    map[requestKey]*models.MatchRequest
	matches     map[string]*models.MutualMatch
	matchByPair map[pairKey]string
	messages    map[string][]*models.ChatMessage
	reports     []*models.MatchReport
}

// New creates an empty store
func New() *Store {
	return &Store{
		members:     make(map[string]*models.Member),
		pools:       make(map[string]*models.Pool),
		requests:    make(map[requestKey]*models.MatchRequest),
		matches:     make(map[string]*models.MutualMatch),
		matchByPair: make(map[pairKey]string),
		messages:    make(map[string][]*models.ChatMessage),
	}
}

// Members returns the member collection
func (s *Store) Members() *MemberStore { return &MemberStore{s} }

// Pools returns the pool collection
func (s *Store) Pools() *PoolStore { return &PoolStore{s} }

// Requests returns the meetup request collection
func (s *Store) Requests() *RequestStore { return &RequestStore{s} }

// Matches returns the mutual match collection
func (s *Store) Matches() *MatchStore { return &MatchStore{s} }

// Messages returns the chat collection
func (s *Store) Messages() *MessageStore { return &MessageStore{s} }

// Reports returns the report collection
func (s *Store) Reports() *ReportStore { return &ReportStore{s} }

// MemberStore is the in-memory member collection
type MemberStore struct{ s *Store }

// Put inserts or replaces a member
func (m *MemberStore) Put(member *models.Member) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	c := *member
	m.s.members[member.ID] = &c
}

// Upsert is Put with the repository signature
func (m *MemberStore) Upsert(_ context.Context, member *models.Member) error {
	m.Put(member)
	return nil
}

// GetByID retrieves a member by ID
func (m *MemberStore) GetByID(_ context.Context, id string) (*models.Member, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	member, ok := m.s.members[id]
	if !ok {
		return nil, fmt.Errorf("member %s: %w", id, repository.ErrNotFound)
	}
	c := *member
	return &c, nil
}

// SetCooldown updates the discovery cooldown for a member
func (m *MemberStore) SetCooldown(_ context.Context, id string, until time.Time) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	member, ok := m.s.members[id]
	if !ok {
		return fmt.Errorf("member %s: %w", id, repository.ErrNotFound)
	}
	member.CooldownUntil = &until
	return nil
}

// PoolStore is the in-memory pool collection
type PoolStore struct{ s *Store }

// GetByID retrieves a pool with its member IDs
func (p *PoolStore) GetByID(_ context.Context, id string) (*models.Pool, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	pool, ok := p.s.pools[id]
	if !ok {
		return nil, fmt.Errorf("pool %s: %w", id, repository.ErrNotFound)
	}
	return clonePool(pool), nil
}

// FindOpenByMember returns the open pool the member is seated in
func (p *PoolStore) FindOpenByMember(_ context.Context, memberID string) (*models.Pool, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if pool := p.s.openPoolLocked(memberID); pool != nil {
		return clonePool(pool), nil
	}
	return nil, repository.ErrNotFound
}

// FindJoinable lists open pools on campus that do not contain memberID, oldest first
func (p *PoolStore) FindJoinable(_ context.Context, campus, memberID string, limit int) ([]string, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	var candidates []*models.Pool
	for _, pool := range p.s.pools {
		if pool.Campus == campus && !pool.IsFull && !pool.HasMember(memberID) {
			candidates = append(candidates, pool)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})
	ids := make([]string, 0, len(candidates))
	for i, pool := range candidates {
		if limit > 0 && i == limit {
			break
		}
		ids = append(ids, pool.ID)
	}
	return ids, nil
}

// AddMember seats memberID if the pool has a free slot and marks it full
// when the last slot is taken
func (p *PoolStore) AddMember(_ context.Context, poolID, memberID string, capacity int) (*models.Pool, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if p.s.openPoolLocked(memberID) != nil {
		return nil, repository.ErrAlreadySeated
	}
	pool, ok := p.s.pools[poolID]
	if !ok {
		return nil, fmt.Errorf("pool %s: %w", poolID, repository.ErrNotFound)
	}
	if pool.IsFull || len(pool.MemberIDs) >= capacity {
		return nil, repository.ErrPoolFull
	}
	if pool.HasMember(memberID) {
		return nil, repository.ErrAlreadySeated
	}
	pool.MemberIDs = append(pool.MemberIDs, memberID)
	if len(pool.MemberIDs) >= capacity {
		pool.IsFull = true
	}
	return clonePool(pool), nil
}

// Create inserts a new pool seeded with its initial members
func (p *PoolStore) Create(_ context.Context, pool *models.Pool) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if len(pool.MemberIDs) == 0 {
		return fmt.Errorf("pool must start with a member")
	}
	if p.s.openPoolLocked(pool.MemberIDs[0]) != nil {
		return repository.ErrAlreadySeated
	}
	if _, exists := p.s.pools[pool.ID]; exists {
		return fmt.Errorf("pool %s already exists", pool.ID)
	}
	p.s.pools[pool.ID] = clonePool(pool)
	return nil
}

// openPoolLocked returns the oldest open pool containing memberID. Caller holds mu.
func (s *Store) openPoolLocked(memberID string) *models.Pool {
	var found *models.Pool
	for _, pool := range s.pools {
		if pool.IsFull || !pool.HasMember(memberID) {
			continue
		}
		if found == nil || pool.CreatedAt.Before(found.CreatedAt) {
			found = pool
		}
	}
	return found
}

func clonePool(p *models.Pool) *models.Pool {
	c := *p
	c.MemberIDs = slices.Clone(p.MemberIDs)
	return &c
}

// RequestStore is the in-memory request collection
type RequestStore struct{ s *Store }

// Record stores req unless the same triple exists. created is false for a
// duplicate; a new request past quota fails with repository.ErrQuotaExceeded.
func (r *RequestStore) Record(_ context.Context, req *models.MatchRequest, quota int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := requestKey{req.FromUserID, req.ToUserID, req.PoolID}
	if _, exists := r.s.requests[key]; exists {
		return false, nil
	}
	if r.s.sentCountLocked(req.FromUserID, req.PoolID) >= quota {
		return false, repository.ErrQuotaExceeded
	}
	c := *req
	r.s.requests[key] = &c
	return true, nil
}

// Exists reports whether fromID has requested toID in the pool
func (r *RequestStore) Exists(_ context.Context, fromID, toID, poolID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.requests[requestKey{fromID, toID, poolID}]
	return ok, nil
}

// ListSent returns the requests fromID sent in the pool, oldest first
func (r *RequestStore) ListSent(_ context.Context, fromID, poolID string) ([]*models.MatchRequest, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*models.MatchRequest
	for key, req := range r.s.requests {
		if key.from == fromID && key.pool == poolID {
			c := *req
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ToUserID < out[j].ToUserID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) sentCountLocked(fromID, poolID string) int {
	n := 0
	for key := range s.requests {
		if key.from == fromID && key.pool == poolID {
			n++
		}
	}
	return n
}

// MatchStore is the in-memory mutual match collection
type MatchStore struct{ s *Store }

// CreateOrGet inserts match, or returns the existing match for the same
// (user1, user2, pool)
func (m *MatchStore) CreateOrGet(_ context.Context, match *models.MutualMatch) (*models.MutualMatch, bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	key := pairKey{match.User1ID, match.User2ID, match.PoolID}
	if id, ok := m.s.matchByPair[key]; ok {
		c := *m.s.matches[id]
		return &c, false, nil
	}
	c := *match
	m.s.matches[match.ID] = &c
	m.s.matchByPair[key] = match.ID
	out := c
	return &out, true, nil
}

// GetByID retrieves a match by ID
func (m *MatchStore) GetByID(_ context.Context, id string) (*models.MutualMatch, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	match, ok := m.s.matches[id]
	if !ok {
		return nil, fmt.Errorf("match %s: %w", id, repository.ErrNotFound)
	}
	c := *match
	return &c, nil
}

// Update applies fn to a copy of the match and stores it if fn succeeds
func (m *MatchStore) Update(_ context.Context, id string, fn func(*models.MutualMatch) error) (*models.MutualMatch, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	match, ok := m.s.matches[id]
	if !ok {
		return nil, fmt.Errorf("match %s: %w", id, repository.ErrNotFound)
	}
	working := *match
	if err := fn(&working); err != nil {
		return nil, err
	}
	*match = working
	out := working
	return &out, nil
}

// ListByMember returns every match the member takes part in, newest first
func (m *MatchStore) ListByMember(_ context.Context, memberID string) ([]*models.MutualMatch, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []*models.MutualMatch
	for _, match := range m.s.matches {
		if match.HasUser(memberID) {
			c := *match
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// MessageStore is the in-memory chat collection
type MessageStore struct{ s *Store }

// Create appends a message while its match is active
func (m *MessageStore) Create(_ context.Context, msg *models.ChatMessage) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	match, ok := m.s.matches[msg.MatchID]
	if !ok || match.Status != models.MatchStatusActive {
		return fmt.Errorf("match %s: %w", msg.MatchID, repository.ErrChatLocked)
	}
	c := *msg
	m.s.messages[msg.MatchID] = append(m.s.messages[msg.MatchID], &c)
	return nil
}

// ListByMatch returns the messages of a match in creation order
func (m *MessageStore) ListByMatch(_ context.Context, matchID string) ([]*models.ChatMessage, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stored := m.s.messages[matchID]
	out := make([]*models.ChatMessage, len(stored))
	for i, msg := range stored {
		c := *msg
		out[i] = &c
	}
	return out, nil
}

// ReportStore is the in-memory report collection
type ReportStore struct{ s *Store }

// File applies fn to a copy of the match and, if it succeeds, stores the
// match and the returned report together
func (r *ReportStore) File(_ context.Context, matchID string, fn func(*models.MutualMatch) (*models.MatchReport, error)) (*models.MutualMatch, *models.MatchReport, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	match, ok := r.s.matches[matchID]
	if !ok {
		return nil, nil, fmt.Errorf("match %s: %w", matchID, repository.ErrNotFound)
	}
	working := *match
	report, err := fn(&working)
	if err != nil {
		return nil, nil, err
	}
	*match = working
	stored := *report
	r.s.reports = append(r.s.reports, &stored)
	out := working
	return &out, report, nil
}

// List returns every report in insertion order
func (r *ReportStore) List() []*models.MatchReport {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*models.MatchReport, len(r.s.reports))
	for i, report := range r.s.reports {
		c := *report
		out[i] = &c
	}
	return out
}
