package models

import "time"

// Member is the account-side view of a user that matchmaking reads.
// The account subsystem owns the record; only CooldownUntil is written here.
type Member struct {
	ID            string     `json:"id"`
	Campus        string     `json:"campus"`
	CooldownUntil *time.Time `json:"cooldown_until,omitempty"`
	Profile       Profile    `json:"profile"`
	CreatedAt     time.Time  `json:"created_at"`
}

// InCooldown reports whether the member is still throttled at now
func (m *Member) InCooldown(now time.Time) bool {
	return m.CooldownUntil != nil && m.CooldownUntil.After(now)
}

// Profile holds the tags used as compatibility input
type Profile struct {
	AvatarEmoji      string   `json:"avatar_emoji,omitempty"`
	BrainType        string   `json:"brain_type"`
	Interests        []string `json:"interests"`
	SocialEnergy     []string `json:"social_energy"`
	ConnectionIntent []string `json:"connection_intent"`
}

// Pool is a bounded discovery group scoped to a campus
type Pool struct {
	ID        string    `json:"id"`
	Campus    string    `json:"campus"`
	IsFull    bool      `json:"is_full"`
	MemberIDs []string  `json:"member_ids"`
	CreatedAt time.Time `json:"created_at"`
}

// HasMember reports whether memberID is seated in the pool
func (p *Pool) HasMember(memberID string) bool {
	for _, id := range p.MemberIDs {
		if id == memberID {
			return true
		}
	}
	return false
}

// MatchRequest is a one-directional interest from one member to another within a pool
type MatchRequest struct {
	FromUserID string    `json:"from_user_id"`
	ToUserID   string    `json:"to_user_id"`
	PoolID     string    `json:"pool_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// MatchStatus is the lifecycle state of a MutualMatch
type MatchStatus string

const (
	MatchStatusPending  MatchStatus = "pending"
	MatchStatusActive   MatchStatus = "active"
	MatchStatusExpired  MatchStatus = "expired"
	MatchStatusReported MatchStatus = "reported"
)

// MutualMatch is a confirmed pairing. User1ID < User2ID always holds.
type MutualMatch struct {
	ID              string      `json:"id"`
	User1ID         string      `json:"user1_id"`
	User2ID         string      `json:"user2_id"`
	PoolID          string      `json:"pool_id"`
	Status          MatchStatus `json:"status"`
	MeetingLocation string      `json:"meeting_location"`
	MeetingTime     *time.Time  `json:"meeting_time,omitempty"`
	User1Agreed     bool        `json:"user1_agreed"`
	User2Agreed     bool        `json:"user2_agreed"`
	ChatUnlockedAt  *time.Time  `json:"chat_unlocked_at,omitempty"`
	ExpiresAt       *time.Time  `json:"expires_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

// CanonicalPair orders two member IDs so the lower one comes first
func CanonicalPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}

// HasUser reports whether memberID is one of the two participants
func (m *MutualMatch) HasUser(memberID string) bool {
	return m.User1ID == memberID || m.User2ID == memberID
}

// OtherUserID returns the participant that is not memberID
func (m *MutualMatch) OtherUserID(memberID string) (string, bool) {
	switch memberID {
	case m.User1ID:
		return m.User2ID, true
	case m.User2ID:
		return m.User1ID, true
	}
	return "", false
}

// BothAgreed reports whether both agreement flags are set
func (m *MutualMatch) BothAgreed() bool {
	return m.User1Agreed && m.User2Agreed
}

// IsExpired is advisory; status is never rewritten from it.
func (m *MutualMatch) IsExpired(now time.Time) bool {
	return m.ExpiresAt != nil && now.After(*m.ExpiresAt)
}

// MatchReport records a safety report filed against a match participant
type MatchReport struct {
	ID             string    `json:"id"`
	MatchID        string    `json:"match_id"`
	ReporterID     string    `json:"reporter_id"`
	ReportedUserID string    `json:"reported_user_id"`
	Reason         string    `json:"reason"`
	Details        string    `json:"details"`
	CreatedAt      time.Time `json:"created_at"`
}

// ChatMessage is an immutable message posted inside an active match
type ChatMessage struct {
	ID        string    `json:"id"`
	MatchID   string    `json:"match_id"`
	SenderID  string    `json:"sender_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
