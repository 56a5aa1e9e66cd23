package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"campus-vibe-backend/internal/apperr"
	"campus-vibe-backend/internal/config"
	"campus-vibe-backend/internal/models"
	"campus-vibe-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MessageView is a chat message as seen by a participant
type MessageView struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	IsMe      bool      `json:"is_me"`
}

// ChatService handles the chat of active mutual matches
type ChatService struct {
	matches  MatchStore
	messages MessageStore
	cfg      config.MatchingConfig
	opts     options
}

// NewChatService creates a new chat service
func NewChatService(matches MatchStore, messages MessageStore, cfg config.MatchingConfig, opts ...Option) *ChatService {
	return &ChatService{
		matches:  matches,
		messages: messages,
		cfg:      cfg,
		opts:     buildOptions(opts),
	}
}

// PostMessage appends a message from senderID to an active match
func (s *ChatService) PostMessage(ctx context.Context, matchID, senderID, text string) (*MessageView, error) {
	match, err := s.activeMatch(ctx, matchID, senderID)
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperr.Validation("text is required")
	}
	if utf8.RuneCountInString(text) > s.cfg.MaxMessageLength {
		return nil, apperr.Validation("text exceeds %d characters", s.cfg.MaxMessageLength)
	}

	msg := &models.ChatMessage{
		ID:        uuid.New().String(),
		MatchID:   match.ID,
		SenderID:  senderID,
		Text:      text,
		CreatedAt: s.opts.now(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		if errors.Is(err, repository.ErrChatLocked) {
			return nil, apperr.State("chat is locked: match is no longer active").Wrap(err)
		}
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	chatMessagesTotal.Inc()
	log.Debug().
		Str("match_id", match.ID).
		Str("sender_id", senderID).
		Msg("Chat message posted")

	if other, ok := match.OtherUserID(senderID); ok {
		s.opts.notifier.Notify(other, WSMessage{
			Type:    EventNewMessage,
			MatchID: match.ID,
			Data:    messageView(msg, other),
		})
	}
	return messageView(msg, senderID), nil
}

// ListMessages returns the chat of an active match in posting order
func (s *ChatService) ListMessages(ctx context.Context, matchID, viewerID string) ([]*MessageView, error) {
	match, err := s.activeMatch(ctx, matchID, viewerID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.messages.ListByMatch(ctx, match.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	views := make([]*MessageView, 0, len(msgs))
	for _, msg := range msgs {
		views = append(views, messageView(msg, viewerID))
	}
	return views, nil
}

// activeMatch applies the chat gates: the match exists, memberID is in it,
// and it is active
func (s *ChatService) activeMatch(ctx context.Context, matchID, memberID string) (*models.MutualMatch, error) {
	match, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, lookupErr(err, "match")
	}
	if !match.HasUser(memberID) {
		return nil, apperr.Permission("you are not part of this match")
	}
	if match.Status != models.MatchStatusActive {
		return nil, apperr.State("chat is locked: match is %s", match.Status)
	}
	return match, nil
}

func messageView(msg *models.ChatMessage, viewerID string) *MessageView {
	return &MessageView{
		ID:        msg.ID,
		Text:      msg.Text,
		CreatedAt: msg.CreatedAt,
		IsMe:      msg.SenderID == viewerID,
	}
}
