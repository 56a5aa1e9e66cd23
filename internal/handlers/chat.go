package handlers

import (
	"net/http"

	"campus-vibe-backend/internal/middleware"
	"campus-vibe-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// ChatHandler handles match chat HTTP requests
type ChatHandler struct {
	chatService *services.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
	}
}

// SendMessageRequest represents the request body for posting a message
type SendMessageRequest struct {
	Text string `json:"text" validate:"required"`
}

// SendMessage handles POST /api/v1/matches/mutual/{match_id}/send_message
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID := middleware.GetUserID(ctx)
	matchID := chi.URLParam(r, "match_id")

	var req SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err, memberID, "Invalid message")
		return
	}

	msg, err := h.chatService.PostMessage(ctx, matchID, memberID, req.Text)
	if err != nil {
		respondServiceError(w, err, memberID, "Failed to send message")
		return
	}

	respondJSON(w, http.StatusOK, msg)
}

// ListMessages handles GET /api/v1/matches/mutual/{match_id}/messages
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID := middleware.GetUserID(ctx)
	matchID := chi.URLParam(r, "match_id")

	msgs, err := h.chatService.ListMessages(ctx, matchID, memberID)
	if err != nil {
		respondServiceError(w, err, memberID, "Failed to list messages")
		return
	}

	respondJSON(w, http.StatusOK, msgs)
}
