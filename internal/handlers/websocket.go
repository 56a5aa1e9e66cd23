package handlers

import (
	"encoding/json"
	"net/http"

	"campus-vibe-backend/internal/middleware"
	"campus-vibe-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // origins are enforced by the CORS layer
	},
}

// WebSocketHandler streams match events to connected members
type WebSocketHandler struct {
	hub          *services.WSHub
	authService  *services.AuthService
	matchService *services.MatchService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.WSHub,
	authService *services.AuthService,
	matchService *services.MatchService,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:          hub,
		authService:  authService,
		matchService: matchService,
	}
}

// HandleWebSocket handles GET /ws?token=...
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	memberID, err := middleware.ValidateWebSocketToken(r.URL.Query().Get("token"), h.authService)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.hub.Register(memberID, conn)
	defer h.hub.Unregister(memberID, conn)

	// Snapshot so a reconnecting client can resync without polling
	matches, err := h.matchService.ListMatches(r.Context(), memberID)
	if err != nil {
		log.Error().Err(err).Str("member_id", memberID).Msg("Failed to load matches for snapshot")
	} else {
		if err := h.hub.SendToUser(memberID, services.WSMessage{Type: "matches", Data: matches}); err != nil {
			log.Error().Err(err).Str("member_id", memberID).Msg("Failed to send matches snapshot")
		}
	}

	log.Info().Str("member_id", memberID).Msg("WebSocket connection established")

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("member_id", memberID).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			h.sendError(memberID, "Invalid message format")
			continue
		}

		switch msg.Type {
		case "ping":
			if err := h.hub.SendToUser(memberID, services.WSMessage{Type: services.EventPong}); err != nil {
				log.Error().Err(err).Str("member_id", memberID).Msg("Failed to send pong")
			}
		default:
			h.sendError(memberID, "Unknown message type")
		}
	}
}

// sendError sends an error message to a member
func (h *WebSocketHandler) sendError(memberID, message string) {
	msg := services.WSMessage{
		Type:    services.EventError,
		Message: message,
	}
	if err := h.hub.SendToUser(memberID, msg); err != nil {
		log.Error().Err(err).Str("member_id", memberID).Msg("Failed to send error message")
	}
}
