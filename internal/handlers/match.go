package handlers

import (
	"net/http"

	"campus-vibe-backend/internal/middleware"
	"campus-vibe-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// MatchHandler handles meetup requests and mutual match HTTP requests
type MatchHandler struct {
	matchService *services.MatchService
}

// NewMatchHandler creates a new match handler
func NewMatchHandler(matchService *services.MatchService) *MatchHandler {
	return &MatchHandler{
		matchService: matchService,
	}
}

// MeetupRequest represents the request body for requesting a meetup
type MeetupRequest struct {
	TargetUserID string `json:"target_user_id" validate:"required"`
	PoolID       string `json:"pool_id" validate:"required"`
}

// ReportRequest represents the request body for reporting a match
type ReportRequest struct {
	Reason  string `json:"reason" validate:"required,max=100"`
	Details string `json:"details" validate:"max=2000"`
}

// ReportResponse is returned once a report is filed
type ReportResponse struct {
	Status   string `json:"status"`
	ReportID string `json:"report_id"`
}

// RequestMeetup handles POST /api/v1/matches/request
func (h *MatchHandler) RequestMeetup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID := middleware.GetUserID(ctx)

	var req MeetupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err, memberID, "Invalid meetup request")
		return
	}

	result, err := h.matchService.RequestMeetup(ctx, memberID, req.TargetUserID, req.PoolID)
	if err != nil {
		respondServiceError(w, err, memberID, "Failed to request meetup")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// ListMatches handles GET /api/v1/matches/mutual
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID := middleware.GetUserID(ctx)

	matches, err := h.matchService.ListMatches(ctx, memberID)
	if err != nil {
		respondServiceError(w, err, memberID, "Failed to list matches")
		return
	}

	respondJSON(w, http.StatusOK, matches)
}

// GetMatch handles GET /api/v1/matches/mutual/{match_id}
func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID := middleware.GetUserID(ctx)
	matchID := chi.URLParam(r, "match_id")

	match, err := h.matchService.GetMatch(ctx, matchID, memberID)
	if err != nil {
		respondServiceError(w, err, memberID, "Failed to get match")
		return
	}

	respondJSON(w, http.StatusOK, match)
}

// Agree handles POST /api/v1/matches/mutual/{match_id}/agree
func (h *MatchHandler) Agree(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID := middleware.GetUserID(ctx)
	matchID := chi.URLParam(r, "match_id")

	match, err := h.matchService.Agree(ctx, matchID, memberID)
	if err != nil {
		respondServiceError(w, err, memberID, "Failed to agree to match")
		return
	}

	log.Info().
		Str("member_id", memberID).
		Str("match_id", matchID).
		Str("status", string(match.Status)).
		Msg("Match agreement recorded")

	respondJSON(w, http.StatusOK, match)
}

// Report handles POST /api/v1/matches/mutual/{match_id}/report
func (h *MatchHandler) Report(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID := middleware.GetUserID(ctx)
	matchID := chi.URLParam(r, "match_id")

	var req ReportRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err, memberID, "Invalid report")
		return
	}

	report, err := h.matchService.Report(ctx, matchID, memberID, req.Reason, req.Details)
	if err != nil {
		respondServiceError(w, err, memberID, "Failed to report match")
		return
	}

	respondJSON(w, http.StatusCreated, ReportResponse{
		Status:   "submitted",
		ReportID: report.ID,
	})
}
