package handlers

import (
	"net/http"

	"campus-vibe-backend/internal/middleware"
	"campus-vibe-backend/internal/services"
)

// PoolHandler handles discovery pool HTTP requests
type PoolHandler struct {
	poolService *services.PoolService
}

// NewPoolHandler creates a new pool handler
func NewPoolHandler(poolService *services.PoolService) *PoolHandler {
	return &PoolHandler{
		poolService: poolService,
	}
}

// CurrentPool handles GET /api/v1/matches/pool
func (h *PoolHandler) CurrentPool(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID := middleware.GetUserID(ctx)

	view, err := h.poolService.CurrentPool(ctx, memberID)
	if err != nil {
		respondServiceError(w, err, memberID, "Failed to load pool")
		return
	}

	respondJSON(w, http.StatusOK, view)
}
