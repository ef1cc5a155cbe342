package handler

import (
	"context"
	"net/http"

	"github.com/foliotrack/foliotrack/internal/module/valuation"
)

// DashboardSourceInterface computes system-wide statistics
type DashboardSourceInterface interface {
	DashboardStats(ctx context.Context) (*valuation.DashboardStats, error)
}

// DashboardHandler handles dashboard HTTP requests
type DashboardHandler struct {
	stats DashboardSourceInterface
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(stats DashboardSourceInterface) *DashboardHandler {
	return &DashboardHandler{stats: stats}
}

// GetDashboardStats handles GET /dashboard/stats
func (h *DashboardHandler) GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.DashboardStats(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to compute dashboard stats")
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}
