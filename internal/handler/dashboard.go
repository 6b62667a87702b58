package handler

import (
	"log/slog"
	"net/http"

	"github.com/tipgrid/tipgrid/internal/auth"
	"github.com/tipgrid/tipgrid/internal/service"
)

// DashboardHandler serves owner analytics.
type DashboardHandler struct {
	dashboard *service.DashboardService
	profiles  *service.ProfileService
	logger    *slog.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboard *service.DashboardService, profiles *service.ProfileService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		profiles:  profiles,
		logger:    logger.With("component", "handler.dashboard"),
	}
}

// GetAnalytics handles GET /v1/dashboard/analytics.
// Always returns 200; a broken analytics backend degrades to zeros so the
// dashboard page still renders.
func (h *DashboardHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return
	}

	profile, err := h.profiles.GetOwnProfile(r.Context(), authCtx.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "No profile for caller")
		return
	}

	view := h.dashboard.GetAnalyticsData(r.Context(), profile.ID)
	writeJSON(w, http.StatusOK, view)
}
