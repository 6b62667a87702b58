package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SummaryRebuilder recomputes a profile's analytics summary from its event log.
type SummaryRebuilder interface {
	RebuildAnalyticsSummary(ctx context.Context, profileID string) error
}

// AdminHandler provides operational endpoints behind the admin scope.
type AdminHandler struct {
	rebuilder SummaryRebuilder
	logger    *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(rebuilder SummaryRebuilder, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		rebuilder: rebuilder,
		logger:    logger.With("component", "handler.admin"),
	}
}

// RebuildSummary handles POST /v1/admin/profiles/{id}/rebuild-summary.
// Reconciles summary counters against the event log after drift or a
// partial outage.
func (h *AdminHandler) RebuildSummary(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "id")
	if profileID == "" {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Profile ID is required")
		return
	}

	if err := h.rebuilder.RebuildAnalyticsSummary(r.Context(), profileID); err != nil {
		h.logger.Error("summary rebuild failed", "profile_id", profileID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to rebuild summary")
		return
	}

	h.logger.Info("summary rebuilt", "profile_id", profileID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "rebuilt"})
}
