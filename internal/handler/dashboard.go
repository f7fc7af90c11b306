package handler

import (
	"net/http"

	"github.com/msomdec/squadhub/internal/service"
	"github.com/msomdec/squadhub/internal/view"
)

// DashboardHandler handles the dashboard page.
type DashboardHandler struct {
	dashboard *service.DashboardAggregator
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboard *service.DashboardAggregator) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// HandleDashboard renders recommendations, trending groups, recent posts
// and the user's groups. Failed sections render inline; the page itself
// always succeeds.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	session := SessionFromContext(r.Context())
	if session == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	d := h.dashboard.Bootstrap(r.Context(), session)
	render(w, r, http.StatusOK, view.DashboardPage(session, d, popFlash(w, r)))
}
