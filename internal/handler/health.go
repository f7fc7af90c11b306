package handler

import (
	"net/http"
)

// HealthHandler reports liveness and the configured document backend.
type HealthHandler struct {
	backend string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(backend string) *HealthHandler {
	return &HealthHandler{backend: backend}
}

// HandleHealthz responds with a 200 OK and a JSON body indicating the server is healthy.
func (h *HealthHandler) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "store": h.backend})
}
