package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/atendimento/crm-dashboard/internal/realtime"
	"github.com/atendimento/crm-dashboard/internal/repository"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	store *repository.Store
	hub   *realtime.Hub
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(store *repository.Store, hub *realtime.Hub) *HealthHandler {
	return &HealthHandler{
		store: store,
		hub:   hub,
	}
}

// ReadyStatus is the body of GET /ready.
type ReadyStatus struct {
	Status    string `json:"status"`
	Storage   string `json:"storage"`
	Backplane string `json:"backplane"`
	Sessions  int    `json:"sessions"`
	Reason    string `json:"reason,omitempty"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	bp := h.hub.Backplane()
	status := ReadyStatus{
		Status:    "ready",
		Storage:   h.store.Mode,
		Backplane: bp.Name(),
		Sessions:  h.hub.SessionCount(),
	}

	if h.store.Ping != nil {
		if err := h.store.Ping(ctx); err != nil {
			status.Status = "not ready"
			status.Reason = "storage unreachable: " + err.Error()
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
	}

	if err := bp.Ping(ctx); err != nil {
		status.Status = "not ready"
		status.Reason = "backplane unreachable: " + err.Error()
		writeJSON(w, http.StatusServiceUnavailable, status)
		return
	}

	writeJSON(w, http.StatusOK, status)
}
