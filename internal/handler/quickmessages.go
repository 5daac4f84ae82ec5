package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atendimento/crm-dashboard/internal/model"
	"github.com/atendimento/crm-dashboard/internal/service"
	"github.com/atendimento/crm-dashboard/pkg/logger"
)

// QuickMessageHandler handles quick reply template endpoints.
type QuickMessageHandler struct {
	service *service.QuickMessageService
	logger  *logger.Logger
}

// NewQuickMessageHandler creates a new quick message handler.
func NewQuickMessageHandler(svc *service.QuickMessageService, log *logger.Logger) *QuickMessageHandler {
	return &QuickMessageHandler{
		service: svc,
		logger:  log,
	}
}

// List handles GET /api/quick-messages
// Disabled templates are included with ?all=true.
func (h *QuickMessageHandler) List(w http.ResponseWriter, r *http.Request) {
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))
	qms, outcome := h.service.List(r.Context(), all)
	writeList(w, qms, outcome)
}

// Get handles GET /api/quick-messages/{id}
func (h *QuickMessageHandler) Get(w http.ResponseWriter, r *http.Request) {
	qm, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, qm)
}

// Create handles POST /api/quick-messages
func (h *QuickMessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateQuickMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	qm, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, qm)
}

// Update handles PUT /api/quick-messages/{id}
func (h *QuickMessageHandler) Update(w http.ResponseWriter, r *http.Request) {
	var upd model.QuickMessageUpdate
	if err := decodeJSON(r, &upd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	qm, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, qm)
}

// Delete handles DELETE /api/quick-messages/{id}
func (h *QuickMessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Reorder handles POST /api/quick-messages/reorder
func (h *QuickMessageHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req model.ReorderQuickMessagesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.Reorder(r.Context(), req.OrderedIDs); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
