package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/atendimento/crm-dashboard/internal/model"
	"github.com/atendimento/crm-dashboard/internal/service"
	"github.com/atendimento/crm-dashboard/pkg/logger"
)

// LeadHandler handles lead and trava endpoints.
type LeadHandler struct {
	service *service.LeadService
	logger  *logger.Logger
}

// NewLeadHandler creates a new lead handler.
func NewLeadHandler(svc *service.LeadService, log *logger.Logger) *LeadHandler {
	return &LeadHandler{
		service: svc,
		logger:  log,
	}
}

// identifier parses the {identifier} path parameter once for the handler.
func identifier(r *http.Request) (model.LeadIdentifier, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "identifier"))
	if raw == "" {
		return model.LeadIdentifier{}, false
	}
	return model.ParseLeadIdentifier(raw), true
}

// List handles GET /api/leads
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	leads, outcome := h.service.List(r.Context())
	writeList(w, leads, outcome)
}

// Create handles POST /api/leads
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateLeadRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lead, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, lead)
}

// Get handles GET /api/leads/{identifier}
func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := identifier(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "identifier is required")
		return
	}

	lead, err := h.service.Find(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

// Update handles PUT /api/leads/{identifier}
func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := identifier(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "identifier is required")
		return
	}

	var upd model.LeadUpdate
	if err := decodeJSON(r, &upd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lead, err := h.service.Update(r.Context(), id, upd)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

// UpdateStatus handles PUT /api/leads/{identifier}/status
func (h *LeadHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := identifier(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "identifier is required")
		return
	}

	var req model.UpdateLeadStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lead, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lead)
}

// Delete handles DELETE /api/leads/{identifier}
func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := identifier(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "identifier is required")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// GetTrava handles GET /api/leads/{identifier}/trava
func (h *LeadHandler) GetTrava(w http.ResponseWriter, r *http.Request) {
	id, ok := identifier(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "identifier is required")
		return
	}

	trava, err := h.service.GetTrava(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.TravaStatus{UserID: id.Raw, Trava: trava})
}

// SetTrava handles POST /api/leads/{identifier}/trava
func (h *LeadHandler) SetTrava(w http.ResponseWriter, r *http.Request) {
	id, ok := identifier(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "identifier is required")
		return
	}

	var req model.SetTravaRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Trava == nil {
		writeError(w, http.StatusBadRequest, "trava is required")
		return
	}

	status, err := h.service.SetTrava(r.Context(), id, *req.Trava)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// ToggleTrava handles POST /api/leads/{identifier}/toggle-trava
func (h *LeadHandler) ToggleTrava(w http.ResponseWriter, r *http.Request) {
	id, ok := identifier(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "identifier is required")
		return
	}

	status, err := h.service.ToggleTrava(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
