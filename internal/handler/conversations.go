// Package handler provides HTTP handlers for the dashboard API.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atendimento/crm-dashboard/internal/middleware"
	"github.com/atendimento/crm-dashboard/internal/model"
	"github.com/atendimento/crm-dashboard/internal/service"
	"github.com/atendimento/crm-dashboard/pkg/logger"
)

// ConversationHandler handles conversation endpoints.
type ConversationHandler struct {
	service *service.ConversationService
	logger  *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(svc *service.ConversationService, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: svc,
		logger:  log,
	}
}

// List handles GET /api/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	convs, outcome := h.service.GetAll(r.Context())
	writeList(w, convs, outcome)
}

// Get handles GET /api/conversations/{userId}
// Returns a page of messages counted back from the newest (?limit, ?offset)
// and marks the conversation as read.
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if err := middleware.ValidateUserID(userID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, outcome := h.service.Page(r.Context(), userID, queryInt(r, "limit"), queryInt(r, "offset"))
	switch outcome {
	case service.Found:
		writeJSON(w, http.StatusOK, page)
	case service.NotFound:
		writeError(w, http.StatusNotFound, "conversation not found")
	default:
		writeError(w, http.StatusInternalServerError, "failed to load conversation")
	}
}

// Create handles POST /api/conversations/new
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.UserID != "" {
		if err := middleware.ValidateUserID(req.UserID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	conv, err := h.service.Create(r.Context(), &req)
	if err != nil {
		h.logger.Debug("create conversation rejected", zap.String("user_id", req.UserID), zap.Error(err))
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, conv)
}
