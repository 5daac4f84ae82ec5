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

// MessageHandler handles the webhook ingress and agent sends.
type MessageHandler struct {
	service *service.MessageService
	logger  *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(svc *service.MessageService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		service: svc,
		logger:  log,
	}
}

// Webhook handles POST /api/webhook/message
func (h *MessageHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var req model.WebhookMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.UserID != "" && req.Message != "" {
		if err := middleware.ValidateUserID(req.UserID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := middleware.ValidateMessageContent(req.Message); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	resp, err := h.service.Ingest(r.Context(), &req)
	if err != nil {
		h.logger.Warn("webhook message rejected",
			zap.String("user_id", req.UserID),
			zap.String("correlation_id", middleware.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Send handles POST /api/conversations/{userId}/send
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if err := middleware.ValidateUserID(userID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Message != "" {
		if err := middleware.ValidateMessageContent(req.Message); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	resp, err := h.service.Send(r.Context(), userID, &req)
	if err != nil {
		h.logger.Warn("agent message rejected",
			zap.String("user_id", userID),
			zap.String("agent_id", middleware.GetAgentID(r.Context())),
			zap.Error(err),
		)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
