package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/atendimento/crm-dashboard/internal/model"
	"github.com/atendimento/crm-dashboard/pkg/logger"
	"github.com/atendimento/crm-dashboard/pkg/metrics"
	"github.com/atendimento/crm-dashboard/pkg/tracing"
)

// MessageService coordinates inbound webhook messages and agent sends.
type MessageService struct {
	conversations *ConversationService
	leads         *LeadService
	relay         Relayer
	logger        *logger.Logger
	tracer        trace.Tracer
	now           func() time.Time
}

// NewMessageService creates a new message service.
func NewMessageService(
	conversations *ConversationService,
	leads *LeadService,
	relay Relayer,
	log *logger.Logger,
) *MessageService {
	return &MessageService{
		conversations: conversations,
		leads:         leads,
		relay:         relay,
		logger:        log.Named("messages"),
		tracer:        tracing.Tracer("crm-dashboard/service"),
		now:           time.Now,
	}
}

// Ingest records a message delivered by the messaging automation.
//
// When the sender is the end user and the lead is locked the message is
// still stored and broadcast; the response only tells the caller that the
// bot should not answer it.
func (s *MessageService) Ingest(ctx context.Context, req *model.WebhookMessageRequest) (*model.WebhookMessageResponse, error) {
	ctx, span := s.tracer.Start(ctx, "message.ingest")
	defer span.End()

	userID := strings.TrimSpace(req.UserID)
	if userID == "" || req.Message == "" {
		return nil, validationError("userId and message are required")
	}

	msgType := model.MessageTypeText
	if req.Type != nil && *req.Type != "" {
		msgType = *req.Type
	}
	if !msgType.Valid() {
		return nil, validationError("unknown message type %q", msgType)
	}

	isBot := true
	if req.IsBot != nil {
		isBot = *req.IsBot
	}

	timestamp := req.Timestamp
	if timestamp == "" {
		timestamp = model.Timestamp(s.now())
	}

	msg := model.Message{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Text:      req.Message,
		Type:      msgType,
		IsBot:     isBot,
		Timestamp: timestamp,
	}
	attachMedia(&msg)

	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.String("message.origin", string(msg.Origin())),
	)

	trava, err := s.leads.GetTrava(ctx, model.ParseLeadIdentifier(userID))
	if err != nil {
		s.logger.Warn("trava lookup failed, treating as unlocked", zap.String("user_id", userID), zap.Error(err))
		trava = false
	}
	suppressed := !isBot && trava

	conv, outcome := s.conversations.AppendOrCreate(ctx, userID, strings.TrimSpace(req.UserName), msg)
	if outcome != Found {
		span.SetStatus(codes.Error, outcome.String())
		return nil, fmt.Errorf("record inbound message: %w", outcome.Err())
	}

	metrics.InboundMessagesTotal.WithLabelValues(string(msg.Origin())).Inc()
	if suppressed {
		metrics.BotSuppressedTotal.Inc()
		s.logger.Info("bot suppressed by trava",
			zap.String("user_id", userID),
			zap.String("message_id", msg.ID),
		)
	}

	s.logger.Debug("inbound message recorded",
		zap.String("user_id", conv.UserID),
		zap.String("message_id", msg.ID),
		zap.Bool("is_bot", isBot),
		zap.Int("messages", len(conv.Messages)),
	)

	return &model.WebhookMessageResponse{
		Success:       true,
		MessageID:     msg.ID,
		Trava:         trava,
		BotSuppressed: suppressed,
	}, nil
}

// Send appends an agent message and hands it to the relay. The relay runs
// detached; its outcome never reaches the caller.
func (s *MessageService) Send(ctx context.Context, userID string, req *model.SendMessageRequest) (*model.SendMessageResponse, error) {
	ctx, span := s.tracer.Start(ctx, "message.send", trace.WithAttributes(attribute.String("user_id", userID)))
	defer span.End()

	if req.Message == "" {
		return nil, validationError("message is required")
	}

	msgType := model.MessageTypeText
	if req.Type != nil && *req.Type != "" {
		msgType = *req.Type
	}
	if !msgType.Valid() {
		return nil, validationError("unknown message type %q", msgType)
	}

	msg := model.Message{
		ID:           uuid.Must(uuid.NewV7()).String(),
		Text:         req.Message,
		Type:         msgType,
		IsBot:        false,
		IsAgent:      true,
		Timestamp:    model.Timestamp(s.now()),
		Duration:     req.Duration,
		FileName:     req.FileName,
		FileSize:     req.FileSize,
		FileType:     req.FileType,
		FileCategory: req.FileCategory,
	}
	attachMedia(&msg)

	conv, outcome := s.conversations.AppendMessage(ctx, userID, msg)
	if outcome != Found {
		span.SetStatus(codes.Error, outcome.String())
		return nil, fmt.Errorf("conversation %s: %w", userID, outcome.Err())
	}

	metrics.AgentMessagesTotal.WithLabelValues(string(msgType)).Inc()
	s.relay.Dispatch(ctx, model.NewAutomationPayload(conv, msg))

	return &model.SendMessageResponse{
		Success:   true,
		MessageID: msg.ID,
		Message:   &msg,
	}, nil
}

// attachMedia copies the payload reference into the url field that matches
// the message type.
func attachMedia(msg *model.Message) {
	switch msg.Type {
	case model.MessageTypeAudio:
		msg.AudioURL = msg.Text
	case model.MessageTypeFile:
		msg.FileURL = msg.Text
	}
}
