package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/atendimento/crm-dashboard/internal/model"
	"github.com/atendimento/crm-dashboard/internal/repository"
	"github.com/atendimento/crm-dashboard/pkg/logger"
	"github.com/atendimento/crm-dashboard/pkg/metrics"
)

const (
	// DefaultPageLimit is the page size used when none is requested.
	DefaultPageLimit = 50
	// MaxPageLimit caps the page size.
	MaxPageLimit = 200

	lockStripes = 64
)

// ConversationService is the conversation store. Backend failures never
// propagate as errors from reads; they are logged and reported through the
// returned Outcome.
type ConversationService struct {
	repo      repository.ConversationRepository
	publisher Publisher
	logger    *logger.Logger

	// Appends for one user id are serialized so concurrent messages are
	// never lost. Different users may proceed in parallel.
	locks [lockStripes]sync.Mutex
}

// NewConversationService creates a new conversation service.
func NewConversationService(repo repository.ConversationRepository, publisher Publisher, log *logger.Logger) *ConversationService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &ConversationService{
		repo:      repo,
		publisher: publisher,
		logger:    log.Named("conversations"),
	}
}

// GetAll returns every conversation, newest activity first.
func (s *ConversationService) GetAll(ctx context.Context) ([]model.Conversation, Outcome) {
	convs, err := s.repo.List(ctx)
	if err != nil {
		s.degrade("list", "", err)
		return []model.Conversation{}, Unavailable
	}
	model.SortByLastTimestamp(convs)
	return convs, Found
}

// Get returns the conversation for userID.
func (s *ConversationService) Get(ctx context.Context, userID string) (*model.Conversation, Outcome) {
	conv, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, s.outcome("get", userID, err)
	}
	return conv, Found
}

// Upsert stores conv under its user id, replacing any previous record.
func (s *ConversationService) Upsert(ctx context.Context, conv *model.Conversation) (*model.Conversation, Outcome) {
	mu := s.lockFor(conv.UserID)
	mu.Lock()
	defer mu.Unlock()

	stored, err := s.repo.Upsert(ctx, conv)
	if err != nil {
		s.degrade("upsert", conv.UserID, err)
		return nil, Unavailable
	}
	s.broadcast(stored)
	return stored, Found
}

// AppendMessage appends msg to an existing conversation. It reports
// NotFound when the conversation does not exist.
func (s *ConversationService) AppendMessage(ctx context.Context, userID string, msg model.Message) (*model.Conversation, Outcome) {
	return s.append(ctx, userID, "", false, msg)
}

// AppendOrCreate appends msg, opening the conversation first when userID
// has none. userName is only used for a new conversation.
func (s *ConversationService) AppendOrCreate(ctx context.Context, userID, userName string, msg model.Message) (*model.Conversation, Outcome) {
	return s.append(ctx, userID, userName, true, msg)
}

func (s *ConversationService) append(ctx context.Context, userID, userName string, create bool, msg model.Message) (*model.Conversation, Outcome) {
	mu := s.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	conv, err := s.repo.Get(ctx, userID)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound) && create:
		conv = newConversation(userID, userName)
	default:
		return nil, s.outcome("append", userID, err)
	}

	conv.Append(msg)

	stored, err := s.repo.Upsert(ctx, conv)
	if err != nil {
		s.degrade("append", userID, err)
		return nil, Unavailable
	}

	s.logger.Debug("message appended",
		zap.String("user_id", userID),
		zap.String("message_id", msg.ID),
		zap.String("origin", string(msg.Origin())),
		zap.Int("unread", stored.Unread),
	)

	s.broadcast(stored)
	return stored, Found
}

// MarkRead resets the unread counter.
func (s *ConversationService) MarkRead(ctx context.Context, userID string) Outcome {
	if err := s.repo.MarkRead(ctx, userID); err != nil {
		return s.outcome("mark_read", userID, err)
	}
	return Found
}

// Create opens an empty conversation. It fails with ErrConflict when the
// user id already has one; the existing record is left untouched.
func (s *ConversationService) Create(ctx context.Context, req *model.CreateConversationRequest) (*model.Conversation, error) {
	userID := strings.TrimSpace(req.UserID)
	userName := strings.TrimSpace(req.UserName)
	if userID == "" || userName == "" {
		return nil, validationError("userId and userName are required")
	}

	mu := s.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	conv := newConversation(userID, userName)
	if err := s.repo.Create(ctx, conv); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("conversation %s: %w", userID, ErrConflict)
		}
		s.degrade("create", userID, err)
		return nil, fmt.Errorf("create conversation: %w", ErrUnavailable)
	}

	s.logger.Info("conversation created", zap.String("user_id", userID))
	s.broadcast(conv)
	return conv, nil
}

// Page returns a window of the conversation's messages counted back from
// the most recent one, and marks the conversation as read. Messages inside
// the window stay in chronological order.
func (s *ConversationService) Page(ctx context.Context, userID string, limit, offset int) (*model.ConversationPage, Outcome) {
	conv, outcome := s.Get(ctx, userID)
	if outcome != Found {
		return nil, outcome
	}

	if s.MarkRead(ctx, userID) == Found {
		conv.Unread = 0
	}

	limit, offset = normalizePage(limit, offset)
	total := len(conv.Messages)

	end := total - offset
	if end < 0 {
		end = 0
	}
	start := end - limit
	if start < 0 {
		start = 0
	}

	window := make([]model.Message, end-start)
	copy(window, conv.Messages[start:end])
	conv.Messages = window

	return &model.ConversationPage{
		Conversation:  *conv,
		TotalMessages: total,
		HasMore:       start > 0,
		Limit:         limit,
		Offset:        offset,
	}, Found
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func newConversation(userID, userName string) *model.Conversation {
	if userName == "" {
		userName = model.DefaultUserName(userID)
	}
	return &model.Conversation{
		UserID:   userID,
		UserName: userName,
		Messages: []model.Message{},
	}
}

func (s *ConversationService) broadcast(conv *model.Conversation) {
	publish(s.publisher, s.logger, model.EventMessage, model.MessageEvent{
		UserID:       conv.UserID,
		Conversation: conv,
	})
}

func (s *ConversationService) lockFor(userID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return &s.locks[h.Sum32()%lockStripes]
}

func (s *ConversationService) outcome(op, userID string, err error) Outcome {
	if errors.Is(err, repository.ErrNotFound) {
		return NotFound
	}
	s.degrade(op, userID, err)
	return Unavailable
}

func (s *ConversationService) degrade(op, userID string, err error) {
	metrics.RecordDegraded("conversations", op)
	s.logger.Warn("conversation store degraded",
		zap.String("operation", op),
		zap.String("user_id", userID),
		zap.Error(err),
	)
}
