package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atendimento/crm-dashboard/internal/model"
	"github.com/atendimento/crm-dashboard/internal/repository"
	"github.com/atendimento/crm-dashboard/pkg/logger"
	"github.com/atendimento/crm-dashboard/pkg/metrics"
)

// QuickMessageService manages canned reply templates. Every successful
// mutation tells connected dashboards to refetch the list.
type QuickMessageService struct {
	repo      repository.QuickMessageRepository
	publisher Publisher
	logger    *logger.Logger
	now       func() time.Time
}

// NewQuickMessageService creates a new quick message service.
func NewQuickMessageService(repo repository.QuickMessageRepository, publisher Publisher, log *logger.Logger) *QuickMessageService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &QuickMessageService{
		repo:      repo,
		publisher: publisher,
		logger:    log.Named("quick_messages"),
		now:       time.Now,
	}
}

// List returns templates ordered for display.
func (s *QuickMessageService) List(ctx context.Context, includeDisabled bool) ([]model.QuickMessage, Outcome) {
	qms, err := s.repo.List(ctx, includeDisabled)
	if err != nil {
		metrics.RecordDegraded("quick_messages", "list")
		s.logger.Warn("quick message list degraded", zap.Error(err))
		return []model.QuickMessage{}, Unavailable
	}
	return qms, Found
}

// Get returns one template.
func (s *QuickMessageService) Get(ctx context.Context, id string) (*model.QuickMessage, error) {
	qm, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, s.wrap("get", id, err)
	}
	return qm, nil
}

// Create adds a template.
func (s *QuickMessageService) Create(ctx context.Context, req *model.CreateQuickMessageRequest) (*model.QuickMessage, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, validationError("text is required")
	}

	category := req.Category
	if category == "" {
		category = model.DefaultQuickMessageCategory
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	now := s.now().UTC()
	qm := &model.QuickMessage{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Text:      text,
		Emoji:     req.Emoji,
		Category:  category,
		Shortcut:  req.Shortcut,
		Order:     req.Order,
		Enabled:   enabled,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, qm); err != nil {
		return nil, s.wrap("create", qm.ID, err)
	}
	s.changed()
	return qm, nil
}

// Update applies a partial update.
func (s *QuickMessageService) Update(ctx context.Context, id string, upd model.QuickMessageUpdate) (*model.QuickMessage, error) {
	if upd.Text != nil && strings.TrimSpace(*upd.Text) == "" {
		return nil, validationError("text cannot be empty")
	}

	qm, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		return nil, s.wrap("update", id, err)
	}
	s.changed()
	return qm, nil
}

// Delete removes a template.
func (s *QuickMessageService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.wrap("delete", id, err)
	}
	s.changed()
	return nil
}

// Reorder assigns order i to the template at position i of orderedIDs.
// Unknown ids are skipped.
func (s *QuickMessageService) Reorder(ctx context.Context, orderedIDs []string) error {
	if orderedIDs == nil {
		return validationError("orderedIds must be an array")
	}
	for _, id := range orderedIDs {
		if id == "" {
			return validationError("orderedIds cannot contain empty ids")
		}
	}

	if err := s.repo.Reorder(ctx, orderedIDs); err != nil {
		return s.wrap("reorder", "", err)
	}
	s.changed()
	return nil
}

func (s *QuickMessageService) changed() {
	publish(s.publisher, s.logger, model.EventQuickMessagesUpdated, nil)
}

func (s *QuickMessageService) wrap(op, id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("quick message %s: %w", id, ErrNotFound)
	}
	metrics.RecordDegraded("quick_messages", op)
	s.logger.Error("quick message store failed",
		zap.String("operation", op),
		zap.String("id", id),
		zap.Error(err),
	)
	return fmt.Errorf("%s quick message: %w", op, ErrUnavailable)
}
