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

// LeadService is the lead registry and owner of the trava flag.
type LeadService struct {
	repo      repository.LeadRepository
	publisher Publisher
	logger    *logger.Logger
	now       func() time.Time
}

// NewLeadService creates a new lead service.
func NewLeadService(repo repository.LeadRepository, publisher Publisher, log *logger.Logger) *LeadService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &LeadService{
		repo:      repo,
		publisher: publisher,
		logger:    log.Named("leads"),
		now:       time.Now,
	}
}

// List returns every lead, newest first.
func (s *LeadService) List(ctx context.Context) ([]model.Lead, Outcome) {
	leads, err := s.repo.List(ctx)
	if err != nil {
		metrics.RecordDegraded("leads", "list")
		s.logger.Warn("lead list degraded", zap.Error(err))
		return []model.Lead{}, Unavailable
	}
	return leads, Found
}

// Find resolves id to a lead.
func (s *LeadService) Find(ctx context.Context, id model.LeadIdentifier) (*model.Lead, error) {
	lead, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, s.wrap("find", id, err)
	}
	return lead, nil
}

// Create registers a lead. Status defaults to novo and trava starts unset.
func (s *LeadService) Create(ctx context.Context, req *model.CreateLeadRequest) (*model.Lead, error) {
	telefone := strings.TrimSpace(req.Telefone)
	nome := strings.TrimSpace(req.Nome)
	if telefone == "" || nome == "" {
		return nil, validationError("telefone and nome are required")
	}

	status := req.Status
	if status == "" {
		status = model.LeadStatusNovo
	}
	if !status.Valid() {
		return nil, validationError("unknown status %q", status)
	}

	lead := &model.Lead{
		UUID:        uuid.Must(uuid.NewV7()).String(),
		Telefone:    telefone,
		Nome:        nome,
		Email:       req.Email,
		Status:      status,
		Trava:       false,
		Observacoes: req.Observacoes,
		CreatedAt:   s.now().UTC(),
	}

	if err := s.repo.Create(ctx, lead); err != nil {
		return nil, s.wrap("create", model.ParseLeadIdentifier(telefone), err)
	}

	s.logger.Info("lead created", zap.String("lead_id", lead.UUID), zap.String("telefone", lead.Telefone))
	publish(s.publisher, s.logger, model.EventLeadCreated, lead)
	return lead, nil
}

// UpdateStatus moves the lead to another pipeline stage.
func (s *LeadService) UpdateStatus(ctx context.Context, id model.LeadIdentifier, status model.LeadStatus) (*model.Lead, error) {
	if status == "" {
		return nil, validationError("status is required")
	}
	return s.Update(ctx, id, model.LeadUpdate{Status: &status})
}

// Update applies a partial update. Fields left nil are not touched.
func (s *LeadService) Update(ctx context.Context, id model.LeadIdentifier, upd model.LeadUpdate) (*model.Lead, error) {
	if upd.Status != nil && !upd.Status.Valid() {
		return nil, validationError("unknown status %q", *upd.Status)
	}
	if upd.Nome != nil && strings.TrimSpace(*upd.Nome) == "" {
		return nil, validationError("nome cannot be empty")
	}
	if upd.Telefone != nil && strings.TrimSpace(*upd.Telefone) == "" {
		return nil, validationError("telefone cannot be empty")
	}

	lead, err := s.repo.Update(ctx, id, upd)
	if err != nil {
		return nil, s.wrap("update", id, err)
	}

	publish(s.publisher, s.logger, model.EventLeadUpdated, lead)
	return lead, nil
}

// Delete removes the lead.
func (s *LeadService) Delete(ctx context.Context, id model.LeadIdentifier) error {
	lead, err := s.repo.Delete(ctx, id)
	if err != nil {
		return s.wrap("delete", id, err)
	}

	s.logger.Info("lead deleted", zap.String("lead_id", lead.UUID))
	publish(s.publisher, s.logger, model.EventLeadDeleted, model.LeadDeletedEvent{
		Identifier: id.Raw,
		UUID:       lead.UUID,
	})
	return nil
}

// GetTrava reports whether the lead is locked. A lead that does not exist
// is unlocked.
func (s *LeadService) GetTrava(ctx context.Context, id model.LeadIdentifier) (bool, error) {
	lead, err := s.repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, s.wrap("get_trava", id, err)
	}
	return lead.Trava, nil
}

// SetTrava writes the lock flag.
func (s *LeadService) SetTrava(ctx context.Context, id model.LeadIdentifier, trava bool) (*model.TravaStatus, error) {
	if err := s.repo.SetTrava(ctx, id, trava); err != nil {
		return nil, s.wrap("set_trava", id, err)
	}
	return s.travaChanged(id, trava), nil
}

// ToggleTrava negates the lock flag and returns the new value.
//
// The read and the write are separate store calls, so two concurrent
// toggles on the same lead can both read the same value and write the
// same result. The final state is then whatever the last write set.
func (s *LeadService) ToggleTrava(ctx context.Context, id model.LeadIdentifier) (*model.TravaStatus, error) {
	lead, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, s.wrap("toggle_trava", id, err)
	}

	next := !lead.Trava
	if err := s.repo.SetTrava(ctx, id, next); err != nil {
		return nil, s.wrap("toggle_trava", id, err)
	}
	return s.travaChanged(id, next), nil
}

func (s *LeadService) travaChanged(id model.LeadIdentifier, trava bool) *model.TravaStatus {
	status := &model.TravaStatus{UserID: id.Raw, Trava: trava}
	s.logger.Info("trava updated", zap.String("user_id", id.Raw), zap.Bool("trava", trava))
	publish(s.publisher, s.logger, model.EventTravaUpdated, status)
	return status
}

func (s *LeadService) wrap(op string, id model.LeadIdentifier, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("lead %s: %w", id, ErrNotFound)
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("lead with telefone %s: %w", id, ErrConflict)
	}
	metrics.RecordDegraded("leads", op)
	s.logger.Error("lead registry failed",
		zap.String("operation", op),
		zap.String("identifier", id.Raw),
		zap.Error(err),
	)
	return fmt.Errorf("%s lead: %w", op, ErrUnavailable)
}
