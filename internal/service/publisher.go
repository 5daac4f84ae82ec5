package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/atendimento/crm-dashboard/internal/model"
	"github.com/atendimento/crm-dashboard/pkg/logger"
)

// Publisher fans events out to connected dashboard sessions. Implementations
// must return without waiting on any session.
type Publisher interface {
	Publish(evt model.Event)
}

// Relayer forwards agent messages to the external automation flow. Dispatch
// returns immediately; delivery failures are only logged.
type Relayer interface {
	Dispatch(ctx context.Context, payload model.AutomationPayload)
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(model.Event) {}

func publish(p Publisher, log *logger.Logger, t model.EventType, payload any) {
	evt, err := model.NewEvent(t, payload)
	if err != nil {
		log.Error("failed to encode event", zap.String("type", string(t)), zap.Error(err))
		return
	}
	p.Publish(evt)
}
