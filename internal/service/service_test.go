package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/atendimento/crm-dashboard/internal/model"
	"github.com/atendimento/crm-dashboard/internal/repository/memory"
	"github.com/atendimento/crm-dashboard/pkg/logger"
)

var errBackendDown = errors.New("connection refused")

func testLogger(t *testing.T) *logger.Logger {
	return logger.Wrap(zaptest.NewLogger(t))
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.Event
}

func (p *recordingPublisher) Publish(evt model.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *recordingPublisher) types() []model.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.EventType, len(p.events))
	for i, evt := range p.events {
		out[i] = evt.Type
	}
	return out
}

func (p *recordingPublisher) count(t model.EventType) int {
	n := 0
	for _, got := range p.types() {
		if got == t {
			n++
		}
	}
	return n
}

type recordingRelayer struct {
	mu       sync.Mutex
	payloads []model.AutomationPayload
}

func (r *recordingRelayer) Dispatch(ctx context.Context, payload model.AutomationPayload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, payload)
}

// failingConversations fails every call, as a database that went away would.
type failingConversations struct{}

func (failingConversations) List(context.Context) ([]model.Conversation, error) {
	return nil, errBackendDown
}

func (failingConversations) Get(context.Context, string) (*model.Conversation, error) {
	return nil, errBackendDown
}

func (failingConversations) Create(context.Context, *model.Conversation) error {
	return errBackendDown
}

func (failingConversations) Upsert(context.Context, *model.Conversation) (*model.Conversation, error) {
	return nil, errBackendDown
}

func (failingConversations) MarkRead(context.Context, string) error {
	return errBackendDown
}

type failingLeads struct{}

func (failingLeads) List(context.Context) ([]model.Lead, error) { return nil, errBackendDown }

func (failingLeads) Find(context.Context, model.LeadIdentifier) (*model.Lead, error) {
	return nil, errBackendDown
}

func (failingLeads) Create(context.Context, *model.Lead) error { return errBackendDown }

func (failingLeads) Update(context.Context, model.LeadIdentifier, model.LeadUpdate) (*model.Lead, error) {
	return nil, errBackendDown
}

func (failingLeads) Delete(context.Context, model.LeadIdentifier) (*model.Lead, error) {
	return nil, errBackendDown
}

func (failingLeads) SetTrava(context.Context, model.LeadIdentifier, bool) error {
	return errBackendDown
}

type fixture struct {
	publisher     *recordingPublisher
	relay         *recordingRelayer
	conversations *ConversationService
	leads         *LeadService
	quickMessages *QuickMessageService
	messages      *MessageService
	metrics       *MetricsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := testLogger(t)
	pub := &recordingPublisher{}
	relay := &recordingRelayer{}

	store := memory.NewStore()
	conversations := NewConversationService(store.Conversations, pub, log)
	leads := NewLeadService(store.Leads, pub, log)
	return &fixture{
		publisher:     pub,
		relay:         relay,
		conversations: conversations,
		leads:         leads,
		quickMessages: NewQuickMessageService(store.QuickMessages, pub, log),
		messages:      NewMessageService(conversations, leads, relay, log),
		metrics:       NewMetricsService(conversations, leads),
	}
}

func boolPtr(b bool) *bool { return &b }

func msgType(t model.MessageType) *model.MessageType { return &t }
