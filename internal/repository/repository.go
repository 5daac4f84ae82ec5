// Package repository defines the persistence contracts behind the
// conversation store, the lead registry and the quick message list.
package repository

import (
	"context"
	"errors"

	"github.com/atendimento/crm-dashboard/internal/model"
)

var (
	// ErrNotFound is returned when no record matches the key.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique key is already taken.
	ErrConflict = errors.New("record already exists")
)

// ConversationRepository persists conversations keyed by user id.
type ConversationRepository interface {
	// List returns every conversation ordered by last timestamp, newest first.
	List(ctx context.Context) ([]model.Conversation, error)
	Get(ctx context.Context, userID string) (*model.Conversation, error)
	// Create inserts conv and fails with ErrConflict when the user id exists.
	Create(ctx context.Context, conv *model.Conversation) error
	// Upsert replaces the stored record, last writer wins.
	Upsert(ctx context.Context, conv *model.Conversation) (*model.Conversation, error)
	MarkRead(ctx context.Context, userID string) error
}

// LeadRepository persists leads and their trava flag.
type LeadRepository interface {
	// List returns every lead, newest first.
	List(ctx context.Context) ([]model.Lead, error)
	Find(ctx context.Context, id model.LeadIdentifier) (*model.Lead, error)
	// Create inserts lead and fails with ErrConflict on a duplicate phone.
	Create(ctx context.Context, lead *model.Lead) error
	Update(ctx context.Context, id model.LeadIdentifier, upd model.LeadUpdate) (*model.Lead, error)
	Delete(ctx context.Context, id model.LeadIdentifier) (*model.Lead, error)
	SetTrava(ctx context.Context, id model.LeadIdentifier, trava bool) error
}

// QuickMessageRepository persists canned reply templates.
type QuickMessageRepository interface {
	// List returns templates ordered by their order field. Disabled
	// templates are only included when includeDisabled is set.
	List(ctx context.Context, includeDisabled bool) ([]model.QuickMessage, error)
	Get(ctx context.Context, id string) (*model.QuickMessage, error)
	Create(ctx context.Context, qm *model.QuickMessage) error
	Update(ctx context.Context, id string, upd model.QuickMessageUpdate) (*model.QuickMessage, error)
	Delete(ctx context.Context, id string) error
	Reorder(ctx context.Context, orderedIDs []string) error
}

// Store bundles the repositories of one backend.
type Store struct {
	Mode          string
	Conversations ConversationRepository
	Leads         LeadRepository
	QuickMessages QuickMessageRepository

	// Ping reports backend health. Nil for backends that are always up.
	Ping  func(ctx context.Context) error
	Close func() error
}
