// Package memory provides process-local repositories used when no
// persistent backend is configured. State lives as long as the process.
package memory

import (
	"context"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map"

	"github.com/atendimento/crm-dashboard/internal/model"
	"github.com/atendimento/crm-dashboard/internal/repository"
)

// ConversationRepository keeps conversations in an insertion ordered map.
type ConversationRepository struct {
	mu            sync.RWMutex
	conversations *orderedmap.OrderedMap // userID -> *model.Conversation
}

// NewConversationRepository creates an empty repository.
func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{conversations: orderedmap.New()}
}

// List returns copies of every conversation, newest first.
func (r *ConversationRepository) List(ctx context.Context) ([]model.Conversation, error) {
	r.mu.RLock()
	out := make([]model.Conversation, 0, r.conversations.Len())
	for pair := r.conversations.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, *pair.Value.(*model.Conversation).Clone())
	}
	r.mu.RUnlock()

	model.SortByLastTimestamp(out)
	return out, nil
}

// Get returns a copy of the conversation for userID.
func (r *ConversationRepository) Get(ctx context.Context, userID string) (*model.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.conversations.Get(userID)
	if !ok {
		return nil, repository.ErrNotFound
	}
	return v.(*model.Conversation).Clone(), nil
}

// Create stores conv unless the user id is taken.
func (r *ConversationRepository) Create(ctx context.Context, conv *model.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conversations.Get(conv.UserID); ok {
		return repository.ErrConflict
	}
	r.conversations.Set(conv.UserID, conv.Clone())
	return nil
}

// Upsert overwrites the stored conversation.
func (r *ConversationRepository) Upsert(ctx context.Context, conv *model.Conversation) (*model.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := conv.Clone()
	r.conversations.Set(conv.UserID, stored)
	return stored.Clone(), nil
}

// MarkRead resets the unread counter.
func (r *ConversationRepository) MarkRead(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.conversations.Get(userID)
	if !ok {
		return repository.ErrNotFound
	}
	v.(*model.Conversation).Unread = 0
	return nil
}
