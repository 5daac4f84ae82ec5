package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	orderedmap "github.com/wk8/go-ordered-map"

	"github.com/atendimento/crm-dashboard/internal/model"
	"github.com/atendimento/crm-dashboard/internal/repository"
)

// QuickMessageRepository keeps templates keyed by id.
type QuickMessageRepository struct {
	mu       sync.RWMutex
	messages *orderedmap.OrderedMap // id -> *model.QuickMessage
}

// NewQuickMessageRepository creates an empty repository.
func NewQuickMessageRepository() *QuickMessageRepository {
	return &QuickMessageRepository{messages: orderedmap.New()}
}

// List returns templates by ascending order, ties by insertion.
func (r *QuickMessageRepository) List(ctx context.Context, includeDisabled bool) ([]model.QuickMessage, error) {
	r.mu.RLock()
	out := make([]model.QuickMessage, 0, r.messages.Len())
	for pair := r.messages.Oldest(); pair != nil; pair = pair.Next() {
		qm := pair.Value.(*model.QuickMessage)
		if qm.Enabled || includeDisabled {
			out = append(out, *qm)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

// Get returns the template with id.
func (r *QuickMessageRepository) Get(ctx context.Context, id string) (*model.QuickMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.messages.Get(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *v.(*model.QuickMessage)
	return &out, nil
}

// Create stores qm.
func (r *QuickMessageRepository) Create(ctx context.Context, qm *model.QuickMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.messages.Get(qm.ID); ok {
		return repository.ErrConflict
	}
	stored := *qm
	r.messages.Set(qm.ID, &stored)
	return nil
}

// Update applies upd to the template with id.
func (r *QuickMessageRepository) Update(ctx context.Context, id string, upd model.QuickMessageUpdate) (*model.QuickMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.messages.Get(id)
	if !ok {
		return nil, repository.ErrNotFound
	}
	qm := v.(*model.QuickMessage)
	upd.Apply(qm)
	qm.UpdatedAt = time.Now().UTC()
	out := *qm
	return &out, nil
}

// Delete removes the template with id.
func (r *QuickMessageRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.messages.Delete(id); !ok {
		return repository.ErrNotFound
	}
	return nil
}

// Reorder assigns each listed template its position. Unknown ids are skipped.
func (r *QuickMessageRepository) Reorder(ctx context.Context, orderedIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for i, id := range orderedIDs {
		v, ok := r.messages.Get(id)
		if !ok {
			continue
		}
		qm := v.(*model.QuickMessage)
		qm.Order = i
		qm.UpdatedAt = now
	}
	return nil
}
