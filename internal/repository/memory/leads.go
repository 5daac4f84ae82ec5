package memory

import (
	"context"
	"strings"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map"

	"github.com/atendimento/crm-dashboard/internal/model"
	"github.com/atendimento/crm-dashboard/internal/repository"
)

// LeadRepository keeps leads keyed by lowercase uuid.
type LeadRepository struct {
	mu    sync.RWMutex
	leads *orderedmap.OrderedMap // uuid -> *model.Lead
}

// NewLeadRepository creates an empty repository.
func NewLeadRepository() *LeadRepository {
	return &LeadRepository{leads: orderedmap.New()}
}

// List returns every lead, most recently created first.
func (r *LeadRepository) List(ctx context.Context) ([]model.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Lead, 0, r.leads.Len())
	for pair := r.leads.Newest(); pair != nil; pair = pair.Prev() {
		out = append(out, *pair.Value.(*model.Lead))
	}
	return out, nil
}

// Find resolves id to a lead.
func (r *LeadRepository) Find(ctx context.Context, id model.LeadIdentifier) (*model.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead := r.find(id)
	if lead == nil {
		return nil, repository.ErrNotFound
	}
	out := *lead
	return &out, nil
}

// find must be called with mu held.
func (r *LeadRepository) find(id model.LeadIdentifier) *model.Lead {
	if id.IsUUID() {
		if v, ok := r.leads.Get(strings.ToLower(id.Raw)); ok {
			return v.(*model.Lead)
		}
		return nil
	}
	for pair := r.leads.Oldest(); pair != nil; pair = pair.Next() {
		lead := pair.Value.(*model.Lead)
		if id.MatchesPhone(lead.Telefone) {
			return lead
		}
	}
	return nil
}

// Create stores lead unless its phone is already registered.
func (r *LeadRepository) Create(ctx context.Context, lead *model.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for pair := r.leads.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.(*model.Lead).Telefone == lead.Telefone {
			return repository.ErrConflict
		}
	}
	stored := *lead
	r.leads.Set(strings.ToLower(lead.UUID), &stored)
	return nil
}

// Update applies upd to the resolved lead.
func (r *LeadRepository) Update(ctx context.Context, id model.LeadIdentifier, upd model.LeadUpdate) (*model.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead := r.find(id)
	if lead == nil {
		return nil, repository.ErrNotFound
	}
	if upd.Telefone != nil && *upd.Telefone != lead.Telefone {
		for pair := r.leads.Oldest(); pair != nil; pair = pair.Next() {
			if pair.Value.(*model.Lead).Telefone == *upd.Telefone {
				return nil, repository.ErrConflict
			}
		}
	}
	upd.Apply(lead)
	out := *lead
	return &out, nil
}

// Delete removes the resolved lead and returns it.
func (r *LeadRepository) Delete(ctx context.Context, id model.LeadIdentifier) (*model.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead := r.find(id)
	if lead == nil {
		return nil, repository.ErrNotFound
	}
	r.leads.Delete(strings.ToLower(lead.UUID))
	return lead, nil
}

// SetTrava writes the lock flag.
func (r *LeadRepository) SetTrava(ctx context.Context, id model.LeadIdentifier, trava bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead := r.find(id)
	if lead == nil {
		return repository.ErrNotFound
	}
	lead.Trava = trava
	return nil
}
