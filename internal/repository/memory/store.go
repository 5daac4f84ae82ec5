package memory

import (
	"github.com/atendimento/crm-dashboard/internal/repository"
)

// ModeName identifies the in-memory backend in health output.
const ModeName = "memory"

// NewStore returns a fresh set of in-memory repositories.
func NewStore() *repository.Store {
	return &repository.Store{
		Mode:          ModeName,
		Conversations: NewConversationRepository(),
		Leads:         NewLeadRepository(),
		QuickMessages: NewQuickMessageRepository(),
		Close:         func() error { return nil },
	}
}
