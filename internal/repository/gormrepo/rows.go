package gormrepo

import (
	"time"

	"gorm.io/datatypes"

	"github.com/atendimento/crm-dashboard/internal/model"
)

type conversationRow struct {
	UserID        string                             `gorm:"primaryKey;size:128;column:user_id"`
	UserName      string                             `gorm:"size:255;column:user_name"`
	Messages      datatypes.JSONSlice[model.Message] `gorm:"column:messages"`
	LastMessage   string                             `gorm:"type:text;column:last_message"`
	LastTimestamp string                             `gorm:"size:40;index;column:last_timestamp"`
	Unread        int                                `gorm:"not null;column:unread"`
	UpdatedAt     time.Time                          `gorm:"autoUpdateTime;column:updated_at"`
}

func (conversationRow) TableName() string { return "conversations" }

func (r *conversationRow) toModel() *model.Conversation {
	messages := make([]model.Message, len(r.Messages))
	copy(messages, r.Messages)
	return &model.Conversation{
		UserID:        r.UserID,
		UserName:      r.UserName,
		Messages:      messages,
		LastMessage:   r.LastMessage,
		LastTimestamp: r.LastTimestamp,
		Unread:        r.Unread,
	}
}

func toConversationRow(c *model.Conversation) *conversationRow {
	messages := make([]model.Message, len(c.Messages))
	copy(messages, c.Messages)
	return &conversationRow{
		UserID:        c.UserID,
		UserName:      c.UserName,
		Messages:      messages,
		LastMessage:   c.LastMessage,
		LastTimestamp: c.LastTimestamp,
		Unread:        c.Unread,
	}
}

type leadRow struct {
	ID          string    `gorm:"primaryKey;size:36;column:id"`
	Telefone    string    `gorm:"uniqueIndex:idx_leads_telefone;size:32;not null;column:telefone"`
	Nome        string    `gorm:"size:255;not null;column:nome"`
	Email       *string   `gorm:"size:255;column:email"`
	Status      string    `gorm:"size:32;not null;index;column:status"`
	Trava       bool      `gorm:"not null;column:trava"`
	Observacoes string    `gorm:"type:text;column:observacoes"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index;column:created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime;column:updated_at"`
}

func (leadRow) TableName() string { return "leads" }

func (r *leadRow) toModel() *model.Lead {
	status := model.LeadStatus(r.Status)
	if status == "" {
		status = model.LeadStatusNovo
	}
	id := r.ID
	if id == "" {
		id = r.Telefone
	}
	return &model.Lead{
		UUID:        id,
		Telefone:    r.Telefone,
		Nome:        r.Nome,
		Email:       r.Email,
		Status:      status,
		Trava:       r.Trava,
		Observacoes: r.Observacoes,
		CreatedAt:   r.CreatedAt,
	}
}

func toLeadRow(l *model.Lead) *leadRow {
	return &leadRow{
		ID:          l.UUID,
		Telefone:    l.Telefone,
		Nome:        l.Nome,
		Email:       l.Email,
		Status:      string(l.Status),
		Trava:       l.Trava,
		Observacoes: l.Observacoes,
		CreatedAt:   l.CreatedAt,
	}
}

// leadColumns maps a partial update onto column names. Only the provided
// fields are present in the result.
func leadColumns(upd model.LeadUpdate) map[string]any {
	cols := make(map[string]any)
	if upd.Nome != nil {
		cols["nome"] = *upd.Nome
	}
	if upd.Telefone != nil {
		cols["telefone"] = *upd.Telefone
	}
	if upd.Email.Set {
		cols["email"] = upd.Email.Value
	}
	if upd.Status != nil {
		cols["status"] = string(*upd.Status)
	}
	if upd.Observacoes != nil {
		cols["observacoes"] = *upd.Observacoes
	}
	return cols
}

type quickMessageRow struct {
	ID        string    `gorm:"primaryKey;size:36;column:id"`
	Text      string    `gorm:"type:text;not null;column:text"`
	Emoji     *string   `gorm:"size:32;column:emoji"`
	Category  string    `gorm:"size:64;not null;column:category"`
	Shortcut  *string   `gorm:"size:64;column:shortcut"`
	SortOrder int       `gorm:"not null;index;column:sort_order"`
	Enabled   bool      `gorm:"not null;column:enabled"`
	CreatedAt time.Time `gorm:"autoCreateTime;column:created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;column:updated_at"`
}

func (quickMessageRow) TableName() string { return "quick_messages" }

func (r *quickMessageRow) toModel() *model.QuickMessage {
	return &model.QuickMessage{
		ID:        r.ID,
		Text:      r.Text,
		Emoji:     r.Emoji,
		Category:  r.Category,
		Shortcut:  r.Shortcut,
		Order:     r.SortOrder,
		Enabled:   r.Enabled,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func toQuickMessageRow(q *model.QuickMessage) *quickMessageRow {
	return &quickMessageRow{
		ID:        q.ID,
		Text:      q.Text,
		Emoji:     q.Emoji,
		Category:  q.Category,
		Shortcut:  q.Shortcut,
		SortOrder: q.Order,
		Enabled:   q.Enabled,
		CreatedAt: q.CreatedAt,
		UpdatedAt: q.UpdatedAt,
	}
}

func quickMessageColumns(upd model.QuickMessageUpdate) map[string]any {
	cols := map[string]any{"updated_at": time.Now().UTC()}
	if upd.Text != nil {
		cols["text"] = *upd.Text
	}
	if upd.Emoji.Set {
		cols["emoji"] = upd.Emoji.Value
	}
	if upd.Category != nil {
		cols["category"] = *upd.Category
	}
	if upd.Shortcut.Set {
		cols["shortcut"] = upd.Shortcut.Value
	}
	if upd.Order != nil {
		cols["sort_order"] = *upd.Order
	}
	if upd.Enabled != nil {
		cols["enabled"] = *upd.Enabled
	}
	return cols
}
