package model

import (
	"time"
)

// QuickMessage is a canned reply an agent can pick from the dashboard.
type QuickMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Emoji     *string   `json:"emoji"`
	Category  string    `json:"category"`
	Shortcut  *string   `json:"shortcut"`
	Order     int       `json:"order"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DefaultQuickMessageCategory is used when none is provided on create.
const DefaultQuickMessageCategory = "general"

// CreateQuickMessageRequest is the payload for a new template.
type CreateQuickMessageRequest struct {
	Text     string  `json:"text"`
	Emoji    *string `json:"emoji,omitempty"`
	Category string  `json:"category,omitempty"`
	Shortcut *string `json:"shortcut,omitempty"`
	Order    int     `json:"order,omitempty"`
	Enabled  *bool   `json:"enabled,omitempty"`
}

// QuickMessageUpdate is a partial update. A nil field is left unchanged;
// Emoji and Shortcut are cleared by an explicit null.
type QuickMessageUpdate struct {
	Text     *string          `json:"text,omitempty"`
	Emoji    Nullable[string] `json:"emoji"`
	Category *string          `json:"category,omitempty"`
	Shortcut Nullable[string] `json:"shortcut"`
	Order    *int             `json:"order,omitempty"`
	Enabled  *bool            `json:"enabled,omitempty"`
}

// Apply copies every provided field onto q.
func (u QuickMessageUpdate) Apply(q *QuickMessage) {
	if u.Text != nil {
		q.Text = *u.Text
	}
	u.Emoji.applyTo(&q.Emoji)
	if u.Category != nil {
		q.Category = *u.Category
	}
	u.Shortcut.applyTo(&q.Shortcut)
	if u.Order != nil {
		q.Order = *u.Order
	}
	if u.Enabled != nil {
		q.Enabled = *u.Enabled
	}
}

// ReorderQuickMessagesRequest carries the new display order.
type ReorderQuickMessagesRequest struct {
	OrderedIDs []string `json:"orderedIds"`
}
