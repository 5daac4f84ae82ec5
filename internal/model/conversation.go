// Package model defines data structures for the support dashboard.
package model

import (
	"sort"
	"time"
)

// Conversation is the message history and metadata for one end user.
type Conversation struct {
	UserID        string    `json:"userId"`
	UserName      string    `json:"userName"`
	Messages      []Message `json:"messages"`
	LastMessage   string    `json:"lastMessage"`
	LastTimestamp string    `json:"lastTimestamp"`
	Unread        int       `json:"unread"`
}

// Clone returns a deep copy so callers can't mutate stored state.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := *c
	out.Messages = make([]Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	return &out
}

// Append adds msg and recomputes the derived preview fields. Unread only
// grows for messages written by the end user; bot and agent messages
// leave it untouched. Agent replies come from the dashboard itself, so
// counting them would flag the agent's own message as unread.
func (c *Conversation) Append(msg Message) {
	c.Messages = append(c.Messages, msg)
	c.LastMessage = msg.Preview()
	c.LastTimestamp = msg.Timestamp
	if msg.Origin() == OriginUser {
		c.Unread++
	}
}

// DefaultUserName is used when an inbound message carries no display name.
func DefaultUserName(userID string) string {
	return "Usuário " + userID
}

// CreateConversationRequest is the request to open a conversation explicitly.
type CreateConversationRequest struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

// ConversationPage is a window over a conversation's messages, most recent first.
type ConversationPage struct {
	Conversation
	TotalMessages int  `json:"totalMessages"`
	HasMore       bool `json:"hasMore"`
	Limit         int  `json:"limit"`
	Offset        int  `json:"offset"`
}

// SortByLastTimestamp orders conversations newest first. Timestamps that
// fail to parse sort after every valid one.
func SortByLastTimestamp(convs []Conversation) {
	sort.SliceStable(convs, func(i, j int) bool {
		ti, errI := time.Parse(time.RFC3339Nano, convs[i].LastTimestamp)
		tj, errJ := time.Parse(time.RFC3339Nano, convs[j].LastTimestamp)
		switch {
		case errI != nil && errJ != nil:
			return convs[i].LastTimestamp > convs[j].LastTimestamp
		case errI != nil:
			return false
		case errJ != nil:
			return true
		}
		return ti.After(tj)
	})
}

// Timestamp formats t the way message timestamps are stored.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
