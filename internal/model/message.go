package model

// MessageType is the kind of payload a message carries.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeAudio MessageType = "audio"
	MessageTypeFile  MessageType = "file"
)

// Valid reports whether t is a known message type.
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeAudio, MessageTypeFile:
		return true
	}
	return false
}

// Message is a single entry in a conversation. Messages are never edited
// after they are appended.
type Message struct {
	ID        string      `json:"id"`
	Text      string      `json:"text"`
	Type      MessageType `json:"type"`
	IsBot     bool        `json:"isBot"`
	IsAgent   bool        `json:"isAgent"`
	Timestamp string      `json:"timestamp"`

	// Media metadata (audio and file messages)
	AudioURL     string   `json:"audioUrl,omitempty"`
	FileURL      string   `json:"fileUrl,omitempty"`
	Duration     *float64 `json:"duration,omitempty"`
	FileName     string   `json:"fileName,omitempty"`
	FileSize     *int64   `json:"fileSize,omitempty"`
	FileType     string   `json:"fileType,omitempty"`
	FileCategory string   `json:"fileCategory,omitempty"`
}

// Origin describes who produced the message.
type Origin string

const (
	OriginBot   Origin = "bot"
	OriginUser  Origin = "user"
	OriginAgent Origin = "agent"
)

// Origin returns the provenance of the message.
func (m Message) Origin() Origin {
	switch {
	case m.IsBot:
		return OriginBot
	case m.IsAgent:
		return OriginAgent
	default:
		return OriginUser
	}
}

// Preview is the short label shown in the conversation list.
func (m Message) Preview() string {
	switch m.Type {
	case MessageTypeAudio:
		return "🎤 Áudio"
	case MessageTypeFile:
		if m.FileName != "" {
			return "📎 " + m.FileName
		}
		return "📎 Arquivo"
	default:
		return m.Text
	}
}

// WebhookMessageRequest is the inbound payload from the messaging automation.
type WebhookMessageRequest struct {
	UserID    string       `json:"userId"`
	UserName  string       `json:"userName,omitempty"`
	Message   string       `json:"message"`
	IsBot     *bool        `json:"isBot,omitempty"`
	Timestamp string       `json:"timestamp,omitempty"`
	Type      *MessageType `json:"type,omitempty"`
}

// WebhookMessageResponse acknowledges an inbound message. Trava and
// BotSuppressed tell the external bot whether it should stay quiet.
type WebhookMessageResponse struct {
	Success       bool   `json:"success"`
	MessageID     string `json:"messageId"`
	Trava         bool   `json:"trava"`
	BotSuppressed bool   `json:"botSuppressed"`
}

// SendMessageRequest is an agent-originated message from the dashboard.
type SendMessageRequest struct {
	Message      string       `json:"message"`
	Type         *MessageType `json:"type,omitempty"`
	Duration     *float64     `json:"duration,omitempty"`
	FileName     string       `json:"fileName,omitempty"`
	FileSize     *int64       `json:"fileSize,omitempty"`
	FileType     string       `json:"fileType,omitempty"`
	FileCategory string       `json:"fileCategory,omitempty"`
}

// SendMessageResponse is returned once the agent message is stored locally.
type SendMessageResponse struct {
	Success   bool     `json:"success"`
	MessageID string   `json:"messageId"`
	Message   *Message `json:"message,omitempty"`
}

// AutomationPayload is what the outbound relay posts to the external
// automation flow for every agent message.
type AutomationPayload struct {
	MessageID    string      `json:"messageId"`
	UserID       string      `json:"userId"`
	UserName     string      `json:"userName"`
	Message      string      `json:"message"`
	Type         MessageType `json:"type"`
	AudioURL     string      `json:"audioUrl,omitempty"`
	FileURL      string      `json:"fileUrl,omitempty"`
	Duration     *float64    `json:"duration,omitempty"`
	FileName     string      `json:"fileName,omitempty"`
	FileSize     *int64      `json:"fileSize,omitempty"`
	FileType     string      `json:"fileType,omitempty"`
	FileCategory string      `json:"fileCategory,omitempty"`
	IsAgent      bool        `json:"isAgent"`
	Timestamp    string      `json:"timestamp"`
}

// NewAutomationPayload builds the relay payload for an appended agent message.
func NewAutomationPayload(conv *Conversation, msg Message) AutomationPayload {
	return AutomationPayload{
		MessageID:    msg.ID,
		UserID:       conv.UserID,
		UserName:     conv.UserName,
		Message:      msg.Text,
		Type:         msg.Type,
		AudioURL:     msg.AudioURL,
		FileURL:      msg.FileURL,
		Duration:     msg.Duration,
		FileName:     msg.FileName,
		FileSize:     msg.FileSize,
		FileType:     msg.FileType,
		FileCategory: msg.FileCategory,
		IsAgent:      msg.IsAgent,
		Timestamp:    msg.Timestamp,
	}
}
