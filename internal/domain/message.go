package domain

import "time"

// MessageRole indicates who authored a transcript entry.
type MessageRole string

const (
	RoleCustomer  MessageRole = "CUSTOMER"
	RoleAssistant MessageRole = "ASSISTANT"
	RoleSystem    MessageRole = "SYSTEM"
)

// Message captures one entry in a conversation transcript. Assistant
// entries carry decision annotations in Metadata.
type Message struct {
	ID             string
	ConversationID string
	Role           MessageRole
	Content        string
	Metadata       map[string]any
	CreatedAt      time.Time
}
