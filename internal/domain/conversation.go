package domain

import "time"

// ConversationStatus enumerates lifecycle states for conversations.
type ConversationStatus string

const (
	ConversationStatusActive    ConversationStatus = "active"
	ConversationStatusEscalated ConversationStatus = "escalated"
	ConversationStatusClosed    ConversationStatus = "closed"
)

// Conversation is the aggregate for one support exchange, whichever
// channel it arrived on. Social conversations keep the author and post
// that spawned them plus the contact token embedded in the public reply.
type Conversation struct {
	ID               string
	CustomerRef      string
	Channel          Channel
	Status           ConversationStatus
	VIP              bool
	ContextToken     *string
	SocialAuthor     *string
	SocialPostID     *string
	PriorEscalations int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ConversationContext is the read-only snapshot the escalation policy
// evaluates against. History holds previously evaluated signals for the
// conversation, oldest first.
type ConversationContext struct {
	ConversationID   string
	CustomerRef      string
	VIP              bool
	PriorEscalations int
	History          []EscalationSignal
}
