package events

import (
	"time"

	"github.com/spec-kit/support-assistant/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventEscalationDecided     EventType = "escalation_decided"
	EventTicketCreated         EventType = "ticket_created"
	EventTicketStatusChanged   EventType = "ticket_status_changed"
	EventTicketPriorityChanged EventType = "ticket_priority_changed"
	EventTicketAssigned        EventType = "ticket_assigned"
	EventSocialReplySent       EventType = "social_reply_sent"
)

// AllEventTypes lists every event the service emits, for subscribers that
// want the full stream.
var AllEventTypes = []EventType{
	EventEscalationDecided,
	EventTicketCreated,
	EventTicketStatusChanged,
	EventTicketPriorityChanged,
	EventTicketAssigned,
	EventSocialReplySent,
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type domain.ActorType `json:"type"`
	Ref  string           `json:"ref,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID             string      `json:"id"`
	Type           EventType   `json:"type"`
	ConversationID string      `json:"conversation_id,omitempty"`
	TicketID       string      `json:"ticket_id,omitempty"`
	Actor          Actor       `json:"actor"`
	Timestamp      time.Time   `json:"timestamp"`
	Payload        interface{} `json:"payload"`
}

// EscalationDecidedPayload payload.
type EscalationDecidedPayload struct {
	Channel  domain.Channel        `json:"channel"`
	Reasons  []domain.ReasonCode   `json:"reasons"`
	Priority domain.TicketPriority `json:"priority"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Category string                `json:"category"`
	Priority domain.TicketPriority `json:"priority"`
	Reasons  []domain.ReasonCode   `json:"reasons"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Note      string              `json:"note,omitempty"`
}

// TicketPriorityChangedPayload payload.
type TicketPriorityChangedPayload struct {
	OldPriority domain.TicketPriority `json:"old_priority"`
	NewPriority domain.TicketPriority `json:"new_priority"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AgentID string `json:"agent_id"`
}

// SocialReplySentPayload payload.
type SocialReplySentPayload struct {
	PostID       string `json:"post_id"`
	Author       string `json:"author"`
	ContactToken string `json:"contact_token"`
}
