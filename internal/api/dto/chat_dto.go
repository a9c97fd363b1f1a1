package dto

import (
	"time"

	"github.com/spec-kit/support-assistant/internal/domain"
)

// ChatMessageRequest payload. ConversationID continues an open
// conversation, ContextToken routes a social handoff, neither starts a
// fresh one.
type ChatMessageRequest struct {
	ConversationID string                 `json:"conversation_id,omitempty"`
	ContextToken   string                 `json:"context_token,omitempty"`
	CustomerRef    string                 `json:"customer_ref,omitempty"`
	VIP            bool                   `json:"vip,omitempty"`
	Message        string                 `json:"message"`
	Classification *ClassificationPayload `json:"classification,omitempty"`
}

// ClassificationPayload carries pre-computed classifier output supplied
// by an upstream caller.
type ClassificationPayload struct {
	IntentLabel string   `json:"intent_label"`
	Confidence  float64  `json:"confidence"`
	Sentiment   float64  `json:"sentiment"`
	Keywords    []string `json:"keywords"`
}

// ChatMessageResponse response.
type ChatMessageResponse struct {
	ConversationID string                 `json:"conversation_id"`
	Response       string                 `json:"response"`
	Escalated      bool                   `json:"escalated"`
	Reasons        []domain.ReasonCode    `json:"reasons,omitempty"`
	Priority       *domain.TicketPriority `json:"priority,omitempty"`
	Ticket         *TicketSummary         `json:"ticket,omitempty"`
	SuggestedLinks []LinkResponse         `json:"suggested_links"`
}

// LinkResponse is one self-service suggestion.
type LinkResponse struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// ConversationResponse response.
type ConversationResponse struct {
	ID               string                    `json:"id"`
	CustomerRef      string                    `json:"customer_ref"`
	Channel          domain.Channel            `json:"channel"`
	Status           domain.ConversationStatus `json:"status"`
	VIP              bool                      `json:"vip"`
	PriorEscalations int                       `json:"prior_escalations"`
	CreatedAt        time.Time                 `json:"created_at"`
	UpdatedAt        time.Time                 `json:"updated_at"`
}

// MessageResponse is one transcript entry.
type MessageResponse struct {
	ID        string             `json:"id"`
	Role      domain.MessageRole `json:"role"`
	Content   string             `json:"content"`
	Metadata  map[string]any     `json:"metadata,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}
