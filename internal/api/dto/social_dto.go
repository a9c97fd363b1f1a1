package dto

import (
	"time"

	"github.com/spec-kit/support-assistant/internal/domain"
)

// SocialPostRequest payload for direct post ingestion.
type SocialPostRequest struct {
	ID       string    `json:"id"`
	Author   string    `json:"author"`
	Content  string    `json:"content"`
	URL      string    `json:"url,omitempty"`
	Hashtags []string  `json:"hashtags"`
	PostedAt time.Time `json:"posted_at,omitempty"`
}

// SocialOutcomeResponse reports what handling a post produced.
type SocialOutcomeResponse struct {
	Skipped        bool                   `json:"skipped"`
	SkipReason     string                 `json:"skip_reason,omitempty"`
	ConversationID string                 `json:"conversation_id,omitempty"`
	Escalated      bool                   `json:"escalated"`
	Priority       *domain.TicketPriority `json:"priority,omitempty"`
	TicketID       string                 `json:"ticket_id,omitempty"`
	Replied        bool                   `json:"replied"`
}

// ProcessedPostResponse is one bookkeeping row from the moderation view.
// The contact token stays server-side; it is the customer's key into the
// conversation and the public reply is its only legitimate carrier.
type ProcessedPostResponse struct {
	PostID      string                 `json:"post_id"`
	Author      string                 `json:"author"`
	Content     string                 `json:"content"`
	Hashtags    []string               `json:"hashtags"`
	Escalated   bool                   `json:"escalated"`
	Priority    *domain.TicketPriority `json:"priority,omitempty"`
	TicketID    *string                `json:"ticket_id,omitempty"`
	Replied     bool                   `json:"replied"`
	ProcessedAt time.Time              `json:"processed_at"`
}
