package dto

import (
	"time"

	"github.com/spec-kit/support-assistant/internal/domain"
)

// TicketSummary response.
type TicketSummary struct {
	ID              string                `json:"id"`
	ExternalKey     string                `json:"external_key"`
	ConversationID  string                `json:"conversation_id"`
	Category        string                `json:"category"`
	Status          domain.TicketStatus   `json:"status"`
	Priority        domain.TicketPriority `json:"priority"`
	Reasons         []domain.ReasonCode   `json:"reasons"`
	AssignedAgentID *string               `json:"assigned_agent_id,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info with its audit trail.
type TicketDetailResponse struct {
	ID              string                 `json:"id"`
	ExternalKey     string                 `json:"external_key"`
	ConversationID  string                 `json:"conversation_id"`
	Category        string                 `json:"category"`
	Status          domain.TicketStatus    `json:"status"`
	Priority        domain.TicketPriority  `json:"priority"`
	Reasons         []domain.ReasonCode    `json:"reasons"`
	AssignedAgentID *string                `json:"assigned_agent_id,omitempty"`
	ResolutionNotes *string                `json:"resolution_notes,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
	ClosedAt        *time.Time             `json:"closed_at,omitempty"`
	History         []StatusChangeResponse `json:"history"`
}

// StatusChangeResponse is one audit entry.
type StatusChangeResponse struct {
	From  domain.TicketStatus `json:"from"`
	To    domain.TicketStatus `json:"to"`
	Actor string              `json:"actor"`
	Note  string              `json:"note,omitempty"`
	At    time.Time           `json:"at"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AgentID string `json:"agent_id"`
}

// TransitionRequest payload for start and close.
type TransitionRequest struct {
	AgentID string `json:"agent_id,omitempty"`
}

// ResolveTicketRequest payload.
type ResolveTicketRequest struct {
	AgentID string `json:"agent_id,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// UpdatePriorityRequest payload.
type UpdatePriorityRequest struct {
	AgentID  string                `json:"agent_id,omitempty"`
	Priority domain.TicketPriority `json:"priority"`
}
