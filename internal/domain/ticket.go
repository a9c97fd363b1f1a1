package domain

import "time"

// TicketStatus enumerates lifecycle states for escalation tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusAssigned   TicketStatus = "ASSIGNED"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// Active reports whether the status still demands agent attention. Active
// tickets block a second ticket for the same conversation.
func (s TicketStatus) Active() bool {
	switch s {
	case TicketStatusOpen, TicketStatusAssigned, TicketStatusInProgress:
		return true
	}
	return false
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

var priorityRank = map[TicketPriority]int{
	TicketPriorityLow:    0,
	TicketPriorityMedium: 1,
	TicketPriorityHigh:   2,
	TicketPriorityUrgent: 3,
}

// Rank returns the total-order position of the priority, lowest first.
func (p TicketPriority) Rank() int {
	return priorityRank[p]
}

// Outranks reports whether p is strictly more urgent than other.
func (p TicketPriority) Outranks(other TicketPriority) bool {
	return p.Rank() > other.Rank()
}

// Ticket is the aggregate for one escalated support case.
type Ticket struct {
	ID              string
	ExternalKey     string
	ConversationID  string
	Category        string
	Status          TicketStatus
	Priority        TicketPriority
	Reasons         []ReasonCode
	AssignedAgentID *string
	ResolutionNotes *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ClosedAt        *time.Time
}

// StatusChange is one immutable audit entry for a ticket transition.
type StatusChange struct {
	ID       string
	TicketID string
	From     TicketStatus
	To       TicketStatus
	ActorRef string
	Note     string
	At       time.Time
}
