package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/support-assistant/internal/domain"
	"github.com/spec-kit/support-assistant/internal/events"
	"github.com/spec-kit/support-assistant/internal/observability"
	"github.com/spec-kit/support-assistant/internal/repository"
	"github.com/spec-kit/support-assistant/pkg/util"
)

// TicketService owns the escalation ticket lifecycle. Every mutation is
// serialized through a per-conversation lock so concurrent turns, social
// posts and agent actions on one conversation cannot race each other.
type TicketService struct {
	tickets    repository.TicketRepository
	changes    repository.StatusChangeRepository
	agents     repository.AgentRepository
	dispatcher events.Dispatcher
	locks      *util.KeyMutex
	logger     *zap.Logger
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	ChangeRepo repository.StatusChangeRepository
	AgentRepo  repository.AgentRepository
	Dispatcher events.Dispatcher
	Locks      *util.KeyMutex
	Logger     *zap.Logger
}

// TicketOpenInput describes one escalation asking for a ticket.
type TicketOpenInput struct {
	ConversationID string
	Category       string
	Priority       domain.TicketPriority
	Reasons        []domain.ReasonCode
	Actor          events.Actor
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	locks := deps.Locks
	if locks == nil {
		locks = util.NewKeyMutex()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		changes:    deps.ChangeRepo,
		agents:     deps.AgentRepo,
		dispatcher: deps.Dispatcher,
		locks:      locks,
		logger:     logger,
		now:        time.Now,
	}
}

// OpenOrUpgrade opens a ticket for the conversation, or upgrades the one
// already active. When an active ticket exists and the input carries no
// legal risk, no second ticket is opened: the existing ticket absorbs the
// new reasons, its priority rises when the computed one outranks it, and
// the call returns it together with a DUPLICATE_TICKET error so callers
// can tell upgrade from open. Legal risk always opens a fresh ticket.
func (s *TicketService) OpenOrUpgrade(ctx context.Context, input TicketOpenInput) (*domain.Ticket, error) {
	if input.ConversationID == "" {
		return nil, util.NewValidationError("conversation id is required", nil)
	}

	key := conversationKey(input.ConversationID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	if !hasReason(input.Reasons, domain.ReasonLegalRisk) {
		active, err := s.tickets.FindActiveByConversation(ctx, input.ConversationID)
		if err != nil {
			return nil, err
		}
		if len(active) > 0 {
			existing := &active[0]
			if err := s.absorbLocked(ctx, existing, input); err != nil {
				return nil, err
			}
			return existing, util.NewDuplicateTicket(input.ConversationID, existing.ID)
		}
	}
	return s.openLocked(ctx, input)
}

// Assign moves an open ticket to ASSIGNED and binds it to an active agent.
func (s *TicketService) Assign(ctx context.Context, ticketID, agentID string, actor events.Actor) (*domain.Ticket, error) {
	agent, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if !agent.Active {
		return nil, util.NewValidationError("agent is not active", map[string]any{"agent_id": agentID})
	}

	ticket, err := s.transition(ctx, ticketID, domain.TicketStatusAssigned, actor, "assigned to "+agent.Name, func(t *domain.Ticket) {
		t.AssignedAgentID = &agent.ID
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:           events.EventTicketAssigned,
		ConversationID: ticket.ConversationID,
		TicketID:       ticket.ID,
		Actor:          actor,
		Payload:        events.TicketAssignedPayload{AgentID: agent.ID},
	})
	return ticket, nil
}

// StartWork moves an assigned ticket to IN_PROGRESS.
func (s *TicketService) StartWork(ctx context.Context, ticketID string, actor events.Actor) (*domain.Ticket, error) {
	return s.transition(ctx, ticketID, domain.TicketStatusInProgress, actor, "", nil)
}

// Resolve completes a ticket, from IN_PROGRESS or straight from OPEN when
// the case needed no agent work.
func (s *TicketService) Resolve(ctx context.Context, ticketID, notes string, actor events.Actor) (*domain.Ticket, error) {
	notes = strings.TrimSpace(notes)
	return s.transition(ctx, ticketID, domain.TicketStatusResolved, actor, "resolved", func(t *domain.Ticket) {
		if notes != "" {
			t.ResolutionNotes = &notes
		}
	})
}

// Close archives a resolved ticket. CLOSED is terminal.
func (s *TicketService) Close(ctx context.Context, ticketID string, actor events.Actor) (*domain.Ticket, error) {
	return s.transition(ctx, ticketID, domain.TicketStatusClosed, actor, "closed", nil)
}

// RaisePriority upgrades one ticket's priority. Lower or equal computed
// priorities are a logged no-op returning the unchanged ticket.
func (s *TicketService) RaisePriority(ctx context.Context, ticketID string, computed domain.TicketPriority, actor events.Actor) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	key := conversationKey(ticket.ConversationID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	// reload under the lock; another holder may have moved the ticket
	ticket, err = s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return s.raisePriorityLocked(ctx, ticket, computed, actor)
}

// UpgradePriority upgrades the active ticket of a conversation, if any.
func (s *TicketService) UpgradePriority(ctx context.Context, conversationID string, computed domain.TicketPriority, actor events.Actor) (*domain.Ticket, error) {
	key := conversationKey(conversationID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	active, err := s.tickets.FindActiveByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, util.NewNotFound("active ticket", map[string]any{"conversation_id": conversationID})
	}
	return s.raisePriorityLocked(ctx, &active[0], computed, actor)
}

// GetWithHistory returns a ticket together with its transition audit trail.
func (s *TicketService) GetWithHistory(ctx context.Context, ticketID string) (*domain.Ticket, []domain.StatusChange, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	history, err := s.changes.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	return ticket, history, nil
}

// List returns tickets matching the filter.
func (s *TicketService) List(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, filter)
}

func (s *TicketService) openLocked(ctx context.Context, input TicketOpenInput) (*domain.Ticket, error) {
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityLow
	}
	ticket := &domain.Ticket{
		ExternalKey:    generateTicketKey(),
		ConversationID: input.ConversationID,
		Category:       strings.TrimSpace(input.Category),
		Status:         domain.TicketStatusOpen,
		Priority:       priority,
		Reasons:        input.Reasons,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	if err := s.record(ctx, ticket.ID, "", domain.TicketStatusOpen, input.Actor, "opened"); err != nil {
		return nil, err
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:           events.EventTicketCreated,
		ConversationID: ticket.ConversationID,
		TicketID:       ticket.ID,
		Actor:          input.Actor,
		Payload: events.TicketCreatedPayload{
			Category: ticket.Category,
			Priority: ticket.Priority,
			Reasons:  ticket.Reasons,
		},
	})
	observability.TicketsOpened.WithLabelValues(string(ticket.Priority)).Inc()
	return ticket, nil
}

// absorbLocked folds a repeated escalation into the active ticket: new
// reasons are merged and the priority rises when outranked.
func (s *TicketService) absorbLocked(ctx context.Context, ticket *domain.Ticket, input TicketOpenInput) error {
	merged, changed := mergeReasons(ticket.Reasons, input.Reasons)
	ticket.Reasons = merged

	if input.Priority.Outranks(ticket.Priority) {
		_, err := s.raisePriorityLocked(ctx, ticket, input.Priority, input.Actor)
		return err
	}
	if changed {
		return s.tickets.Update(ctx, ticket)
	}
	return nil
}

func (s *TicketService) raisePriorityLocked(ctx context.Context, ticket *domain.Ticket, computed domain.TicketPriority, actor events.Actor) (*domain.Ticket, error) {
	if !computed.Outranks(ticket.Priority) {
		s.logger.Info("priority upgrade skipped",
			zap.String("ticket_id", ticket.ID),
			zap.String("current", string(ticket.Priority)),
			zap.String("computed", string(computed)))
		return ticket, nil
	}
	old := ticket.Priority
	ticket.Priority = computed
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:           events.EventTicketPriorityChanged,
		ConversationID: ticket.ConversationID,
		TicketID:       ticket.ID,
		Actor:          actor,
		Payload: events.TicketPriorityChangedPayload{
			OldPriority: old,
			NewPriority: ticket.Priority,
		},
	})
	return ticket, nil
}

func (s *TicketService) transition(ctx context.Context, ticketID string, to domain.TicketStatus, actor events.Actor, note string, mutate func(*domain.Ticket)) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	key := conversationKey(ticket.ConversationID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	// reload under the lock; another holder may have moved the ticket
	ticket, err = s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !isValidTransition(ticket.Status, to) {
		return nil, util.NewInvalidTransition(ticket.ID, string(ticket.Status), string(to))
	}

	from := ticket.Status
	ticket.Status = to
	if to == domain.TicketStatusClosed {
		closedAt := s.now()
		ticket.ClosedAt = &closedAt
	}
	if mutate != nil {
		mutate(ticket)
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	if err := s.record(ctx, ticket.ID, from, to, actor, note); err != nil {
		return nil, err
	}
	publish(ctx, s.dispatcher, events.Event{
		Type:           events.EventTicketStatusChanged,
		ConversationID: ticket.ConversationID,
		TicketID:       ticket.ID,
		Actor:          actor,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: from,
			NewStatus: to,
			Note:      note,
		},
	})
	observability.TicketTransitions.WithLabelValues(string(to)).Inc()
	return ticket, nil
}

// record appends one audit entry. Entry times never go backwards for a
// ticket, even when the wall clock does.
func (s *TicketService) record(ctx context.Context, ticketID string, from, to domain.TicketStatus, actor events.Actor, note string) error {
	at := s.now().UTC()
	latest, err := s.changes.LatestByTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	if latest != nil && at.Before(latest.At) {
		at = latest.At
	}
	return s.changes.Create(ctx, &domain.StatusChange{
		TicketID: ticketID,
		From:     from,
		To:       to,
		ActorRef: actorRef(actor),
		Note:     note,
		At:       at,
	})
}

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen:       {domain.TicketStatusAssigned, domain.TicketStatusResolved},
	domain.TicketStatusAssigned:   {domain.TicketStatusInProgress},
	domain.TicketStatusInProgress: {domain.TicketStatusResolved},
	domain.TicketStatusResolved:   {domain.TicketStatusClosed},
	domain.TicketStatusClosed:     {},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

func conversationKey(conversationID string) string {
	return "conversation:" + conversationID
}

func generateTicketKey() string {
	return "TCK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func hasReason(reasons []domain.ReasonCode, code domain.ReasonCode) bool {
	for _, r := range reasons {
		if r == code {
			return true
		}
	}
	return false
}

// mergeReasons unions extra into base keeping base order, and reports
// whether anything new arrived.
func mergeReasons(base, extra []domain.ReasonCode) ([]domain.ReasonCode, bool) {
	merged := base
	changed := false
	for _, r := range extra {
		if !hasReason(merged, r) {
			merged = append(merged, r)
			changed = true
		}
	}
	return merged, changed
}

func actorRef(actor events.Actor) string {
	if actor.Ref != "" {
		return actor.Ref
	}
	return strings.ToLower(string(actor.Type))
}

// SystemActor identifies actions taken by the assistant itself.
func SystemActor() events.Actor {
	return events.Actor{Type: domain.ActorTypeSystem, Ref: "system"}
}

// AgentActor identifies actions taken by a named support agent.
func AgentActor(agentID string) events.Actor {
	return events.Actor{Type: domain.ActorTypeAgent, Ref: "agent:" + agentID}
}

func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}
