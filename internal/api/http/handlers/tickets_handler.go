package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-assistant/internal/api/dto"
	"github.com/spec-kit/support-assistant/internal/domain"
	"github.com/spec-kit/support-assistant/internal/events"
	"github.com/spec-kit/support-assistant/internal/repository"
	"github.com/spec-kit/support-assistant/internal/service"
	"github.com/spec-kit/support-assistant/pkg/util"
)

// TicketsHandler serves the agent workbench ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// List GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	tickets, err := h.service.List(c.UserContext(), parseTicketQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	ticket, history, err := h.service.GetWithHistory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, history)})
}

// Assign POST /tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.AgentID) == "" {
		return util.NewValidationError("agent_id required", nil)
	}
	ticket, err := h.service.Assign(c.UserContext(), c.Params("id"), req.AgentID, service.AgentActor(req.AgentID))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// Start POST /tickets/:id/start.
func (h *TicketsHandler) Start(c *fiber.Ctx) error {
	var req dto.TransitionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.StartWork(c.UserContext(), c.Params("id"), actorFrom(req.AgentID))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// Resolve POST /tickets/:id/resolve.
func (h *TicketsHandler) Resolve(c *fiber.Ctx) error {
	var req dto.ResolveTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Resolve(c.UserContext(), c.Params("id"), req.Notes, actorFrom(req.AgentID))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// Close POST /tickets/:id/close.
func (h *TicketsHandler) Close(c *fiber.Ctx) error {
	var req dto.TransitionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Close(c.UserContext(), c.Params("id"), actorFrom(req.AgentID))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// UpdatePriority PATCH /tickets/:id/priority.
func (h *TicketsHandler) UpdatePriority(c *fiber.Ctx) error {
	var req dto.UpdatePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	priority := domain.TicketPriority(strings.ToUpper(strings.TrimSpace(string(req.Priority))))
	switch priority {
	case domain.TicketPriorityLow, domain.TicketPriorityMedium, domain.TicketPriorityHigh, domain.TicketPriorityUrgent:
	default:
		return util.NewValidationError("unknown priority", map[string]any{"priority": req.Priority})
	}
	ticket, err := h.service.RaisePriority(c.UserContext(), c.Params("id"), priority, actorFrom(req.AgentID))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

func actorFrom(agentID string) events.Actor {
	if strings.TrimSpace(agentID) == "" {
		return service.SystemActor()
	}
	return service.AgentActor(agentID)
}

// parseBody decodes an optional JSON body; an absent body is fine.
func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	return nil
}

func parseTicketQuery(c *fiber.Ctx) repository.TicketFilter {
	filter := repository.TicketFilter{}
	if conversationID := c.Query("conversation_id"); conversationID != "" {
		filter.ConversationID = &conversationID
	}
	if agentID := c.Query("agent_id"); agentID != "" {
		filter.AgentID = &agentID
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if category := c.Query("category"); category != "" {
		filter.Category = &category
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:              ticket.ID,
		ExternalKey:     ticket.ExternalKey,
		ConversationID:  ticket.ConversationID,
		Category:        ticket.Category,
		Status:          ticket.Status,
		Priority:        ticket.Priority,
		Reasons:         ticket.Reasons,
		AssignedAgentID: ticket.AssignedAgentID,
		CreatedAt:       ticket.CreatedAt,
		UpdatedAt:       ticket.UpdatedAt,
	}
}

func ticketDetail(ticket *domain.Ticket, history []domain.StatusChange) dto.TicketDetailResponse {
	entries := make([]dto.StatusChangeResponse, 0, len(history))
	for _, change := range history {
		entries = append(entries, dto.StatusChangeResponse{
			From:  change.From,
			To:    change.To,
			Actor: change.ActorRef,
			Note:  change.Note,
			At:    change.At,
		})
	}
	return dto.TicketDetailResponse{
		ID:              ticket.ID,
		ExternalKey:     ticket.ExternalKey,
		ConversationID:  ticket.ConversationID,
		Category:        ticket.Category,
		Status:          ticket.Status,
		Priority:        ticket.Priority,
		Reasons:         ticket.Reasons,
		AssignedAgentID: ticket.AssignedAgentID,
		ResolutionNotes: ticket.ResolutionNotes,
		CreatedAt:       ticket.CreatedAt,
		UpdatedAt:       ticket.UpdatedAt,
		ClosedAt:        ticket.ClosedAt,
		History:         entries,
	}
}
