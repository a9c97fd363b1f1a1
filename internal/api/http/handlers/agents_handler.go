package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-assistant/internal/api/dto"
	"github.com/spec-kit/support-assistant/internal/domain"
	"github.com/spec-kit/support-assistant/internal/repository"
	"github.com/spec-kit/support-assistant/internal/service"
	"github.com/spec-kit/support-assistant/pkg/util"
)

// AgentsHandler manages the agent roster.
type AgentsHandler struct {
	service *service.AgentService
}

// NewAgentsHandler constructs handler.
func NewAgentsHandler(agentService *service.AgentService) *AgentsHandler {
	return &AgentsHandler{service: agentService}
}

// Create POST /agents.
func (h *AgentsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	agent, err := h.service.Create(c.UserContext(), req.Name, req.Email)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": agentResponse(agent)})
}

// List GET /agents.
func (h *AgentsHandler) List(c *fiber.Ctx) error {
	filter := repository.AgentFilter{}
	if activeStr := c.Query("active"); activeStr != "" {
		active := activeStr == "true"
		filter.Active = &active
	}
	agents, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.AgentResponse, 0, len(agents))
	for i := range agents {
		items = append(items, agentResponse(&agents[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Update PATCH /agents/:id.
func (h *AgentsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if req.Active == nil {
		return util.NewValidationError("active required", nil)
	}
	agent, err := h.service.SetActive(c.UserContext(), c.Params("id"), *req.Active)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": agentResponse(agent)})
}

func agentResponse(agent *domain.Agent) dto.AgentResponse {
	return dto.AgentResponse{
		ID:        agent.ID,
		Name:      agent.Name,
		Email:     agent.Email,
		Active:    agent.Active,
		CreatedAt: agent.CreatedAt,
	}
}
