package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-assistant/internal/domain"
	"github.com/spec-kit/support-assistant/internal/repository"
	"github.com/spec-kit/support-assistant/pkg/util"
)

// AgentService manages the roster tickets are assigned against.
type AgentService struct {
	agents repository.AgentRepository
}

// NewAgentService constructs the service.
func NewAgentService(agents repository.AgentRepository) *AgentService {
	return &AgentService{agents: agents}
}

// Create registers a new active agent. Emails are unique.
func (s *AgentService) Create(ctx context.Context, name, email string) (*domain.Agent, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return nil, util.NewValidationError("name and email are required", nil)
	}

	existing, err := s.agents.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if existing != nil {
		return nil, util.NewConflict("agent email already registered", map[string]any{"email": email})
	}

	agent := &domain.Agent{Name: name, Email: email, Active: true}
	if err := s.agents.Create(ctx, agent); err != nil {
		return nil, err
	}
	return agent, nil
}

// List returns agents matching the filter.
func (s *AgentService) List(ctx context.Context, filter repository.AgentFilter) ([]domain.Agent, error) {
	return s.agents.List(ctx, filter)
}

// SetActive flips an agent's availability for new assignments.
func (s *AgentService) SetActive(ctx context.Context, id string, active bool) (*domain.Agent, error) {
	agent, err := s.agents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if agent.Active == active {
		return agent, nil
	}
	agent.Active = active
	if err := s.agents.Update(ctx, agent); err != nil {
		return nil, err
	}
	return agent, nil
}
