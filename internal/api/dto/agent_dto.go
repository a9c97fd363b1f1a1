package dto

import "time"

// CreateAgentRequest payload.
type CreateAgentRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateAgentRequest payload.
type UpdateAgentRequest struct {
	Active *bool `json:"active"`
}

// AgentResponse response.
type AgentResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
