package domain

import "time"

// ActorType distinguishes who performed a recorded action.
type ActorType string

const (
	ActorTypeSystem   ActorType = "SYSTEM"
	ActorTypeAgent    ActorType = "AGENT"
	ActorTypeCustomer ActorType = "CUSTOMER"
)

// Agent is a human support agent tickets can be assigned to.
type Agent struct {
	ID        string
	Name      string
	Email     string
	Active    bool
	CreatedAt time.Time
}
