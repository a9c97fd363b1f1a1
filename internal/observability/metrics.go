package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors for the assistant. Registered on the default
// registry and exposed by the /metrics route.
var (
	TurnsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_turns_total",
		Help: "Customer turns processed, by channel.",
	}, []string{"channel"})

	TurnDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "assistant_turn_duration_seconds",
		Help:    "End to end turn handling latency, by channel.",
		Buckets: prometheus.DefBuckets,
	}, []string{"channel"})

	EscalationsDecided = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_escalations_total",
		Help: "Escalation reasons fired, by channel and reason code.",
	}, []string{"channel", "reason"})

	TicketsOpened = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_tickets_opened_total",
		Help: "Tickets opened, by priority.",
	}, []string{"priority"})

	TicketTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_ticket_transitions_total",
		Help: "Ticket status transitions, by target status.",
	}, []string{"to"})

	EngineCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_engine_calls_total",
		Help: "Calls to the assistant engine, by operation and outcome.",
	}, []string{"operation", "outcome"})

	SocialPolls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_social_polls_total",
		Help: "Watch loop polls, by hashtag and outcome.",
	}, []string{"hashtag", "outcome"})

	SocialPosts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_social_posts_total",
		Help: "Public posts handled by the watch loop, by outcome.",
	}, []string{"outcome"})

	SocialReplies = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_social_replies_total",
		Help: "Public replies attempted, by outcome.",
	}, []string{"outcome"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP requests served, by route, method and status.",
	}, []string{"path", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency, by route and method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "method"})
)

// Outcome labels shared by the social counters.
const (
	OutcomeProcessed  = "processed"
	OutcomeDuplicate  = "duplicate"
	OutcomeIgnored    = "ignored"
	OutcomeSent       = "sent"
	OutcomeSuppressed = "suppressed"
	OutcomeFailed     = "failed"
)
