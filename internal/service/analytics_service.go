package service

import (
	"context"
	"time"

	"github.com/spec-kit/support-assistant/internal/repository"
)

// defaultAnalyticsWindow is used when the caller gives no range.
const defaultAnalyticsWindow = 30 * 24 * time.Hour

// KPIReport aggregates the headline numbers for a window.
type KPIReport struct {
	From           time.Time                     `json:"from"`
	To             time.Time                     `json:"to"`
	Conversations  repository.ConversationTotals `json:"conversations"`
	Tickets        repository.TicketTotals       `json:"tickets"`
	EscalationRate float64                       `json:"escalation_rate"`
	ResolutionRate float64                       `json:"resolution_rate"`
}

// EscalationReport breaks tickets down by priority for a window.
type EscalationReport struct {
	From       time.Time      `json:"from"`
	To         time.Time      `json:"to"`
	Total      int            `json:"total"`
	ByPriority map[string]int `json:"by_priority"`
}

// IntentReport breaks evaluated signals down by intent for a window.
type IntentReport struct {
	From     time.Time      `json:"from"`
	To       time.Time      `json:"to"`
	Total    int            `json:"total"`
	ByIntent map[string]int `json:"by_intent"`
}

// AnalyticsService serves the reporting surface off the operational store.
type AnalyticsService struct {
	analytics repository.AnalyticsRepository
	now       func() time.Time
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(analytics repository.AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{analytics: analytics, now: time.Now}
}

// KPIs returns conversation and ticket totals plus derived rates.
func (s *AnalyticsService) KPIs(ctx context.Context, from, to time.Time) (*KPIReport, error) {
	from, to = s.window(from, to)

	conversations, err := s.analytics.ConversationTotals(ctx, from, to)
	if err != nil {
		return nil, err
	}
	tickets, err := s.analytics.TicketTotals(ctx, from, to)
	if err != nil {
		return nil, err
	}

	return &KPIReport{
		From:           from,
		To:             to,
		Conversations:  conversations,
		Tickets:        tickets,
		EscalationRate: ratio(conversations.Escalated, conversations.Total),
		ResolutionRate: ratio(tickets.Resolved+tickets.Closed, tickets.Total),
	}, nil
}

// Escalations returns the priority distribution of opened tickets.
func (s *AnalyticsService) Escalations(ctx context.Context, from, to time.Time) (*EscalationReport, error) {
	from, to = s.window(from, to)

	byPriority, err := s.analytics.TicketsByPriority(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return &EscalationReport{
		From:       from,
		To:         to,
		Total:      sum(byPriority),
		ByPriority: byPriority,
	}, nil
}

// Intents returns the intent distribution of evaluated signals.
func (s *AnalyticsService) Intents(ctx context.Context, from, to time.Time) (*IntentReport, error) {
	from, to = s.window(from, to)

	byIntent, err := s.analytics.SignalsByIntent(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return &IntentReport{
		From:     from,
		To:       to,
		Total:    sum(byIntent),
		ByIntent: byIntent,
	}, nil
}

func (s *AnalyticsService) window(from, to time.Time) (time.Time, time.Time) {
	if to.IsZero() {
		to = s.now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-defaultAnalyticsWindow)
	}
	return from, to
}

func ratio(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}

func sum(counts map[string]int) int {
	total := 0
	for _, c := range counts {
		total += c
	}
	return total
}
