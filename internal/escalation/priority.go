package escalation

import "github.com/spec-kit/support-assistant/internal/domain"

// Ranker maps an escalating decision to a ticket priority.
type Ranker struct {
	opts Options
}

// NewRanker builds a ranker sharing the policy thresholds.
func NewRanker(opts Options) *Ranker {
	return &Ranker{opts: opts}
}

// Rank resolves priority by ordered rules; the first match wins. Callers
// must only invoke it for escalating decisions.
func (r *Ranker) Rank(d domain.EscalationDecision, sig domain.EscalationSignal, convCtx domain.ConversationContext) domain.TicketPriority {
	switch {
	case d.HasReason(domain.ReasonLegalRisk) || convCtx.VIP:
		return domain.TicketPriorityUrgent
	case sig.Sentiment <= r.opts.CriticalSentiment || d.HasReason(domain.ReasonCancellation):
		return domain.TicketPriorityHigh
	case d.HasReason(domain.ReasonEscalationKeyword) || d.HasReason(domain.ReasonRepeatedEscalation):
		return domain.TicketPriorityMedium
	default:
		return domain.TicketPriorityLow
	}
}
