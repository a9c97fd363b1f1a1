package escalation

import (
	"time"

	"github.com/spec-kit/support-assistant/internal/domain"
)

// Options holds the escalation thresholds.
type Options struct {
	// MinConfidence is the floor under which automation is not trusted.
	MinConfidence float64
	// SevereSentiment escalates any signal strictly below it.
	SevereSentiment float64
	// CriticalSentiment raises priority for signals at or below it.
	CriticalSentiment float64
}

// DefaultOptions returns the production thresholds.
func DefaultOptions() Options {
	return Options{
		MinConfidence:     0.5,
		SevereSentiment:   -0.7,
		CriticalSentiment: -0.85,
	}
}

// Evaluator applies the escalation policy to one signal at a time. It
// holds no mutable state and is safe for concurrent use.
type Evaluator struct {
	opts Options
	now  func() time.Time
}

// NewEvaluator builds an evaluator with the given thresholds.
func NewEvaluator(opts Options) *Evaluator {
	return &Evaluator{opts: opts, now: time.Now}
}

// Evaluate runs every trigger rule against the signal. Rules are
// independent; each rule that fires contributes its reason code, in rule
// order, so every decision explains itself.
func (e *Evaluator) Evaluate(sig domain.EscalationSignal, convCtx domain.ConversationContext) domain.EscalationDecision {
	var reasons []domain.ReasonCode

	if sig.Confidence < e.opts.MinConfidence {
		reasons = append(reasons, domain.ReasonLowConfidence)
	}
	if sig.Sentiment < e.opts.SevereSentiment {
		reasons = append(reasons, domain.ReasonSevereSentiment)
	}
	if len(sig.MatchedKeywords) > 0 {
		reasons = append(reasons, domain.ReasonEscalationKeyword)
	}
	if sig.CancellationIntent {
		reasons = append(reasons, domain.ReasonCancellation)
	}
	// A conversation that needed a human once keeps getting one.
	if convCtx.PriorEscalations >= 1 {
		reasons = append(reasons, domain.ReasonRepeatedEscalation)
	}
	if len(sig.LegalMatches) > 0 {
		reasons = append(reasons, domain.ReasonLegalRisk)
	}

	return domain.EscalationDecision{
		Escalate:   len(reasons) > 0,
		Reasons:    reasons,
		ComputedAt: e.now().UTC(),
	}
}
