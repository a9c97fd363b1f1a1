package domain

import "time"

// ReasonCode identifies one escalation trigger.
type ReasonCode string

const (
	ReasonLowConfidence      ReasonCode = "LOW_CONFIDENCE"
	ReasonSevereSentiment    ReasonCode = "SEVERE_NEGATIVE_SENTIMENT"
	ReasonEscalationKeyword  ReasonCode = "ESCALATION_KEYWORD"
	ReasonCancellation       ReasonCode = "CANCELLATION_REQUEST"
	ReasonRepeatedEscalation ReasonCode = "REPEATED_ESCALATION"
	ReasonLegalRisk          ReasonCode = "LEGAL_RISK"
)

// EscalationDecision is the outcome of evaluating one signal against the
// escalation policy. Reasons lists every rule that fired, in rule order.
type EscalationDecision struct {
	Escalate   bool
	Reasons    []ReasonCode
	ComputedAt time.Time
}

// HasReason reports whether code contributed to the decision.
func (d EscalationDecision) HasReason(code ReasonCode) bool {
	for _, r := range d.Reasons {
		if r == code {
			return true
		}
	}
	return false
}
