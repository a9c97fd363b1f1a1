package domain

import "time"

// Channel identifies where a signal originated.
type Channel string

const (
	ChannelChat   Channel = "CHAT"
	ChannelSocial Channel = "SOCIAL"
)

// EscalationSignal is the canonical evidence extracted from one customer
// turn or public post. Instances are immutable once built; scores are
// already clamped and keyword matches already resolved against the
// configured vocabularies.
type EscalationSignal struct {
	Confidence         float64
	Sentiment          float64
	MatchedKeywords    []string
	LegalMatches       []string
	CancellationIntent bool
	IntentCategory     string
	Channel            Channel
	SourceRef          string
	CapturedAt         time.Time
}
