package escalation

import (
	"math"
	"time"

	"github.com/spec-kit/support-assistant/internal/domain"
)

// RawSignal carries unvalidated classifier output for one turn or post.
type RawSignal struct {
	IntentLabel string
	Confidence  float64
	Sentiment   float64
	Keywords    []string
}

// Normalizer converts raw channel input into canonical escalation
// signals. Noisy inputs are clamped into range, never rejected.
type Normalizer struct {
	vocab *Vocabulary
	now   func() time.Time
}

// NewNormalizer builds a normalizer over the configured vocabulary.
func NewNormalizer(vocab *Vocabulary) *Normalizer {
	return &Normalizer{vocab: vocab, now: time.Now}
}

// Normalize clamps scores into range and resolves vocabulary matches.
func (n *Normalizer) Normalize(raw RawSignal, channel domain.Channel, sourceRef string) domain.EscalationSignal {
	return domain.EscalationSignal{
		Confidence:         clamp(raw.Confidence, 0, 1),
		Sentiment:          clamp(raw.Sentiment, -1, 1),
		MatchedKeywords:    n.vocab.MatchEscalation(raw.Keywords),
		LegalMatches:       n.vocab.MatchLegal(raw.Keywords),
		CancellationIntent: n.vocab.IsCancellationLabel(raw.IntentLabel),
		IntentCategory:     normalizeTerm(raw.IntentLabel),
		Channel:            channel,
		SourceRef:          sourceRef,
		CapturedAt:         n.now().UTC(),
	}
}

// clamp bounds v to [lo, hi]. NaN from a broken scorer maps to zero, not
// to either bound.
func clamp(v, lo, hi float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < lo:
		return lo
	case v > hi:
		return hi
	}
	return v
}
