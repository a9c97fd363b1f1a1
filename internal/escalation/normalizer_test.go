package escalation

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-assistant/internal/domain"
)

func testNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	vocab, err := NewVocabulary([]string{"refund", "complaint"}, []string{"lawyer"}, []string{"cancellation"})
	require.NoError(t, err)
	n := NewNormalizer(vocab)
	n.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return n
}

func TestNormalizeClampsScores(t *testing.T) {
	n := testNormalizer(t)

	tests := []struct {
		name           string
		raw            RawSignal
		wantConfidence float64
		wantSentiment  float64
	}{
		{name: "in range passes through", raw: RawSignal{Confidence: 0.42, Sentiment: -0.3}, wantConfidence: 0.42, wantSentiment: -0.3},
		{name: "confidence above one", raw: RawSignal{Confidence: 1.7, Sentiment: 0}, wantConfidence: 1, wantSentiment: 0},
		{name: "confidence below zero", raw: RawSignal{Confidence: -0.2, Sentiment: 0}, wantConfidence: 0, wantSentiment: 0},
		{name: "sentiment out of range both ways", raw: RawSignal{Confidence: 0.5, Sentiment: -3}, wantConfidence: 0.5, wantSentiment: -1},
		{name: "sentiment above one", raw: RawSignal{Confidence: 0.5, Sentiment: 2}, wantConfidence: 0.5, wantSentiment: 1},
		{name: "nan maps to zero", raw: RawSignal{Confidence: math.NaN(), Sentiment: math.NaN()}, wantConfidence: 0, wantSentiment: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := n.Normalize(tt.raw, domain.ChannelChat, "chat:c1")
			assert.InDelta(t, tt.wantConfidence, sig.Confidence, 1e-9)
			assert.InDelta(t, tt.wantSentiment, sig.Sentiment, 1e-9)
		})
	}
}

func TestNormalizeResolvesVocabularies(t *testing.T) {
	n := testNormalizer(t)

	sig := n.Normalize(RawSignal{
		IntentLabel: "Cancellation",
		Confidence:  0.8,
		Sentiment:   -0.2,
		Keywords:    []string{"Refund", "lawyer", "pricing", "refund"},
	}, domain.ChannelSocial, "social:post-9")

	assert.Equal(t, []string{"refund"}, sig.MatchedKeywords)
	assert.Equal(t, []string{"lawyer"}, sig.LegalMatches)
	assert.True(t, sig.CancellationIntent)
	assert.Equal(t, "cancellation", sig.IntentCategory)
	assert.Equal(t, domain.ChannelSocial, sig.Channel)
	assert.Equal(t, "social:post-9", sig.SourceRef)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), sig.CapturedAt)
}

func TestNormalizeUnknownKeywordsYieldNoMatches(t *testing.T) {
	n := testNormalizer(t)

	sig := n.Normalize(RawSignal{
		IntentLabel: "billing",
		Confidence:  0.9,
		Sentiment:   0.1,
		Keywords:    []string{"invoice", "tarif"},
	}, domain.ChannelChat, "chat:c2")

	assert.Empty(t, sig.MatchedKeywords)
	assert.Empty(t, sig.LegalMatches)
	assert.False(t, sig.CancellationIntent)
}
