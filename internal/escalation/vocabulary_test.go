package escalation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-assistant/pkg/util"
)

func TestNewVocabularyRejectsEmptyEscalationSet(t *testing.T) {
	tests := []struct {
		name  string
		terms []string
	}{
		{name: "nil terms"},
		{name: "blank terms", terms: []string{"", "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewVocabulary(tt.terms, nil, nil)
			require.Error(t, err)
			assert.True(t, util.IsCode(err, "CONFIGURATION"))
		})
	}
}

func TestVocabularyMatchingIsCaseInsensitive(t *testing.T) {
	vocab, err := NewVocabulary([]string{"Refund", " complaint "}, []string{"lawyer"}, []string{"cancellation"})
	require.NoError(t, err)

	assert.Equal(t, []string{"complaint", "refund"}, vocab.MatchEscalation([]string{"REFUND", "Complaint", "pricing"}))
	assert.Equal(t, []string{"lawyer"}, vocab.MatchLegal([]string{"LAWYER"}))
	assert.True(t, vocab.IsCancellationLabel("Cancellation"))
	assert.False(t, vocab.IsCancellationLabel("billing"))
}

func TestVocabularyMatchDeduplicatesAndSorts(t *testing.T) {
	vocab, err := NewVocabulary([]string{"refund", "complaint"}, nil, nil)
	require.NoError(t, err)

	got := vocab.MatchEscalation([]string{"refund", "Refund", "complaint", "refund"})
	assert.Equal(t, []string{"complaint", "refund"}, got)
}

func TestVocabularyEmptyLegalSetNeverMatches(t *testing.T) {
	vocab, err := NewVocabulary([]string{"refund"}, nil, nil)
	require.NoError(t, err)

	assert.Empty(t, vocab.MatchLegal([]string{"lawyer", "court"}))
}
