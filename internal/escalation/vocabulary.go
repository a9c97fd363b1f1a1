package escalation

import (
	"sort"
	"strings"

	"github.com/spec-kit/support-assistant/pkg/util"
)

// Vocabulary holds the configured keyword sets signals are matched
// against. Matching is case-insensitive on trimmed terms.
type Vocabulary struct {
	escalation   map[string]struct{}
	legal        map[string]struct{}
	cancellation map[string]struct{}
}

// NewVocabulary builds a vocabulary from configured term lists. An empty
// escalation set is rejected outright: it would silently disable keyword
// escalation for every caller.
func NewVocabulary(escalationTerms, legalTerms, cancellationLabels []string) (*Vocabulary, error) {
	esc := termSet(escalationTerms)
	if len(esc) == 0 {
		return nil, util.NewConfigurationError("escalation keyword vocabulary is empty")
	}
	return &Vocabulary{
		escalation:   esc,
		legal:        termSet(legalTerms),
		cancellation: termSet(cancellationLabels),
	}, nil
}

// MatchEscalation returns the distinct escalation terms present in raw,
// sorted so repeated evaluations of the same input are identical.
func (v *Vocabulary) MatchEscalation(raw []string) []string {
	return match(v.escalation, raw)
}

// MatchLegal returns the distinct legal or regulatory terms present in
// raw, sorted.
func (v *Vocabulary) MatchLegal(raw []string) []string {
	return match(v.legal, raw)
}

// IsCancellationLabel reports whether label names a cancellation intent.
func (v *Vocabulary) IsCancellationLabel(label string) bool {
	_, ok := v.cancellation[normalizeTerm(label)]
	return ok
}

func termSet(terms []string) map[string]struct{} {
	set := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		if n := normalizeTerm(t); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

func match(set map[string]struct{}, raw []string) []string {
	if len(set) == 0 || len(raw) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(raw))
	var out []string
	for _, r := range raw {
		n := normalizeTerm(r)
		if _, ok := set[n]; !ok {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func normalizeTerm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
