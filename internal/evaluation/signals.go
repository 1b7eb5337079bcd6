package evaluation

import (
	"strings"

	"github.com/jonathan/interview-coach/internal/types"
)

const quoteLimit = 100

var keywordSignals = []struct {
	signal   string
	keywords []string
}{
	{"Shows strategic thinking", []string{"think", "approach", "strategy"}},
	{"Demonstrates user empathy", []string{"user", "customer", "need"}},
}

// ExtractSignals collects keyword signals and answer quotes for every plan
// dimension. Every dimension gets the same observations; the evaluator
// decides which of them matter for the rubric.
func ExtractSignals(plan types.InterviewPlan, turns []types.Turn) map[string]types.SignalEvidence {
	var (
		positives []string
		quotes    []string
		seen      = make(map[string]bool)
	)
	for _, t := range turns {
		if t.Pending() || strings.TrimSpace(*t.Answer) == "" {
			continue
		}
		answer := *t.Answer
		lower := strings.ToLower(answer)
		for _, ks := range keywordSignals {
			if !seen[ks.signal] && containsAny(lower, ks.keywords) {
				seen[ks.signal] = true
				positives = append(positives, ks.signal)
			}
		}
		quotes = append(quotes, quote(answer))
	}

	out := make(map[string]types.SignalEvidence, len(plan.Dimensions))
	for _, d := range plan.Dimensions {
		out[d.Name] = types.SignalEvidence{
			PositiveSignals:     append([]string{}, positives...),
			AreasForImprovement: []string{},
			Quotes:              append([]string{}, quotes...),
			Confidence:          types.ConfidenceMedium,
		}
	}
	return out
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func quote(answer string) string {
	runes := []rune(answer)
	if len(runes) > quoteLimit {
		runes = runes[:quoteLimit]
	}
	return string(runes) + "..."
}
