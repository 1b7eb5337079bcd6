package actionitems

import (
	"fmt"
	"strings"

	"github.com/jonathan/interview-coach/internal/types"
)

// DefaultItem is returned when no dimension produced a recommendation.
func DefaultItem() types.ActionItem {
	return types.ActionItem{
		Title:            "Continue Skill Development",
		Description:      "Continue practicing and developing your interview skills across all dimensions.",
		Priority:         types.PriorityMedium,
		Category:         "General Development",
		Evidence:         []string{},
		ExpectedOutcome:  "Overall skill improvement",
		Timeframe:        "Ongoing",
		Resources:        []string{"Regular practice sessions", "Mock interviews"},
		SeniorityContext: "General development for any level",
		GoodVsGreat:      "Consistent practice leads to mastery",
		Dimension:        "general",
		DimensionType:    types.GeneralDevelopment,
		PriorityScore:    30,
	}
}

// FallbackItems is the rule-based substitute when generation fails for a
// dimension. Only critical gaps get one.
func FallbackItems(c Classified, seniority string) []types.ActionItem {
	if c.Type != types.CriticalGap {
		return nil
	}

	spaced := strings.ReplaceAll(c.Name, "_", " ")
	lower := strings.ToLower(spaced)
	evidence := c.Evaluation.Evidence
	if len(evidence) > 2 {
		evidence = evidence[:2]
	}

	item := types.ActionItem{
		Title:            "Improve " + titleWords(spaced),
		Description:      fmt.Sprintf("Focus on developing core skills in %s as this is a critical gap for %s level.", lower, seniority),
		Priority:         types.PriorityCritical,
		Category:         "Technical Skills",
		Evidence:         append([]string{}, evidence...),
		ExpectedOutcome:  "Better performance in " + lower,
		Timeframe:        "2-3 months",
		Resources:        []string{"Practice with similar problems", "Study relevant frameworks"},
		SeniorityContext: fmt.Sprintf("Critical for %s level expectations", seniority),
		GoodVsGreat:      "Move from basic understanding to advanced application",
		Dimension:        c.Name,
		DimensionType:    c.Type,
	}
	item.PriorityScore = Score(item, c.Evaluation)
	return []types.ActionItem{item}
}

// EvidenceText renders a dimension's evaluation and signal evidence for the
// generation prompt.
func EvidenceText(ev types.DimensionEvaluation, signals types.SignalEvidence) string {
	var parts []string

	if len(ev.Evidence) > 0 {
		parts = append(parts, "**Interview Evidence:**")
		for _, q := range ev.Evidence {
			parts = append(parts, fmt.Sprintf("- %q", q))
		}
	}
	if len(signals.PositiveSignals) > 0 {
		parts = append(parts, "\n**Positive Signals:**")
		for _, s := range signals.PositiveSignals {
			parts = append(parts, "- "+s)
		}
	}
	if len(signals.AreasForImprovement) > 0 {
		parts = append(parts, "\n**Areas for Improvement:**")
		for _, a := range signals.AreasForImprovement {
			parts = append(parts, "- "+a)
		}
	}
	if len(signals.Quotes) > 0 {
		parts = append(parts, "\n**Key Quotes:**")
		for _, q := range signals.Quotes {
			parts = append(parts, fmt.Sprintf("- %q", q))
		}
	}
	if ev.Assessment != "" {
		parts = append(parts, "\n**Assessment:** "+ev.Assessment)
	}
	if ev.SeniorityAlignment != "" {
		parts = append(parts, "\n**Seniority Alignment:** "+ev.SeniorityAlignment)
	}

	if len(parts) == 0 {
		return "No specific evidence available."
	}
	return strings.Join(parts, "\n")
}

// titleWords upper-cases the first letter of each word and lower-cases the rest.
func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func typeLabel(dt types.DimensionType) string {
	return titleWords(strings.ReplaceAll(string(dt), "_", " "))
}
