// Package actionitems turns a finished evaluation into a short, ranked list
// of coaching recommendations.
package actionitems

import (
	"sort"
	"strings"

	"github.com/jonathan/interview-coach/internal/types"
)

// MaxItems caps the synthesizer output.
const MaxItems = 8

const neutralRating = 3

// Classified is a dimension selected for recommendations.
type Classified struct {
	Name       string
	Type       types.DimensionType
	Evaluation types.DimensionEvaluation
}

// Classify picks the dimension type for one evaluation. The second result is
// false when the dimension does not warrant a recommendation.
func Classify(ev types.DimensionEvaluation) (types.DimensionType, bool) {
	rating, confidence := effective(ev)
	switch {
	case rating <= 2:
		return types.CriticalGap, true
	case rating == 3 && (confidence == types.ConfidenceHigh || confidence == types.ConfidenceMedium):
		return types.DevelopmentOpportunity, true
	case rating >= 4 && confidence == types.ConfidenceHigh:
		return types.StrengthLeverage, true
	default:
		return "", false
	}
}

// ClassifyAll classifies every evaluated dimension. Dimensions follow plan
// order; any the plan does not name come after, sorted by name.
func ClassifyAll(eval *types.Evaluation, plan types.InterviewPlan) []Classified {
	if eval == nil || len(eval.DimensionEvaluations) == 0 {
		return nil
	}

	var out []Classified
	for _, name := range dimensionOrder(eval, plan) {
		ev := eval.DimensionEvaluations[name]
		if dt, ok := Classify(ev); ok {
			out = append(out, Classified{Name: name, Type: dt, Evaluation: ev})
		}
	}
	return out
}

// Score computes the deterministic priority score of item for the dimension
// evaluation it came from.
func Score(item types.ActionItem, ev types.DimensionEvaluation) int {
	rating, confidence := effective(ev)
	score := 0

	switch {
	case rating <= 2:
		score += 40
	case rating == 3:
		score += 20
	default:
		score += 10
	}

	switch confidence {
	case types.ConfidenceHigh:
		score += 20
	case types.ConfidenceMedium:
		score += 10
	}

	switch types.ParsePriority(string(item.Priority)) {
	case types.PriorityCritical:
		score += 30
	case types.PriorityHigh:
		score += 20
	case types.PriorityMedium:
		score += 10
	}

	score += min(5*len(item.Evidence), 20)
	return max(0, min(score, 100))
}

// Prioritize sorts items by score, highest first, keeps the first item for
// each case-insensitive title and truncates to limit.
func Prioritize(items []types.ActionItem, limit int) []types.ActionItem {
	sorted := append([]types.ActionItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PriorityScore > sorted[j].PriorityScore
	})

	seen := make(map[string]bool, len(sorted))
	out := make([]types.ActionItem, 0, min(len(sorted), limit))
	for _, item := range sorted {
		key := strings.ToLower(strings.TrimSpace(item.Title))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
		if len(out) == limit {
			break
		}
	}
	return out
}

// effective applies the defaults for a partially filled evaluation: a
// missing rating counts as 3 and a missing confidence as Medium.
func effective(ev types.DimensionEvaluation) (int, types.Confidence) {
	rating := ev.Rating
	if rating == 0 {
		rating = neutralRating
	}
	confidence := ev.Confidence
	if confidence == "" {
		confidence = types.ConfidenceMedium
	}
	return rating, confidence
}

func dimensionOrder(eval *types.Evaluation, plan types.InterviewPlan) []string {
	names := make([]string, 0, len(eval.DimensionEvaluations))
	listed := make(map[string]bool)
	for _, d := range plan.Dimensions {
		if _, ok := eval.DimensionEvaluations[d.Name]; ok && !listed[d.Name] {
			listed[d.Name] = true
			names = append(names, d.Name)
		}
	}

	var rest []string
	for name := range eval.DimensionEvaluations {
		if !listed[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}
