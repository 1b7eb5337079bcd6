package interviewer

import (
	"fmt"
	"strings"

	"github.com/jonathan/interview-coach/internal/types"
)

// FallbackFollowUpText is asked whenever a follow-up cannot be generated.
const FallbackFollowUpText = "I see. Can you tell me more about your approach to this problem?"

var fallbackOpeningReasoning = []string{
	"Using fallback opening due to API error",
	"Providing specific scenario to get interview started",
}

// canned scenarios keyed by lowercased skill
var fallbackScenarios = map[string]string{
	"a/b testing":   "Imagine you're working for an e-commerce company and want to test whether changing the checkout button color from blue to green increases conversion rates. How would you design this experiment?",
	"system design": "Design a URL shortening service like bit.ly that can handle 100 million URLs. How would you approach this?",
}

var fallbackSkillNames = map[string]string{
	"a/b testing":   "A/B Testing",
	"system design": "System Design",
}

// FallbackOpening returns the canned opening for skill. A/B Testing and
// System Design get a concrete scenario; anything else a generic prompt.
func FallbackOpening(role, seniority, skill string) string {
	greeting := fmt.Sprintf("Hello! I'm excited to interview you for the %s %s position.", seniority, role)

	key := strings.ToLower(strings.TrimSpace(skill))
	if scenario, ok := fallbackScenarios[key]; ok {
		return fmt.Sprintf("%s Today we'll focus on %s. %s", greeting, fallbackSkillNames[key], scenario)
	}
	return fmt.Sprintf("%s Today we'll focus on %s. Please describe a challenging project you've worked on related to %s and walk me through your approach.",
		greeting, skill, skill)
}

func fallbackOpening(role, seniority, skill string, err error, latency int64) Opening {
	return Opening{
		Reasoning: append([]string(nil), fallbackOpeningReasoning...),
		Text:      FallbackOpening(role, seniority, skill),
		State:     types.OpeningState(),
		LatencyMS: latency,
		Err:       err,
		Fallback:  true,
	}
}

func fallbackFollowUp(stage types.Stage, err error, latency int64) FollowUp {
	return FollowUp{
		Reasoning: []string{"Using fallback follow-up due to API error"},
		Text:      FallbackFollowUpText,
		State: types.InterviewState{
			CurrentStage:  stage,
			SkillProgress: types.SkillUnknown,
			NextFocus:     "continue_current_topic",
		},
		LatencyMS: latency,
		Err:       err,
		Fallback:  true,
	}
}
