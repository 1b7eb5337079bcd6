package interviewer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jonathan/interview-coach/internal/types"
)

// Speaker identifies who produced a history entry.
type Speaker string

// Speakers.
const (
	SpeakerInterviewer Speaker = "interviewer"
	SpeakerCandidate   Speaker = "candidate"
)

// Message is one entry of the conversation shown to the generator.
type Message struct {
	Speaker Speaker `json:"role"`
	Content string  `json:"content"`
}

// HistoryFromTurns flattens answered turns into alternating interviewer and
// candidate messages. A pending turn is left out.
func HistoryFromTurns(turns []types.Turn) []Message {
	out := make([]Message, 0, len(turns)*2)
	for _, t := range turns {
		if t.Pending() {
			continue
		}
		out = append(out,
			Message{Speaker: SpeakerInterviewer, Content: t.Question},
			Message{Speaker: SpeakerCandidate, Content: *t.Answer},
		)
	}
	return out
}

// FormatHistory renders messages as "Turn N - Interviewer: ..." lines.
func FormatHistory(history []Message) string {
	if len(history) == 0 {
		return "No previous conversation."
	}

	lines := make([]string, 0, len(history))
	for i, m := range history {
		lines = append(lines, fmt.Sprintf("Turn %d - %s: %s", i+1, titleCase(string(m.Speaker)), m.Content))
	}
	return strings.Join(lines, "\n")
}

// SessionContext is the plan and progress summary passed with each prompt.
type SessionContext struct {
	Objective      string   `json:"objective,omitempty"`
	Archetype      string   `json:"archetype,omitempty"`
	CorePhilosophy string   `json:"core_philosophy,omitempty"`
	Dimensions     []string `json:"evaluation_dimensions,omitempty"`
	OpeningPrompt  string   `json:"opening_prompt,omitempty"`
	TurnCount      int      `json:"turn_count"`
	NextFocus      string   `json:"next_focus,omitempty"`
}

// ContextForSession builds the context from a session's plan snapshot.
func ContextForSession(s *types.Session) SessionContext {
	return SessionContext{
		Objective:      s.Plan.Objective,
		Archetype:      s.Plan.Archetype,
		CorePhilosophy: s.Plan.CorePhilosophy,
		Dimensions:     s.Plan.DimensionNames(),
		OpeningPrompt:  s.Plan.OpeningPrompt,
		TurnCount:      len(s.Turns),
		NextFocus:      s.State.NextFocus,
	}
}

func (c SessionContext) render() string {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
