// Package types holds the data model shared by the interview packages.
package types

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a session.
type Status string

// Session statuses. Both completed statuses are terminal.
const (
	StatusInProgress    Status = "in_progress"
	StatusCompleted     Status = "completed"
	StatusCompletedByAI Status = "completed_by_ai"
)

// IsTerminal reports whether no further turn mutation is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCompletedByAI
}

// Stage is a step in the interview progression.
type Stage string

// Interview stages in their preferred order.
const (
	StageProblemUnderstanding Stage = "problem_understanding"
	StageSolutionDesign       Stage = "solution_design"
	StageTechnicalDepth       Stage = "technical_depth"
	StageTradeoffsConstraints Stage = "trade-offs_constraints"
	StageImplementation       Stage = "implementation"
	StageAdaptation           Stage = "adaptation"
)

// StageOrder lists stages from first to last.
var StageOrder = []Stage{
	StageProblemUnderstanding,
	StageSolutionDesign,
	StageTechnicalDepth,
	StageTradeoffsConstraints,
	StageImplementation,
	StageAdaptation,
}

// Index returns the position of s in StageOrder, or -1 for free-form stages.
func (s Stage) Index() int {
	for i, stage := range StageOrder {
		if stage == s {
			return i
		}
	}
	return -1
}

// NormalizeStage maps generator spellings ("Trade-offs & Constraints",
// "technical depth") onto the stage vocabulary. Unknown values are kept in
// snake case so they still round-trip.
func NormalizeStage(raw string) Stage {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return ""
	}
	squashed := strings.NewReplacer("&", "", "-", "", "_", "", " ", "").Replace(key)
	for _, stage := range StageOrder {
		candidate := strings.NewReplacer("-", "", "_", "").Replace(string(stage))
		if squashed == candidate {
			return stage
		}
	}
	return Stage(strings.Join(strings.Fields(key), "_"))
}

// SkillProgress is the interviewer's running estimate of candidate level.
type SkillProgress string

// Skill progress values. NotStarted and Unknown only appear on fallback paths.
const (
	SkillBeginner     SkillProgress = "beginner"
	SkillIntermediate SkillProgress = "intermediate"
	SkillAdvanced     SkillProgress = "advanced"
	SkillExpert       SkillProgress = "expert"
	SkillNotStarted   SkillProgress = "not_started"
	SkillUnknown      SkillProgress = "unknown"
)

// NormalizeSkillProgress lowercases and validates a generator value.
func NormalizeSkillProgress(raw string) SkillProgress {
	switch p := SkillProgress(strings.ToLower(strings.TrimSpace(raw))); p {
	case SkillBeginner, SkillIntermediate, SkillAdvanced, SkillExpert, SkillNotStarted:
		return p
	default:
		return SkillUnknown
	}
}

// Confidence is a High/Medium/Low judgment.
type Confidence string

// Confidence levels.
const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// ParseConfidence accepts any casing; unrecognised values yield "".
func ParseConfidence(raw string) Confidence {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "high":
		return ConfidenceHigh
	case "medium":
		return ConfidenceMedium
	case "low":
		return ConfidenceLow
	default:
		return ""
	}
}

// InterviewState is the interviewer's view of where the interview stands.
type InterviewState struct {
	CurrentStage  Stage         `json:"current_stage"`
	SkillProgress SkillProgress `json:"skill_progress"`
	NextFocus     string        `json:"next_focus"`
}

// OpeningState is the state attached to every opening question.
func OpeningState() InterviewState {
	return InterviewState{
		CurrentStage:  StageProblemUnderstanding,
		SkillProgress: SkillNotStarted,
		NextFocus:     "initial_problem_presentation",
	}
}

// CompletionAssessment is the generator's judgment on ending the interview.
type CompletionAssessment struct {
	ShouldComplete     bool       `json:"should_complete"`
	Confidence         Confidence `json:"completion_confidence"`
	Reason             string     `json:"reason,omitempty"`
	EvidenceSummary    string     `json:"evidence_summary,omitempty"`
	CoveragePercentage float64    `json:"coverage_percentage,omitempty"`
}

// Completes reports whether the interview should end: should_complete must be
// set and confidence must be High or Medium.
func (c *CompletionAssessment) Completes() bool {
	if c == nil || !c.ShouldComplete {
		return false
	}
	return c.Confidence == ConfidenceHigh || c.Confidence == ConfidenceMedium
}

// TurnType distinguishes the opening question from follow-ups.
type TurnType string

// Turn types.
const (
	TurnOpening  TurnType = "opening"
	TurnFollowUp TurnType = "follow_up"
)

// Turn is one question and, once given, its answer.
type Turn struct {
	Question       string                `json:"question"`
	Answer         *string               `json:"answer"`
	Type           TurnType              `json:"question_type"`
	Timestamp      time.Time             `json:"timestamp"`
	AnsweredAt     *time.Time            `json:"answered_at,omitempty"`
	Reasoning      []string              `json:"ai_reasoning"`
	State          InterviewState        `json:"interview_state"`
	LatencyMS      int64                 `json:"response_latency_ms"`
	Completion     *CompletionAssessment `json:"completion_assessment,omitempty"`
	GeneratorError string                `json:"error,omitempty"`
}

// Pending reports whether the turn is still awaiting an answer.
func (t Turn) Pending() bool {
	return t.Answer == nil
}

// Session is one interview instance with its full transcript.
type Session struct {
	ID               string         `json:"session_id"`
	Role             string         `json:"role"`
	Seniority        string         `json:"seniority"`
	Skill            string         `json:"skill"`
	Skills           []string       `json:"skills,omitempty"`
	State            InterviewState `json:"interview_state"`
	Status           Status         `json:"status"`
	CompletionReason string         `json:"completion_reason,omitempty"`
	FinalCoverage    float64        `json:"final_coverage,omitempty"`
	ClosingStatement string         `json:"closing_statement,omitempty"`
	Plan             InterviewPlan  `json:"interview_plan"`
	Turns            []Turn         `json:"turns"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	CompletedAt      *time.Time     `json:"completed_at,omitempty"`
	Version          int64          `json:"version"`
}

// PendingTurn returns the index of the unanswered turn, if any. Only the last
// turn can be pending.
func (s *Session) PendingTurn() (int, bool) {
	if len(s.Turns) == 0 {
		return -1, false
	}
	last := len(s.Turns) - 1
	if s.Turns[last].Pending() {
		return last, true
	}
	return -1, false
}

// QuestionsAsked counts turns with a question.
func (s *Session) QuestionsAsked() int {
	n := 0
	for _, t := range s.Turns {
		if t.Question != "" {
			n++
		}
	}
	return n
}

// QuestionsAnswered counts turns whose answer has been recorded.
func (s *Session) QuestionsAnswered() int {
	n := 0
	for _, t := range s.Turns {
		if t.Answer != nil {
			n++
		}
	}
	return n
}

// AnsweredTurns returns turns with a non-empty answer, in order.
func (s *Session) AnsweredTurns() []Turn {
	out := make([]Turn, 0, len(s.Turns))
	for _, t := range s.Turns {
		if t.Answer != nil && strings.TrimSpace(*t.Answer) != "" {
			out = append(out, t)
		}
	}
	return out
}

// TotalLatencyMS sums generator latency across turns.
func (s *Session) TotalLatencyMS() int64 {
	var total int64
	for _, t := range s.Turns {
		total += t.LatencyMS
	}
	return total
}

// Reasoning flattens the per-turn reasoning traces.
func (s *Session) Reasoning() [][]string {
	out := make([][]string, 0, len(s.Turns))
	for _, t := range s.Turns {
		out = append(out, append([]string(nil), t.Reasoning...))
	}
	return out
}

// Clone returns a deep copy safe to mutate independently.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Skills = append([]string(nil), s.Skills...)
	out.Plan = s.Plan.Clone()
	if s.CompletedAt != nil {
		at := *s.CompletedAt
		out.CompletedAt = &at
	}
	out.Turns = make([]Turn, len(s.Turns))
	for i, t := range s.Turns {
		c := t
		if t.Answer != nil {
			a := *t.Answer
			c.Answer = &a
		}
		if t.AnsweredAt != nil {
			at := *t.AnsweredAt
			c.AnsweredAt = &at
		}
		if t.Completion != nil {
			ca := *t.Completion
			c.Completion = &ca
		}
		c.Reasoning = append([]string(nil), t.Reasoning...)
		out.Turns[i] = c
	}
	return &out
}
