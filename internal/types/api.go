package types

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// StartInterviewRequest starts a session.
type StartInterviewRequest struct {
	Role      string   `json:"role" validate:"required"`
	Seniority string   `json:"seniority" validate:"required"`
	Skills    []string `json:"skills" validate:"required,min=1,dive,required"`
}

// Validate validates the request using the validator.
func (r *StartInterviewRequest) Validate() error {
	r.Role = strings.TrimSpace(r.Role)
	r.Seniority = strings.TrimSpace(r.Seniority)
	for i := range r.Skills {
		r.Skills[i] = strings.TrimSpace(r.Skills[i])
	}
	return validate.Struct(r)
}

// SubmitAnswerRequest carries the candidate's answer to the pending turn.
type SubmitAnswerRequest struct {
	Answer string `json:"answer" validate:"required"`
}

// Validate validates the request using the validator.
func (r *SubmitAnswerRequest) Validate() error {
	r.Answer = strings.TrimSpace(r.Answer)
	return validate.Struct(r)
}

// StartInterviewResponse is returned by start.
type StartInterviewResponse struct {
	SessionID                string         `json:"session_id"`
	OpeningStatement         string         `json:"opening_statement"`
	Status                   string         `json:"status"`
	Role                     string         `json:"role"`
	Seniority                string         `json:"seniority"`
	Skill                    string         `json:"skill"`
	EstimatedDurationMinutes int            `json:"estimated_duration_minutes"`
	InterviewPlan            PlanSummary    `json:"interview_plan"`
	InterviewState           InterviewState `json:"interview_state"`
	Error                    string         `json:"error,omitempty"`
}

// SubmitAnswerResponse is returned by submit_answer.
type SubmitAnswerResponse struct {
	SessionID            string                `json:"session_id"`
	NextQuestion         string                `json:"next_question"`
	CurrentStage         Stage                 `json:"current_stage"`
	SkillProgress        SkillProgress         `json:"skill_progress"`
	NextFocus            string                `json:"next_focus"`
	InterviewCompleted   bool                  `json:"interview_completed"`
	CompletionAssessment *CompletionAssessment `json:"completion_assessment,omitempty"`
	CompletionReason     string                `json:"completion_reason,omitempty"`
	EvidenceSummary      string                `json:"evidence_summary,omitempty"`
	CoveragePercentage   float64               `json:"coverage_percentage,omitempty"`
	Error                string                `json:"error,omitempty"`
}

// CompleteInterviewResponse is returned by complete.
type CompleteInterviewResponse struct {
	SessionID          string       `json:"session_id"`
	Role               string       `json:"role"`
	Seniority          string       `json:"seniority"`
	OverallScore       float64      `json:"overall_score"`
	OverallSummary     string       `json:"overall_summary"`
	QuestionsEvaluated int          `json:"questions_evaluated"`
	Evaluation         *Evaluation  `json:"evaluation"`
	ActionItems        []ActionItem `json:"action_items"`
	Persisted          bool         `json:"persisted"`
	CompletedAt        time.Time    `json:"completed_at"`
}

// StatusResponse is returned by status.
type StatusResponse struct {
	SessionID         string        `json:"session_id"`
	Role              string        `json:"role"`
	Seniority         string        `json:"seniority"`
	Skill             string        `json:"skill"`
	QuestionsAsked    int           `json:"questions_asked"`
	QuestionsAnswered int           `json:"questions_answered"`
	Status            Status        `json:"status"`
	CurrentStage      Stage         `json:"current_stage"`
	SkillProgress     SkillProgress `json:"skill_progress"`
	StartTime         time.Time     `json:"start_time"`
}
