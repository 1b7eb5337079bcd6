// Package orchestrator composes the interview protocol: start, the turn loop,
// completion, evaluation and action items.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/actionitems"
	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/evaluation"
	"github.com/jonathan/interview-coach/internal/interviewer"
	"github.com/jonathan/interview-coach/internal/logger"
	"github.com/jonathan/interview-coach/internal/plans"
	"github.com/jonathan/interview-coach/internal/session"
	"github.com/jonathan/interview-coach/internal/types"
)

// LongInterviewTurns is the turn count past which a session is logged as
// unusually long. Completion stays with the interviewer.
const LongInterviewTurns = 30

// DefaultEstimatedDuration is reported to the candidate at start.
const DefaultEstimatedDuration = 45

// DurableStore keeps the permanent record of completed interviews.
type DurableStore interface {
	UpsertSessionState(ctx context.Context, rec *db.SessionRecord) error
}

// Orchestrator drives a session through its lifecycle.
type Orchestrator struct {
	sessions    *session.Machine
	plans       plans.Repository
	interviewer *interviewer.Generator
	evaluator   *evaluation.Evaluator
	items       *actionitems.Synthesizer
	durable     DurableStore
	logger      *zap.Logger
	now         func() time.Time
	newID       func() string
	duration    int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger.Component(l, "orchestrator") }
}

// WithDurableStore sets where completed interviews are persisted. Without one,
// completion still returns results but reports persisted=false.
func WithDurableStore(store DurableStore) Option {
	return func(o *Orchestrator) { o.durable = store }
}

// WithEstimatedDuration sets the minutes reported at start.
func WithEstimatedDuration(minutes int) Option {
	return func(o *Orchestrator) {
		if minutes > 0 {
			o.duration = minutes
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithIDGenerator overrides session id generation.
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) { o.newID = fn }
}

// New wires the collaborators together.
func New(
	sessions *session.Machine,
	repo plans.Repository,
	gen *interviewer.Generator,
	eval *evaluation.Evaluator,
	items *actionitems.Synthesizer,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		sessions:    sessions,
		plans:       repo,
		interviewer: gen,
		evaluator:   eval,
		items:       items,
		logger:      zap.NewNop(),
		now:         time.Now,
		newID:       NewSessionID,
		duration:    DefaultEstimatedDuration,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// NewSessionID returns a fresh "session_<uuid>" identifier.
func NewSessionID() string {
	return "session_" + uuid.NewString()
}

// Start looks up the plan, creates the session and asks the opening question.
// A missing or incomplete plan is returned to the caller as is.
func (o *Orchestrator) Start(ctx context.Context, req types.StartInterviewRequest) (*types.StartInterviewResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	skill := req.Skills[0]

	plan, err := o.plans.GetPlan(ctx, req.Role, skill, req.Seniority)
	if err != nil {
		return nil, err
	}

	id := o.newID()
	log := logger.Session(o.logger, id)

	s, err := o.sessions.Create(ctx, id, req.Role, req.Seniority, req.Skills, plan)
	if err != nil {
		return nil, err
	}

	opening := o.interviewer.InitialQuestion(ctx, req.Role, req.Seniority, skill, interviewer.ContextForSession(s))
	q := session.Question{
		Text:      opening.Text,
		Type:      types.TurnOpening,
		Reasoning: opening.Reasoning,
		State:     opening.State,
		LatencyMS: opening.LatencyMS,
	}
	if opening.Err != nil {
		q.GeneratorError = opening.Err.Error()
	}

	if _, err := o.sessions.AppendQuestion(ctx, id, q); err != nil {
		return nil, fmt.Errorf("failed to record opening question: %w", err)
	}
	if _, err := o.sessions.AdvanceState(ctx, id, opening.State); err != nil {
		return nil, fmt.Errorf("failed to record opening state: %w", err)
	}

	log.Info("interview started",
		zap.String("role", req.Role),
		zap.String("seniority", req.Seniority),
		zap.String("skill", skill),
		zap.String("archetype", plan.Archetype),
		zap.Bool("fallback_opening", opening.Fallback))

	return &types.StartInterviewResponse{
		SessionID:                id,
		OpeningStatement:         opening.Text,
		Status:                   "started",
		Role:                     req.Role,
		Seniority:                req.Seniority,
		Skill:                    skill,
		EstimatedDurationMinutes: o.duration,
		InterviewPlan:            plan.Summary(),
		InterviewState:           opening.State,
		Error:                    q.GeneratorError,
	}, nil
}

// SubmitAnswer records the answer to the pending turn and produces the next
// interviewer turn, ending the session when the interviewer judges it done.
func (o *Orchestrator) SubmitAnswer(ctx context.Context, sessionID string, req types.SubmitAnswerRequest) (*types.SubmitAnswerResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	log := logger.Session(o.logger, sessionID)

	s, err := o.sessions.Read(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.Status.IsTerminal() {
		return nil, &session.SessionTerminalError{SessionID: sessionID, Status: s.Status}
	}
	pending, ok := s.PendingTurn()
	if !ok {
		return nil, &session.NoPendingTurnError{SessionID: sessionID}
	}

	// the interviewer sees the answer before it is stored; answer and next
	// question are then written together
	answered := s.Clone()
	answer := req.Answer
	answered.Turns[pending].Answer = &answer

	if n := len(answered.Turns); n > LongInterviewTurns {
		log.Warn("interview running long", zap.Int("turns", n))
	}

	turn := o.interviewer.NextTurn(ctx, interviewer.TurnRequest{
		Role:      answered.Role,
		Seniority: answered.Seniority,
		Skill:     answered.Skill,
		Stage:     answered.State.CurrentStage,
		History:   interviewer.HistoryFromTurns(answered.Turns),
		Context:   interviewer.ContextForSession(answered),
	})

	resp := &types.SubmitAnswerResponse{
		SessionID:     sessionID,
		NextQuestion:  turn.Text,
		CurrentStage:  turn.State.CurrentStage,
		SkillProgress: turn.State.SkillProgress,
		NextFocus:     turn.State.NextFocus,
	}
	if turn.Err != nil {
		resp.Error = turn.Err.Error()
	}

	ex := session.Exchange{TurnIndex: pending, Answer: req.Answer, State: turn.State}
	if turn.Completes() {
		c := turn.Completion
		ex.End = &session.Termination{
			Status:           types.StatusCompletedByAI,
			Reason:           c.Reason,
			Coverage:         c.CoveragePercentage,
			ClosingStatement: turn.Text,
		}
		if _, err := o.sessions.AnswerAndAsk(ctx, sessionID, ex); err != nil {
			return nil, err
		}
		log.Info("interview completed by interviewer",
			zap.String("confidence", string(c.Confidence)),
			zap.Float64("coverage", c.CoveragePercentage),
			zap.Int("turns", len(answered.Turns)))

		resp.InterviewCompleted = true
		resp.CompletionAssessment = c
		resp.CompletionReason = c.Reason
		resp.EvidenceSummary = c.EvidenceSummary
		resp.CoveragePercentage = c.CoveragePercentage
		return resp, nil
	}

	q := session.Question{
		Text:       turn.Text,
		Type:       types.TurnFollowUp,
		Reasoning:  turn.Reasoning,
		State:      turn.State,
		LatencyMS:  turn.LatencyMS,
		Completion: turn.Completion,
	}
	if turn.Err != nil {
		q.GeneratorError = turn.Err.Error()
	}
	ex.Next = &q
	if _, err := o.sessions.AnswerAndAsk(ctx, sessionID, ex); err != nil {
		return nil, err
	}

	log.Debug("follow-up asked",
		zap.String("stage", string(turn.State.CurrentStage)),
		zap.String("skill_progress", string(turn.State.SkillProgress)),
		zap.Int64("latency_ms", turn.LatencyMS),
		zap.Bool("fallback", turn.Fallback))
	return resp, nil
}

// Complete evaluates the session, derives action items and writes the durable
// record. A session already ended by the interviewer keeps its status. A
// durable store failure is logged and reported as persisted=false; the
// evaluation is still returned.
func (o *Orchestrator) Complete(ctx context.Context, sessionID string) (*types.CompleteInterviewResponse, error) {
	log := logger.Session(o.logger, sessionID)

	s, err := o.sessions.Read(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	signals := evaluation.ExtractSignals(s.Plan, s.AnsweredTurns())
	eval, err := o.evaluator.Evaluate(ctx, s, signals)
	if err != nil {
		return nil, err
	}

	items := o.items.Generate(ctx, eval, s.Plan, signals)

	final, err := o.sessions.MarkTerminal(ctx, sessionID, session.Termination{
		Status: types.StatusCompleted,
		Reason: "completed by candidate",
	})
	var already *session.AlreadyTerminalError
	switch {
	case err == nil:
		s = final
	case errors.As(err, &already):
		if s, err = o.sessions.Read(ctx, sessionID); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	completedAt := o.now().UTC()
	if s.CompletedAt != nil {
		completedAt = *s.CompletedAt
	}

	persisted := o.persist(ctx, log, s, eval, items, completedAt)

	log.Info("interview evaluated",
		zap.Float64("overall_score", eval.OverallScore),
		zap.Int("action_items", len(items)),
		zap.Bool("persisted", persisted))

	return &types.CompleteInterviewResponse{
		SessionID:          sessionID,
		Role:               s.Role,
		Seniority:          s.Seniority,
		OverallScore:       eval.OverallScore,
		OverallSummary:     eval.Summary,
		QuestionsEvaluated: eval.QuestionsEvaluated,
		Evaluation:         eval,
		ActionItems:        items,
		Persisted:          persisted,
		CompletedAt:        completedAt,
	}, nil
}

// Status summarises a session without touching it.
func (o *Orchestrator) Status(ctx context.Context, sessionID string) (*types.StatusResponse, error) {
	s, err := o.sessions.Read(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &types.StatusResponse{
		SessionID:         s.ID,
		Role:              s.Role,
		Seniority:         s.Seniority,
		Skill:             s.Skill,
		QuestionsAsked:    s.QuestionsAsked(),
		QuestionsAnswered: s.QuestionsAnswered(),
		Status:            s.Status,
		CurrentStage:      s.State.CurrentStage,
		SkillProgress:     s.State.SkillProgress,
		StartTime:         s.CreatedAt,
	}, nil
}

// Session returns the full transcript.
func (o *Orchestrator) Session(ctx context.Context, sessionID string) (*types.Session, error) {
	return o.sessions.Read(ctx, sessionID)
}

func (o *Orchestrator) persist(ctx context.Context, log *zap.Logger, s *types.Session, eval *types.Evaluation, items []types.ActionItem, completedAt time.Time) bool {
	if o.durable == nil {
		log.Warn("no durable store configured, interview not persisted")
		return false
	}

	rec, err := BuildRecord(s, eval, items, completedAt, o.now().UTC())
	if err != nil {
		log.Error("failed to build durable record", zap.Error(err))
		return false
	}
	if err := o.durable.UpsertSessionState(ctx, rec); err != nil {
		log.Error("failed to persist interview", zap.Error(err))
		return false
	}
	return true
}

// completeData is the JSON document stored alongside the summary columns.
type completeData struct {
	SessionMetadata  sessionMetadata    `json:"session_metadata"`
	Turns            []types.Turn       `json:"turns"`
	Evaluation       *types.Evaluation  `json:"evaluation"`
	ActionItems      []types.ActionItem `json:"action_items"`
	InterviewMetrics interviewMetrics   `json:"interview_metrics"`
	AIReasoning      [][]string         `json:"ai_reasoning"`
	PersistedAt      time.Time          `json:"persisted_at"`
}

type sessionMetadata struct {
	SessionID        string              `json:"session_id"`
	Role             string              `json:"role"`
	Seniority        string              `json:"seniority"`
	Skill            string              `json:"skill"`
	Status           types.Status        `json:"status"`
	CompletionReason string              `json:"completion_reason,omitempty"`
	ClosingStatement string              `json:"closing_statement,omitempty"`
	Plan             types.InterviewPlan `json:"interview_plan"`
	CreatedAt        time.Time           `json:"created_at"`
}

type interviewMetrics struct {
	TotalTurns          int   `json:"total_turns"`
	QuestionsAnswered   int   `json:"questions_answered"`
	TotalResponseTimeMS int64 `json:"total_response_time_ms"`
}

// BuildRecord assembles the durable record for a finished session.
func BuildRecord(s *types.Session, eval *types.Evaluation, items []types.ActionItem, completedAt, persistedAt time.Time) (*db.SessionRecord, error) {
	history, err := json.Marshal(interviewer.HistoryFromTurns(s.Turns))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal conversation history: %w", err)
	}

	metrics := interviewMetrics{
		TotalTurns:          len(s.Turns),
		QuestionsAnswered:   s.QuestionsAnswered(),
		TotalResponseTimeMS: s.TotalLatencyMS(),
	}
	data, err := json.Marshal(completeData{
		SessionMetadata: sessionMetadata{
			SessionID:        s.ID,
			Role:             s.Role,
			Seniority:        s.Seniority,
			Skill:            s.Skill,
			Status:           s.Status,
			CompletionReason: s.CompletionReason,
			ClosingStatement: s.ClosingStatement,
			Plan:             s.Plan,
			CreatedAt:        s.CreatedAt,
		},
		Turns:            s.Turns,
		Evaluation:       eval,
		ActionItems:      items,
		InterviewMetrics: metrics,
		AIReasoning:      s.Reasoning(),
		PersistedAt:      persistedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal interview data: %w", err)
	}

	var score float64
	if eval != nil {
		score = eval.OverallScore
	}
	return &db.SessionRecord{
		SessionID:           s.ID,
		Role:                s.Role,
		Seniority:           s.Seniority,
		Skill:               s.Skill,
		Status:              string(s.Status),
		FinalStage:          string(s.State.CurrentStage),
		FinalSkillProgress:  string(s.State.SkillProgress),
		ConversationHistory: history,
		CompleteData:        data,
		TotalTurns:          metrics.TotalTurns,
		TotalResponseTimeMS: metrics.TotalResponseTimeMS,
		AverageScore:        score,
		CompletedAt:         &completedAt,
	}, nil
}
