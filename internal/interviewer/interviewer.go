// Package interviewer composes interview questions with the text generator.
// Generator failures never escape: every call returns usable content, with
// the failure attached for the caller to record.
package interviewer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/logger"
	"github.com/jonathan/interview-coach/internal/prompts"
	"github.com/jonathan/interview-coach/internal/schemas"
	"github.com/jonathan/interview-coach/internal/types"
	"go.uber.org/zap"
)

const rawPreviewLimit = 300

// Opening is the first question of an interview.
type Opening struct {
	Reasoning []string
	Text      string
	State     types.InterviewState
	LatencyMS int64
	// Err is set when the fallback opening was used
	Err      error
	Fallback bool
}

// FollowUp is the next interviewer turn.
type FollowUp struct {
	Reasoning  []string
	Text       string
	State      types.InterviewState
	Completion *types.CompletionAssessment
	LatencyMS  int64
	Err        error
	Fallback   bool
}

// Completes reports whether this turn ends the interview.
func (f FollowUp) Completes() bool {
	return f.Completion.Completes()
}

// TurnRequest carries everything the follow-up prompt needs.
type TurnRequest struct {
	Role      string
	Seniority string
	Skill     string
	Stage     types.Stage
	History   []Message
	Context   SessionContext
}

// Generator produces interviewer turns.
type Generator struct {
	client  llm.Client
	tier    llm.ModelTier
	timeout time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) { g.logger = logger.Component(l, "interviewer") }
}

// WithTimeout sets the per-call ceiling.
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithTier selects the model tier.
func WithTier(tier llm.ModelTier) Option {
	return func(g *Generator) { g.tier = tier }
}

// New returns a Generator backed by client.
func New(client llm.Client, opts ...Option) *Generator {
	g := &Generator{
		client:  client,
		tier:    llm.TierStandard,
		timeout: llm.DefaultTimeout,
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type turnPayload struct {
	ChainOfThought []string `json:"chain_of_thought"`
	ResponseText   string   `json:"response_text"`
	InterviewState *struct {
		CurrentStage  string `json:"current_stage"`
		SkillProgress string `json:"skill_progress"`
		NextFocus     string `json:"next_focus"`
	} `json:"interview_state"`
	CompletionAssessment *struct {
		ShouldComplete       bool    `json:"should_complete"`
		CompletionConfidence string  `json:"completion_confidence"`
		Reason               string  `json:"reason"`
		EvidenceSummary      string  `json:"evidence_summary"`
		CoveragePercentage   float64 `json:"coverage_percentage"`
	} `json:"completion_assessment"`
}

// InitialQuestion generates the opening question. It always returns an
// opening; on failure the canned one for skill is used.
func (g *Generator) InitialQuestion(ctx context.Context, role, seniority, skill string, sc SessionContext) Opening {
	prompt, err := prompts.Render(prompts.InterviewerFile, prompts.KeyOpening, map[string]string{
		"Role":      role,
		"Seniority": seniority,
		"Skill":     skill,
		"Context":   sc.render(),
	})
	if err != nil {
		g.logger.Error("failed to render opening prompt", zap.Error(err))
		return fallbackOpening(role, seniority, skill, err, 0)
	}

	payload, latency, err := g.call(ctx, prompt)
	if err != nil {
		g.logger.Warn("opening generation failed, using fallback",
			zap.String("skill", skill), zap.Int64("latency_ms", latency), zap.Error(err))
		return fallbackOpening(role, seniority, skill, err, latency)
	}

	state := types.OpeningState()
	if s := payload.InterviewState; s != nil {
		if stage := types.NormalizeStage(s.CurrentStage); stage != "" {
			state.CurrentStage = stage
		}
		if s.SkillProgress != "" {
			state.SkillProgress = types.NormalizeSkillProgress(s.SkillProgress)
		}
		if s.NextFocus != "" {
			state.NextFocus = s.NextFocus
		}
	}

	return Opening{
		Reasoning: payload.ChainOfThought,
		Text:      payload.ResponseText,
		State:     state,
		LatencyMS: latency,
	}
}

// NextTurn generates the follow-up to the latest answer. On failure the
// generic follow-up is returned with the current stage carried forward and
// no completion assessment.
func (g *Generator) NextTurn(ctx context.Context, req TurnRequest) FollowUp {
	prompt, err := prompts.Render(prompts.InterviewerFile, prompts.KeyFollowUp, map[string]string{
		"Role":      req.Role,
		"Seniority": req.Seniority,
		"Skill":     req.Skill,
		"Stage":     string(req.Stage),
		"History":   FormatHistory(req.History),
		"Context":   req.Context.render(),
	})
	if err != nil {
		g.logger.Error("failed to render follow-up prompt", zap.Error(err))
		return fallbackFollowUp(req.Stage, err, 0)
	}

	payload, latency, err := g.call(ctx, prompt)
	if err != nil {
		g.logger.Warn("follow-up generation failed, using fallback",
			zap.String("stage", string(req.Stage)), zap.Int64("latency_ms", latency), zap.Error(err))
		return fallbackFollowUp(req.Stage, err, latency)
	}

	state := types.InterviewState{
		CurrentStage:  req.Stage,
		SkillProgress: types.SkillUnknown,
		NextFocus:     req.Context.NextFocus,
	}
	if s := payload.InterviewState; s != nil {
		if stage := types.NormalizeStage(s.CurrentStage); stage != "" {
			state.CurrentStage = stage
		}
		state.SkillProgress = types.NormalizeSkillProgress(s.SkillProgress)
		if s.NextFocus != "" {
			state.NextFocus = s.NextFocus
		}
	}

	out := FollowUp{
		Reasoning: payload.ChainOfThought,
		Text:      payload.ResponseText,
		State:     state,
		LatencyMS: latency,
	}
	if c := payload.CompletionAssessment; c != nil {
		out.Completion = &types.CompletionAssessment{
			ShouldComplete:     c.ShouldComplete,
			Confidence:         types.ParseConfidence(c.CompletionConfidence),
			Reason:             c.Reason,
			EvidenceSummary:    c.EvidenceSummary,
			CoveragePercentage: c.CoveragePercentage,
		}
	}
	return out
}

// call runs one generation and returns the validated payload along with the
// elapsed time in milliseconds.
func (g *Generator) call(ctx context.Context, prompt string) (*turnPayload, int64, error) {
	start := g.now()
	raw, err := llm.GenerateJSONWithTimeout(ctx, g.client, prompt, g.tier, g.timeout)
	latency := g.now().Sub(start).Milliseconds()
	if err != nil {
		return nil, latency, err
	}

	payload, err := parseTurn(raw)
	if err != nil {
		g.logger.Debug("unusable generator output",
			zap.String("raw_preview", logger.TruncateForLog(raw, rawPreviewLimit)))
		return nil, latency, err
	}
	return payload, latency, nil
}

func parseTurn(raw string) (*turnPayload, error) {
	payload, err := llm.ExtractJSONPayload(raw)
	if err != nil {
		return nil, err
	}
	if err := schemas.Validate(schemas.InterviewerTurn, string(payload)); err != nil {
		return nil, &llm.ParseError{Kind: llm.ParseErrorSchema, Raw: raw, Err: err}
	}

	var out turnPayload
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, &llm.ParseError{Kind: llm.ParseErrorInvalidJSON, Raw: raw, Err: err}
	}
	return &out, nil
}
