// Package evaluation scores a finished interview per plan dimension.
package evaluation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jonathan/interview-coach/internal/interviewer"
	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/logger"
	"github.com/jonathan/interview-coach/internal/prompts"
	"github.com/jonathan/interview-coach/internal/schemas"
	"github.com/jonathan/interview-coach/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoAnswers is returned for a session with nothing to evaluate.
var ErrNoAnswers = errors.New("no answered questions to evaluate")

// FallbackAssessment marks a dimension scored without the generator.
const FallbackAssessment = "Automatic assessment unavailable"

const defaultConcurrency = 4

// Evaluator rates each dimension of a session's plan.
type Evaluator struct {
	client      llm.Client
	tier        llm.ModelTier
	timeout     time.Duration
	concurrency int
	logger      *zap.Logger
	now         func() time.Time
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Evaluator) { e.logger = logger.Component(l, "evaluation") }
}

// WithTimeout sets the per-dimension generation ceiling.
func WithTimeout(d time.Duration) Option {
	return func(e *Evaluator) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithConcurrency bounds parallel dimension calls.
func WithConcurrency(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// New returns an Evaluator backed by client.
func New(client llm.Client, opts ...Option) *Evaluator {
	e := &Evaluator{
		client:      client,
		tier:        llm.TierAdvanced,
		timeout:     llm.DefaultTimeout,
		concurrency: defaultConcurrency,
		logger:      zap.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate rates every dimension of the session plan. A dimension whose
// generation fails gets a neutral low-confidence rating instead of failing
// the whole evaluation.
func (e *Evaluator) Evaluate(ctx context.Context, s *types.Session, signals map[string]types.SignalEvidence) (*types.Evaluation, error) {
	answered := s.AnsweredTurns()
	if len(answered) == 0 {
		return nil, ErrNoAnswers
	}

	history := interviewer.FormatHistory(interviewer.HistoryFromTurns(s.Turns))
	dims := s.Plan.Dimensions
	results := make([]types.DimensionEvaluation, len(dims))
	log := logger.Session(e.logger, s.ID)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, dim := range dims {
		g.Go(func() error {
			evidence := signals[dim.Name]
			result, err := e.rateDimension(gctx, s, dim, history, evidence)
			if err != nil {
				log.Warn("dimension evaluation failed, using fallback",
					zap.String(logger.FieldDimension, dim.Name), zap.Error(err))
				result = fallbackDimension(evidence)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &types.Evaluation{
		DimensionEvaluations: make(map[string]types.DimensionEvaluation, len(dims)),
		QuestionsEvaluated:   len(answered),
		GeneratedAt:          e.now().UTC(),
	}
	total := 0
	for i, dim := range dims {
		out.DimensionEvaluations[dim.Name] = results[i]
		total += results[i].Rating
	}
	if len(dims) > 0 {
		out.OverallScore = math.Round(float64(total)/float64(len(dims))*10) / 10
	}
	out.Summary = fmt.Sprintf("Interview completed with %d questions. Overall performance score: %.1f/5",
		out.QuestionsEvaluated, out.OverallScore)
	return out, nil
}

type dimensionPayload struct {
	Rating             int      `json:"rating"`
	Confidence         string   `json:"confidence"`
	Evidence           []string `json:"evidence"`
	Assessment         string   `json:"assessment"`
	SeniorityAlignment string   `json:"seniority_alignment"`
}

func (e *Evaluator) rateDimension(ctx context.Context, s *types.Session, dim types.DimensionRubric, history string, evidence types.SignalEvidence) (types.DimensionEvaluation, error) {
	prompt, err := prompts.Render(prompts.EvaluationFile, prompts.KeyDimension, map[string]string{
		"Role":              s.Role,
		"Seniority":         s.Seniority,
		"Skill":             s.Skill,
		"Dimension":         dim.Name,
		"Description":       orNone(dim.Description),
		"Signals":           bullets(dim.Signals),
		"SeniorityCriteria": orNone(dim.SeniorityCriteria),
		"GoodVsGreat":       orNone(dim.GoodVsGreat),
		"History":           history,
		"Evidence":          FormatSignals(evidence),
	})
	if err != nil {
		return types.DimensionEvaluation{}, err
	}

	raw, err := llm.GenerateJSONWithTimeout(ctx, e.client, prompt, e.tier, e.timeout)
	if err != nil {
		return types.DimensionEvaluation{}, err
	}
	payload, err := llm.ExtractJSONPayload(raw)
	if err != nil {
		return types.DimensionEvaluation{}, err
	}
	if err := schemas.Validate(schemas.DimensionEvaluation, string(payload)); err != nil {
		return types.DimensionEvaluation{}, &llm.ParseError{Kind: llm.ParseErrorSchema, Raw: raw, Err: err}
	}

	var p dimensionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return types.DimensionEvaluation{}, &llm.ParseError{Kind: llm.ParseErrorInvalidJSON, Raw: raw, Err: err}
	}
	return types.DimensionEvaluation{
		Rating:             p.Rating,
		Confidence:         types.ParseConfidence(p.Confidence),
		Evidence:           p.Evidence,
		Assessment:         p.Assessment,
		SeniorityAlignment: p.SeniorityAlignment,
	}, nil
}

func fallbackDimension(evidence types.SignalEvidence) types.DimensionEvaluation {
	return types.DimensionEvaluation{
		Rating:     3,
		Confidence: types.ConfidenceLow,
		Evidence:   append([]string{}, evidence.Quotes...),
		Assessment: FallbackAssessment,
		Fallback:   true,
	}
}

// FormatSignals renders signal evidence for a prompt.
func FormatSignals(ev types.SignalEvidence) string {
	var sections []string
	if len(ev.PositiveSignals) > 0 {
		sections = append(sections, "Positive signals:\n"+bullets(ev.PositiveSignals))
	}
	if len(ev.AreasForImprovement) > 0 {
		sections = append(sections, "Areas for improvement:\n"+bullets(ev.AreasForImprovement))
	}
	if len(ev.Quotes) > 0 {
		sections = append(sections, "Quotes:\n"+bullets(ev.Quotes))
	}
	if len(sections) == 0 {
		return "None"
	}
	return strings.Join(sections, "\n\n")
}

func bullets(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return "- " + strings.Join(items, "\n- ")
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "None"
	}
	return s
}
