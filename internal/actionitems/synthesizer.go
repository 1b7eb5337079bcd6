package actionitems

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/logger"
	"github.com/jonathan/interview-coach/internal/prompts"
	"github.com/jonathan/interview-coach/internal/schemas"
	"github.com/jonathan/interview-coach/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// Synthesizer generates action items for classified dimensions.
type Synthesizer struct {
	client      llm.Client
	tier        llm.ModelTier
	timeout     time.Duration
	concurrency int
	maxItems    int
	logger      *zap.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Synthesizer) { s.logger = logger.Component(l, "actionitems") }
}

// WithTimeout sets the per-dimension generation ceiling.
func WithTimeout(d time.Duration) Option {
	return func(s *Synthesizer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithConcurrency bounds parallel per-dimension calls.
func WithConcurrency(n int) Option {
	return func(s *Synthesizer) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithMaxItems lowers the output cap. Values above MaxItems are ignored.
func WithMaxItems(n int) Option {
	return func(s *Synthesizer) {
		if n > 0 && n <= MaxItems {
			s.maxItems = n
		}
	}
}

// New returns a Synthesizer backed by client.
func New(client llm.Client, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		client:      client,
		tier:        llm.TierStandard,
		timeout:     llm.DefaultTimeout,
		concurrency: defaultConcurrency,
		maxItems:    MaxItems,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate returns between one and MaxItems recommendations, ranked by
// priority score. Generation failures are absorbed: a critical gap falls
// back to a template item, other dimensions contribute nothing.
func (s *Synthesizer) Generate(ctx context.Context, eval *types.Evaluation, plan types.InterviewPlan, signals map[string]types.SignalEvidence) []types.ActionItem {
	classified := ClassifyAll(eval, plan)
	if len(classified) == 0 {
		return []types.ActionItem{DefaultItem()}
	}

	perDim := make([][]types.ActionItem, len(classified))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, c := range classified {
		g.Go(func() error {
			items, err := s.generateForDimension(gctx, c, plan, signals[c.Name])
			if err != nil {
				s.logger.Warn("action item generation failed, using fallback",
					zap.String(logger.FieldDimension, c.Name),
					zap.String("dimension_type", string(c.Type)),
					zap.Error(err))
				items = FallbackItems(c, plan.Seniority)
			}
			perDim[i] = items
			return nil
		})
	}
	_ = g.Wait()

	var all []types.ActionItem
	for _, items := range perDim {
		all = append(all, items...)
	}
	if len(all) == 0 {
		return []types.ActionItem{DefaultItem()}
	}
	return Prioritize(all, s.maxItems)
}

type itemPayload struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Priority         string   `json:"priority"`
	Category         string   `json:"category"`
	Evidence         []string `json:"evidence"`
	ExpectedOutcome  string   `json:"expectedOutcome"`
	Timeframe        string   `json:"timeframe"`
	Resources        []string `json:"resources"`
	SeniorityContext string   `json:"seniorityContext"`
	GoodVsGreat      string   `json:"goodVsGreat"`
}

func (s *Synthesizer) generateForDimension(ctx context.Context, c Classified, plan types.InterviewPlan, signals types.SignalEvidence) ([]types.ActionItem, error) {
	rubric, _ := plan.Dimension(c.Name)
	prompt, err := prompts.Render(prompts.ActionItemsFile, prompts.KeyActionItem, map[string]string{
		"Dimension":         c.Name,
		"Rating":            fmt.Sprintf("%d", c.Evaluation.Rating),
		"Confidence":        orNA(string(c.Evaluation.Confidence)),
		"DimensionType":     typeLabel(c.Type),
		"Seniority":         orUnknown(plan.Seniority),
		"Role":              orUnknown(plan.Role),
		"Evidence":          EvidenceText(c.Evaluation, signals),
		"SeniorityCriteria": orNA(rubric.SeniorityCriteria),
		"GoodVsGreat":       orNA(rubric.GoodVsGreat),
	})
	if err != nil {
		return nil, err
	}

	raw, err := llm.GenerateJSONWithTimeout(ctx, s.client, prompt, s.tier, s.timeout)
	if err != nil {
		return nil, err
	}
	payload, err := llm.ExtractJSONPayload(raw)
	if err != nil {
		return nil, err
	}
	if err := schemas.Validate(schemas.ActionItems, string(payload)); err != nil {
		return nil, &llm.ParseError{Kind: llm.ParseErrorSchema, Raw: raw, Err: err}
	}

	var decoded []itemPayload
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, &llm.ParseError{Kind: llm.ParseErrorInvalidJSON, Raw: raw, Err: err}
	}

	items := make([]types.ActionItem, 0, len(decoded))
	for _, p := range decoded {
		item := types.ActionItem{
			Title:            p.Title,
			Description:      p.Description,
			Priority:         types.ParsePriority(p.Priority),
			Category:         p.Category,
			Evidence:         nonNil(p.Evidence),
			ExpectedOutcome:  p.ExpectedOutcome,
			Timeframe:        p.Timeframe,
			Resources:        nonNil(p.Resources),
			SeniorityContext: p.SeniorityContext,
			GoodVsGreat:      p.GoodVsGreat,
			Dimension:        c.Name,
			DimensionType:    c.Type,
		}
		item.PriorityScore = Score(item, c.Evaluation)
		items = append(items, item)
	}
	return items, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
