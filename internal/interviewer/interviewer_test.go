package interviewer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockLLMClient is a test double for llm.Client.
type MockLLMClient struct {
	GenerateJSONFunc func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	prompts          []string
}

func (m *MockLLMClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return m.GenerateJSON(ctx, prompt, tier)
}

func (m *MockLLMClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, tier)
	}
	return "", errors.New("not implemented")
}

func (m *MockLLMClient) GetModel(tier llm.ModelTier) string { return "mock-model" }

func (m *MockLLMClient) Close() error { return nil }

func returning(raw string) *MockLLMClient {
	return &MockLLMClient{GenerateJSONFunc: func(context.Context, string, llm.ModelTier) (string, error) {
		return raw, nil
	}}
}

func failing() *MockLLMClient {
	return &MockLLMClient{GenerateJSONFunc: func(context.Context, string, llm.ModelTier) (string, error) {
		return "", errors.New("service unavailable")
	}}
}

func TestInitialQuestion_FallbackDeterminism(t *testing.T) {
	tests := []struct {
		name  string
		skill string
		want  string
	}{
		{
			name:  "ab testing",
			skill: "A/B Testing",
			want:  "Hello! I'm excited to interview you for the Junior PM position. Today we'll focus on A/B Testing. Imagine you're working for an e-commerce company and want to test whether changing the checkout button color from blue to green increases conversion rates. How would you design this experiment?",
		},
		{
			name:  "ab testing any case",
			skill: "a/b testing",
			want:  "Hello! I'm excited to interview you for the Junior PM position. Today we'll focus on A/B Testing. Imagine you're working for an e-commerce company and want to test whether changing the checkout button color from blue to green increases conversion rates. How would you design this experiment?",
		},
		{
			name:  "system design",
			skill: "System Design",
			want:  "Hello! I'm excited to interview you for the Junior PM position. Today we'll focus on System Design. Design a URL shortening service like bit.ly that can handle 100 million URLs. How would you approach this?",
		},
		{
			name:  "generic",
			skill: "Roadmapping",
			want:  "Hello! I'm excited to interview you for the Junior PM position. Today we'll focus on Roadmapping. Please describe a challenging project you've worked on related to Roadmapping and walk me through your approach.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(failing())
			got := g.InitialQuestion(context.Background(), "PM", "Junior", tt.skill, SessionContext{})

			assert.Equal(t, tt.want, got.Text)
			assert.Equal(t, types.OpeningState(), got.State)
			assert.Equal(t, []string{
				"Using fallback opening due to API error",
				"Providing specific scenario to get interview started",
			}, got.Reasoning)
			assert.True(t, got.Fallback)
			require.Error(t, got.Err)
			assert.Contains(t, got.Err.Error(), "service unavailable")
		})
	}
}

func TestInitialQuestion_ParsesFencedResponse(t *testing.T) {
	client := returning("Here you go:\n```json\n" + `{
		"chain_of_thought": ["warm greeting", "concrete scenario"],
		"response_text": "Hi! Suppose signups dropped 10% last week. Where do you start?",
		"interview_state": {"current_stage": "Problem Understanding", "skill_progress": "not_started", "next_focus": "diagnosis"}
	}` + "\n```")
	g := New(client)

	got := g.InitialQuestion(context.Background(), "PM", "Senior", "Analytics", SessionContext{Objective: "diagnose metrics"})

	assert.False(t, got.Fallback)
	assert.NoError(t, got.Err)
	assert.Equal(t, "Hi! Suppose signups dropped 10% last week. Where do you start?", got.Text)
	assert.Equal(t, types.StageProblemUnderstanding, got.State.CurrentStage)
	assert.Equal(t, types.SkillNotStarted, got.State.SkillProgress)
	assert.Equal(t, "diagnosis", got.State.NextFocus)
	assert.Len(t, got.Reasoning, 2)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "expert Senior PM interviewer")
	assert.Contains(t, client.prompts[0], "diagnose metrics")
	assert.NotContains(t, client.prompts[0], "{{.")
}

func TestInitialQuestion_SchemaViolationFallsBack(t *testing.T) {
	g := New(returning(`{"chain_of_thought": ["no text"]}`))

	got := g.InitialQuestion(context.Background(), "PM", "Junior", "A/B Testing", SessionContext{})

	assert.True(t, got.Fallback)
	var pe *llm.ParseError
	require.ErrorAs(t, got.Err, &pe)
	assert.Equal(t, llm.ParseErrorSchema, pe.Kind)
}

func TestInitialQuestion_TimeoutFallsBack(t *testing.T) {
	client := &MockLLMClient{GenerateJSONFunc: func(ctx context.Context, _ string, _ llm.ModelTier) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	g := New(client, WithTimeout(20*time.Millisecond))

	got := g.InitialQuestion(context.Background(), "PM", "Junior", "System Design", SessionContext{})

	assert.True(t, got.Fallback)
	assert.ErrorIs(t, got.Err, llm.ErrTimeout)
	assert.Contains(t, got.Text, "URL shortening service")
}

func followUpJSON(completion string) string {
	raw := `{
		"chain_of_thought": ["they sized the sample", "probe metrics"],
		"response_text": "Which guardrail metrics would you watch?",
		"interview_state": {"current_stage": "technical depth", "skill_progress": "Advanced", "next_focus": "guardrails"}`
	if completion != "" {
		raw += `, "completion_assessment": ` + completion
	}
	return raw + "}"
}

func TestNextTurn_CompletionGating(t *testing.T) {
	tests := []struct {
		name       string
		completion string
		completes  bool
	}{
		{"absent", "", false},
		{"not requested", `{"should_complete": false, "completion_confidence": "High"}`, false},
		{"low confidence", `{"should_complete": true, "completion_confidence": "Low"}`, false},
		{"medium confidence", `{"should_complete": true, "completion_confidence": "Medium", "reason": "covered", "coverage_percentage": 80}`, true},
		{"high confidence lowercase", `{"should_complete": true, "completion_confidence": "high"}`, true},
		{"unknown confidence", `{"should_complete": true, "completion_confidence": "Certain"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(returning(followUpJSON(tt.completion)))

			got := g.NextTurn(context.Background(), TurnRequest{
				Role: "PM", Seniority: "Junior", Skill: "A/B Testing",
				Stage: types.StageSolutionDesign,
			})

			assert.False(t, got.Fallback)
			assert.Equal(t, tt.completes, got.Completes())
			assert.Equal(t, types.StageTechnicalDepth, got.State.CurrentStage)
			assert.Equal(t, types.SkillAdvanced, got.State.SkillProgress)
		})
	}
}

func TestNextTurn_FallbackCarriesStage(t *testing.T) {
	for name, client := range map[string]*MockLLMClient{
		"call error":   failing(),
		"not json":     returning("I think we should move on."),
		"invalid json": returning(`{"response_text": "x",}`),
		"empty":        returning("   "),
	} {
		t.Run(name, func(t *testing.T) {
			g := New(client)

			got := g.NextTurn(context.Background(), TurnRequest{
				Role: "PM", Seniority: "Junior", Skill: "A/B Testing",
				Stage: types.StageTradeoffsConstraints,
			})

			assert.True(t, got.Fallback)
			assert.Error(t, got.Err)
			assert.Equal(t, FallbackFollowUpText, got.Text)
			assert.Equal(t, types.StageTradeoffsConstraints, got.State.CurrentStage)
			assert.Equal(t, types.SkillUnknown, got.State.SkillProgress)
			assert.Nil(t, got.Completion)
			assert.False(t, got.Completes())
		})
	}
}

func TestNextTurn_MissingStateKeepsCurrentStage(t *testing.T) {
	g := New(returning(`{"response_text": "Go on."}`))

	got := g.NextTurn(context.Background(), TurnRequest{
		Stage:   types.StageImplementation,
		Context: SessionContext{NextFocus: "rollout"},
	})

	assert.False(t, got.Fallback)
	assert.Equal(t, types.StageImplementation, got.State.CurrentStage)
	assert.Equal(t, "rollout", got.State.NextFocus)
}

func TestNextTurn_PromptCarriesHistory(t *testing.T) {
	client := returning(followUpJSON(""))
	g := New(client)

	answer := "Split traffic 50/50"
	history := HistoryFromTurns([]types.Turn{{Question: "How would you test it?", Answer: &answer}})
	g.NextTurn(context.Background(), TurnRequest{
		Role: "PM", Seniority: "Junior", Skill: "A/B Testing",
		Stage:   types.StageProblemUnderstanding,
		History: history,
	})

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "Turn 1 - Interviewer: How would you test it?")
	assert.Contains(t, client.prompts[0], "Turn 2 - Candidate: Split traffic 50/50")
	assert.Contains(t, client.prompts[0], "Current Stage: problem_understanding")
}

func TestNextTurn_MeasuresLatency(t *testing.T) {
	g := New(returning(followUpJSON("")))
	calls := 0
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	g.now = func() time.Time {
		calls++
		if calls == 1 {
			return base
		}
		return base.Add(1500 * time.Millisecond)
	}

	got := g.NextTurn(context.Background(), TurnRequest{Stage: types.StageSolutionDesign})

	assert.Equal(t, int64(1500), got.LatencyMS)
}
