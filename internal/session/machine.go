package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonathan/interview-coach/internal/logger"
	"github.com/jonathan/interview-coach/internal/types"
	"go.uber.org/zap"
)

const defaultMaxAttempts = 5

// Machine owns the lifecycle of interview sessions. Every mutation is a
// read-modify-write guarded by the store's version check, so two writers on
// one session serialize and the loser re-evaluates its preconditions.
type Machine struct {
	store       Store
	logger      *zap.Logger
	now         func() time.Time
	maxAttempts int
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Machine) { m.logger = logger.Component(l, "session") }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithMaxAttempts bounds retries after a version conflict.
func WithMaxAttempts(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.maxAttempts = n
		}
	}
}

// NewMachine returns a Machine over store.
func NewMachine(store Store, opts ...Option) *Machine {
	m := &Machine{
		store:       store,
		logger:      zap.NewNop(),
		now:         time.Now,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Question is the content appended as a new pending turn.
type Question struct {
	Text           string
	Type           types.TurnType
	Reasoning      []string
	State          types.InterviewState
	LatencyMS      int64
	Completion     *types.CompletionAssessment
	GeneratorError string
}

// Termination describes how a session ended.
type Termination struct {
	Status           types.Status
	Reason           string
	Coverage         float64
	ClosingStatement string
}

// Create starts a session. The plan is copied so later edits to its source
// do not reach the session.
func (m *Machine) Create(ctx context.Context, id, role, seniority string, skills []string, plan types.InterviewPlan) (*types.Session, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("session id is required")
	}
	if len(skills) == 0 {
		return nil, fmt.Errorf("at least one skill is required")
	}

	now := m.now().UTC()
	s := &types.Session{
		ID:        id,
		Role:      role,
		Seniority: seniority,
		Skill:     skills[0],
		Skills:    append([]string(nil), skills...),
		State: types.InterviewState{
			CurrentStage:  types.StageProblemUnderstanding,
			SkillProgress: types.SkillNotStarted,
		},
		Status:    types.StatusInProgress,
		Plan:      plan.Clone(),
		Turns:     []types.Turn{},
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}

	if err := m.store.Create(ctx, s); err != nil {
		if errors.Is(err, ErrExists) {
			return nil, &DuplicateSessionError{SessionID: id}
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	logger.Session(m.logger, id).Debug("session created",
		zap.String("role", role), zap.String("skill", s.Skill))
	return s.Clone(), nil
}

// Read returns the current session.
func (m *Machine) Read(ctx context.Context, id string) (*types.Session, error) {
	s, err := m.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &NotFoundError{SessionID: id}
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	return s, nil
}

// AppendQuestion adds a new pending turn.
func (m *Machine) AppendQuestion(ctx context.Context, id string, q Question) (*types.Session, error) {
	return m.mutate(ctx, id, func(s *types.Session) error {
		if s.Status.IsTerminal() {
			return &SessionTerminalError{SessionID: id, Status: s.Status}
		}
		if idx, ok := s.PendingTurn(); ok {
			return &PendingTurnExistsError{SessionID: id, TurnIndex: idx}
		}
		m.appendTurn(s, q)
		return nil
	})
}

// RecordAnswer fills the pending turn's answer.
func (m *Machine) RecordAnswer(ctx context.Context, id, text string) (*types.Session, error) {
	return m.mutate(ctx, id, func(s *types.Session) error {
		if s.Status.IsTerminal() {
			return &SessionTerminalError{SessionID: id, Status: s.Status}
		}
		idx, ok := s.PendingTurn()
		if !ok {
			return &NoPendingTurnError{SessionID: id}
		}
		m.answer(s, idx, text)
		return nil
	})
}

// Exchange is one candidate answer together with the interviewer's reaction
// to it: either the next question or the end of the session.
type Exchange struct {
	// TurnIndex is the pending turn the answer was written for.
	TurnIndex int
	Answer    string
	State     types.InterviewState
	Next      *Question
	End       *Termination
}

// AnswerAndAsk answers the pending turn, sets the stage fields and then
// appends ex.Next or applies ex.End, all in one write. When the write fails
// the turn is still pending, so the candidate can submit again. A pending
// turn other than ex.TurnIndex means another submission got there first.
func (m *Machine) AnswerAndAsk(ctx context.Context, id string, ex Exchange) (*types.Session, error) {
	if (ex.Next == nil) == (ex.End == nil) {
		return nil, fmt.Errorf("exchange needs exactly one of a next question or an end")
	}
	if ex.End != nil && !ex.End.Status.IsTerminal() {
		return nil, &InvalidStatusError{Status: ex.End.Status}
	}
	return m.mutate(ctx, id, func(s *types.Session) error {
		if s.Status.IsTerminal() {
			return &SessionTerminalError{SessionID: id, Status: s.Status}
		}
		idx, ok := s.PendingTurn()
		if !ok || idx != ex.TurnIndex {
			return &NoPendingTurnError{SessionID: id}
		}
		m.answer(s, idx, ex.Answer)
		s.State = ex.State
		if ex.End != nil {
			m.terminate(s, *ex.End)
			return nil
		}
		m.appendTurn(s, *ex.Next)
		return nil
	})
}

// AdvanceState overwrites the stage fields. Repeating a call is harmless.
func (m *Machine) AdvanceState(ctx context.Context, id string, state types.InterviewState) (*types.Session, error) {
	return m.mutate(ctx, id, func(s *types.Session) error {
		if s.Status.IsTerminal() {
			return &SessionTerminalError{SessionID: id, Status: s.Status}
		}
		s.State = state
		return nil
	})
}

// MarkTerminal moves the session to a terminal status exactly once.
func (m *Machine) MarkTerminal(ctx context.Context, id string, t Termination) (*types.Session, error) {
	if !t.Status.IsTerminal() {
		return nil, &InvalidStatusError{Status: t.Status}
	}
	return m.mutate(ctx, id, func(s *types.Session) error {
		if s.Status.IsTerminal() {
			return &AlreadyTerminalError{SessionID: id, Status: s.Status}
		}
		m.terminate(s, t)
		return nil
	})
}

func (m *Machine) appendTurn(s *types.Session, q Question) {
	turnType := q.Type
	if turnType == "" {
		turnType = types.TurnFollowUp
		if len(s.Turns) == 0 {
			turnType = types.TurnOpening
		}
	}
	s.Turns = append(s.Turns, types.Turn{
		Question:       q.Text,
		Type:           turnType,
		Timestamp:      m.now().UTC(),
		Reasoning:      append([]string(nil), q.Reasoning...),
		State:          q.State,
		LatencyMS:      q.LatencyMS,
		Completion:     q.Completion,
		GeneratorError: q.GeneratorError,
	})
}

func (m *Machine) answer(s *types.Session, idx int, text string) {
	at := m.now().UTC()
	s.Turns[idx].Answer = &text
	s.Turns[idx].AnsweredAt = &at
}

func (m *Machine) terminate(s *types.Session, t Termination) {
	at := m.now().UTC()
	s.Status = t.Status
	s.CompletionReason = t.Reason
	s.FinalCoverage = t.Coverage
	s.ClosingStatement = t.ClosingStatement
	s.CompletedAt = &at
}

func (m *Machine) mutate(ctx context.Context, id string, apply func(*types.Session) error) (*types.Session, error) {
	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		s, err := m.Read(ctx, id)
		if err != nil {
			return nil, err
		}

		expected := s.Version
		if err := apply(s); err != nil {
			return nil, err
		}
		s.Version = expected + 1
		s.UpdatedAt = m.now().UTC()

		err = m.store.Replace(ctx, s, expected)
		switch {
		case err == nil:
			return s.Clone(), nil
		case errors.Is(err, ErrVersionConflict):
			logger.Session(m.logger, id).Debug("version conflict, retrying",
				zap.Int("attempt", attempt), zap.Int64("version", expected))
			continue
		case errors.Is(err, ErrNotFound):
			return nil, &NotFoundError{SessionID: id}
		default:
			return nil, fmt.Errorf("failed to write session: %w", err)
		}
	}
	return nil, fmt.Errorf("session %s: %w after %d attempts", id, ErrVersionConflict, m.maxAttempts)
}
