// Package plans resolves interview plans from authored playbooks.
package plans

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/interview-coach/internal/types"
)

// ErrPlanNotFound means no playbook exists for the role/skill/seniority.
var ErrPlanNotFound = errors.New("interview plan not found")

// NotFoundError names the combination that had no playbook.
type NotFoundError struct {
	Role, Skill, Seniority string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no interview playbook for %s - %s - %s", e.Role, e.Skill, e.Seniority)
}

// Is matches ErrPlanNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrPlanNotFound
}

// IncompletePlanError means the playbook exists but lacks content the
// interview needs.
type IncompletePlanError struct {
	Role, Skill, Seniority string
	Missing                []string
}

func (e *IncompletePlanError) Error() string {
	return fmt.Sprintf("interview playbook for %s - %s - %s is missing %s",
		e.Role, e.Skill, e.Seniority, strings.Join(e.Missing, ", "))
}

// Repository returns the plan for a role, skill and seniority.
type Repository interface {
	GetPlan(ctx context.Context, role, skill, seniority string) (types.InterviewPlan, error)
}

// PlaybookSource looks up a playbook, ignoring case. A missing playbook is
// (nil, nil).
type PlaybookSource interface {
	GetPlaybook(ctx context.Context, role, skill, seniority string) (*types.Playbook, error)
}

// SourceRepository builds plans from a PlaybookSource.
type SourceRepository struct {
	source PlaybookSource
}

// NewRepository wraps source.
func NewRepository(source PlaybookSource) *SourceRepository {
	return &SourceRepository{source: source}
}

// GetPlan implements Repository.
func (r *SourceRepository) GetPlan(ctx context.Context, role, skill, seniority string) (types.InterviewPlan, error) {
	pb, err := r.source.GetPlaybook(ctx, role, skill, seniority)
	if err != nil {
		return types.InterviewPlan{}, fmt.Errorf("failed to load playbook: %w", err)
	}
	if pb == nil {
		return types.InterviewPlan{}, &NotFoundError{Role: role, Skill: skill, Seniority: seniority}
	}
	return BuildPlan(*pb)
}

// BuildPlan converts a playbook into an interview plan. Dimensions are
// ordered by name; each rubric picks up the seniority criteria for the
// playbook's level (the dimension entry, else the level "description") and
// its good-vs-great example.
func BuildPlan(pb types.Playbook) (types.InterviewPlan, error) {
	var missing []string
	if strings.TrimSpace(pb.Objective) == "" {
		missing = append(missing, "interview objective")
	}
	if len(pb.EvaluationDimensions) == 0 {
		missing = append(missing, "evaluation dimensions")
	}
	if len(missing) > 0 {
		return types.InterviewPlan{}, &IncompletePlanError{
			Role: pb.Role, Skill: pb.Skill, Seniority: pb.Seniority, Missing: missing,
		}
	}

	criteria := levelCriteria(pb.SeniorityCriteria, pb.Seniority)

	names := make([]string, 0, len(pb.EvaluationDimensions))
	for name := range pb.EvaluationDimensions {
		names = append(names, name)
	}
	sort.Strings(names)

	dims := make([]types.DimensionRubric, 0, len(names))
	for _, name := range names {
		d := pb.EvaluationDimensions[name]
		sc := criteria[name]
		if sc == "" {
			sc = criteria["description"]
		}
		dims = append(dims, types.DimensionRubric{
			Name:              name,
			Description:       d.Description,
			Signals:           append([]string(nil), d.Signals...),
			Probes:            append([]string(nil), d.Probes...),
			SeniorityCriteria: sc,
			GoodVsGreat:       pb.GoodVsGreat[name],
		})
	}

	return types.InterviewPlan{
		Role:           pb.Role,
		Skill:          pb.Skill,
		Seniority:      pb.Seniority,
		Archetype:      pb.Archetype,
		OpeningPrompt:  pb.OpeningPrompt,
		Objective:      pb.Objective,
		CorePhilosophy: pb.CorePhilosophy,
		Dimensions:     dims,
	}, nil
}

func levelCriteria(all map[string]map[string]string, seniority string) map[string]string {
	for level, c := range all {
		if strings.EqualFold(level, seniority) {
			return c
		}
	}
	return nil
}

// Key normalizes a role/skill/seniority triple for case-insensitive lookup.
func Key(role, skill, seniority string) string {
	norm := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
	return norm(role) + "|" + norm(skill) + "|" + norm(seniority)
}
