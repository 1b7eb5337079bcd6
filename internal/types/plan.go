package types

import "strings"

// DimensionRubric describes how one competency axis is assessed.
type DimensionRubric struct {
	Name              string   `json:"name"`
	Description       string   `json:"description,omitempty"`
	Signals           []string `json:"signals,omitempty"`
	Probes            []string `json:"probes,omitempty"`
	SeniorityCriteria string   `json:"seniority_criteria,omitempty"`
	GoodVsGreat       string   `json:"good_vs_great,omitempty"`
}

// InterviewPlan is the reference data captured into a session at start.
type InterviewPlan struct {
	Role           string            `json:"role"`
	Skill          string            `json:"skill"`
	Seniority      string            `json:"seniority"`
	Archetype      string            `json:"archetype"`
	OpeningPrompt  string            `json:"opening_prompt,omitempty"`
	Objective      string            `json:"objective"`
	CorePhilosophy string            `json:"core_philosophy,omitempty"`
	Dimensions     []DimensionRubric `json:"dimensions"`
}

// PlanSummary is the part of a plan returned to the candidate at start.
type PlanSummary struct {
	Archetype            string   `json:"archetype"`
	Objective            string   `json:"objective"`
	EvaluationDimensions []string `json:"evaluation_dimensions"`
}

// DimensionNames returns the rubric names in plan order.
func (p InterviewPlan) DimensionNames() []string {
	names := make([]string, 0, len(p.Dimensions))
	for _, d := range p.Dimensions {
		names = append(names, d.Name)
	}
	return names
}

// Dimension looks up a rubric by name, ignoring case.
func (p InterviewPlan) Dimension(name string) (DimensionRubric, bool) {
	for _, d := range p.Dimensions {
		if strings.EqualFold(d.Name, name) {
			return d, true
		}
	}
	return DimensionRubric{}, false
}

// Summary returns the candidate-facing plan overview.
func (p InterviewPlan) Summary() PlanSummary {
	return PlanSummary{
		Archetype:            p.Archetype,
		Objective:            p.Objective,
		EvaluationDimensions: p.DimensionNames(),
	}
}

// Clone deep-copies the plan so a session snapshot never shares slices with
// the repository it came from.
func (p InterviewPlan) Clone() InterviewPlan {
	out := p
	out.Dimensions = make([]DimensionRubric, len(p.Dimensions))
	for i, d := range p.Dimensions {
		c := d
		c.Signals = append([]string(nil), d.Signals...)
		c.Probes = append([]string(nil), d.Probes...)
		out.Dimensions[i] = c
	}
	return out
}

// PlaybookDimension is one evaluation dimension as authored in a playbook.
type PlaybookDimension struct {
	Description      string   `json:"description" yaml:"description"`
	Signals          []string `json:"signals" yaml:"signals"`
	Probes           []string `json:"probes" yaml:"probes"`
	IntegrationStyle string   `json:"integration_style,omitempty" yaml:"integration_style"`
	ContextTriggers  []string `json:"context_triggers,omitempty" yaml:"context_triggers"`
}

// Playbook is the authored source for interview plans, one per
// role/skill/seniority combination.
type Playbook struct {
	Role                 string                       `json:"role" yaml:"role" validate:"required"`
	Skill                string                       `json:"skill" yaml:"skill" validate:"required"`
	Seniority            string                       `json:"seniority" yaml:"seniority" validate:"required"`
	Archetype            string                       `json:"archetype" yaml:"archetype"`
	CorePhilosophy       string                       `json:"core_philosophy" yaml:"core_philosophy"`
	OpeningPrompt        string                       `json:"opening_prompt" yaml:"opening_prompt"`
	Objective            string                       `json:"objective" yaml:"objective"`
	EvaluationDimensions map[string]PlaybookDimension `json:"evaluation_dimensions" yaml:"evaluation_dimensions" validate:"required,min=1"`
	// SeniorityCriteria maps level -> dimension (or "description") -> text.
	SeniorityCriteria map[string]map[string]string `json:"seniority_criteria" yaml:"seniority_criteria"`
	GoodVsGreat       map[string]string            `json:"good_vs_great" yaml:"good_vs_great"`
}

// Validate checks the playbook's required fields.
func (p *Playbook) Validate() error {
	return validate.Struct(p)
}
