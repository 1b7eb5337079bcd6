package types

import "strings"

// Priority is the categorical urgency stated on an action item.
type Priority string

// Priorities, most to least urgent.
const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

// ParsePriority accepts any casing and defaults to Medium.
func ParsePriority(raw string) Priority {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "critical":
		return PriorityCritical
	case "high":
		return PriorityHigh
	case "low":
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// DimensionType is the classification that produced an action item.
type DimensionType string

// Dimension classifications.
const (
	CriticalGap            DimensionType = "critical_gap"
	DevelopmentOpportunity DimensionType = "development_opportunity"
	StrengthLeverage       DimensionType = "strength_leverage"
	GeneralDevelopment     DimensionType = "general"
)

// ActionItem is one coaching recommendation.
type ActionItem struct {
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	Priority         Priority      `json:"priority"`
	Category         string        `json:"category"`
	Evidence         []string      `json:"evidence"`
	ExpectedOutcome  string        `json:"expectedOutcome"`
	Timeframe        string        `json:"timeframe"`
	Resources        []string      `json:"resources"`
	SeniorityContext string        `json:"seniorityContext"`
	GoodVsGreat      string        `json:"goodVsGreat"`
	Dimension        string        `json:"dimension"`
	DimensionType    DimensionType `json:"dimension_type"`
	PriorityScore    int           `json:"priority_score"`
}
