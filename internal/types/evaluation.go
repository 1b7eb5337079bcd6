package types

import "time"

// DimensionEvaluation is the rating for one competency axis.
type DimensionEvaluation struct {
	Rating             int        `json:"rating"`
	Confidence         Confidence `json:"confidence"`
	Evidence           []string   `json:"evidence"`
	Assessment         string     `json:"assessment"`
	SeniorityAlignment string     `json:"seniority_alignment,omitempty"`
	Fallback           bool       `json:"fallback,omitempty"`
}

// Evaluation is produced once, when a session completes.
type Evaluation struct {
	DimensionEvaluations map[string]DimensionEvaluation `json:"dimension_evaluations"`
	OverallScore         float64                        `json:"overall_score"`
	Summary              string                         `json:"overall_summary"`
	QuestionsEvaluated   int                            `json:"questions_evaluated"`
	GeneratedAt          time.Time                      `json:"generated_at"`
}

// SignalEvidence is the collected observations for one dimension.
type SignalEvidence struct {
	PositiveSignals     []string   `json:"positive_signals"`
	AreasForImprovement []string   `json:"areas_for_improvement"`
	Quotes              []string   `json:"quotes"`
	Confidence          Confidence `json:"confidence"`
}
