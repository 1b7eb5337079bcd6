package db

import "time"

// Table names shared by the gorm migrations and the pgx queries.
const (
	TablePlaybooks     = "interview_playbooks"
	TableSessionStates = "session_states"
)

// PlaybookModel is the migration schema for interview_playbooks. Runtime
// access goes through pgx.
type PlaybookModel struct {
	ID                   uint      `gorm:"primaryKey;autoIncrement"`
	Role                 string    `gorm:"type:text;not null"`
	Skill                string    `gorm:"type:text;not null"`
	Seniority            string    `gorm:"type:text;not null"`
	Archetype            string    `gorm:"type:text"`
	CorePhilosophy       string    `gorm:"type:text"`
	OpeningPrompt        string    `gorm:"type:text"`
	InterviewObjective   string    `gorm:"type:text"`
	EvaluationDimensions []byte    `gorm:"type:jsonb;not null;default:'{}'"`
	SeniorityCriteria    []byte    `gorm:"type:jsonb;not null;default:'{}'"`
	GoodVsGreatExamples  []byte    `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt            time.Time `gorm:"not null;default:now()"`
	UpdatedAt            time.Time `gorm:"not null;default:now()"`
}

func (PlaybookModel) TableName() string { return TablePlaybooks }

// SessionStateModel is the migration schema for session_states.
type SessionStateModel struct {
	ID                       uint       `gorm:"primaryKey;autoIncrement"`
	SessionID                string     `gorm:"type:text;uniqueIndex;not null"`
	Role                     string     `gorm:"type:text;not null"`
	Seniority                string     `gorm:"type:text;not null"`
	Skill                    string     `gorm:"type:text;not null"`
	Status                   string     `gorm:"type:text;not null;index;check:status IN ('in_progress', 'completed', 'completed_by_ai')"`
	FinalStage               string     `gorm:"type:text"`
	FinalSkillProgress       string     `gorm:"type:text"`
	FinalConversationHistory []byte     `gorm:"type:jsonb"`
	CompleteInterviewData    []byte     `gorm:"type:jsonb"`
	TotalTurns               int        `gorm:"not null;default:0"`
	TotalResponseTimeMS      int64      `gorm:"column:total_response_time_ms;not null;default:0"`
	AverageScore             float64    `gorm:"type:numeric(3,1)"`
	InterviewCompletedAt     *time.Time `gorm:"index"`
	CreatedAt                time.Time  `gorm:"not null;default:now()"`
	UpdatedAt                time.Time  `gorm:"not null;default:now()"`
}

func (SessionStateModel) TableName() string { return TableSessionStates }
