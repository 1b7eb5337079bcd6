package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// SessionRecord is the durable record of a completed interview.
type SessionRecord struct {
	SessionID           string          `json:"session_id"`
	Role                string          `json:"role"`
	Seniority           string          `json:"seniority"`
	Skill               string          `json:"skill"`
	Status              string          `json:"status"`
	FinalStage          string          `json:"final_stage"`
	FinalSkillProgress  string          `json:"final_skill_progress"`
	ConversationHistory json.RawMessage `json:"final_conversation_history"`
	CompleteData        json.RawMessage `json:"complete_interview_data"`
	TotalTurns          int             `json:"total_turns"`
	TotalResponseTimeMS int64           `json:"total_response_time_ms"`
	AverageScore        float64         `json:"average_score"`
	CompletedAt         *time.Time      `json:"interview_completed_at,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// UpsertSessionState writes rec keyed by session id. On conflict only the
// summary columns change; history and interview data keep their first value.
func (db *DB) UpsertSessionState(ctx context.Context, rec *SessionRecord) error {
	if rec.SessionID == "" {
		return fmt.Errorf("session id is required")
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO session_states (
			session_id, role, seniority, skill, status,
			final_stage, final_skill_progress,
			final_conversation_history, complete_interview_data,
			total_turns, total_response_time_ms, average_score,
			interview_completed_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		ON CONFLICT (session_id) DO UPDATE SET
			status = EXCLUDED.status,
			final_stage = EXCLUDED.final_stage,
			final_skill_progress = EXCLUDED.final_skill_progress,
			average_score = EXCLUDED.average_score,
			interview_completed_at = EXCLUDED.interview_completed_at,
			updated_at = NOW()`,
		rec.SessionID, rec.Role, rec.Seniority, rec.Skill, rec.Status,
		rec.FinalStage, rec.FinalSkillProgress,
		jsonOrNull(rec.ConversationHistory), jsonOrNull(rec.CompleteData),
		rec.TotalTurns, rec.TotalResponseTimeMS, rec.AverageScore,
		rec.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert session state %s: %w", rec.SessionID, err)
	}
	return nil
}

// GetSessionState returns the durable record, or nil if none exists.
func (db *DB) GetSessionState(ctx context.Context, sessionID string) (*SessionRecord, error) {
	var (
		rec             SessionRecord
		history, data   []byte
		stage, progress *string
		score           *float64
	)
	err := db.pool.QueryRow(ctx,
		`SELECT session_id, role, seniority, skill, status,
			final_stage, final_skill_progress,
			final_conversation_history, complete_interview_data,
			total_turns, total_response_time_ms, average_score,
			interview_completed_at, created_at, updated_at
		 FROM session_states WHERE session_id = $1`,
		sessionID,
	).Scan(&rec.SessionID, &rec.Role, &rec.Seniority, &rec.Skill, &rec.Status,
		&stage, &progress,
		&history, &data,
		&rec.TotalTurns, &rec.TotalResponseTimeMS, &score,
		&rec.CompletedAt, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session state %s: %w", sessionID, err)
	}

	if stage != nil {
		rec.FinalStage = *stage
	}
	if progress != nil {
		rec.FinalSkillProgress = *progress
	}
	if score != nil {
		rec.AverageScore = *score
	}
	rec.ConversationHistory = history
	rec.CompleteData = data
	return &rec, nil
}

func jsonOrNull(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
