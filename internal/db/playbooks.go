package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jonathan/interview-coach/internal/types"
)

// PlaybookSummary identifies a stored playbook.
type PlaybookSummary struct {
	Role      string    `json:"role"`
	Skill     string    `json:"skill"`
	Seniority string    `json:"seniority"`
	Archetype string    `json:"archetype"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetPlaybook looks up a playbook ignoring case. Returns nil if none exists.
func (db *DB) GetPlaybook(ctx context.Context, role, skill, seniority string) (*types.Playbook, error) {
	var (
		pb                          types.Playbook
		archetype, philosophy       *string
		opening, objective          *string
		dims, criteria, goodVsGreat []byte
	)
	err := db.pool.QueryRow(ctx,
		`SELECT role, skill, seniority, archetype, core_philosophy, opening_prompt,
			interview_objective, evaluation_dimensions, seniority_criteria, good_vs_great_examples
		 FROM interview_playbooks
		 WHERE lower(role) = lower($1) AND lower(skill) = lower($2) AND lower(seniority) = lower($3)`,
		role, skill, seniority,
	).Scan(&pb.Role, &pb.Skill, &pb.Seniority, &archetype, &philosophy, &opening,
		&objective, &dims, &criteria, &goodVsGreat)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get playbook: %w", err)
	}

	pb.Archetype = deref(archetype)
	pb.CorePhilosophy = deref(philosophy)
	pb.OpeningPrompt = deref(opening)
	pb.Objective = deref(objective)
	if err := unmarshalJSONB(dims, &pb.EvaluationDimensions); err != nil {
		return nil, fmt.Errorf("failed to decode evaluation dimensions: %w", err)
	}
	if err := unmarshalJSONB(criteria, &pb.SeniorityCriteria); err != nil {
		return nil, fmt.Errorf("failed to decode seniority criteria: %w", err)
	}
	if err := unmarshalJSONB(goodVsGreat, &pb.GoodVsGreat); err != nil {
		return nil, fmt.Errorf("failed to decode good vs great examples: %w", err)
	}
	return &pb, nil
}

// UpsertPlaybook inserts or replaces the playbook for its role, skill and
// seniority.
func (db *DB) UpsertPlaybook(ctx context.Context, pb types.Playbook) error {
	dims, err := json.Marshal(pb.EvaluationDimensions)
	if err != nil {
		return fmt.Errorf("failed to marshal evaluation dimensions: %w", err)
	}
	criteria, err := json.Marshal(emptyIfNil(pb.SeniorityCriteria))
	if err != nil {
		return fmt.Errorf("failed to marshal seniority criteria: %w", err)
	}
	goodVsGreat, err := json.Marshal(emptyIfNil(pb.GoodVsGreat))
	if err != nil {
		return fmt.Errorf("failed to marshal good vs great examples: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO interview_playbooks (
			role, skill, seniority, archetype, core_philosophy, opening_prompt,
			interview_objective, evaluation_dimensions, seniority_criteria, good_vs_great_examples,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		ON CONFLICT ((lower(role)), (lower(skill)), (lower(seniority))) DO UPDATE SET
			archetype = EXCLUDED.archetype,
			core_philosophy = EXCLUDED.core_philosophy,
			opening_prompt = EXCLUDED.opening_prompt,
			interview_objective = EXCLUDED.interview_objective,
			evaluation_dimensions = EXCLUDED.evaluation_dimensions,
			seniority_criteria = EXCLUDED.seniority_criteria,
			good_vs_great_examples = EXCLUDED.good_vs_great_examples,
			updated_at = NOW()`,
		pb.Role, pb.Skill, pb.Seniority, pb.Archetype, pb.CorePhilosophy, pb.OpeningPrompt,
		pb.Objective, dims, criteria, goodVsGreat,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert playbook %s - %s - %s: %w", pb.Role, pb.Skill, pb.Seniority, err)
	}
	return nil
}

// ListPlaybooks returns every stored playbook, ordered by role, skill and
// seniority.
func (db *DB) ListPlaybooks(ctx context.Context) ([]PlaybookSummary, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT role, skill, seniority, COALESCE(archetype, ''), updated_at
		 FROM interview_playbooks ORDER BY role, skill, seniority`)
	if err != nil {
		return nil, fmt.Errorf("failed to list playbooks: %w", err)
	}
	defer rows.Close()

	var out []PlaybookSummary
	for rows.Next() {
		var s PlaybookSummary
		if err := rows.Scan(&s.Role, &s.Skill, &s.Seniority, &s.Archetype, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan playbook: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func unmarshalJSONB(data []byte, out any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, out)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func emptyIfNil[M ~map[K]V, K comparable, V any](m M) M {
	if m == nil {
		return M{}
	}
	return m
}
