package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-coach/internal/db"
)

func TestWriteSessionRecord(t *testing.T) {
	completed := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	rec := &db.SessionRecord{
		SessionID:           "session_x",
		Role:                "PM",
		Status:              "completed_by_ai",
		FinalStage:          "adaptation",
		ConversationHistory: json.RawMessage(`[{"role":"interviewer","content":"Why?"}]`),
		TotalTurns:          3,
		AverageScore:        3.5,
		CompletedAt:         &completed,
	}

	var buf bytes.Buffer
	require.NoError(t, writeSessionRecord(&buf, rec))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "session_x", got["session_id"])
	assert.Equal(t, "adaptation", got["final_stage"])
	assert.EqualValues(t, 3, got["total_turns"])
	assert.Contains(t, buf.String(), "\n  \"role\": \"PM\"")
}

func TestShowSession_RequiresOneArgument(t *testing.T) {
	assert.Error(t, showSessionCmd.Args(showSessionCmd, nil))
	assert.NoError(t, showSessionCmd.Args(showSessionCmd, []string{"session_x"}))
}
