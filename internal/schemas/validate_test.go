package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedSchemasCompile(t *testing.T) {
	for _, name := range Names() {
		_, err := load(name)
		assert.NoError(t, err, name)
	}
}

func TestValidate_InterviewerTurn(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr bool
	}{
		{
			name: "full follow-up",
			json: `{"chain_of_thought":["a","b"],"response_text":"What metric?",
				"interview_state":{"current_stage":"solution_design","skill_progress":"intermediate","next_focus":"metrics"},
				"completion_assessment":{"should_complete":false,"completion_confidence":"Low","coverage_percentage":40}}`,
		},
		{
			name: "text only",
			json: `{"response_text":"Tell me more."}`,
		},
		{
			name:    "missing response text",
			json:    `{"chain_of_thought":["a"]}`,
			wantErr: true,
		},
		{
			name:    "empty response text",
			json:    `{"response_text":""}`,
			wantErr: true,
		},
		{
			name:    "should_complete as string",
			json:    `{"response_text":"x","completion_assessment":{"should_complete":"yes"}}`,
			wantErr: true,
		},
		{
			name:    "coverage above 100",
			json:    `{"response_text":"x","completion_assessment":{"should_complete":true,"coverage_percentage":120}}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(InterviewerTurn, tt.json)
			if tt.wantErr {
				var ve *ValidationError
				require.True(t, errors.As(err, &ve), "want ValidationError, got %v", err)
				assert.NotEmpty(t, ve.Errors)
				assert.Equal(t, InterviewerTurn, ve.Schema)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidate_ActionItems(t *testing.T) {
	assert.NoError(t, Validate(ActionItems, `[{"title":"Practice sizing","priority":"High","evidence":["q"]}]`))
	assert.NoError(t, Validate(ActionItems, `[]`))
	assert.Error(t, Validate(ActionItems, `{"title":"not an array"}`))
	assert.Error(t, Validate(ActionItems, `[{"description":"no title"}]`))
}

func TestValidate_DimensionEvaluation(t *testing.T) {
	assert.NoError(t, Validate(DimensionEvaluation, `{"rating":4,"confidence":"High","evidence":["x"]}`))
	assert.Error(t, Validate(DimensionEvaluation, `{"rating":6,"confidence":"High"}`))
	assert.Error(t, Validate(DimensionEvaluation, `{"rating":3,"confidence":"Sure"}`))
	assert.Error(t, Validate(DimensionEvaluation, `{"confidence":"High"}`))
}

func TestValidate_MalformedDocument(t *testing.T) {
	err := Validate(InterviewerTurn, `{ not json`)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "(root)", ve.Errors[0].Field)
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("missing", `{}`)
	var le *SchemaLoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "missing", le.Name)
}

func TestValidateJSONString(t *testing.T) {
	schema := `{"type":"object","required":["name"],"properties":{"name":{"type":"string"}}}`

	assert.NoError(t, ValidateJSONString(schema, `{"name":"x"}`))

	err := ValidateJSONString(schema, `{"name":1}`)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Error(), "validation failed")
}
