package db

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/candidate-evaluator/internal/pipeline"
	"github.com/jonathan/candidate-evaluator/internal/types"
)

func TestMigrations(t *testing.T) {
	names, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_init.sql", names[0])
}

func TestToJSONB(t *testing.T) {
	var nilResult *types.ScoringResult
	data, err := toJSONB(nilResult)
	require.NoError(t, err)
	assert.Nil(t, data)

	data, err = toJSONB([]string{"Go"})
	require.NoError(t, err)
	assert.JSONEq(t, `["Go"]`, string(data))
}

func TestFromJSONB_NullLeavesDestination(t *testing.T) {
	skills := []string{"kept"}
	require.NoError(t, fromJSONB(nil, &skills))
	assert.Equal(t, []string{"kept"}, skills)
}

func TestUpdateColumns(t *testing.T) {
	score, confidence := 0.7, 0.6
	c := &types.Candidate{
		ID:           uuid.New(),
		OverallScore: &score,
		Confidence:   &confidence,
		ScoringResult: &types.ScoringResult{
			Score: 0.7,
		},
		ResumeRedacted: "redacted",
	}

	sets, args, err := updateColumns(c, []pipeline.Field{pipeline.FieldScoring, pipeline.FieldRedacted})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"scoring_result = $1",
		"overall_score = $2",
		"confidence = $3",
		"resume_redacted = $4",
	}, sets)
	require.Len(t, args, 4)
	assert.Equal(t, &score, args[1])
	assert.Equal(t, "redacted", args[3])
}

func TestUpdateColumns_EmptyListsAreArrays(t *testing.T) {
	sets, args, err := updateColumns(&types.Candidate{}, []pipeline.Field{pipeline.FieldAudit})
	require.NoError(t, err)
	assert.Equal(t, []string{"bias_audit_result = $1", "bias_flags = $2"}, sets)
	assert.Nil(t, args[0])
	assert.Equal(t, []byte("[]"), args[1])
}

func TestUpdateColumns_UnknownField(t *testing.T) {
	_, _, err := updateColumns(&types.Candidate{}, []pipeline.Field{"nope"})
	assert.Error(t, err)
}
