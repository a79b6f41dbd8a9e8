package main

import (
	"context"
	"encoding/json"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/candidate-evaluator/internal/pipeline"
	"github.com/jonathan/candidate-evaluator/internal/types"
)

func TestEvaluateCommand_AdHocResume(t *testing.T) {
	client := scriptedClient()
	resume := writeResume(t, sampleResume)

	out, err := executeCommand(t, client,
		"evaluate", "--resume", resume,
		"--title", "Staff ML Engineer",
		"--requirements", "Python, Go",
		"--min-years", "5",
		"--json")
	require.NoError(t, err)

	var got struct {
		Run       pipeline.RunResult `json:"run"`
		Candidate types.Candidate    `json:"candidate"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	assert.Equal(t, types.StageReviewed, got.Run.FinalStage)
	assert.Empty(t, got.Run.Errors)
	assert.Equal(t, "Emily", got.Candidate.FirstName)
	assert.Equal(t, types.ActionAccept, got.Candidate.SuggestedAction)
	require.NotNil(t, got.Candidate.GuardrailPassed)
	assert.True(t, *got.Candidate.GuardrailPassed)
	require.NotNil(t, got.Candidate.BiasAuditResult)
	assert.Equal(t, types.RiskLow, got.Candidate.BiasAuditResult.OverallRisk)
	assert.Empty(t, got.Candidate.BiasFlags)
	assert.NotContains(t, got.Candidate.ResumeRedacted, "emily.chen@example.com")
}

func TestAdHocCandidate(t *testing.T) {
	resume := writeResume(t, sampleResume)

	store, id, err := adHocCandidate(context.Background(), resume, &types.Job{Title: "ML"})
	require.NoError(t, err)

	c, err := store.GetCandidate(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, sampleResume, c.ResumeText)
	assert.Equal(t, types.StageNew, c.Stage)

	job, err := store.GetJob(context.Background(), c.JobID)
	require.NoError(t, err)
	assert.Equal(t, "ML", job.Title)
}

func TestAdHocCandidate_MissingFile(t *testing.T) {
	_, _, err := adHocCandidate(context.Background(), "/nonexistent/resume.txt", &types.Job{})
	assert.ErrorContains(t, err, "failed to read")
}

func TestParseID(t *testing.T) {
	_, err := parseID("candidate", "not-a-uuid")
	assert.ErrorContains(t, err, "invalid --candidate")

	id, err := parseID("job", "00000000-0000-0000-0000-000000000001")
	require.NoError(t, err)
	assert.Equal(t, "00000000-0000-0000-0000-000000000001", id.String())
}

func TestEvaluateCommand_FlagsValidation(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		errorString string
	}{
		{
			name:        "Neither --candidate nor --resume",
			args:        []string{"evaluate"},
			errorString: "at least one of the flags",
		},
		{
			name:        "Both --candidate and --resume",
			args:        []string{"evaluate", "--candidate", "00000000-0000-0000-0000-000000000000", "--resume", "r.txt"},
			errorString: "were all set",
		},
		{
			name:        "run-agent missing --agent",
			args:        []string{"run-agent", "--candidate", "00000000-0000-0000-0000-000000000000"},
			errorString: "required",
		},
		{
			name:        "bulk missing --job",
			args:        []string{"bulk"},
			errorString: "required",
		},
	}

	binaryPath := getBinaryPath(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := exec.Command(binaryPath, tt.args...)
			output, err := cmd.CombinedOutput()

			assert.Error(t, err)
			assert.Contains(t, string(output), tt.errorString)
		})
	}
}

func TestDatabaseCommands_RequireURL(t *testing.T) {
	binaryPath := getBinaryPath(t)

	for _, args := range [][]string{
		{"migrate"},
		{"fairness"},
		{"export"},
		{"bulk", "--job", "00000000-0000-0000-0000-000000000000"},
	} {
		cmd := exec.Command(binaryPath, args...)
		cmd.Env = []string{"PATH=/usr/bin:/bin"}
		output, err := cmd.CombinedOutput()

		assert.Error(t, err, args)
		assert.Contains(t, string(output), "database.url is required", args)
	}
}
