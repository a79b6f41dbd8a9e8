package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jonathan/candidate-evaluator/internal/config"
	"github.com/jonathan/candidate-evaluator/internal/llm"
	"github.com/jonathan/candidate-evaluator/internal/llm/llmtest"
)

// getBinaryPath returns the path to the evaluator binary for CLI tests
func getBinaryPath(t *testing.T) string {
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := filepath.Join("..", "..", "bin", "evaluator")
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		t.Skipf("Binary not found at %s, build it first with 'go build -o bin/evaluator ./cmd/evaluator'", binaryPath)
	}
	return binaryPath
}

const (
	parseReply = `{
		"first_name": "Emily", "last_name": "Chen", "email": "emily.chen@example.com", "phone": "",
		"age": null, "experience_years": 7, "current_title": "Staff ML Engineer",
		"skills": ["Python", "Go"], "education": [], "work_experience": [],
		"certifications": [], "languages": [], "career_gaps": [],
		"management_experience": false, "team_size_managed": null,
		"notable_achievements": [], "summary": "ML engineer"
	}`
	scoreReply = `{"components": {"experience_ic": 0.8, "experience_mgmt": 0.4, "ml_ops_delivery": 0.7,
		"impact_outcomes": 0.6, "education_rigor": 0.5, "education_gpa": 0.4, "reliability_quality": 0.7},
		"notes": {"found_gpa": "", "accommodation_present": false, "visa_mention": false}}`
	summaryReply = `{"pros": ["Strong Python"], "cons": [], "suggested_action": "Accept",
		"detailed_reasoning": "Meets every requirement.", "risk_factors": [],
		"interview_recommendations": [], "overall_assessment": "Strong"}`
)

const sampleResume = "Emily Chen\nemily.chen@example.com\nStaff ML Engineer shipping Python and Go services.\n"

// scriptedClient answers each agent's prompt with a canned reply.
func scriptedClient() *llmtest.MockClient {
	return &llmtest.MockClient{
		SendJSONFunc: func(_ context.Context, req llm.Request) (string, error) {
			system := req.Messages[0].Content
			switch {
			case strings.Contains(system, "rubric scorer"):
				return scoreReply, nil
			case strings.Contains(system, "summarizes candidate evaluations"):
				return summaryReply, nil
			default:
				return parseReply, nil
			}
		},
	}
}

// executeCommand runs the root command in-process with client standing in
// for the configured provider.
func executeCommand(t *testing.T, client llm.Client, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	origOut, origClient := stdout, newLLMClient
	stdout = &buf
	newLLMClient = func(context.Context, *config.Config) (llm.Client, error) { return client, nil }
	t.Cleanup(func() {
		stdout = origOut
		newLLMClient = origClient
		rootCmd.SetArgs(nil)
	})

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func writeResume(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
