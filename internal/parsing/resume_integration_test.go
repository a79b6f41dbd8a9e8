//go:build integration
// +build integration

package parsing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/candidate-evaluator/internal/llm"
)

func TestParser_Integration(t *testing.T) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY not set, skipping integration test")
	}

	ctx := context.Background()
	client, err := llm.NewClient(ctx, llm.DefaultConfig(), apiKey)
	require.NoError(t, err)
	defer func() { _ = client.Close() }()

	content, err := os.ReadFile(filepath.Join("testdata", "sample_resume.txt"))
	require.NoError(t, err, "should read fixture file")

	parsed, err := NewParser(client, nil).Parse(ctx, string(content))
	require.NoError(t, err)

	assert.Equal(t, "Emily", parsed.FirstName)
	assert.Equal(t, "Chen", parsed.LastName)
	assert.Contains(t, parsed.Skills, "Go")
	require.NotNil(t, parsed.ExperienceYears)
	assert.GreaterOrEqual(t, *parsed.ExperienceYears, 6.0)
	assert.Nil(t, parsed.Age, "age is not stated in the fixture")
	assert.NotEmpty(t, parsed.Education)
}
