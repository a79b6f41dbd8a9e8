package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get("parsing.json", "user-parse-resume")
	require.NoError(t, err)
	assert.NotEmpty(t, prompt)
	assert.Contains(t, prompt, "{{.ResumeText}}")
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get("parsing.json", "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet_Panics(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
}

func TestMustGet_ValidPrompt(t *testing.T) {
	ClearCache()

	assert.NotPanics(t, func() {
		prompt := MustGet("parsing.json", "user-parse-resume")
		assert.NotEmpty(t, prompt)
	})
}

func TestFormat(t *testing.T) {
	template := "Hello {{.Name}}, welcome to {{.Company}}!"
	data := map[string]string{
		"Name":    "Alice",
		"Company": "Acme Corp",
	}

	result := Format(template, data)
	assert.Equal(t, "Hello Alice, welcome to Acme Corp!", result)
}

func TestFormat_NoPlaceholders(t *testing.T) {
	template := "No placeholders here"
	data := map[string]string{"Key": "Value"}

	result := Format(template, data)
	assert.Equal(t, template, result)
}

func TestFormat_EmptyData(t *testing.T) {
	template := "Hello {{.Name}}"
	data := map[string]string{}

	result := Format(template, data)
	assert.Equal(t, template, result) // Placeholder remains
}

func TestList(t *testing.T) {
	ClearCache()

	keys, err := List("parsing.json")
	require.NoError(t, err)
	assert.Contains(t, keys, "user-parse-resume")
}

func TestCaching(t *testing.T) {
	ClearCache()

	// First call loads from file
	prompt1, err := Get("parsing.json", "user-parse-resume")
	require.NoError(t, err)

	// Second call should use cache
	prompt2, err := Get("parsing.json", "user-parse-resume")
	require.NoError(t, err)

	assert.Equal(t, prompt1, prompt2)
}

func TestRender(t *testing.T) {
	ClearCache()

	out, err := Render("parsing.json", "user-parse-resume", map[string]string{"ResumeText": "Jane Doe, Go developer"})
	require.NoError(t, err)
	assert.Contains(t, out, "Jane Doe, Go developer")
	assert.NotContains(t, out, "{{.")
}

func TestRender_MissingValue(t *testing.T) {
	ClearCache()

	_, err := Render("scoring.json", "user-scorer-task", map[string]string{"Rubric": "{}"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JobRequirements, ResumeText")
}

func TestPlaceholders(t *testing.T) {
	missing := Placeholders("{{.B}} {{.A}} {{.B}} {{.C}}", map[string]string{"C": "x"})
	assert.Equal(t, []string{"A", "B"}, missing)
}

func TestEmbeddedPrompts(t *testing.T) {
	ClearCache()

	for file, keys := range map[string][]string{
		"parsing.json": {"user-parse-resume"},
		"scoring.json": {"system-scorer", "user-scorer-task"},
		"summary.json": {"system-summary", "user-summary"},
	} {
		got, err := List(file)
		require.NoError(t, err, file)
		assert.Equal(t, keys, got, file)
	}
}
