package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSONBlock_MarkdownCodeBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "json code block",
			input:    "```json\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "generic code block",
			input:    "```\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "code block with language",
			input:    "```javascript\n{\"key\": \"value\"}\n```",
			expected: `{"key": "value"}`,
		},
		{
			name:     "plain JSON",
			input:    `{"key": "value"}`,
			expected: `{"key": "value"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple object", input: `{"key": "value"}`, expected: `{"key": "value"}`},
		{name: "nested objects", input: `{"outer": {"inner": "value"}}`, expected: `{"outer": {"inner": "value"}}`},
		{name: "object with array", input: `{"items": [1, 2, 3]}`, expected: `{"items": [1, 2, 3]}`},
		{name: "object with trailing text", input: `{"key": "value"} and some more text`, expected: `{"key": "value"}`},
		{name: "string with braces inside", input: `{"template": "Hello {name}!"}`, expected: `{"template": "Hello {name}!"}`},
		{name: "escaped quote", input: `{"msg": "say \"}\" now"}`, expected: `{"msg": "say \"}\" now"}`},
		{name: "unclosed", input: `{"key": "value"`, expected: ""},
		{name: "empty input", input: "", expected: ""},
		{name: "not starting with brace", input: "not json", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractJSONObject(tt.input))
		})
	}
}

func TestFirstJSONObject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "preamble before JSON object",
			input:    "As requested, here is the JSON:\n{\"score\": 0.5}",
			expected: `{"score": 0.5}`,
		},
		{
			name:     "trailing text",
			input:    "{\"key\": \"value\"}\n\nLet me know if you need anything else!",
			expected: `{"key": "value"}`,
		},
		{
			name:     "fenced",
			input:    "```json\n{\"a\": {\"b\": 1}}\n```",
			expected: `{"a": {"b": 1}}`,
		},
		{
			name:     "brace in prose before object",
			input:    "Using the {rubric} provided: {\"score\": 1}",
			expected: `{"score": 1}`,
		},
		{
			name:     "two objects returns first",
			input:    `{"first": true} {"second": true}`,
			expected: `{"first": true}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FirstJSONObject(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFirstJSONObject_NoJSON(t *testing.T) {
	_, err := FirstJSONObject("I cannot help with that request.")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoJSONFound))

	var noJSON *NoJSONFoundError
	require.ErrorAs(t, err, &noJSON)
	assert.Contains(t, noJSON.Preview, "cannot help")
}

func TestFirstJSONObject_MalformedReturnsSpan(t *testing.T) {
	got, err := FirstJSONObject(`result: {"score": 0.5,} done`)
	require.NoError(t, err)
	assert.Equal(t, `{"score": 0.5,}`, got)
}
