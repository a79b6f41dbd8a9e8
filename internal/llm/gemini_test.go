package llm

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestSplitConversation(t *testing.T) {
	system, history, last := splitConversation([]Message{
		System("rule one"),
		User("first"),
		{Role: RoleAssistant, Content: "ack"},
		System("rule two"),
		User("second"),
	})

	assert.Equal(t, "rule one\n\nrule two", system)
	assert.Equal(t, "second", last)
	require.Len(t, history, 2)
	assert.Equal(t, "user", history[0].Role)
	assert.Equal(t, "model", history[1].Role)
	assert.Equal(t, genai.Text("ack"), history[1].Parts[0])
}

func TestSplitConversation_SystemOnly(t *testing.T) {
	system, history, last := splitConversation([]Message{System("only instructions")})

	assert.Empty(t, system)
	assert.Empty(t, history)
	assert.Equal(t, "only instructions", last)
}

func TestExtractTextFromResponse(t *testing.T) {
	_, err := extractTextFromResponse(nil)
	assert.Error(t, err)

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(" {\"a\":"), genai.Text("1} ")}},
		}},
	}
	text, err := extractTextFromResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, text)
}

func TestGeminiError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		transient bool
	}{
		{"invalid api key", &googleapi.Error{Code: http.StatusBadRequest, Message: "API key not valid"}, http.StatusBadRequest, false},
		{"permission denied", fmt.Errorf("generate: %w", &googleapi.Error{Code: http.StatusForbidden}), http.StatusForbidden, false},
		{"rate limited", &googleapi.Error{Code: http.StatusTooManyRequests}, http.StatusTooManyRequests, true},
		{"unavailable", &googleapi.Error{Code: http.StatusServiceUnavailable}, http.StatusServiceUnavailable, true},
		{"blocked", &genai.BlockedError{PromptFeedback: &genai.PromptFeedback{}}, http.StatusUnprocessableEntity, false},
		{"transport", errors.New("connection reset by peer"), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := geminiError(tt.err)

			assert.Equal(t, ProviderGemini, err.Provider)
			assert.Equal(t, tt.status, err.StatusCode)
			assert.Equal(t, tt.transient, IsTransient(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}
