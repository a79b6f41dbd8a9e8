package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenAIClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultOpenAIConfig()
	cfg.BaseURL = srv.URL
	client, err := NewOpenAIClient(cfg, "test-key")
	require.NoError(t, err)
	return client
}

func TestOpenAIClient_SendJSON(t *testing.T) {
	var got chatRequest
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Sure! {\"score\": 0.8}"}}]}`))
	})

	out, err := client.SendJSON(context.Background(), Request{
		Messages: []Message{System("be strict"), User("score this")},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"score": 0.8}`, out)

	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, JSONTemperature, got.Temperature)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	assert.Len(t, got.Messages, 2)
}

func TestOpenAIClient_Send(t *testing.T) {
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Nil(t, req.ResponseFormat)
		assert.Equal(t, DefaultTemperature, req.Temperature)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  hello  "}}]}`))
	})

	out, err := client.Send(context.Background(), Request{Messages: []Message{User("hi")}})
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestOpenAIClient_StatusError(t *testing.T) {
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`overloaded`))
	})

	_, err := client.Send(context.Background(), Request{Messages: []Message{User("hi")}})
	require.Error(t, err)

	var apiErr *APICallError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.True(t, IsTransient(err))
}

func TestOpenAIClient_NoJSON(t *testing.T) {
	client := newTestOpenAIClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"no structured output here"}}]}`))
	})

	_, err := client.SendJSON(context.Background(), Request{Messages: []Message{User("hi")}})
	assert.ErrorIs(t, err, ErrNoJSONFound)
	assert.False(t, IsTransient(err))
}
