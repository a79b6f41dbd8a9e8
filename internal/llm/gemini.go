package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

// Send generates a reply for the conversation
func (c *GeminiClient) Send(ctx context.Context, req Request) (string, error) {
	return c.generate(ctx, withDefaults(req, DefaultTemperature), false)
}

// SendJSON generates a JSON reply and extracts its first object
func (c *GeminiClient) SendJSON(ctx context.Context, req Request) (string, error) {
	text, err := c.generate(ctx, withDefaults(req, JSONTemperature), true)
	if err != nil {
		return "", err
	}
	return FirstJSONObject(text)
}

func (c *GeminiClient) generate(ctx context.Context, req Request, jsonMode bool) (string, error) {
	modelName := c.config.GetModel(req.Tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", req.Tier)
	}
	if len(req.Messages) == 0 {
		return "", fmt.Errorf("at least one message is required")
	}

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(req.Temperature)
	if jsonMode {
		model.ResponseMIMEType = "application/json"
	}

	system, history, last := splitConversation(req.Messages)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	session := model.StartChat()
	session.History = history

	resp, err := session.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return "", geminiError(err)
	}

	return extractTextFromResponse(resp)
}

// geminiError wraps a failed call, keeping the HTTP status so rejected
// requests (bad key, invalid argument, blocked content) are not retried.
func geminiError(err error) *APICallError {
	apiErr := &APICallError{Provider: ProviderGemini, Message: "failed to generate content", Cause: err}

	var blocked *genai.BlockedError
	var gErr *googleapi.Error
	switch {
	case errors.As(err, &blocked):
		apiErr.Message = "content blocked"
		apiErr.StatusCode = http.StatusUnprocessableEntity
	case errors.As(err, &gErr):
		apiErr.StatusCode = gErr.Code
	}
	return apiErr
}

// Model returns the model name for a tier
func (c *GeminiClient) Model(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// splitConversation maps chat messages onto Gemini's system instruction,
// prior turns and the final prompt.
func splitConversation(messages []Message) (string, []*genai.Content, string) {
	var system []string
	var turns []Message
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}

	if len(turns) == 0 {
		// System-only conversations are sent as a single user turn.
		return "", nil, strings.Join(system, "\n\n")
	}

	history := make([]*genai.Content, 0, len(turns)-1)
	for _, m := range turns[:len(turns)-1] {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}

	return strings.Join(system, "\n\n"), history, turns[len(turns)-1].Content
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.TrimSpace(strings.Join(parts, "")), nil
}
