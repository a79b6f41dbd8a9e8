package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// OpenAIClient implements Client for OpenAI-compatible chat-completions endpoints
type OpenAIClient struct {
	apiKey  string
	baseURL string
	config  *Config
	httpc   *http.Client
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    float32         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewOpenAIClient creates a new OpenAI-compatible client
func NewOpenAIClient(config *Config, apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultOpenAIConfig().BaseURL
	}

	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 120 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
	}

	return &OpenAIClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		config:  config,
		httpc:   &http.Client{Timeout: config.Timeout, Transport: tr},
	}, nil
}

// WithHTTPClient overrides the internal HTTP client (e.g., for tests).
func (c *OpenAIClient) WithHTTPClient(h *http.Client) *OpenAIClient {
	if h != nil {
		c.httpc = h
	}
	return c
}

// Send generates a reply for the conversation
func (c *OpenAIClient) Send(ctx context.Context, req Request) (string, error) {
	return c.complete(ctx, withDefaults(req, DefaultTemperature), false)
}

// SendJSON generates a JSON reply and extracts its first object
func (c *OpenAIClient) SendJSON(ctx context.Context, req Request) (string, error) {
	text, err := c.complete(ctx, withDefaults(req, JSONTemperature), true)
	if err != nil {
		return "", err
	}
	return FirstJSONObject(text)
}

func (c *OpenAIClient) complete(ctx context.Context, req Request, jsonMode bool) (string, error) {
	modelName := c.config.GetModel(req.Tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", req.Tier)
	}

	body := chatRequest{
		Model:       modelName,
		Messages:    req.Messages,
		Temperature: req.Temperature,
	}
	if jsonMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return "", &APICallError{Provider: ProviderOpenAI, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &APICallError{Provider: ProviderOpenAI, Message: "read response", StatusCode: resp.StatusCode, Cause: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &APICallError{
			Provider:   ProviderOpenAI,
			Message:    fmt.Sprintf("status %d: %s", resp.StatusCode, preview(string(raw), 300)),
			StatusCode: resp.StatusCode,
		}
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if out.Error != nil {
		return "", &APICallError{Provider: ProviderOpenAI, Message: out.Error.Message, StatusCode: resp.StatusCode}
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}

	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

// Model returns the model name for a tier
func (c *OpenAIClient) Model(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op; the HTTP client holds no per-client resources.
func (c *OpenAIClient) Close() error {
	c.httpc.CloseIdleConnections()
	return nil
}
