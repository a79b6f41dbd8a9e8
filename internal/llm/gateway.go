package llm

import (
	"context"
	"fmt"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single chat-completion call.
type Request struct {
	Messages    []Message
	Temperature float32
	Tier        ModelTier
}

// Client is an abstraction over LLM providers
type Client interface {
	// Send returns the raw text reply to the conversation.
	Send(ctx context.Context, req Request) (string, error)
	// SendJSON asks for JSON output and returns the first JSON object in the reply.
	// It fails with ErrNoJSONFound when the reply contains no {...} block.
	SendJSON(ctx context.Context, req Request) (string, error)
	// Model returns the provider model name used for a tier
	Model(tier ModelTier) string
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey)
	case ProviderOpenAI:
		return NewOpenAIClient(config, apiKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", config.Provider)
	}
}

// System and User are shorthands for building conversations.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User builds a user message.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// withDefaults fills zero-valued request fields.
func withDefaults(req Request, temperature float32) Request {
	if req.Tier == "" {
		req.Tier = TierStandard
	}
	if req.Temperature == 0 {
		req.Temperature = temperature
	}
	return req
}
