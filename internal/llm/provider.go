package llm

import (
	"context"
	"errors"
)

// Provider defines the interface for language model backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Chat sends an ordered list of role-tagged messages and returns the generated text
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged chat message
type Message struct {
	Role    string
	Content string
}

// ChatRequest contains the input for one model call
type ChatRequest struct {
	// Messages in conversation order; system messages may appear first
	Messages []Message

	// Temperature controls sampling randomness
	Temperature float32

	// Model overrides the provider's configured model
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// ChatResponse contains the model output
type ChatResponse struct {
	// Text is the generated text, trimmed
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// ErrNoChoices is returned when the backend answers without any generated text
var ErrNoChoices = errors.New("no response from model")

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, OpenAI-compatible gateways)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "openai",
		Model:     "gpt-4o-mini",
		Timeout:   60,
		MaxTokens: 1000,
	}
}

// Complete is a convenience wrapper for a system + user prompt pair
func Complete(ctx context.Context, p Provider, system, user string, temperature float32) (string, error) {
	req := ChatRequest{Temperature: temperature}
	if system != "" {
		req.Messages = append(req.Messages, Message{Role: RoleSystem, Content: system})
	}
	req.Messages = append(req.Messages, Message{Role: RoleUser, Content: user})

	resp, err := p.Chat(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// resolveModel picks the request model, then the configured one, then a fallback
func resolveModel(req ChatRequest, cfg Config, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	if cfg.Model != "" {
		return cfg.Model
	}
	return fallback
}

// resolveMaxTokens picks the request limit, then the configured one, then 1000
func resolveMaxTokens(req ChatRequest, cfg Config) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if cfg.MaxTokens > 0 {
		return cfg.MaxTokens
	}
	return 1000
}
