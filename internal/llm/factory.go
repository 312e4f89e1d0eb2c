package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/claimcheck/internal/model"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, fmt.Errorf("no LLM provider configured (supported: openai, anthropic, ollama)")

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts the application config to llm.Config, filling the
// API key and base URL from the environment when they are not set.
func ConfigFromModel(cfg model.LLMConfig, proxy model.HTTPConfig) Config {
	return Config{
		Provider:   cfg.Provider,
		Model:      cfg.Model,
		APIKey:     ResolveAPIKey(cfg.Provider, cfg.APIKey),
		BaseURL:    resolveBaseURL(cfg.Provider, cfg.BaseURL),
		Timeout:    cfg.Timeout,
		MaxTokens:  cfg.MaxTokens,
		HTTPProxy:  proxy.HTTPProxy,
		HTTPSProxy: proxy.HTTPSProxy,
		NoProxy:    proxy.NoProxy,
	}
}

// ResolveAPIKey returns explicit when set, otherwise the provider's conventional env var
func ResolveAPIKey(provider, explicit string) string {
	if explicit != "" {
		return explicit
	}

	switch strings.ToLower(provider) {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic", "claude":
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	return ""
}

func resolveBaseURL(provider, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if strings.ToLower(provider) == "ollama" {
		return os.Getenv("OLLAMA_BASE_URL")
	}
	return ""
}
