package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/claimcheck/internal/model"
	"github.com/ppiankov/claimcheck/internal/worker"
)

// MockProvider implements Provider for testing
type MockProvider struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Requests  []ChatRequest
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) IsAvailable(ctx context.Context) bool { return true }

func (m *MockProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Responses) == 0 {
		return &ChatResponse{Text: ""}, nil
	}
	text := m.Responses[0]
	if len(m.Responses) > 1 {
		m.Responses = m.Responses[1:]
	}
	return &ChatResponse{Text: text, Model: "mock"}, nil
}

func TestComplete(t *testing.T) {
	mock := &MockProvider{Responses: []string{"ok"}}

	text, err := Complete(context.Background(), mock, "sys", "user", 0.1)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if text != "ok" {
		t.Errorf("expected ok, got %q", text)
	}

	req := mock.Requests[0]
	if len(req.Messages) != 2 || req.Messages[0].Role != RoleSystem || req.Messages[1].Role != RoleUser {
		t.Errorf("unexpected messages: %+v", req.Messages)
	}
	if req.Temperature != 0.1 {
		t.Errorf("expected temperature 0.1, got %v", req.Temperature)
	}
}

func TestComplete_NoSystem(t *testing.T) {
	mock := &MockProvider{Responses: []string{"ok"}}

	if _, err := Complete(context.Background(), mock, "", "user", 0); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if len(mock.Requests[0].Messages) != 1 {
		t.Errorf("expected only the user message, got %+v", mock.Requests[0].Messages)
	}
}

func TestCheckCitations(t *testing.T) {
	allowed := []string{"https://example.com/paper"}

	cited, err := CheckCitations("See https://example.com/paper.", allowed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cited) != 1 || cited[0] != "https://example.com/paper" {
		t.Errorf("unexpected cited URLs: %v", cited)
	}

	_, err = CheckCitations("See https://example.com/paper and https://evil.example/x", allowed)
	if !errors.Is(err, ErrCitationLeak) {
		t.Fatalf("expected ErrCitationLeak, got %v", err)
	}

	if _, err := CheckCitations("No links here.", nil); err != nil {
		t.Errorf("expected no error without links, got %v", err)
	}
}

func TestExtractURLs_Dedup(t *testing.T) {
	urls := ExtractURLs("(https://a.example/1) then https://a.example/1, and http://b.example/2!")
	if len(urls) != 2 {
		t.Fatalf("expected 2 unique URLs, got %v", urls)
	}
	if urls[0] != "https://a.example/1" || urls[1] != "http://b.example/2" {
		t.Errorf("unexpected URLs: %v", urls)
	}
}

func TestExtractURLs_Parentheses(t *testing.T) {
	const wiki = "https://en.wikipedia.org/wiki/Flat_Earth_(disambiguation)"
	tests := []struct {
		text string
		want string
	}{
		{"See " + wiki + ".", wiki},
		{"(see " + wiki + ")", wiki},
		{"(see " + wiki + ").", wiki},
		{"[Flat Earth](" + wiki + ")", wiki},
		{"Snopes (https://www.snopes.com/fact-check/flat-earth/) says no.", "https://www.snopes.com/fact-check/flat-earth/"},
	}
	for _, tt := range tests {
		urls := ExtractURLs(tt.text)
		if len(urls) != 1 || urls[0] != tt.want {
			t.Errorf("ExtractURLs(%q) = %v, want [%s]", tt.text, urls, tt.want)
		}
	}

	if _, err := CheckCitations("According to "+wiki+", the claim is a myth.", []string{wiki}); err != nil {
		t.Errorf("citing the allowed URL should pass, got %v", err)
	}
}

func TestNewProvider(t *testing.T) {
	if _, err := NewProvider(Config{Provider: "unknown"}); err == nil {
		t.Error("expected error for unknown provider")
	}
	if _, err := NewProvider(Config{}); err == nil {
		t.Error("expected error for empty provider")
	}

	p, err := NewProvider(Config{Provider: "ollama", Model: "llama3.1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("expected ollama, got %s", p.Name())
	}
}

func TestConfigFromModel_EnvKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")

	cfg := ConfigFromModel(model.LLMConfig{Provider: "openai", Model: "gpt-4o-mini", Timeout: 10}, model.HTTPConfig{HTTPSProxy: "http://proxy:3128"})
	if cfg.APIKey != "env-key" {
		t.Errorf("expected key from env, got %q", cfg.APIKey)
	}
	if cfg.HTTPSProxy != "http://proxy:3128" {
		t.Errorf("expected proxy to carry over, got %q", cfg.HTTPSProxy)
	}

	explicit := ConfigFromModel(model.LLMConfig{Provider: "openai", APIKey: "file-key"}, model.HTTPConfig{})
	if explicit.APIKey != "file-key" {
		t.Errorf("expected explicit key to win, got %q", explicit.APIKey)
	}
}

func TestConfigFromModel_OllamaBaseURL(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "http://gpu-box:11434")

	cfg := ConfigFromModel(model.LLMConfig{Provider: "ollama"}, model.HTTPConfig{})
	if cfg.BaseURL != "http://gpu-box:11434" {
		t.Errorf("expected base URL from env, got %q", cfg.BaseURL)
	}
}

func TestPaced_DelaysEachCall(t *testing.T) {
	mock := &MockProvider{Responses: []string{"a"}}
	paced := NewPaced(mock, worker.NewLimiter(0, 1), 20*time.Millisecond)

	start := time.Now()
	for i := 0; i < 2; i++ {
		if _, err := paced.Chat(context.Background(), testRequest()); err != nil {
			t.Fatalf("Chat failed: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("expected at least 40ms across two paced calls, got %v", elapsed)
	}
	if paced.Name() != "mock" {
		t.Errorf("expected wrapped name, got %s", paced.Name())
	}
}

func TestPaced_CancelledBeforeCall(t *testing.T) {
	mock := &MockProvider{Responses: []string{"a"}}
	paced := NewPaced(mock, nil, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := paced.Chat(ctx, testRequest()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(mock.Requests) != 0 {
		t.Error("provider should not be called after cancellation")
	}
}
