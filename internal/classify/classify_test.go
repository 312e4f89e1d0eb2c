package classify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/claimcheck/internal/llm"
	"github.com/ppiankov/claimcheck/internal/logger"
	"github.com/ppiankov/claimcheck/internal/model"
)

// MockProvider implements llm.Provider for testing
type MockProvider struct {
	Text  string
	Err   error
	Calls int
	Last  llm.ChatRequest
}

func (m *MockProvider) Name() string                         { return "mock" }
func (m *MockProvider) IsAvailable(ctx context.Context) bool { return true }

func (m *MockProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	m.Calls++
	m.Last = req
	if m.Err != nil {
		return nil, m.Err
	}
	return &llm.ChatResponse{Text: m.Text}, nil
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		raw  string
		want model.Classification
	}{
		{"music", model.ClassMusic},
		{"MUSIC", model.ClassMusic},
		{"This is background Music with lyrics", model.ClassMusic},
		{"speech_casual", model.ClassSpeechCasual},
		{"Casual conversation", model.ClassSpeechCasual},
		{"non-claim", model.ClassSpeechCasual},
		{"speech_claims", model.ClassSpeechClaims},
		{"no claims", model.ClassSpeechCasual},
		{"No verifiable claims.", model.ClassSpeechCasual},
		{"The speaker makes no factual or checkable claims", model.ClassSpeechCasual},
		{"It doesn't make any claims", model.ClassSpeechCasual},
		{"does not contain verifiable claims", model.ClassSpeechCasual},
		{"The video makes several health claims", model.ClassSpeechClaims},
		{"I'm not sure", model.ClassUndetermined},
		{"", model.ClassUndetermined},
	}

	for _, tt := range tests {
		if got := ParseLabel(tt.raw); got != tt.want {
			t.Errorf("ParseLabel(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}

func TestClassifier_Classify(t *testing.T) {
	mock := &MockProvider{Text: "music"}
	c := New(mock, logger.Discard())

	label, err := c.Classify(context.Background(), "la la la la la la la")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != model.ClassMusic {
		t.Errorf("expected music, got %s", label)
	}
	if mock.Calls != 1 {
		t.Errorf("expected one model call, got %d", mock.Calls)
	}
	if mock.Last.Temperature != 0 {
		t.Errorf("expected deterministic temperature, got %v", mock.Last.Temperature)
	}
	user := mock.Last.Messages[len(mock.Last.Messages)-1]
	if !strings.Contains(user.Content, "la la la") {
		t.Errorf("expected transcript in prompt, got %q", user.Content)
	}
}

func TestClassifier_ModelErrorIsUndetermined(t *testing.T) {
	c := New(&MockProvider{Err: errors.New("upstream 500")}, logger.Discard())

	label, err := c.Classify(context.Background(), "vaccines contain microchips that track you")
	if err != nil {
		t.Fatalf("expected model error to be absorbed, got %v", err)
	}
	if label != model.ClassUndetermined {
		t.Errorf("expected undetermined, got %s", label)
	}
}

func TestClassifier_ContextErrorPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(&MockProvider{Err: context.Canceled}, logger.Discard())
	if _, err := c.Classify(ctx, "some words here to classify"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
