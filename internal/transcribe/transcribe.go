// Package transcribe turns an extracted audio track into plain text
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/ppiankov/claimcheck/internal/llm"
	"github.com/ppiankov/claimcheck/internal/media"
	"github.com/ppiankov/claimcheck/internal/model"
)

// Transcriber converts an audio file to text
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// WhisperTranscriber shells out to the openai-whisper CLI
type WhisperTranscriber struct {
	path  string
	model string
	run   media.Runner
	log   logrus.FieldLogger
}

// NewWhisperTranscriber creates a transcriber for the whisper binary at path
func NewWhisperTranscriber(path, modelName string, run media.Runner, log logrus.FieldLogger) *WhisperTranscriber {
	if path == "" {
		path = "whisper"
	}
	if modelName == "" {
		modelName = "base"
	}
	if run == nil {
		run = media.ExecRunner
	}
	return &WhisperTranscriber{path: path, model: modelName, run: run, log: log}
}

// Name returns the transcriber name
func (w *WhisperTranscriber) Name() string {
	return "whisper"
}

// Transcribe writes a .txt transcript next to the audio, reads it and removes it
func (w *WhisperTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if audioPath == "" {
		return "", errors.New("transcribe: no audio file")
	}

	dir := filepath.Dir(audioPath)
	args := []string{
		audioPath,
		"--model", w.model,
		"--output_format", "txt",
		"--output_dir", dir,
		"--fp16", "False",
	}
	if _, err := w.run(ctx, w.path, args...); err != nil {
		return "", fmt.Errorf("whisper: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	txt := filepath.Join(dir, stem+".txt")
	data, err := os.ReadFile(txt)
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}
	if err := os.Remove(txt); err != nil {
		w.log.WithError(err).Debug("Failed to remove transcript file")
	}

	return strings.TrimSpace(string(data)), nil
}

// OpenAITranscriber uses the OpenAI audio transcription endpoint
type OpenAITranscriber struct {
	client *openai.Client
	model  string
}

// NewOpenAITranscriber creates a transcriber backed by an OpenAI SDK client
func NewOpenAITranscriber(client *openai.Client, modelName string) *OpenAITranscriber {
	if modelName == "" {
		modelName = openai.Whisper1
	}
	return &OpenAITranscriber{client: client, model: modelName}
}

// Name returns the transcriber name
func (o *OpenAITranscriber) Name() string {
	return "openai"
}

// Transcribe uploads the audio file and returns the recognized text
func (o *OpenAITranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.model,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("OpenAI transcription error: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

// New creates the configured transcriber
func New(cfg *model.Config, run media.Runner, log logrus.FieldLogger) (Transcriber, error) {
	switch strings.ToLower(cfg.Media.Transcriber) {
	case "", "whisper":
		return NewWhisperTranscriber(cfg.Media.WhisperPath, cfg.Media.WhisperModel, run, log), nil
	case "openai":
		llmCfg := llm.ConfigFromModel(model.LLMConfig{
			Provider: "openai",
			APIKey:   apiKeyFor(cfg.LLM),
			BaseURL:  baseURLFor(cfg.LLM),
			Timeout:  cfg.LLM.Timeout,
		}, cfg.HTTP)
		provider, err := llm.NewOpenAIProvider(llmCfg)
		if err != nil {
			return nil, fmt.Errorf("create openai transcriber: %w", err)
		}
		return NewOpenAITranscriber(provider.Client(), openAIModel(cfg.Media.WhisperModel)), nil
	default:
		return nil, fmt.Errorf("unsupported transcriber: %s", cfg.Media.Transcriber)
	}
}

// apiKeyFor reuses the chat key only when chat also goes to OpenAI
func apiKeyFor(cfg model.LLMConfig) string {
	if strings.EqualFold(cfg.Provider, "openai") {
		return cfg.APIKey
	}
	return ""
}

func baseURLFor(cfg model.LLMConfig) string {
	if strings.EqualFold(cfg.Provider, "openai") {
		return cfg.BaseURL
	}
	return ""
}

// openAIModel maps the whisper CLI model size onto an API model name
func openAIModel(name string) string {
	if strings.HasPrefix(name, "whisper-") || strings.Contains(name, "transcribe") {
		return name
	}
	return openai.Whisper1
}
