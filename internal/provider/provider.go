// Package provider abstracts the AI-model backends the agent can talk to.
// Each backend differs only in request/response translation; callers are
// agnostic to which one is active.
package provider

import (
	"context"
	"fmt"

	"github.com/saurabhnalepatil/free-ai-model-project/internal/config"
	"github.com/saurabhnalepatil/free-ai-model-project/internal/history"
)

// Options are per-request generation parameters.
type Options struct {
	Temperature float32
	MaxTokens   int
}

// StreamFunc receives response chunks as they arrive. Returning an error
// aborts the stream.
type StreamFunc func(chunk string) error

// Provider generates assistant text from an ordered conversation.
type Provider interface {
	// Name identifies the backend ("ollama", "huggingface", "openai").
	Name() string
	// Generate returns the complete assistant reply for the conversation.
	Generate(ctx context.Context, msgs []history.Message, opts Options) (string, error)
	// Stream delivers the reply incrementally through fn. Backends without
	// native streaming deliver the full reply as a single chunk.
	Stream(ctx context.Context, msgs []history.Message, opts Options, fn StreamFunc) error
	// Available reports whether the backend looks reachable and configured.
	Available(ctx context.Context) bool
}

// New builds the provider selected by cfg.Provider.
func New(cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllama(cfg.OllamaBaseURL, cfg.Model), nil
	case "huggingface":
		return NewHuggingFace(cfg.HuggingFaceAPIKey, cfg.Model), nil
	case "openai":
		return NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIAPIBase, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}
