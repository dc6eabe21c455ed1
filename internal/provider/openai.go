package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/saurabhnalepatil/free-ai-model-project/internal/history"
)

// OpenAI talks to the OpenAI API or any endpoint that speaks the same chat
// completions protocol (LM Studio, vLLM, LocalAI, ...).
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI-compatible provider. baseURL is optional and
// overrides the official API endpoint.
func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (o *OpenAI) Name() string { return "openai" }

func toOpenAIMessages(msgs []history.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		role := m.Role
		if role == history.RoleTool {
			// The text tool protocol carries results as plain user turns;
			// the API's tool role requires call ids we do not use.
			role = history.RoleUser
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}

func (o *OpenAI) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden {
			return newError(o.Name(), ErrAuth, err)
		}
		return newError(o.Name(), ErrBadResponse, err)
	}
	return newError(o.Name(), ErrNetwork, err)
}

// Generate sends the conversation and returns the full reply.
func (o *OpenAI) Generate(ctx context.Context, msgs []history.Message, opts Options) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    toOpenAIMessages(msgs),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", o.classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", newError(o.Name(), ErrBadResponse, fmt.Errorf("empty choices in response"))
	}
	return resp.Choices[0].Message.Content, nil
}

// Stream sends the conversation and delivers delta chunks through fn.
func (o *OpenAI) Stream(ctx context.Context, msgs []history.Message, opts Options, fn StreamFunc) error {
	stream, err := o.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    toOpenAIMessages(msgs),
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Stream:      true,
	})
	if err != nil {
		return o.classify(err)
	}
	defer stream.Close()

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return o.classify(err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			if err := fn(delta); err != nil {
				return err
			}
		}
	}
}

// Available checks that the endpoint answers a models listing.
func (o *OpenAI) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, err := o.client.ListModels(ctx)
	return err == nil
}
