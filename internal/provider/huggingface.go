package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/saurabhnalepatil/free-ai-model-project/internal/history"
)

const defaultHuggingFaceBaseURL = "https://api-inference.huggingface.co"

// HuggingFace talks to the hosted Hugging Face inference API. The API is
// plain text-generation, so the conversation is flattened into a single
// prompt before sending.
type HuggingFace struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewHuggingFace creates a HuggingFace provider.
func NewHuggingFace(apiKey, model string) *HuggingFace {
	return &HuggingFace{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultHuggingFaceBaseURL,
		client:  &http.Client{},
	}
}

func (h *HuggingFace) Name() string { return "huggingface" }

type hfRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

type hfGeneration struct {
	GeneratedText string `json:"generated_text"`
}

type hfError struct {
	Error string `json:"error"`
}

// buildPrompt flattens the conversation into the plain-text format the
// inference API expects.
func buildPrompt(msgs []history.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		switch m.Role {
		case history.RoleSystem:
			b.WriteString(m.Content)
			b.WriteString("\n\n")
		case history.RoleUser:
			b.WriteString("User: ")
			b.WriteString(m.Content)
			b.WriteString("\n")
		case history.RoleAssistant:
			b.WriteString("Assistant: ")
			b.WriteString(m.Content)
			b.WriteString("\n")
		case history.RoleTool:
			b.WriteString("Tool result: ")
			b.WriteString(m.Content)
			b.WriteString("\n")
		}
	}
	b.WriteString("Assistant:")
	return b.String()
}

// Generate sends the flattened conversation and returns the generated text.
func (h *HuggingFace) Generate(ctx context.Context, msgs []history.Message, opts Options) (string, error) {
	params := map[string]any{"return_full_text": false}
	if opts.Temperature != 0 {
		params["temperature"] = opts.Temperature
	}
	if opts.MaxTokens != 0 {
		params["max_new_tokens"] = opts.MaxTokens
	}

	body, err := json.Marshal(hfRequest{Inputs: buildPrompt(msgs), Parameters: params})
	if err != nil {
		return "", newError(h.Name(), ErrBadResponse, err)
	}

	url := h.baseURL + "/models/" + h.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", newError(h.Name(), ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", newError(h.Name(), ErrNetwork, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", newError(h.Name(), ErrAuth, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		var apiErr hfError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		msg := apiErr.Error
		if msg == "" {
			msg = resp.Status
		}
		return "", newError(h.Name(), ErrBadResponse, fmt.Errorf("status %d: %s", resp.StatusCode, msg))
	}

	var gens []hfGeneration
	if err := json.NewDecoder(resp.Body).Decode(&gens); err != nil {
		return "", newError(h.Name(), ErrBadResponse, err)
	}
	if len(gens) == 0 {
		return "", newError(h.Name(), ErrBadResponse, fmt.Errorf("empty generation list"))
	}
	return strings.TrimSpace(gens[0].GeneratedText), nil
}

// Stream delivers the reply as a single chunk; the hosted inference API has
// no streaming mode for this endpoint.
func (h *HuggingFace) Stream(ctx context.Context, msgs []history.Message, opts Options, fn StreamFunc) error {
	text, err := h.Generate(ctx, msgs, opts)
	if err != nil {
		return err
	}
	return fn(text)
}

// Available reports whether an API key is configured.
func (h *HuggingFace) Available(_ context.Context) bool {
	return h.apiKey != ""
}
