package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/saurabhnalepatil/free-ai-model-project/internal/history"
)

// Ollama talks to a local Ollama server's /api/chat endpoint.
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllama creates an Ollama provider. baseURL defaults to the standard
// local server address.
func NewOllama(baseURL, model string) *Ollama {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{},
	}
}

func (o *Ollama) Name() string { return "ollama" }

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  map[string]any  `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
	Error   string        `json:"error"`
}

func (o *Ollama) chatRequest(ctx context.Context, msgs []history.Message, opts Options, stream bool) (*http.Response, error) {
	reqBody := ollamaChatRequest{
		Model:    o.model,
		Messages: make([]ollamaMessage, 0, len(msgs)),
		Stream:   stream,
	}
	for _, m := range msgs {
		reqBody.Messages = append(reqBody.Messages, ollamaMessage{Role: m.Role, Content: m.Content})
	}
	if opts.Temperature != 0 {
		reqBody.Options = map[string]any{"temperature": opts.Temperature}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, newError(o.Name(), ErrBadResponse, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, newError(o.Name(), ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, newError(o.Name(), ErrNetwork, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		var apiErr ollamaChatResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		msg := apiErr.Error
		if msg == "" {
			msg = resp.Status
		}
		return nil, newError(o.Name(), ErrBadResponse, fmt.Errorf("status %d: %s", resp.StatusCode, msg))
	}
	return resp, nil
}

// Generate sends the conversation and returns the full reply.
func (o *Ollama) Generate(ctx context.Context, msgs []history.Message, opts Options) (string, error) {
	resp, err := o.chatRequest(ctx, msgs, opts, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", newError(o.Name(), ErrBadResponse, err)
	}
	return out.Message.Content, nil
}

// Stream sends the conversation and delivers NDJSON chunks through fn.
func (o *Ollama) Stream(ctx context.Context, msgs []history.Message, opts Options, fn StreamFunc) error {
	resp, err := o.chatRequest(ctx, msgs, opts, true)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var chunk ollamaChatResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return newError(o.Name(), ErrBadResponse, err)
		}
		if chunk.Error != "" {
			return newError(o.Name(), ErrBadResponse, fmt.Errorf("%s", chunk.Error))
		}
		if chunk.Message.Content != "" {
			if err := fn(chunk.Message.Content); err != nil {
				return err
			}
		}
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return newError(o.Name(), ErrNetwork, err)
	}
	return nil
}

// Available checks that the server answers on /api/tags.
func (o *Ollama) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
