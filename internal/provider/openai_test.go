package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saurabhnalepatil/free-ai-model-project/internal/config"
)

func TestOpenAI_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-3.5-turbo", req["model"])
		msgs, ok := req["messages"].([]any)
		require.True(t, ok)
		assert.Len(t, msgs, 2)

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Hello!"}, "finish_reason": "stop"}]
		}`)
	}))
	defer srv.Close()

	o := NewOpenAI("test-key", srv.URL+"/v1", "gpt-3.5-turbo")
	out, err := o.Generate(context.Background(), testConversation(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "Hello!", out)
}

func TestOpenAI_AuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`)
	}))
	defer srv.Close()

	o := NewOpenAI("bad-key", srv.URL+"/v1", "gpt-3.5-turbo")
	_, err := o.Generate(context.Background(), testConversation(), Options{})
	require.Error(t, err)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrAuth, perr.Kind)
}

func TestOpenAI_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": "chatcmpl-1", "object": "chat.completion", "choices": []}`)
	}))
	defer srv.Close()

	o := NewOpenAI("test-key", srv.URL+"/v1", "gpt-3.5-turbo")
	_, err := o.Generate(context.Background(), testConversation(), Options{})
	require.Error(t, err)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ErrBadResponse, perr.Kind)
}

func TestOpenAI_Stream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"lo\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	o := NewOpenAI("test-key", srv.URL+"/v1", "gpt-3.5-turbo")
	var got string
	err := o.Stream(context.Background(), testConversation(), Options{}, func(chunk string) error {
		got += chunk
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello", got)
}

func TestNew_SelectsProvider(t *testing.T) {
	cases := []struct {
		provider string
		want     string
	}{
		{"ollama", "ollama"},
		{"huggingface", "huggingface"},
		{"openai", "openai"},
	}
	for _, tc := range cases {
		p, err := New(config.LLMConfig{Provider: tc.provider, Model: "m"})
		require.NoError(t, err)
		assert.Equal(t, tc.want, p.Name())
	}

	_, err := New(config.LLMConfig{Provider: "bogus"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}
