package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saurabhnalepatil/free-ai-model-project/internal/config"
	"github.com/saurabhnalepatil/free-ai-model-project/internal/history"
	"github.com/saurabhnalepatil/free-ai-model-project/internal/provider"
	"github.com/saurabhnalepatil/free-ai-model-project/pkg/tools"
)

// mockProvider returns canned responses in order and records the
// conversations it was called with.
type mockProvider struct {
	responses []string
	err       error
	requests  [][]history.Message
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Generate(_ context.Context, msgs []history.Message, _ provider.Options) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.requests = append(m.requests, msgs)
	if len(m.responses) == 0 {
		panic("mockProvider: no more responses configured")
	}
	resp := m.responses[0]
	m.responses = m.responses[1:]
	return resp, nil
}

func (m *mockProvider) Stream(ctx context.Context, msgs []history.Message, opts provider.Options, fn provider.StreamFunc) error {
	resp, err := m.Generate(ctx, msgs, opts)
	if err != nil {
		return err
	}
	return fn(resp)
}

func (m *mockProvider) Available(context.Context) bool { return true }

type echoTool struct{}

func (echoTool) Name() string                { return "echo" }
func (echoTool) Description() string         { return "Echoes its input" }
func (echoTool) Parameters() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }

func (echoTool) Run(_ context.Context, args map[string]string) (map[string]any, error) {
	return map[string]any{"echo": args["value"]}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		LLM:   config.LLMConfig{Model: "test-model", Temperature: 0.7},
		Agent: config.AgentConfig{MaxHistory: 10, MaxTurns: 5},
	}
}

func TestChat_DirectAnswer(t *testing.T) {
	mock := &mockProvider{responses: []string{"Hello, I am a helpful AI."}}
	a := New(mock, tools.NewManager(), nil, testConfig(), "s1")

	out, err := a.Chat(context.Background(), "User says hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello, I am a helpful AI.", out)

	// system + user on the first call.
	require.Len(t, mock.requests, 1)
	assert.Equal(t, history.RoleSystem, mock.requests[0][0].Role)
	assert.Equal(t, "User says hi", mock.requests[0][1].Content)
}

func TestChat_ToolLoop(t *testing.T) {
	tm := tools.NewManager()
	tm.Register(echoTool{})

	mock := &mockProvider{responses: []string{
		"Let me check. TOOL_CALL: echo(value=ping)",
		"The tool said ping.",
	}}
	a := New(mock, tm, nil, testConfig(), "s1")

	out, err := a.Chat(context.Background(), "run the tool")
	require.NoError(t, err)
	assert.Equal(t, "The tool said ping.", out)

	// Second model call must include the tool result in history.
	require.Len(t, mock.requests, 2)
	second := mock.requests[1]
	last := second[len(second)-1]
	assert.Equal(t, history.RoleTool, last.Role)
	assert.Contains(t, last.Content, `"echo": "ping"`)
}

func TestChat_UnknownToolReported(t *testing.T) {
	tm := tools.NewManager()
	tm.Register(echoTool{})

	mock := &mockProvider{responses: []string{
		"TOOL_CALL: bogus(x=1)",
		"Sorry, that tool does not exist.",
	}}
	a := New(mock, tm, nil, testConfig(), "s1")

	out, err := a.Chat(context.Background(), "try it")
	require.NoError(t, err)
	assert.Equal(t, "Sorry, that tool does not exist.", out)

	second := mock.requests[1]
	last := second[len(second)-1]
	assert.Contains(t, last.Content, "Error executing bogus")
}

func TestChat_ProviderErrorSurfaces(t *testing.T) {
	mock := &mockProvider{err: context.DeadlineExceeded}
	a := New(mock, tools.NewManager(), nil, testConfig(), "s1")

	_, err := a.Chat(context.Background(), "hi")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestChat_MaxTurnsExceeded(t *testing.T) {
	tm := tools.NewManager()
	tm.Register(echoTool{})

	cfg := testConfig()
	cfg.Agent.MaxTurns = 2
	// The model keeps asking for tools and never settles on an answer.
	mock := &mockProvider{responses: []string{
		"TOOL_CALL: echo(value=a)",
		"TOOL_CALL: echo(value=b)",
		"TOOL_CALL: echo(value=c)",
	}}
	a := New(mock, tm, nil, cfg, "s1")

	_, err := a.Chat(context.Background(), "loop forever")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum interaction turns")
}

func TestChat_ToolMarkerWithoutToolsIsPlainText(t *testing.T) {
	mock := &mockProvider{responses: []string{"TOOL_CALL: echo(value=1)"}}
	a := New(mock, tools.NewManager(), nil, testConfig(), "s1")

	out, err := a.Chat(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "TOOL_CALL: echo(value=1)", out)
}

func TestChatStream_ToolTrailer(t *testing.T) {
	tm := tools.NewManager()
	tm.Register(echoTool{})

	mock := &mockProvider{responses: []string{"TOOL_CALL: echo(value=hi)"}}
	a := New(mock, tm, nil, testConfig(), "s1")

	var got string
	err := a.ChatStream(context.Background(), "stream it", func(chunk string) error {
		got += chunk
		return nil
	})
	require.NoError(t, err)
	assert.Contains(t, got, "TOOL_CALL: echo(value=hi)")
	assert.Contains(t, got, `"echo": "hi"`)
}

func TestChat_PersistsTurns(t *testing.T) {
	store := history.OpenStore(t.TempDir() + "/h.db")
	defer store.Close()

	mock := &mockProvider{responses: []string{"answer"}}
	a := New(mock, tools.NewManager(), store, testConfig(), "sess")

	_, err := a.Chat(context.Background(), "question")
	require.NoError(t, err)

	msgs := store.List("sess")
	require.Len(t, msgs, 2)
	assert.Equal(t, history.RoleUser, msgs[0].Role)
	assert.Equal(t, "question", msgs[0].Content)
	assert.Equal(t, history.RoleAssistant, msgs[1].Role)
}

func TestNew_ReplaysPersistedSession(t *testing.T) {
	store := history.OpenStore(t.TempDir() + "/h.db")
	defer store.Close()
	store.Append(history.NewMessage("sess", history.RoleUser, "earlier question"))
	store.Append(history.NewMessage("sess", history.RoleAssistant, "earlier answer"))

	mock := &mockProvider{responses: []string{"with context"}}
	a := New(mock, tools.NewManager(), store, testConfig(), "sess")

	_, err := a.Chat(context.Background(), "follow-up")
	require.NoError(t, err)

	sent := mock.requests[0]
	require.Len(t, sent, 4) // system + 2 replayed + new user message
	assert.Equal(t, "earlier question", sent[1].Content)
	assert.Equal(t, "follow-up", sent[3].Content)
}

func TestClearHistory(t *testing.T) {
	mock := &mockProvider{responses: []string{"one", "two"}}
	a := New(mock, tools.NewManager(), nil, testConfig(), "s1")

	_, err := a.Chat(context.Background(), "first")
	require.NoError(t, err)
	a.ClearHistory()

	_, err = a.Chat(context.Background(), "second")
	require.NoError(t, err)

	// After clearing, the next request starts fresh: system + user only.
	require.Len(t, mock.requests, 2)
	assert.Len(t, mock.requests[1], 2)
}

func TestInfo(t *testing.T) {
	tm := tools.NewManager()
	tm.Register(echoTool{})

	a := New(&mockProvider{}, tm, nil, testConfig(), "s1")
	info := a.Info()
	assert.Equal(t, "mock", info["provider"])
	assert.Equal(t, "test-model", info["model"])
	assert.Equal(t, []string{"echo"}, info["tools"])
	assert.Equal(t, 1, info["conversation_length"]) // system prompt only
}

func TestBuildSystemPrompt_ToolCatalog(t *testing.T) {
	tm := tools.NewManager()
	tm.Register(echoTool{})

	prompt := buildSystemPrompt("", tm.List())
	assert.Contains(t, prompt, defaultSystemPrompt)
	assert.Contains(t, prompt, "- echo: Echoes its input")
	assert.Contains(t, prompt, "TOOL_CALL:")
}
