// Package agent implements the conversation orchestrator: it forwards user
// input plus history to the active model provider, executes requested tools,
// and persists every turn.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/qmuntal/stateless"

	"github.com/saurabhnalepatil/free-ai-model-project/internal/config"
	"github.com/saurabhnalepatil/free-ai-model-project/internal/history"
	"github.com/saurabhnalepatil/free-ai-model-project/internal/logger"
	"github.com/saurabhnalepatil/free-ai-model-project/internal/provider"
	"github.com/saurabhnalepatil/free-ai-model-project/pkg/tools"
)

// FSM states for one chat turn.
var (
	stateCallModel stateless.State = "CallModel"
	stateRunTools  stateless.State = "RunTools"
	stateDone      stateless.State = "Done"
	stateError     stateless.State = "Error"
)

// FSM triggers.
var (
	triggerStart          stateless.Trigger = "Start"
	triggerModelAnswered  stateless.Trigger = "ModelAnswered"
	triggerToolsRequested stateless.Trigger = "ToolsRequested"
	triggerToolsCompleted stateless.Trigger = "ToolsCompleted"
	triggerErrorOccurred  stateless.Trigger = "ErrorOccurred"
)

const defaultSystemPrompt = "You are a helpful AI assistant."

// Agent owns one conversation and mediates between the provider, the tool
// registry and the persistent store.
type Agent struct {
	provider  provider.Provider
	tools     *tools.Manager
	memory    *history.Memory
	store     *history.Store
	sessionID string
	model     string
	sysPrompt string
	opts      provider.Options
	maxTurns  int
}

// New creates an agent for the given session. Previously persisted turns of
// the session are replayed into the context window so conversations survive
// restarts. A nil store disables persistence; a nil or empty manager disables
// tools.
func New(p provider.Provider, tm *tools.Manager, store *history.Store, cfg *config.Config, sessionID string) *Agent {
	if tm == nil {
		tm = tools.NewManager()
	}
	a := &Agent{
		provider:  p,
		tools:     tm,
		memory:    history.NewMemory(cfg.Agent.MaxHistory),
		store:     store,
		sessionID: sessionID,
		model:     cfg.LLM.Model,
		opts:      provider.Options{Temperature: cfg.LLM.Temperature},
		maxTurns:  cfg.Agent.MaxTurns,
	}
	if a.maxTurns < 1 {
		a.maxTurns = 5
	}

	a.sysPrompt = buildSystemPrompt(cfg.LLM.SystemPrompt, tm.List())
	a.memory.Add(history.RoleSystem, a.sysPrompt)

	if store != nil {
		for _, msg := range store.List(sessionID) {
			if msg.Role == history.RoleSystem {
				continue
			}
			a.memory.Add(msg.Role, msg.Content)
		}
	}
	return a
}

// buildSystemPrompt appends the tool catalog and invocation instructions to
// the base prompt when tools are registered.
func buildSystemPrompt(base string, available []tools.Tool) string {
	if base == "" {
		base = defaultSystemPrompt
	}
	if len(available) == 0 {
		return base
	}

	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\nYou have access to the following tools:\n")
	for _, t := range available {
		fmt.Fprintf(&b, "- %s: %s\n", t.Name(), t.Description())
	}
	b.WriteString("\nWhen you need to use a tool, respond with: TOOL_CALL: tool_name(param=value)")
	return b.String()
}

// record appends a message to the context window and the persistent store.
func (a *Agent) record(role, content string) {
	a.memory.Add(role, content)
	if a.store != nil {
		a.store.Append(history.NewMessage(a.sessionID, role, content))
	}
}

// turnState carries the progress of one chat turn through the FSM.
type turnState struct {
	response  string // latest model response
	final     string
	lastErr   error
	turn      int
	toolCalls []toolCall
}

// Chat sends user input through the model/tool loop and returns the final
// assistant text. Provider failures surface as the returned error; tool
// failures are reported back to the model, never to the process.
func (a *Agent) Chat(ctx context.Context, text string) (string, error) {
	a.record(history.RoleUser, text)

	ts := &turnState{}
	fsm := stateless.NewStateMachine(stateCallModel)

	fsm.Configure(stateCallModel).
		OnEntry(func(ctx context.Context, _ ...any) error {
			if ts.turn >= a.maxTurns {
				ts.lastErr = errors.New("exceeded maximum interaction turns")
				return fsm.FireCtx(ctx, triggerErrorOccurred)
			}
			ts.turn++
			logger.L.Debug("calling model", "provider", a.provider.Name(), "turn", ts.turn)

			resp, err := a.provider.Generate(ctx, a.memory.Messages(), a.opts)
			if err != nil {
				ts.lastErr = err
				return fsm.FireCtx(ctx, triggerErrorOccurred)
			}
			ts.response = resp

			if a.tools.Len() > 0 && hasToolCall(resp) {
				if calls := parseToolCalls(resp); len(calls) > 0 {
					ts.toolCalls = calls
					return fsm.FireCtx(ctx, triggerToolsRequested)
				}
			}
			return fsm.FireCtx(ctx, triggerModelAnswered)
		}).
		PermitReentry(triggerStart).
		PermitReentry(triggerToolsCompleted).
		Permit(triggerToolsRequested, stateRunTools).
		Permit(triggerModelAnswered, stateDone).
		Permit(triggerErrorOccurred, stateError)

	fsm.Configure(stateRunTools).
		OnEntry(func(ctx context.Context, _ ...any) error {
			a.record(history.RoleAssistant, ts.response)

			results := a.executeToolCalls(ctx, ts.toolCalls)
			ts.toolCalls = nil
			a.record(history.RoleTool, strings.Join(results, "\n"))
			return fsm.FireCtx(ctx, triggerToolsCompleted)
		}).
		Permit(triggerToolsCompleted, stateCallModel).
		Permit(triggerErrorOccurred, stateError)

	fsm.Configure(stateDone).
		OnEntry(func(_ context.Context, _ ...any) error {
			ts.final = ts.response
			return nil
		})

	fsm.Configure(stateError).
		OnEntry(func(_ context.Context, _ ...any) error {
			if ts.lastErr == nil {
				ts.lastErr = errors.New("chat turn failed without a specific error")
			}
			return nil
		})

	// Reentry on the start trigger runs the initial state's OnEntry, which
	// drives the whole turn synchronously.
	if err := fsm.FireCtx(ctx, triggerStart); err != nil && ts.lastErr == nil {
		return "", fmt.Errorf("chat state machine: %w", err)
	}

	state, err := fsm.State(ctx)
	if err != nil {
		return "", fmt.Errorf("chat state machine: %w", err)
	}
	switch state {
	case stateDone:
		a.record(history.RoleAssistant, ts.final)
		return ts.final, nil
	case stateError:
		return "", ts.lastErr
	default:
		return "", fmt.Errorf("chat turn ended in unexpected state %v", state)
	}
}

// ChatStream streams the model response through fn as it arrives. Tool calls
// detected in the complete response are executed afterwards and their results
// streamed as a trailing chunk; there is no second model pass in streaming
// mode.
func (a *Agent) ChatStream(ctx context.Context, text string, fn provider.StreamFunc) error {
	a.record(history.RoleUser, text)

	var full strings.Builder
	err := a.provider.Stream(ctx, a.memory.Messages(), a.opts, func(chunk string) error {
		full.WriteString(chunk)
		return fn(chunk)
	})
	if err != nil {
		return err
	}

	response := full.String()
	if a.tools.Len() > 0 && hasToolCall(response) {
		if calls := parseToolCalls(response); len(calls) > 0 {
			results := a.executeToolCalls(ctx, calls)
			trailer := "\n\n" + strings.Join(results, "\n")
			if err := fn(trailer); err != nil {
				return err
			}
			response += trailer
		}
	}

	a.record(history.RoleAssistant, response)
	return nil
}

// executeToolCalls runs every requested tool. Failures become error strings
// in the result list so the model can react to them.
func (a *Agent) executeToolCalls(ctx context.Context, calls []toolCall) []string {
	results := make([]string, 0, len(calls))
	for _, call := range calls {
		logger.L.Debug("executing tool", "tool", call.Name, "args", call.Args)

		result, err := a.tools.Execute(ctx, call.Name, call.Args)
		if err != nil {
			logger.L.Warn("tool execution failed", "tool", call.Name, "error", err)
			results = append(results, fmt.Sprintf("Error executing %s: %v", call.Name, err))
			continue
		}
		encoded, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			results = append(results, fmt.Sprintf("Error executing %s: result could not be encoded", call.Name))
			continue
		}
		results = append(results, fmt.Sprintf("Tool %s result: %s", call.Name, encoded))
	}
	return results
}

// ClearHistory drops the conversation, keeping only the system prompt. The
// persisted session is cleared as well.
func (a *Agent) ClearHistory() {
	a.memory.Clear()
	a.memory.Add(history.RoleSystem, a.sysPrompt)
	if a.store != nil {
		a.store.Clear(a.sessionID)
	}
}

// SaveConversation writes the current context window to a JSON file.
func (a *Agent) SaveConversation(path string) error {
	return a.memory.SaveFile(path)
}

// LoadConversation replaces the context window with a previously saved file.
func (a *Agent) LoadConversation(path string) error {
	return a.memory.LoadFile(path)
}

// SessionID returns the session this agent owns.
func (a *Agent) SessionID() string { return a.sessionID }

// Available reports whether the active provider looks usable.
func (a *Agent) Available(ctx context.Context) bool {
	return a.provider.Available(ctx)
}

// Info describes the agent's configuration and conversation size.
func (a *Agent) Info() map[string]any {
	names := make([]string, 0, a.tools.Len())
	for _, t := range a.tools.List() {
		names = append(names, t.Name())
	}
	return map[string]any{
		"provider":            a.provider.Name(),
		"model":               a.model,
		"session_id":          a.sessionID,
		"tools":               names,
		"conversation_length": a.memory.Len(),
	}
}
